//go:build !js

// Package opengl implements the renderer backend on desktop OpenGL 3.3 core
// through go-gl. The platform layer creates the context, Init loads the
// function pointers for it.
package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

type Backend struct{}

var _ renderer.Backend = (*Backend)(nil)

/**
 * @brief Loads the OpenGL entry points of the current context.
 * @return The backend, or an error when no usable context is current.
 */
func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNoContext, err)
	}
	core.LogInfo("OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Backend{}, nil
}

func (b *Backend) Type() renderer.RendererType {
	return renderer.OpenGL
}

func (b *Backend) ShadingLanguageHeader() string {
	return "#version 330 core\n"
}

func (b *Backend) CompileShader(stage metadata.ShaderStage, source string) (uint32, error) {
	shader := gl.CreateShader(uint32(stage))
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", strings.TrimRight(msg, "\x00\n"))
	}
	return shader, nil
}

func (b *Backend) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (b *Backend) LinkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, shader := range shaders {
		gl.AttachShader(program, shader)
	}
	gl.LinkProgram(program)
	for _, shader := range shaders {
		gl.DetachShader(program, shader)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%s", strings.TrimRight(msg, "\x00\n"))
	}
	return program, nil
}

func (b *Backend) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (b *Backend) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (b *Backend) programInt(program uint32, pname uint32) int32 {
	var value int32
	gl.GetProgramiv(program, pname, &value)
	return value
}

func (b *Backend) ActiveUniformCount(program uint32) int32 {
	return b.programInt(program, gl.ACTIVE_UNIFORMS)
}

func (b *Backend) ActiveUniformMaxLength(program uint32) int32 {
	return b.programInt(program, gl.ACTIVE_UNIFORM_MAX_LENGTH)
}

func (b *Backend) ActiveUniform(program uint32, index uint32, buf []byte) (string, int32, uint32) {
	if len(buf) == 0 {
		return "", 0, 0
	}
	var length, size int32
	var typ uint32
	gl.GetActiveUniform(program, index, int32(len(buf)), &length, &size, &typ, &buf[0])
	return string(buf[:length]), size, typ
}

func (b *Backend) ActiveAttributeCount(program uint32) int32 {
	return b.programInt(program, gl.ACTIVE_ATTRIBUTES)
}

func (b *Backend) ActiveAttributeMaxLength(program uint32) int32 {
	return b.programInt(program, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH)
}

func (b *Backend) ActiveAttribute(program uint32, index uint32, buf []byte) (string, int32, uint32) {
	if len(buf) == 0 {
		return "", 0, 0
	}
	var length, size int32
	var typ uint32
	gl.GetActiveAttrib(program, index, int32(len(buf)), &length, &size, &typ, &buf[0])
	return string(buf[:length]), size, typ
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) AttributeLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) UniformBlockBinding(program uint32, block string, binding uint32) bool {
	index := gl.GetUniformBlockIndex(program, gl.Str(block+"\x00"))
	if index == gl.INVALID_INDEX {
		return false
	}
	gl.UniformBlockBinding(program, index, binding)
	return true
}

func (b *Backend) CreateBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

func (b *Backend) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (b *Backend) BindBuffer(target uint32, buffer uint32) {
	gl.BindBuffer(target, buffer)
}

func (b *Backend) BufferData(target uint32, data []byte, usage uint32) {
	if len(data) == 0 {
		gl.BufferData(target, 0, nil, usage)
		return
	}
	gl.BufferData(target, len(data), gl.Ptr(&data[0]), usage)
}

func (b *Backend) BufferStorage(target uint32, size int, usage uint32) {
	gl.BufferData(target, size, nil, usage)
}

func (b *Backend) BufferSubData(target uint32, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(target, offset, len(data), gl.Ptr(&data[0]))
}

func (b *Backend) BindBufferBase(target uint32, index uint32, buffer uint32) {
	gl.BindBufferBase(target, index, buffer)
}

func (b *Backend) CreateVertexArray() uint32 {
	var array uint32
	gl.GenVertexArrays(1, &array)
	return array
}

func (b *Backend) DeleteVertexArray(array uint32) {
	gl.DeleteVertexArrays(1, &array)
}

func (b *Backend) BindVertexArray(array uint32) {
	gl.BindVertexArray(array)
}

func (b *Backend) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, typ, normalized, stride, gl.PtrOffset(offset))
}

func (b *Backend) VertexAttribIPointer(index uint32, size int32, typ uint32, stride int32, offset int) {
	gl.VertexAttribIPointer(index, size, typ, stride, gl.PtrOffset(offset))
}

func (b *Backend) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (b *Backend) Uniform1fv(location int32, v []float32) { gl.Uniform1fv(location, 1, &v[0]) }
func (b *Backend) Uniform2fv(location int32, v []float32) { gl.Uniform2fv(location, 1, &v[0]) }
func (b *Backend) Uniform3fv(location int32, v []float32) { gl.Uniform3fv(location, 1, &v[0]) }
func (b *Backend) Uniform4fv(location int32, v []float32) { gl.Uniform4fv(location, 1, &v[0]) }
func (b *Backend) Uniform1iv(location int32, v []int32)   { gl.Uniform1iv(location, 1, &v[0]) }
func (b *Backend) Uniform2iv(location int32, v []int32)   { gl.Uniform2iv(location, 1, &v[0]) }
func (b *Backend) Uniform3iv(location int32, v []int32)   { gl.Uniform3iv(location, 1, &v[0]) }
func (b *Backend) Uniform4iv(location int32, v []int32)   { gl.Uniform4iv(location, 1, &v[0]) }
func (b *Backend) Uniform1uiv(location int32, v []uint32) { gl.Uniform1uiv(location, 1, &v[0]) }
func (b *Backend) Uniform2uiv(location int32, v []uint32) { gl.Uniform2uiv(location, 1, &v[0]) }
func (b *Backend) Uniform3uiv(location int32, v []uint32) { gl.Uniform3uiv(location, 1, &v[0]) }
func (b *Backend) Uniform4uiv(location int32, v []uint32) { gl.Uniform4uiv(location, 1, &v[0]) }

func (b *Backend) UniformMatrix4fv(location int32, v []float32) {
	gl.UniformMatrix4fv(location, 1, false, &v[0])
}

func (b *Backend) DrawArrays(mode uint32, first int32, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (b *Backend) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	gl.DrawElements(mode, count, typ, gl.PtrOffset(offset))
}

func (b *Backend) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (b *Backend) ClearColor(red, green, blue, alpha float32) {
	gl.ClearColor(red, green, blue, alpha)
}

func (b *Backend) Clear(mask uint32) {
	gl.Clear(mask)
}

func (b *Backend) Enable(capability uint32) {
	gl.Enable(capability)
}

func (b *Backend) GetError() uint32 {
	return gl.GetError()
}
