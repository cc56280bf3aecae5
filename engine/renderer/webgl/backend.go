//go:build js && wasm

// Package webgl implements the renderer backend on a WebGL 2 context. WebGL
// hands out JavaScript objects instead of integer names, so the backend keeps
// tables mapping the integer handles the renderer uses to those objects.
package webgl

import (
	"fmt"
	"syscall/js"
	"unsafe"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

const invalidIndex = 0xFFFFFFFF

type locationKey struct {
	program uint32
	name    string
}

type Backend struct {
	gl js.Value

	next    uint32
	objects map[uint32]js.Value

	locations     []js.Value
	locationIndex map[locationKey]int32

	compileStatus int
	linkStatus    int
	activeUniform int
	activeAttrib  int
}

var _ renderer.Backend = (*Backend)(nil)

/**
 * @brief Creates a WebGL 2 context on canvas.
 * @param canvas An HTMLCanvasElement.
 * @return The backend, or an error when the browser has no WebGL 2.
 */
func New(canvas js.Value) (*Backend, error) {
	gl := canvas.Call("getContext", "webgl2", map[string]any{"antialias": true, "depth": true})
	if gl.IsNull() || gl.IsUndefined() {
		return nil, fmt.Errorf("%w: webgl2 is not available", core.ErrNoContext)
	}
	b := &Backend{
		gl:            gl,
		next:          1,
		objects:       make(map[uint32]js.Value),
		locationIndex: make(map[locationKey]int32),
		compileStatus: gl.Get("COMPILE_STATUS").Int(),
		linkStatus:    gl.Get("LINK_STATUS").Int(),
		activeUniform: gl.Get("ACTIVE_UNIFORMS").Int(),
		activeAttrib:  gl.Get("ACTIVE_ATTRIBUTES").Int(),
	}
	core.LogInfo("WebGL %s", gl.Call("getParameter", gl.Get("VERSION")).String())
	return b, nil
}

func (b *Backend) store(v js.Value) uint32 {
	if v.IsNull() || v.IsUndefined() {
		return 0
	}
	h := b.next
	b.next++
	b.objects[h] = v
	return h
}

func (b *Backend) object(h uint32) js.Value {
	if v, ok := b.objects[h]; ok {
		return v
	}
	return js.Null()
}

func (b *Backend) release(h uint32) js.Value {
	v := b.object(h)
	delete(b.objects, h)
	return v
}

func bytesToJS(data []byte) js.Value {
	array := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(array, data)
	return array
}

func typedArray[T float32 | int32 | uint32](kind string, v []T) js.Value {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
	return js.Global().Get(kind).New(bytesToJS(raw).Get("buffer"))
}

func (b *Backend) Type() renderer.RendererType {
	return renderer.WebGL
}

func (b *Backend) ShadingLanguageHeader() string {
	return "#version 300 es\nprecision highp float;\nprecision highp int;\n"
}

func (b *Backend) CompileShader(stage metadata.ShaderStage, source string) (uint32, error) {
	shader := b.gl.Call("createShader", int(stage))
	b.gl.Call("shaderSource", shader, source)
	b.gl.Call("compileShader", shader)
	if !b.gl.Call("getShaderParameter", shader, b.compileStatus).Bool() {
		msg := b.gl.Call("getShaderInfoLog", shader).String()
		b.gl.Call("deleteShader", shader)
		return 0, fmt.Errorf("%s", msg)
	}
	return b.store(shader), nil
}

func (b *Backend) DeleteShader(shader uint32) {
	if shader != 0 {
		b.gl.Call("deleteShader", b.release(shader))
	}
}

func (b *Backend) LinkProgram(shaders ...uint32) (uint32, error) {
	program := b.gl.Call("createProgram")
	for _, shader := range shaders {
		b.gl.Call("attachShader", program, b.object(shader))
	}
	b.gl.Call("linkProgram", program)
	for _, shader := range shaders {
		b.gl.Call("detachShader", program, b.object(shader))
	}
	if !b.gl.Call("getProgramParameter", program, b.linkStatus).Bool() {
		msg := b.gl.Call("getProgramInfoLog", program).String()
		b.gl.Call("deleteProgram", program)
		return 0, fmt.Errorf("%s", msg)
	}
	return b.store(program), nil
}

func (b *Backend) DeleteProgram(program uint32) {
	if program == 0 {
		return
	}
	b.gl.Call("deleteProgram", b.release(program))
	for key := range b.locationIndex {
		if key.program == program {
			delete(b.locationIndex, key)
		}
	}
}

func (b *Backend) UseProgram(program uint32) {
	b.gl.Call("useProgram", b.object(program))
}

func (b *Backend) ActiveUniformCount(program uint32) int32 {
	return int32(b.gl.Call("getProgramParameter", b.object(program), b.activeUniform).Int())
}

// WebGL has no max length query, the longest name is measured instead.
func (b *Backend) ActiveUniformMaxLength(program uint32) int32 {
	return b.maxLength(program, b.ActiveUniformCount(program), "getActiveUniform")
}

func (b *Backend) ActiveUniform(program uint32, index uint32, buf []byte) (string, int32, uint32) {
	return b.activeInfo(program, index, buf, "getActiveUniform")
}

func (b *Backend) ActiveAttributeCount(program uint32) int32 {
	return int32(b.gl.Call("getProgramParameter", b.object(program), b.activeAttrib).Int())
}

func (b *Backend) ActiveAttributeMaxLength(program uint32) int32 {
	return b.maxLength(program, b.ActiveAttributeCount(program), "getActiveAttrib")
}

func (b *Backend) ActiveAttribute(program uint32, index uint32, buf []byte) (string, int32, uint32) {
	return b.activeInfo(program, index, buf, "getActiveAttrib")
}

func (b *Backend) maxLength(program uint32, count int32, query string) int32 {
	longest := 0
	for i := int32(0); i < count; i++ {
		info := b.gl.Call(query, b.object(program), i)
		if !info.IsNull() {
			longest = max(longest, len(info.Get("name").String())+1)
		}
	}
	return int32(longest)
}

func (b *Backend) activeInfo(program uint32, index uint32, buf []byte, query string) (string, int32, uint32) {
	info := b.gl.Call(query, b.object(program), index)
	if info.IsNull() || len(buf) == 0 {
		return "", 0, 0
	}
	n := copy(buf[:len(buf)-1], info.Get("name").String())
	return string(buf[:n]), int32(info.Get("size").Int()), uint32(info.Get("type").Int())
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	key := locationKey{program, name}
	if index, ok := b.locationIndex[key]; ok {
		return index
	}
	location := b.gl.Call("getUniformLocation", b.object(program), name)
	if location.IsNull() {
		return -1
	}
	index := int32(len(b.locations))
	b.locations = append(b.locations, location)
	b.locationIndex[key] = index
	return index
}

func (b *Backend) AttributeLocation(program uint32, name string) int32 {
	return int32(b.gl.Call("getAttribLocation", b.object(program), name).Int())
}

func (b *Backend) UniformBlockBinding(program uint32, block string, binding uint32) bool {
	index := b.gl.Call("getUniformBlockIndex", b.object(program), block).Int()
	if index == invalidIndex {
		return false
	}
	b.gl.Call("uniformBlockBinding", b.object(program), index, binding)
	return true
}

func (b *Backend) CreateBuffer() uint32 {
	return b.store(b.gl.Call("createBuffer"))
}

func (b *Backend) DeleteBuffer(buffer uint32) {
	if buffer != 0 {
		b.gl.Call("deleteBuffer", b.release(buffer))
	}
}

func (b *Backend) BindBuffer(target uint32, buffer uint32) {
	b.gl.Call("bindBuffer", target, b.object(buffer))
}

func (b *Backend) BufferData(target uint32, data []byte, usage uint32) {
	b.gl.Call("bufferData", target, bytesToJS(data), usage)
}

func (b *Backend) BufferStorage(target uint32, size int, usage uint32) {
	b.gl.Call("bufferData", target, size, usage)
}

func (b *Backend) BufferSubData(target uint32, offset int, data []byte) {
	b.gl.Call("bufferSubData", target, offset, bytesToJS(data))
}

func (b *Backend) BindBufferBase(target uint32, index uint32, buffer uint32) {
	b.gl.Call("bindBufferBase", target, index, b.object(buffer))
}

func (b *Backend) CreateVertexArray() uint32 {
	return b.store(b.gl.Call("createVertexArray"))
}

func (b *Backend) DeleteVertexArray(array uint32) {
	if array != 0 {
		b.gl.Call("deleteVertexArray", b.release(array))
	}
}

func (b *Backend) BindVertexArray(array uint32) {
	b.gl.Call("bindVertexArray", b.object(array))
}

func (b *Backend) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	b.gl.Call("vertexAttribPointer", index, size, typ, normalized, stride, offset)
}

func (b *Backend) VertexAttribIPointer(index uint32, size int32, typ uint32, stride int32, offset int) {
	b.gl.Call("vertexAttribIPointer", index, size, typ, stride, offset)
}

func (b *Backend) EnableVertexAttribArray(index uint32) {
	b.gl.Call("enableVertexAttribArray", index)
}

func (b *Backend) location(location int32) js.Value {
	if location < 0 || int(location) >= len(b.locations) {
		return js.Null()
	}
	return b.locations[location]
}

func (b *Backend) Uniform1fv(location int32, v []float32) {
	b.gl.Call("uniform1fv", b.location(location), typedArray("Float32Array", v))
}

func (b *Backend) Uniform2fv(location int32, v []float32) {
	b.gl.Call("uniform2fv", b.location(location), typedArray("Float32Array", v))
}

func (b *Backend) Uniform3fv(location int32, v []float32) {
	b.gl.Call("uniform3fv", b.location(location), typedArray("Float32Array", v))
}

func (b *Backend) Uniform4fv(location int32, v []float32) {
	b.gl.Call("uniform4fv", b.location(location), typedArray("Float32Array", v))
}

func (b *Backend) Uniform1iv(location int32, v []int32) {
	b.gl.Call("uniform1iv", b.location(location), typedArray("Int32Array", v))
}

func (b *Backend) Uniform2iv(location int32, v []int32) {
	b.gl.Call("uniform2iv", b.location(location), typedArray("Int32Array", v))
}

func (b *Backend) Uniform3iv(location int32, v []int32) {
	b.gl.Call("uniform3iv", b.location(location), typedArray("Int32Array", v))
}

func (b *Backend) Uniform4iv(location int32, v []int32) {
	b.gl.Call("uniform4iv", b.location(location), typedArray("Int32Array", v))
}

func (b *Backend) Uniform1uiv(location int32, v []uint32) {
	b.gl.Call("uniform1uiv", b.location(location), typedArray("Uint32Array", v))
}

func (b *Backend) Uniform2uiv(location int32, v []uint32) {
	b.gl.Call("uniform2uiv", b.location(location), typedArray("Uint32Array", v))
}

func (b *Backend) Uniform3uiv(location int32, v []uint32) {
	b.gl.Call("uniform3uiv", b.location(location), typedArray("Uint32Array", v))
}

func (b *Backend) Uniform4uiv(location int32, v []uint32) {
	b.gl.Call("uniform4uiv", b.location(location), typedArray("Uint32Array", v))
}

func (b *Backend) UniformMatrix4fv(location int32, v []float32) {
	b.gl.Call("uniformMatrix4fv", b.location(location), false, typedArray("Float32Array", v))
}

func (b *Backend) DrawArrays(mode uint32, first int32, count int32) {
	b.gl.Call("drawArrays", mode, first, count)
}

func (b *Backend) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	b.gl.Call("drawElements", mode, count, typ, offset)
}

func (b *Backend) Viewport(x, y, width, height int32) {
	b.gl.Call("viewport", x, y, width, height)
}

func (b *Backend) ClearColor(red, green, blue, alpha float32) {
	b.gl.Call("clearColor", red, green, blue, alpha)
}

func (b *Backend) Clear(mask uint32) {
	b.gl.Call("clear", mask)
}

func (b *Backend) Enable(capability uint32) {
	b.gl.Call("enable", capability)
}

func (b *Backend) GetError() uint32 {
	return uint32(b.gl.Call("getError").Int())
}
