// Package rendertest provides a Backend that needs no GPU. It emulates
// compilation and reflection well enough for the renderer systems and records
// every state change and draw so tests can assert on them.
package rendertest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

var declaration = regexp.MustCompile(`^\s*(?:layout\s*\(([^)]*)\)\s*)?(uniform|in)\s+(?:(?:highp|mediump|lowp|flat)\s+)*(\w+)\s+(\w+)\s*(?:\[(\d+)\])?\s*;`)

var layoutLocation = regexp.MustCompile(`location\s*=\s*(\d+)`)

var extraTypes = map[string]uint32{
	"bool":      0x8B56,
	"mat2":      0x8B5A,
	"mat3":      0x8B5B,
	"sampler2D": 0x8B5E,
}

// Variable is a reflected uniform or attribute.
type Variable struct {
	Name     string
	Type     uint32
	Size     int32
	Location int32
}

// UniformCall records one Uniform* call.
type UniformCall struct {
	Program  uint32
	Location int32
	// Kind is the suffix of the GL entry point, for example "4fv".
	Kind   string
	Floats []float32
	Ints   []int32
	Uints  []uint32
}

// DrawCall records one draw together with the state it used.
type DrawCall struct {
	Program     uint32
	VertexArray uint32
	Mode        uint32
	First       int32
	Count       int32
	Indexed     bool
	IndexType   uint32
	Builtins    metadata.BuiltinUniforms
}

// AttribPointer records one vertex attribute setup.
type AttribPointer struct {
	VertexArray uint32
	Buffer      uint32
	Index       uint32
	Size        int32
	Type        uint32
	Normalized  bool
	Integer     bool
	Stride      int32
	Offset      int
}

type shader struct {
	stage  metadata.ShaderStage
	source string
}

type program struct {
	uniforms   []Variable
	attributes []Variable
	blocks     map[string]uint32
}

// Recorder implements renderer.Backend in memory.
type Recorder struct {
	// FailLink makes the next links fail.
	FailLink bool
	// DropBuiltins hides that many built-in block members from reflection.
	DropBuiltins int
	// Kind is reported by Type.
	Kind renderer.RendererType

	next     uint32
	shaders  map[uint32]*shader
	programs map[uint32]*program
	buffers  map[uint32][]byte
	arrays   map[uint32]struct{}

	bound      map[uint32]uint32
	bases      map[uint32]uint32
	boundArray uint32
	current    uint32

	Uniforms       []UniformCall
	Draws          []DrawCall
	AttribPointers []AttribPointer
	Enabled        map[uint32]bool
	EnabledArrays  map[uint32][]uint32

	ViewportSize [4]int32
	Clears       []uint32
	ClearValue   [4]float32

	DeletedBuffers  []uint32
	DeletedArrays   []uint32
	DeletedPrograms []uint32
	DeletedShaders  []uint32

	errors []uint32
}

var _ renderer.Backend = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		next:          1,
		shaders:       make(map[uint32]*shader),
		programs:      make(map[uint32]*program),
		buffers:       make(map[uint32][]byte),
		arrays:        make(map[uint32]struct{}),
		bound:         make(map[uint32]uint32),
		bases:         make(map[uint32]uint32),
		Enabled:       make(map[uint32]bool),
		EnabledArrays: make(map[uint32][]uint32),
	}
}

func (r *Recorder) handle() uint32 {
	h := r.next
	r.next++
	return h
}

// PushError queues an error code for GetError.
func (r *Recorder) PushError(code uint32) {
	r.errors = append(r.errors, code)
}

// ResetFrame forgets recorded uniform and draw calls.
func (r *Recorder) ResetFrame() {
	r.Uniforms = nil
	r.Draws = nil
}

// LiveBuffers returns the number of buffers not yet deleted.
func (r *Recorder) LiveBuffers() int { return len(r.buffers) }

// LiveVertexArrays returns the number of vertex arrays not yet deleted.
func (r *Recorder) LiveVertexArrays() int { return len(r.arrays) }

// LivePrograms returns the number of programs not yet deleted.
func (r *Recorder) LivePrograms() int { return len(r.programs) }

// LiveShaders returns the number of shader objects not yet deleted.
func (r *Recorder) LiveShaders() int { return len(r.shaders) }

// BufferContents returns the data stored in buffer.
func (r *Recorder) BufferContents(buffer uint32) []byte { return r.buffers[buffer] }

// UniformsAt returns the recorded calls for one location of the current
// frame, in call order.
func (r *Recorder) UniformsAt(program uint32, location int32) []UniformCall {
	var calls []UniformCall
	for _, c := range r.Uniforms {
		if c.Program == program && c.Location == location {
			calls = append(calls, c)
		}
	}
	return calls
}

func (r *Recorder) Type() renderer.RendererType { return r.Kind }

func (r *Recorder) ShadingLanguageHeader() string { return "#version 330 core\n" }

func (r *Recorder) CompileShader(stage metadata.ShaderStage, source string) (uint32, error) {
	for i, line := range strings.Split(source, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#error") {
			return 0, fmt.Errorf("0:%d(1): error: %s", i+1, strings.TrimSpace(line))
		}
	}
	h := r.handle()
	r.shaders[h] = &shader{stage: stage, source: source}
	return h, nil
}

func (r *Recorder) DeleteShader(s uint32) {
	if s == 0 {
		return
	}
	delete(r.shaders, s)
	r.DeletedShaders = append(r.DeletedShaders, s)
}

func (r *Recorder) LinkProgram(shaders ...uint32) (uint32, error) {
	if r.FailLink {
		return 0, fmt.Errorf("error: linking with uncompiled/unspecialized shader")
	}
	p := &program{blocks: make(map[string]uint32)}
	seen := map[string]bool{}
	withBlock := false
	for _, s := range shaders {
		sh, ok := r.shaders[s]
		if !ok {
			return 0, fmt.Errorf("error: shader %d does not exist", s)
		}
		if strings.Contains(sh.source, "uniform "+metadata.BuiltinBlockName+" {") {
			withBlock = true
		}
		for _, line := range strings.Split(sh.source, "\n") {
			m := declaration.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			v, ok := variable(m)
			if !ok || seen[m[2]+v.Name] {
				continue
			}
			switch {
			case m[2] == "uniform":
				seen[m[2]+v.Name] = true
				p.uniforms = append(p.uniforms, v)
			case sh.stage == metadata.ShaderStageVertex:
				seen[m[2]+v.Name] = true
				v.Location = int32(len(p.attributes))
				if l := layoutLocation.FindStringSubmatch(m[1]); l != nil {
					n, _ := strconv.Atoi(l[1])
					v.Location = int32(n)
				}
				p.attributes = append(p.attributes, v)
			}
		}
	}
	if withBlock {
		builtins := []Variable{
			{Name: "model", Type: uint32(metadata.GLSLTypeMat4)},
			{Name: "view", Type: uint32(metadata.GLSLTypeMat4)},
			{Name: "projection", Type: uint32(metadata.GLSLTypeMat4)},
			{Name: "resolution", Type: uint32(metadata.GLSLTypeVec2)},
			{Name: "time", Type: uint32(metadata.GLSLTypeFloat)},
			{Name: "delta_time", Type: uint32(metadata.GLSLTypeFloat)},
		}
		builtins = builtins[:len(builtins)-min(r.DropBuiltins, len(builtins))]
		for i := range builtins {
			builtins[i].Size = 1
			builtins[i].Location = -1
		}
		p.uniforms = append(builtins, p.uniforms...)
		p.blocks[metadata.BuiltinBlockName] = 0
	}
	next := int32(0)
	for i := range p.uniforms {
		if p.uniforms[i].Location == -1 {
			continue
		}
		p.uniforms[i].Location = next
		next += p.uniforms[i].Size
	}
	h := r.handle()
	r.programs[h] = p
	return h, nil
}

func variable(m []string) (Variable, bool) {
	typ, ok := uint32(0), false
	if t, found := metadata.GLSLTypeByName(m[3]); found {
		typ, ok = uint32(t), true
	} else if t, found := extraTypes[m[3]]; found {
		typ, ok = t, true
	}
	if !ok {
		return Variable{}, false
	}
	v := Variable{Name: m[4], Type: typ, Size: 1}
	if m[5] != "" {
		n, _ := strconv.Atoi(m[5])
		v.Name += "[0]"
		v.Size = int32(n)
	}
	return v, true
}

func (r *Recorder) DeleteProgram(p uint32) {
	if p == 0 {
		return
	}
	delete(r.programs, p)
	r.DeletedPrograms = append(r.DeletedPrograms, p)
}

func (r *Recorder) UseProgram(p uint32) { r.current = p }

func (r *Recorder) ActiveUniformCount(p uint32) int32 {
	if prog, ok := r.programs[p]; ok {
		return int32(len(prog.uniforms))
	}
	return 0
}

func (r *Recorder) ActiveUniformMaxLength(p uint32) int32 {
	return maxLength(r.programs[p], func(prog *program) []Variable { return prog.uniforms })
}

func (r *Recorder) ActiveUniform(p uint32, index uint32, buf []byte) (string, int32, uint32) {
	v := r.programs[p].uniforms[index]
	return copyName(v.Name, buf), v.Size, v.Type
}

func (r *Recorder) ActiveAttributeCount(p uint32) int32 {
	if prog, ok := r.programs[p]; ok {
		return int32(len(prog.attributes))
	}
	return 0
}

func (r *Recorder) ActiveAttributeMaxLength(p uint32) int32 {
	return maxLength(r.programs[p], func(prog *program) []Variable { return prog.attributes })
}

func (r *Recorder) ActiveAttribute(p uint32, index uint32, buf []byte) (string, int32, uint32) {
	v := r.programs[p].attributes[index]
	return copyName(v.Name, buf), v.Size, v.Type
}

// maxLength includes the terminating NUL like the GL query does.
func maxLength(p *program, list func(*program) []Variable) int32 {
	if p == nil {
		return 0
	}
	n := 0
	for _, v := range list(p) {
		n = max(n, len(v.Name)+1)
	}
	return int32(n)
}

func copyName(name string, buf []byte) string {
	if len(buf) == 0 {
		return ""
	}
	n := copy(buf[:len(buf)-1], name)
	return string(buf[:n])
}

func (r *Recorder) UniformLocation(p uint32, name string) int32 {
	if prog, ok := r.programs[p]; ok {
		for _, v := range prog.uniforms {
			if v.Name == name || v.Name == name+"[0]" {
				return v.Location
			}
		}
	}
	return -1
}

func (r *Recorder) AttributeLocation(p uint32, name string) int32 {
	if prog, ok := r.programs[p]; ok {
		for _, v := range prog.attributes {
			if v.Name == name {
				return v.Location
			}
		}
	}
	return -1
}

func (r *Recorder) UniformBlockBinding(p uint32, block string, binding uint32) bool {
	prog, ok := r.programs[p]
	if !ok {
		return false
	}
	if _, ok := prog.blocks[block]; !ok {
		return false
	}
	prog.blocks[block] = binding
	return true
}

func (r *Recorder) CreateBuffer() uint32 {
	h := r.handle()
	r.buffers[h] = nil
	return h
}

func (r *Recorder) DeleteBuffer(b uint32) {
	if b == 0 {
		return
	}
	delete(r.buffers, b)
	r.DeletedBuffers = append(r.DeletedBuffers, b)
}

func (r *Recorder) BindBuffer(target uint32, b uint32) { r.bound[target] = b }

func (r *Recorder) BufferData(target uint32, data []byte, usage uint32) {
	r.buffers[r.bound[target]] = append([]byte(nil), data...)
}

func (r *Recorder) BufferStorage(target uint32, size int, usage uint32) {
	r.buffers[r.bound[target]] = make([]byte, size)
}

func (r *Recorder) BufferSubData(target uint32, offset int, data []byte) {
	copy(r.buffers[r.bound[target]][offset:], data)
}

func (r *Recorder) BindBufferBase(target uint32, index uint32, b uint32) {
	r.bound[target] = b
	r.bases[index] = b
}

func (r *Recorder) CreateVertexArray() uint32 {
	h := r.handle()
	r.arrays[h] = struct{}{}
	return h
}

func (r *Recorder) DeleteVertexArray(a uint32) {
	if a == 0 {
		return
	}
	delete(r.arrays, a)
	r.DeletedArrays = append(r.DeletedArrays, a)
}

func (r *Recorder) BindVertexArray(a uint32) { r.boundArray = a }

func (r *Recorder) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	r.AttribPointers = append(r.AttribPointers, AttribPointer{
		VertexArray: r.boundArray, Buffer: r.bound[renderer.ArrayBuffer],
		Index: index, Size: size, Type: typ, Normalized: normalized, Stride: stride, Offset: offset,
	})
}

func (r *Recorder) VertexAttribIPointer(index uint32, size int32, typ uint32, stride int32, offset int) {
	r.AttribPointers = append(r.AttribPointers, AttribPointer{
		VertexArray: r.boundArray, Buffer: r.bound[renderer.ArrayBuffer],
		Index: index, Size: size, Type: typ, Integer: true, Stride: stride, Offset: offset,
	})
}

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.EnabledArrays[r.boundArray] = append(r.EnabledArrays[r.boundArray], index)
}

func (r *Recorder) floats(kind string, location int32, v []float32) {
	r.Uniforms = append(r.Uniforms, UniformCall{Program: r.current, Location: location, Kind: kind, Floats: append([]float32(nil), v...)})
}

func (r *Recorder) ints(kind string, location int32, v []int32) {
	r.Uniforms = append(r.Uniforms, UniformCall{Program: r.current, Location: location, Kind: kind, Ints: append([]int32(nil), v...)})
}

func (r *Recorder) uints(kind string, location int32, v []uint32) {
	r.Uniforms = append(r.Uniforms, UniformCall{Program: r.current, Location: location, Kind: kind, Uints: append([]uint32(nil), v...)})
}

func (r *Recorder) Uniform1fv(location int32, v []float32) { r.floats("1fv", location, v) }
func (r *Recorder) Uniform2fv(location int32, v []float32) { r.floats("2fv", location, v) }
func (r *Recorder) Uniform3fv(location int32, v []float32) { r.floats("3fv", location, v) }
func (r *Recorder) Uniform4fv(location int32, v []float32) { r.floats("4fv", location, v) }
func (r *Recorder) Uniform1iv(location int32, v []int32) { r.ints("1iv", location, v) }
func (r *Recorder) Uniform2iv(location int32, v []int32) { r.ints("2iv", location, v) }
func (r *Recorder) Uniform3iv(location int32, v []int32) { r.ints("3iv", location, v) }
func (r *Recorder) Uniform4iv(location int32, v []int32) { r.ints("4iv", location, v) }
func (r *Recorder) Uniform1uiv(location int32, v []uint32) { r.uints("1uiv", location, v) }
func (r *Recorder) Uniform2uiv(location int32, v []uint32) { r.uints("2uiv", location, v) }
func (r *Recorder) Uniform3uiv(location int32, v []uint32) { r.uints("3uiv", location, v) }
func (r *Recorder) Uniform4uiv(location int32, v []uint32) { r.uints("4uiv", location, v) }
func (r *Recorder) UniformMatrix4fv(location int32, v []float32) { r.floats("Matrix4fv", location, v) }

func (r *Recorder) draw(call DrawCall) {
	call.Program = r.current
	call.VertexArray = r.boundArray
	if data := r.buffers[r.bases[metadata.BuiltinBlockBinding]]; len(data) > 0 {
		copy(call.Builtins.Bytes(), data)
	}
	r.Draws = append(r.Draws, call)
}

func (r *Recorder) DrawArrays(mode uint32, first int32, count int32) {
	r.draw(DrawCall{Mode: mode, First: first, Count: count})
}

func (r *Recorder) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	r.draw(DrawCall{Mode: mode, Count: count, Indexed: true, IndexType: typ})
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.ViewportSize = [4]int32{x, y, width, height}
}

func (r *Recorder) ClearColor(red, green, blue, alpha float32) {
	r.ClearValue = [4]float32{red, green, blue, alpha}
}

func (r *Recorder) Clear(mask uint32) { r.Clears = append(r.Clears, mask) }

func (r *Recorder) Enable(capability uint32) { r.Enabled[capability] = true }

func (r *Recorder) GetError() uint32 {
	if len(r.errors) == 0 {
		return renderer.NoError
	}
	code := r.errors[0]
	r.errors = r.errors[1:]
	return code
}
