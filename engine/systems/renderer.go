package systems

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/math"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

/** @brief The window the frames are presented to. */
type Surface interface {
	/** @brief Polls the platform and fires the queued events until none are left. */
	PumpMessages()
	/** @brief Presents the frame drawn since the previous swap. */
	SwapBuffers()
}

var defaultClearColor = components.ClearColor{0, 0, 0, 1}

/**
 * @brief Drives a frame: pumps events and clears before drawing, draws every
 * renderable of every compiled program, then presents and reports driver
 * errors.
 */
type RendererSystem struct {
	world    *ecs.World
	renderer *renderer.Renderer
	surface  Surface
	events   *core.EventSystem
	metrics  *core.Metrics

	programs  *ecs.Query
	cameras2D *ecs.Query
	cameras3D *ecs.Query

	// Set while the missing camera warning has been logged.
	cameraWarned bool
	// Set while the extra cameras warning has been logged.
	camerasWarned bool
}

/**
 * @brief Creates the renderer system and subscribes it to resize and quit events.
 * @param w The world, with the renderer components registered.
 * @param r The renderer owning the context.
 * @param surface The window presenting the frames.
 * @param events The event system the surface fires into.
 */
func NewRendererSystem(w *ecs.World, r *renderer.Renderer, surface Surface, events *core.EventSystem) (*RendererSystem, error) {
	if w == nil || r == nil || surface == nil || events == nil {
		err := fmt.Errorf("NewRendererSystem - world, renderer, surface and events are required")
		core.LogError(err.Error())
		return nil, err
	}
	rs := &RendererSystem{
		world:    w,
		renderer: r,
		surface:  surface,
		events:   events,
		metrics:  core.NewMetrics(),
	}

	var err error
	if rs.programs, err = singleTermQuery(w, ecs.Id[metadata.ShaderProgram](w)); err != nil {
		return nil, err
	}
	if rs.cameras2D, err = singleTermQuery(w, ecs.Id[components.Camera2D](w)); err != nil {
		return nil, err
	}
	if rs.cameras3D, err = singleTermQuery(w, ecs.Id[components.Camera3D](w)); err != nil {
		return nil, err
	}

	events.Register(core.EventCodeResized, rs, rs.onResized)
	events.Register(core.EventCodeApplicationQuit, rs, rs.onQuit)
	return rs, nil
}

func singleTermQuery(w *ecs.World, id ecs.Entity) (*ecs.Query, error) {
	return w.Query(ecs.QueryDesc{Terms: []ecs.Term{{ID: id, InOut: ecs.In}}})
}

func (rs *RendererSystem) Shutdown() error {
	rs.events.Unregister(core.EventCodeResized, rs)
	rs.events.Unregister(core.EventCodeApplicationQuit, rs)
	rs.programs.Fini()
	rs.cameras2D.Fini()
	rs.cameras3D.Fini()
	return nil
}

// preFrameSystem pumps events and clears. It runs ahead of the camera
// updates of the same phase so a resize reaches the projections this frame.
func (rs *RendererSystem) preFrameSystem() ecs.SystemDesc {
	return ecs.SystemDesc{Name: "PreRenderFrame", Phase: ecs.PreStore, Callback: rs.preRenderFrame}
}

func (rs *RendererSystem) frameSystems() []ecs.SystemDesc {
	return []ecs.SystemDesc{
		{Name: "RenderFrame", Phase: ecs.OnStore, Callback: rs.renderFrame},
		{Name: "PostRenderFrame", Phase: ecs.PostFrame, Callback: rs.postRenderFrame},
	}
}

func (rs *RendererSystem) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok || se.WindowWidth <= 0 || se.WindowHeight <= 0 {
		// Minimised windows report a zero size, keep the last viewport.
		return false
	}
	rs.renderer.Resize(se.WindowWidth, se.WindowHeight)
	if win := ecs.Singleton[components.Window](rs.world); win != nil {
		win.Width, win.Height = se.WindowWidth, se.WindowHeight
	} else {
		_ = ecs.SetSingleton(rs.world, components.Window{Width: se.WindowWidth, Height: se.WindowHeight})
	}
	core.LogDebug("window resized to %dx%d", se.WindowWidth, se.WindowHeight)
	return false
}

func (rs *RendererSystem) onQuit(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	core.LogInfo("quit requested")
	rs.world.Quit()
	return true
}

func (rs *RendererSystem) preRenderFrame(it *ecs.Iter) {
	rs.surface.PumpMessages()
	color := defaultClearColor
	if c := ecs.Singleton[components.ClearColor](it.World); c != nil {
		color = *c
	}
	rs.renderer.Clear(color[0], color[1], color[2], color[3])
}

func (rs *RendererSystem) postRenderFrame(it *ecs.Iter) {
	rs.surface.SwapBuffers()
	for _, code := range rs.renderer.DrainErrors() {
		core.LogError("graphics driver error %#04x", code)
	}
	if rs.metrics.Update(float64(it.DeltaTime)) {
		core.LogDebug("%.0f fps, %.2f ms per frame", rs.metrics.FPS(), rs.metrics.FrameTime())
	}
}

// firstCamera2D returns the camera of the first entity with a Camera2D.
// A world is expected to hold one camera of each kind; with more the one
// returned depends on table order.
func (rs *RendererSystem) firstCamera2D() *components.Camera2D {
	it := rs.cameras2D.Iter()
	if !it.Next() {
		return nil
	}
	return &ecs.Field[components.Camera2D](it, 0)[0]
}

func (rs *RendererSystem) firstCamera3D() *components.Camera3D {
	it := rs.cameras3D.Iter()
	if !it.Next() {
		return nil
	}
	return &ecs.Field[components.Camera3D](it, 0)[0]
}

func (rs *RendererSystem) renderFrame(it *ecs.Iter) {
	camera2D, camera3D := rs.firstCamera2D(), rs.firstCamera3D()
	if camera2D == nil && camera3D == nil {
		if !rs.cameraWarned {
			core.LogWarn("no Camera2D or Camera3D in the world, nothing is drawn")
			rs.cameraWarned = true
		}
		return
	}
	rs.cameraWarned = false

	if rs.cameras2D.Count() > 1 || rs.cameras3D.Count() > 1 {
		if !rs.camerasWarned {
			core.LogWarn("more than one camera of a kind in the world, only one of them is used")
			rs.camerasWarned = true
		}
	} else {
		rs.camerasWarned = false
	}

	builtins := rs.renderer.Builtins()
	builtins.Time = it.WorldTime
	builtins.DeltaTime = it.DeltaTime

	programs := rs.programs.Iter()
	for programs.Next() {
		sps := ecs.Field[metadata.ShaderProgram](programs, 0)
		for i := range sps {
			rs.drawProgram(&sps[i], camera2D, camera3D)
		}
	}
}

// uniformColumn addresses the value of one uniform for each row of a batch.
// Values shared by the batch have a zero stride.
type uniformColumn struct {
	data   unsafe.Pointer
	stride uintptr
}

func (c uniformColumn) at(row int) unsafe.Pointer {
	return unsafe.Add(c.data, uintptr(row)*c.stride)
}

/**
 * @brief Draws every renderable matched by the query of one program.
 * @param sp The program.
 * @param camera2D Used for batches with a Position2D. Nil skips them.
 * @param camera3D Used for batches with a Position3D. Nil skips them.
 */
func (rs *RendererSystem) drawProgram(sp *metadata.ShaderProgram, camera2D *components.Camera2D, camera3D *components.Camera3D) {
	if sp.Query == nil {
		return
	}
	b := rs.renderer.Backend()
	builtins := rs.renderer.Builtins()
	var columns [metadata.MaxUniforms]uniformColumn

	b.UseProgram(sp.Program)
	it := sp.Query.Iter()
	for it.Next() {
		is2D := it.IsSet(termPosition2D)
		if is2D {
			if camera2D == nil {
				continue
			}
			builtins.View, builtins.Projection = camera2D.View, camera2D.Projection
		} else {
			if camera3D == nil {
				continue
			}
			builtins.View, builtins.Projection = camera3D.View, camera3D.Projection
		}

		mesh := &ecs.Field[metadata.Mesh](it, termMesh)[0]
		for u := 0; u < sp.UniformCount; u++ {
			field := termFirstUniform + u
			columns[u].data = it.FieldPointer(field, 0)
			columns[u].stride = 0
			if it.IsSelf(field) {
				columns[u].stride = it.World.ComponentSize(sp.Uniforms[u].Component)
			}
		}

		b.BindVertexArray(mesh.VertexArray)
		model := rs.modelMatrices(it, is2D)
		for row := 0; row < it.Count; row++ {
			builtins.Model = model(row)
			rs.renderer.UploadBuiltins()
			for u := 0; u < sp.UniformCount; u++ {
				setUniform(b, sp.Uniforms[u].Location, sp.UniformTypes[u], columns[u].at(row))
			}
			if mesh.Indexed() {
				b.DrawElements(mesh.Primitive.GL(), mesh.IndexCount, mesh.IndexType.GL(), 0)
			} else {
				b.DrawArrays(mesh.Primitive.GL(), 0, mesh.VertexCount)
			}
		}
	}
	b.BindVertexArray(0)
}

// modelMatrices gathers the spatial fields of a batch and returns the model
// matrix builder for its rows.
func (rs *RendererSystem) modelMatrices(it *ecs.Iter, is2D bool) func(row int) mgl32.Mat4 {
	if is2D {
		positions := ecs.Field[components.Position2D](it, termPosition2D)
		rotations := ecs.Field[components.Rotation2D](it, termRotation2D)
		scales := ecs.Field[components.Scale2D](it, termScale2D)
		return func(row int) mgl32.Mat4 {
			var rotation *float32
			var scale *mgl32.Vec2
			if rotations != nil {
				rotation = (*float32)(&rotations[row])
			}
			if scales != nil {
				scale = (*mgl32.Vec2)(&scales[row])
			}
			return math.Model2D(mgl32.Vec2(positions[row]), rotation, scale)
		}
	}
	positions := ecs.Field[components.Position3D](it, termPosition3D)
	rotations := ecs.Field[components.Rotation3D](it, termRotation3D)
	scales := ecs.Field[components.Scale3D](it, termScale3D)
	return func(row int) mgl32.Mat4 {
		var rotation *mgl32.Quat
		var scale *mgl32.Vec3
		if rotations != nil {
			rotation = (*mgl32.Quat)(&rotations[row])
		}
		if scales != nil {
			scale = (*mgl32.Vec3)(&scales[row])
		}
		return math.Model3D(mgl32.Vec3(positions[row]), rotation, scale)
	}
}

// setUniform uploads the value at ptr with the entry point of its data type.
func setUniform(b renderer.Backend, location int32, dataType ecs.DataType, ptr unsafe.Pointer) {
	switch dataType {
	case ecs.DataTypeF32:
		b.Uniform1fv(location, unsafe.Slice((*float32)(ptr), 1))
	case ecs.DataTypeVec2:
		b.Uniform2fv(location, unsafe.Slice((*float32)(ptr), 2))
	case ecs.DataTypeVec3:
		b.Uniform3fv(location, unsafe.Slice((*float32)(ptr), 3))
	case ecs.DataTypeVec4:
		b.Uniform4fv(location, unsafe.Slice((*float32)(ptr), 4))
	case ecs.DataTypeI32:
		b.Uniform1iv(location, unsafe.Slice((*int32)(ptr), 1))
	case ecs.DataTypeIVec2:
		b.Uniform2iv(location, unsafe.Slice((*int32)(ptr), 2))
	case ecs.DataTypeIVec3:
		b.Uniform3iv(location, unsafe.Slice((*int32)(ptr), 3))
	case ecs.DataTypeIVec4:
		b.Uniform4iv(location, unsafe.Slice((*int32)(ptr), 4))
	case ecs.DataTypeU32:
		b.Uniform1uiv(location, unsafe.Slice((*uint32)(ptr), 1))
	case ecs.DataTypeUVec2:
		b.Uniform2uiv(location, unsafe.Slice((*uint32)(ptr), 2))
	case ecs.DataTypeUVec3:
		b.Uniform3uiv(location, unsafe.Slice((*uint32)(ptr), 3))
	case ecs.DataTypeUVec4:
		b.Uniform4uiv(location, unsafe.Slice((*uint32)(ptr), 4))
	case ecs.DataTypeMat4:
		b.UniformMatrix4fv(location, unsafe.Slice((*float32)(ptr), 16))
	}
}
