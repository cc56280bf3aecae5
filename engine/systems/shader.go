package systems

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/glitch/engine/assets"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

// Fields of the renderable query. The draw pass indexes fields with these,
// so the order of the terms built by buildRenderableQuery must match.
const (
	termPosition2D = iota
	termPosition3D
	termRotation2D
	termRotation3D
	termScale2D
	termScale3D
	termUsesProgram
	termUsesMesh
	termMesh
	termFirstUniform
)

/** @brief The number of fixed terms in front of the uniform terms of a renderable query. */
const ReservedTermCount = termFirstUniform

// A renderable query with every uniform slot in use must still fit.
var _ [ecs.MaxTermCount - ReservedTermCount - metadata.MaxUniforms]struct{}

/** @brief The query variable bound to the mesh entity of a renderable. */
const meshVariable = "mesh"

/**
 * @brief Turns ShaderProgramSource components into ShaderPrograms: compiles
 * and links the stages, reflects uniforms and attributes, binds uniforms to
 * components and builds the query selecting what the program draws.
 */
type ShaderSystem struct {
	world    *ecs.World
	renderer *renderer.Renderer
	// Optional, enables hot reload.
	assets *assets.AssetManager
}

/**
 * @brief Creates the shader system and installs the component hooks that
 * release programs.
 * @param w The world, with the renderer components registered.
 * @param r The renderer owning the context.
 * @param am The asset manager used for hot reload. Can be nil.
 */
func NewShaderSystem(w *ecs.World, r *renderer.Renderer, am *assets.AssetManager) (*ShaderSystem, error) {
	if w == nil || r == nil {
		err := fmt.Errorf("NewShaderSystem - world and renderer are required")
		core.LogError(err.Error())
		return nil, err
	}
	ss := &ShaderSystem{world: w, renderer: r, assets: am}

	programID := ecs.Id[metadata.ShaderProgram](w)
	ecs.SetHooks(w, ecs.Hooks[metadata.ShaderProgramSource]{
		// New sources replace the compiled program, CompileShaders picks them up.
		OnSet: func(w *ecs.World, e ecs.Entity, _ *metadata.ShaderProgramSource) {
			if w.Has(e, programID) {
				_ = w.Remove(e, programID)
			}
		},
	})
	ecs.SetHooks(w, ecs.Hooks[metadata.ShaderProgram]{
		OnRemove: func(_ *ecs.World, _ ecs.Entity, sp *metadata.ShaderProgram) {
			ss.release(sp)
		},
	})
	return ss, nil
}

func (ss *ShaderSystem) Shutdown() error {
	return nil
}

/**
 * @brief Creates a named shader entity from the stage files of an asset.
 * @param name The asset name, also used as the entity name so reloads find it.
 * @return The new entity. It is compiled by the next CompileShaders run.
 */
func (ss *ShaderSystem) LoadShader(name string) (ecs.Entity, error) {
	if ss.assets == nil {
		return 0, fmt.Errorf("%w: no asset manager to load shader `%s` from", core.ErrAssetNotFound, name)
	}
	source, err := ss.assets.LoadShader(name)
	if err != nil {
		return 0, err
	}
	return ss.NewShader(name, source)
}

// NewShader creates a named shader entity from in-memory sources.
func (ss *ShaderSystem) NewShader(name string, source metadata.ShaderProgramSource) (ecs.Entity, error) {
	e, err := ss.world.NewNamed(name)
	if err != nil {
		return 0, err
	}
	if err := ecs.Set(ss.world, e, source); err != nil {
		return 0, err
	}
	return e, nil
}

func (ss *ShaderSystem) reloadSystem() ecs.SystemDesc {
	return ecs.SystemDesc{
		Name:     "ReloadShaders",
		Phase:    ecs.OnLoad,
		Callback: ss.reloadShaders,
	}
}

func (ss *ShaderSystem) compileSystem() ecs.SystemDesc {
	w := ss.world
	return ecs.SystemDesc{
		Name:  "CompileShaders",
		Phase: ecs.OnLoad,
		Query: &ecs.QueryDesc{Terms: []ecs.Term{
			{ID: ecs.Id[metadata.ShaderProgramSource](w), InOut: ecs.In},
			{ID: ecs.Id[metadata.ShaderProgram](w), InOut: ecs.Out, Oper: ecs.Not},
		}},
		Callback: ss.compileShaders,
	}
}

// reloadShaders sets the new source of every shader entity whose stage
// files changed on disk.
func (ss *ShaderSystem) reloadShaders(it *ecs.Iter) {
	if ss.assets == nil {
		return
	}
	w := it.World
	sourceID := ecs.Id[metadata.ShaderProgramSource](w)
	for _, name := range ss.assets.Changed(assets.AssetTypeShader) {
		e := w.Lookup(name)
		if e == 0 || !w.Has(e, sourceID) {
			core.LogDebug("shader asset `%s` changed but no shader entity uses it", name)
			continue
		}
		source, err := ss.assets.LoadShader(name)
		if err != nil {
			core.LogError("failed to reload shader `%s`: %s", name, err)
			continue
		}
		core.LogInfo("reloading shader `%s`", name)
		_ = ecs.Set(w, e, source)
	}
}

func (ss *ShaderSystem) compileShaders(it *ecs.Iter) {
	w := it.World
	sources := ecs.Field[metadata.ShaderProgramSource](it, 0)
	for i, e := range it.Entities {
		sp, err := ss.createProgram(e, &sources[i])
		if err != nil {
			core.LogError("shader `%s`: %s", entityLabel(w, e), err)
			// A broken shader must not be used by anything.
			_ = w.Delete(e)
			continue
		}
		_ = ecs.Set(w, e, *sp)
	}
}

/**
 * @brief Runs the whole pipeline for one source.
 * @param e The entity that owns the source. Renderables reference it with (Uses, e).
 * @param source The stage sources.
 * @return The program, or an error after every GPU object it created is deleted.
 */
func (ss *ShaderSystem) createProgram(e ecs.Entity, source *metadata.ShaderProgramSource) (*metadata.ShaderProgram, error) {
	backend := ss.renderer.Backend()
	program, err := compileProgram(backend, source)
	if err != nil {
		return nil, err
	}
	sp := &metadata.ShaderProgram{ID: uuid.New(), Program: program}
	if err := reflectProgram(backend, sp); err != nil {
		backend.DeleteProgram(program)
		return nil, err
	}
	if !backend.UniformBlockBinding(program, metadata.BuiltinBlockName, metadata.BuiltinBlockBinding) {
		core.LogWarn("shader `%s` does not use the %s block", entityLabel(ss.world, e), metadata.BuiltinBlockName)
	}
	if err := resolveUniforms(ss.world, sp); err != nil {
		core.LogDebug("shader `%s` dropped uniforms: %s", entityLabel(ss.world, e), err)
	}
	q, err := buildRenderableQuery(ss.world, e, sp)
	if err != nil {
		backend.DeleteProgram(program)
		return nil, err
	}
	sp.Query = q
	core.LogInfo("shader `%s` compiled (%s): %d uniforms, %d attributes", entityLabel(ss.world, e), sp.ID, sp.UniformCount, sp.AttributeCount)
	return sp, nil
}

func (ss *ShaderSystem) release(sp *metadata.ShaderProgram) {
	if sp.Query != nil {
		sp.Query.Fini()
		sp.Query = nil
	}
	if sp.Program != 0 {
		ss.renderer.Backend().DeleteProgram(sp.Program)
		sp.Program = 0
	}
}

/**
 * @brief Compiles both stages behind the built-in prelude and links them.
 * The stage objects are deleted before returning, whatever the outcome.
 * @return The linked program, or an error wrapping ErrShaderCompile or
 * ErrProgramLink with the driver log.
 */
func compileProgram(backend renderer.Backend, source *metadata.ShaderProgramSource) (uint32, error) {
	prelude := metadata.Prelude(backend.ShadingLanguageHeader())

	vertex, err := backend.CompileShader(metadata.ShaderStageVertex, prelude+source.Vertex)
	if err != nil {
		return 0, fmt.Errorf("%w: %s stage: %s", core.ErrShaderCompile, metadata.ShaderStageVertex, err)
	}
	defer backend.DeleteShader(vertex)

	fragment, err := backend.CompileShader(metadata.ShaderStageFragment, prelude+source.Fragment)
	if err != nil {
		return 0, fmt.Errorf("%w: %s stage: %s", core.ErrShaderCompile, metadata.ShaderStageFragment, err)
	}
	defer backend.DeleteShader(fragment)

	program, err := backend.LinkProgram(vertex, fragment)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrProgramLink, err)
	}
	return program, nil
}

/**
 * @brief Reads the active uniforms and attributes of a linked program into sp.
 * Built-in uniforms are skipped. Uniforms past MaxUniforms are dropped with
 * a warning.
 * @return ErrBuiltinUniforms when the program does not expose exactly the
 * built-in block members.
 */
func reflectProgram(backend renderer.Backend, sp *metadata.ShaderProgram) error {
	program := sp.Program
	uniformCount := backend.ActiveUniformCount(program)
	attributeCount := backend.ActiveAttributeCount(program)
	buf := make([]byte, max(backend.ActiveUniformMaxLength(program), backend.ActiveAttributeMaxLength(program), 1))

	builtins, truncated := 0, 0
	for i := int32(0); i < uniformCount; i++ {
		name, _, typ := backend.ActiveUniform(program, uint32(i), buf)
		// Arrays are reported as name[0].
		name = strings.TrimSuffix(name, "[0]")
		if metadata.IsBuiltinUniform(name) {
			builtins++
			continue
		}
		if sp.UniformCount == metadata.MaxUniforms {
			truncated++
			continue
		}
		sp.Uniforms[sp.UniformCount] = metadata.ShaderUniform{
			Name:     name,
			Location: backend.UniformLocation(program, name),
			Type:     metadata.GLSLType(typ),
		}
		sp.UniformCount++
	}
	if truncated > 0 {
		core.LogWarn("program %d has %d uniforms beyond the limit of %d, they are ignored", program, truncated, metadata.MaxUniforms)
	}
	if builtins != metadata.BuiltinUniformCount {
		return fmt.Errorf("%w: found %d, expected %d", core.ErrBuiltinUniforms, builtins, metadata.BuiltinUniformCount)
	}

	for i := int32(0); i < attributeCount && sp.AttributeCount < metadata.MaxAttributes; i++ {
		name, _, typ := backend.ActiveAttribute(program, uint32(i), buf)
		sp.Attributes[sp.AttributeCount] = metadata.ShaderAttribute{
			Name:     name,
			Location: backend.AttributeLocation(program, name),
			Type:     metadata.GLSLType(typ),
		}
		sp.AttributeCount++
	}
	return nil
}

/**
 * @brief Binds every reflected uniform to a component, in place. A uniform
 * named entityX reads component X from the rendered entity; any other name
 * reads the component of the same name from the shader entity. Uniforms
 * without a matching component, or whose type differs from the component's
 * data type, are removed and the remaining ones are packed to the front.
 * @return The reasons of the dropped uniforms joined together, or nil.
 */
func resolveUniforms(w *ecs.World, sp *metadata.ShaderProgram) error {
	var dropped []error
	kept := 0
	for i := 0; i < sp.UniformCount; i++ {
		u := sp.Uniforms[i]
		name, fromEntity := strings.CutPrefix(u.Name, metadata.EntityUniformPrefix)

		component := w.Lookup(name)
		if component == 0 || !w.IsComponent(component) {
			err := fmt.Errorf("%w: uniform `%s` needs component `%s`", core.ErrUnknownProperty, u.Name, name)
			core.LogWarn(err.Error())
			dropped = append(dropped, err)
			continue
		}
		dataType := w.DataTypeOf(component)
		want := metadata.DataTypeForGLSL(u.Type)
		if want == ecs.DataTypeNone || want != dataType || uintptr(want.Scalars()*4) != w.ComponentSize(component) {
			err := fmt.Errorf("%w: uniform `%s` is %s but component `%s` is %s", core.ErrTypeMismatch, u.Name, u.Type, name, dataType)
			core.LogWarn(err.Error())
			dropped = append(dropped, err)
			continue
		}

		u.Component = component
		u.FromEntity = fromEntity
		sp.Uniforms[kept] = u
		sp.UniformTypes[kept] = dataType
		kept++
	}
	for i := kept; i < sp.UniformCount; i++ {
		sp.Uniforms[i] = metadata.ShaderUniform{}
		sp.UniformTypes[i] = ecs.DataTypeNone
	}
	sp.UniformCount = kept
	return errors.Join(dropped...)
}

/**
 * @brief Builds the query of the entities drawn with a program: a 2D or 3D
 * position, optional rotation and scale, (Uses, program), (Uses, $mesh) with
 * the Mesh of $mesh, then one term per resolved uniform.
 * @param program The shader entity.
 * @param sp A program with resolved uniforms.
 */
func buildRenderableQuery(w *ecs.World, program ecs.Entity, sp *metadata.ShaderProgram) (*ecs.Query, error) {
	uses := components.Uses(w)
	terms := make([]ecs.Term, 0, ReservedTermCount+sp.UniformCount)
	terms = append(terms,
		ecs.Term{ID: ecs.Id[components.Position2D](w), InOut: ecs.In, Oper: ecs.Or},
		ecs.Term{ID: ecs.Id[components.Position3D](w), InOut: ecs.In},
		ecs.Term{ID: ecs.Id[components.Rotation2D](w), InOut: ecs.In, Oper: ecs.Optional},
		ecs.Term{ID: ecs.Id[components.Rotation3D](w), InOut: ecs.In, Oper: ecs.Optional},
		ecs.Term{ID: ecs.Id[components.Scale2D](w), InOut: ecs.In, Oper: ecs.Optional},
		ecs.Term{ID: ecs.Id[components.Scale3D](w), InOut: ecs.In, Oper: ecs.Optional},
		ecs.Term{ID: ecs.Pair(uses, program), InOut: ecs.InOutNone},
		ecs.Term{ID: ecs.Pair(uses, ecs.Wildcard), TargetVar: meshVariable, InOut: ecs.InOutNone},
		ecs.Term{ID: ecs.Id[metadata.Mesh](w), SrcVar: meshVariable, InOut: ecs.In},
	)
	for i := 0; i < sp.UniformCount; i++ {
		term := ecs.Term{ID: sp.Uniforms[i].Component, InOut: ecs.In}
		if !sp.Uniforms[i].FromEntity {
			term.Src = program
		}
		terms = append(terms, term)
	}
	return w.Query(ecs.QueryDesc{Terms: terms})
}

func entityLabel(w *ecs.World, e ecs.Entity) string {
	if name := w.Name(e); name != "" {
		return name
	}
	return e.String()
}
