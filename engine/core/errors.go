package core

import (
	"errors"
)

var (
	ErrNoContext       = errors.New("no graphics context")
	ErrShaderCompile   = errors.New("shader compilation failed")
	ErrProgramLink     = errors.New("program linking failed")
	ErrBuiltinUniforms = errors.New("unexpected number of built-in uniforms")
	ErrUnknownProperty = errors.New("no property registered with that name")
	ErrTypeMismatch    = errors.New("uniform type does not match property type")
	ErrInvalidMeshData = errors.New("invalid mesh data")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
