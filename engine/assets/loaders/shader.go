package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

const (
	VertexExtension   = ".vert"
	FragmentExtension = ".frag"
)

// ShaderLoader reads the two stages of a program from <path>.vert and
// <path>.frag.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string) (interface{}, error) {
	vertex, err := readStage(path + VertexExtension)
	if err != nil {
		return nil, err
	}
	fragment, err := readStage(path + FragmentExtension)
	if err != nil {
		return nil, err
	}
	return &metadata.ShaderProgramSource{
		Vertex:   vertex,
		Fragment: fragment,
	}, nil
}

func readStage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", core.ErrAssetNotFound, path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
