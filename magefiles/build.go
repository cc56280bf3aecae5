//go:build mage

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const (
	binDir = "bin"
	webDir = "web"
)

// Builds the desktop demo into bin/.
func (Build) Desktop() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", filepath.Join(binDir, "glitch"), "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the WebGL 2 demo into web/ next to the wasm_exec.js of the toolchain.
func (Build) Wasm() error {
	if _, err := executeCmd("go",
		withArgs("build", "-o", filepath.Join(webDir, "glitch.wasm"), "."),
		withEnv("GOOS=js", "GOARCH=wasm"),
		withStream()); err != nil {
		return err
	}
	return copyWasmExec()
}

// copyWasmExec copies the JavaScript glue matching the toolchain that built
// the module.
func copyWasmExec() error {
	goroot, err := executeCmd("go", withArgs("env", "GOROOT"))
	if err != nil {
		return err
	}
	goroot = strings.TrimSpace(goroot)
	for _, dir := range []string{"lib/wasm", "misc/wasm"} {
		data, err := os.ReadFile(filepath.Join(goroot, dir, "wasm_exec.js"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(webDir, "wasm_exec.js"), data, 0o644)
	}
	return fmt.Errorf("wasm_exec.js not found in %s", goroot)
}
