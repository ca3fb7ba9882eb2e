package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/frametree/config"
	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/scriptlang"
	"github.com/mogaika/frametree/utils/gltfutils"
)

func isScript(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".frames"
}

func isGLTF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

// loadTree reads json, yaml, gltf, glb or a .frames script depending on the
// extension. A script yields its first root.
func loadTree(path string) (frame.Frame, error) {
	if isScript(path) {
		text, err := os.ReadFile(path)
		if err != nil {
			return frame.Frame{}, errors.Wrapf(err, "Cannot read %s", path)
		}
		scene := scriptlang.NewScene()
		if err := scene.Run(text); err != nil {
			return frame.Frame{}, errors.Wrapf(err, "Script %s", path)
		}
		roots := scene.Roots()
		if len(roots) == 0 {
			return frame.Frame{}, errors.Errorf("Script %s created no trees", path)
		}
		return roots[0], nil
	}
	if !isGLTF(path) {
		return config.LoadTree(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return frame.Frame{}, errors.Wrapf(err, "Cannot open %s", path)
	}
	defer f.Close()
	root, err := gltfutils.ImportTree(f)
	return root, errors.Wrapf(err, "Cannot load %s", path)
}

func saveTree(path string, root frame.Frame, opts config.EncodeOptions) error {
	if isScript(path) {
		commands, err := scriptlang.TreeScript(root.Snapshot())
		if err != nil {
			return err
		}
		return config.WriteFile(path, []byte(scriptlang.RenderScript(commands)+"\n"))
	}
	if !isGLTF(path) {
		return config.SaveFile(path, root.Snapshot(), opts)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return errors.Wrapf(err, "Cannot create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %s", path)
	}
	defer f.Close()
	binary := strings.ToLower(filepath.Ext(path)) == ".glb"
	return gltfutils.ExportTree(f, root, binary)
}

func encodeOptions(angles string, precision int) (config.EncodeOptions, error) {
	a, err := config.ParseAngleFormat(angles)
	if err != nil {
		return config.EncodeOptions{}, err
	}
	return config.EncodeOptions{Angles: a, Precision: precision, Pretty: true}, nil
}
