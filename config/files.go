package config

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mogaika/frametree/frame"
)

func LoadFile(path string) (frame.Snapshot, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return frame.Snapshot{}, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return frame.Snapshot{}, errors.Wrapf(err, "Cannot read file %s", path)
	}
	s, err := Unmarshal(data, format)
	if err != nil {
		return frame.Snapshot{}, errors.Wrapf(err, "Cannot load %s", path)
	}
	return s, nil
}

// SaveFile writes the snapshot with the format picked by the file extension.
func SaveFile(path string, s frame.Snapshot, opts EncodeOptions) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	opts.Format = format

	var buf bytes.Buffer
	if err := Encode(&buf, s, opts); err != nil {
		return err
	}
	return WriteFile(path, buf.Bytes())
}

// WriteFile writes data to path creating missing directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return errors.Wrapf(err, "Cannot create %s", dir)
		}
	}
	return errors.Wrapf(ioutil.WriteFile(path, data, 0666), "Cannot write file %s", path)
}

// ApplyFile loads a tree document and applies it to f.
func ApplyFile(f frame.Frame, path string) error {
	s, err := LoadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrapf(f.Apply(s), "Cannot apply %s to %q", path, f.Path())
}

// LoadTree builds a new tree from a document.
func LoadTree(path string) (frame.Frame, error) {
	s, err := LoadFile(path)
	if err != nil {
		return frame.Frame{}, err
	}
	root := frame.NewRoot(s.Name)
	if err := root.Apply(s); err != nil {
		return frame.Frame{}, errors.Wrapf(err, "Cannot build tree from %s", path)
	}
	return root, nil
}
