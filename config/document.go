package config

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatJSON, errors.Errorf("Unknown tree document extension %q", filepath.Ext(path))
}

type AngleFormat int

const (
	AnglesQuaternion AngleFormat = iota
	AnglesRPY
)

func ParseAngleFormat(name string) (AngleFormat, error) {
	switch strings.ToLower(name) {
	case "", "quat", "quaternion":
		return AnglesQuaternion, nil
	case "rpy", "euler":
		return AnglesRPY, nil
	}
	return AnglesQuaternion, errors.Errorf("Unknown angle format %q", name)
}

type EncodeOptions struct {
	Format Format
	Angles AngleFormat
	// decimal places kept, 0 keeps full precision
	Precision int
	Pretty    bool
}

// Readable is meant for files edited by hand. Six decimal places keep
// round trips well within 1e-4.
func Readable() EncodeOptions {
	return EncodeOptions{Format: FormatYAML, Angles: AnglesRPY, Precision: 6, Pretty: true}
}

// Exact keeps every bit of every value.
func Exact() EncodeOptions {
	return EncodeOptions{Format: FormatJSON, Angles: AnglesQuaternion}
}

type Orientation struct {
	Quaternion []float64 `json:"quaternion,omitempty" yaml:"quaternion,omitempty,flow"`
	RPY        []float64 `json:"rpy,omitempty" yaml:"rpy,omitempty,flow"`
}

// Rotation checks the vector sizes and converts. An empty orientation is the
// identity.
func (o Orientation) Rotation() (geom.Rotation, error) {
	switch {
	case o.Quaternion != nil && o.RPY != nil:
		return geom.Rotation{}, errors.Errorf("orientation has both quaternion and rpy")
	case o.Quaternion != nil:
		if len(o.Quaternion) != 4 {
			return geom.Rotation{}, errors.Errorf("quaternion needs 4 values, got %d", len(o.Quaternion))
		}
		return geom.FromQuaternion(o.Quaternion[0], o.Quaternion[1], o.Quaternion[2], o.Quaternion[3])
	case o.RPY != nil:
		if len(o.RPY) != 3 {
			return geom.Rotation{}, errors.Errorf("rpy needs 3 values, got %d", len(o.RPY))
		}
		return geom.FromRPY(o.RPY[0], o.RPY[1], o.RPY[2]), nil
	}
	return geom.Identity(), nil
}

type FrameDocument struct {
	Name        string          `json:"name" yaml:"name"`
	Position    []float64       `json:"position" yaml:"position,flow"`
	Orientation Orientation     `json:"orientation" yaml:"orientation"`
	Children    []FrameDocument `json:"children,omitempty" yaml:"children,omitempty"`
}

func round(v float64, precision int) float64 {
	if precision <= 0 {
		return v
	}
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

func roundAll(vs []float64, precision int) []float64 {
	for i := range vs {
		vs[i] = round(vs[i], precision)
	}
	return vs
}

func NewDocument(s frame.Snapshot, opts EncodeOptions) FrameDocument {
	doc := FrameDocument{
		Name:     s.Name,
		Position: roundAll([]float64{s.Position[0], s.Position[1], s.Position[2]}, opts.Precision),
	}
	o := s.Orientation
	switch opts.Angles {
	case AnglesRPY:
		rpy, err := geom.FromQuaternion(o[0], o[1], o[2], o[3])
		if err != nil {
			// keep the raw values so the error surfaces on load
			doc.Orientation.Quaternion = []float64{o[0], o[1], o[2], o[3]}
			break
		}
		e := rpy.RPY()
		doc.Orientation.RPY = roundAll([]float64{e.Roll, e.Pitch, e.Yaw}, opts.Precision)
	default:
		doc.Orientation.Quaternion = roundAll([]float64{o[0], o[1], o[2], o[3]}, opts.Precision)
	}
	for _, c := range s.Children {
		doc.Children = append(doc.Children, NewDocument(c, opts))
	}
	return doc
}

// Snapshot converts the document back, checking vector sizes. A missing
// orientation means identity.
func (doc *FrameDocument) Snapshot() (frame.Snapshot, error) {
	s := frame.Snapshot{Name: doc.Name}

	switch len(doc.Position) {
	case 0:
	case 3:
		copy(s.Position[:], doc.Position)
	default:
		return s, errors.Errorf("Frame %q: position needs 3 values, got %d", doc.Name, len(doc.Position))
	}

	if o := doc.Orientation; o.Quaternion != nil && o.RPY == nil && len(o.Quaternion) == 4 {
		// raw values, Apply normalizes and rejects zero quaternions
		copy(s.Orientation[:], o.Quaternion)
	} else {
		rot, err := o.Rotation()
		if err != nil {
			return s, errors.Wrapf(err, "Frame %q", doc.Name)
		}
		q := rot.Quat()
		s.Orientation = [4]float64{q.V[0], q.V[1], q.V[2], q.W}
	}

	for i := range doc.Children {
		c, err := doc.Children[i].Snapshot()
		if err != nil {
			return s, err
		}
		s.Children = append(s.Children, c)
	}
	return s, nil
}

func Marshal(s frame.Snapshot, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Encode(w io.Writer, s frame.Snapshot, opts EncodeOptions) error {
	doc := NewDocument(s, opts)

	switch opts.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return errors.Wrapf(err, "Failed to encode yaml")
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		if opts.Pretty {
			enc.SetIndent("", "  ")
		}
		return errors.Wrapf(enc.Encode(&doc), "Failed to encode json")
	}
}

func Decode(r io.Reader, format Format) (frame.Snapshot, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return frame.Snapshot{}, errors.Wrapf(err, "Failed to read")
	}
	return Unmarshal(data, format)
}

func Unmarshal(data []byte, format Format) (frame.Snapshot, error) {
	var doc FrameDocument
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return frame.Snapshot{}, errors.Wrapf(err, "Unmarshaling yaml")
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return frame.Snapshot{}, errors.Wrapf(err, "Unmarshaling json")
		}
	}
	return doc.Snapshot()
}
