package frame

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/frametree/geom"
)

const rootIdentityEpsilon = 1e-9

// Snapshot is a plain data copy of a frame subtree.
// Orientation is a quaternion stored as x, y, z, w.
type Snapshot struct {
	Name        string     `json:"name"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
	Children    []Snapshot `json:"children,omitempty"`
}

func (s Snapshot) Transform() (geom.Isometry, error) {
	o := s.Orientation
	rot, err := geom.FromQuaternion(o[0], o[1], o[2], o[3])
	if err != nil {
		return geom.Isometry{}, errors.Wrapf(err, "Frame %q", s.Name)
	}
	return geom.NewIsometry(mgl64.Vec3(s.Position), rot), nil
}

func (f Frame) Snapshot() Snapshot {
	return snapshotNode(f.n)
}

func snapshotNode(n *frameNode) Snapshot {
	q := n.transform.Rotation
	s := Snapshot{
		Name:        n.name,
		Position:    [3]float64(n.transform.Translation),
		Orientation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
	}
	if len(n.children) != 0 {
		s.Children = make([]Snapshot, len(n.children))
		for i, c := range n.children {
			s.Children[i] = snapshotNode(c)
		}
	}
	return s
}

// Apply updates f and its descendants from s. Existing children are matched
// by name, missing ones are created and children absent from s are left
// untouched. A root only accepts an identity transform. Nothing is changed
// when s is rejected.
func (f Frame) Apply(s Snapshot) error {
	if s.Name != f.n.name {
		return &SnapshotMismatchError{Want: f.n.name, Got: s.Name}
	}
	if err := validateSnapshot(s); err != nil {
		return err
	}
	if f.IsRoot() {
		tf, _ := s.Transform()
		if !tf.ApproxEqual(geom.IdentityIsometry(), rootIdentityEpsilon) {
			return errors.Wrapf(ErrRootHasNoParent, "Snapshot of %q carries transform %v", s.Name, tf)
		}
	} else {
		f.n.transform, _ = s.Transform()
	}
	applyChildren(f.n, s.Children)
	return nil
}

func applyChildren(n *frameNode, children []Snapshot) {
	for _, cs := range children {
		tf, _ := cs.Transform()
		c := n.child(cs.Name)
		if c == nil {
			c = Frame{n: n}.attach(cs.Name, tf).n
		} else {
			c.transform = tf
		}
		applyChildren(c, cs.Children)
	}
}

func validateSnapshot(s Snapshot) error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if _, err := s.Transform(); err != nil {
		return err
	}
	names := make(map[string]struct{}, len(s.Children))
	for _, c := range s.Children {
		if _, exists := names[c.Name]; exists {
			return errors.Wrapf(&NameCollisionError{Name: c.Name}, "Snapshot of %q", s.Name)
		}
		names[c.Name] = struct{}{}
		if err := validateSnapshot(c); err != nil {
			return err
		}
	}
	return nil
}
