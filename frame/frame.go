// Package frame implements a tree of named coordinate frames linked by rigid
// transforms, and poses anchored to those frames.
//
// Children are owned by their parent; the link back to the parent is a weak
// pointer, and so is the link from a Pose to its frame. A subtree therefore
// lives as long as a handle to it or to one of its ancestors is retained,
// and is reclaimed by the garbage collector afterwards.
//
// The tree is not safe for concurrent use. All handles to a frame alias the
// same node, so callers that share a tree between goroutines must serialize
// every access themselves.
package frame

import (
	"strings"
	"weak"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mogaika/frametree/geom"
)

type frameNode struct {
	id        uuid.UUID
	name      string
	transform geom.Isometry

	parent    weak.Pointer[frameNode]
	hasParent bool
	children  []*frameNode
}

func (n *frameNode) parentNode() (*frameNode, bool) {
	if !n.hasParent {
		return nil, false
	}
	p := n.parent.Value()
	return p, p != nil
}

func (n *frameNode) child(name string) *frameNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Frame is a handle to a node of the tree. Copies of a Frame refer to the
// same node and keep it alive.
type Frame struct {
	n *frameNode
}

// NewRoot creates the root of a new tree with an identity transform.
func NewRoot(name string) Frame {
	return Frame{n: &frameNode{
		id:        uuid.New(),
		name:      name,
		transform: geom.IdentityIsometry(),
	}}
}

func (f Frame) Name() string {
	return f.n.name
}

func (f Frame) ID() uuid.UUID {
	return f.n.id
}

// Equal reports whether both handles refer to the same node.
func (f Frame) Equal(other Frame) bool {
	return f.n == other.n
}

func (f Frame) IsRoot() bool {
	return !f.n.hasParent
}

func (f Frame) String() string {
	return f.n.name
}

// AddChild attaches a new frame under f. The child's transform maps points
// expressed in the child into f. Fails with *NameCollisionError if f already
// has a direct child with this name and with ErrInvalidName if name is empty
// or contains "/".
func (f Frame) AddChild(name string, position mgl64.Vec3, orientation geom.Rotation) (Frame, error) {
	if err := ValidateName(name); err != nil {
		return Frame{}, err
	}
	if f.n.child(name) != nil {
		return Frame{}, &NameCollisionError{Name: name}
	}
	return f.attach(name, geom.NewIsometry(position, orientation)), nil
}

func (f Frame) attach(name string, transform geom.Isometry) Frame {
	c := &frameNode{
		id:        uuid.New(),
		name:      name,
		transform: transform,
		parent:    weak.Make(f.n),
		hasParent: true,
	}
	f.n.children = append(f.n.children, c)
	return Frame{n: c}
}

// CalibrateChild adds a child placed so that reference, re-expressed in the
// new child, has the desired position and orientation.
func (f Frame) CalibrateChild(name string, desiredPosition mgl64.Vec3, desiredOrientation geom.Rotation, reference *Pose) (Frame, error) {
	if err := ValidateName(name); err != nil {
		return Frame{}, err
	}
	if f.n.child(name) != nil {
		return Frame{}, &NameCollisionError{Name: name}
	}
	if reference == nil {
		return Frame{}, errors.Wrapf(ErrNoReference, "Calibrating %q under %q", name, f.n.name)
	}
	inF, err := reference.InFrame(f)
	if err != nil {
		return Frame{}, err
	}
	desired := geom.NewIsometry(desiredPosition, desiredOrientation)
	return f.attach(name, inF.transform.Mul(desired.Inverse())), nil
}

// AddPose creates a pose anchored at f. Poses do not keep f alive.
func (f Frame) AddPose(position mgl64.Vec3, orientation geom.Rotation) *Pose {
	return &Pose{
		anchor:    weak.Make(f.n),
		transform: geom.NewIsometry(position, orientation),
	}
}

// TransformToParent returns the transform from f into its parent.
// A root has no parent and reports the identity.
func (f Frame) TransformToParent() geom.Isometry {
	return f.n.transform
}

func (f Frame) UpdateTransform(position mgl64.Vec3, orientation geom.Rotation) error {
	if f.IsRoot() {
		return ErrRootHasNoParent
	}
	f.n.transform = geom.NewIsometry(position, orientation)
	return nil
}

// ApplyInParentFrame moves f by iso expressed in the parent's axes.
func (f Frame) ApplyInParentFrame(iso geom.Isometry) error {
	if f.IsRoot() {
		return ErrRootHasNoParent
	}
	f.n.transform = iso.Mul(f.n.transform)
	return nil
}

// ApplyInLocalFrame moves f by iso expressed in its own axes.
func (f Frame) ApplyInLocalFrame(iso geom.Isometry) error {
	if f.IsRoot() {
		return ErrRootHasNoParent
	}
	f.n.transform = f.n.transform.Mul(iso)
	return nil
}

// Parent returns false for a root and for a frame whose parent was reclaimed.
func (f Frame) Parent() (Frame, bool) {
	p, ok := f.n.parentNode()
	if !ok {
		return Frame{}, false
	}
	return Frame{n: p}, true
}

func (f Frame) Children() []Frame {
	res := make([]Frame, len(f.n.children))
	for i, c := range f.n.children {
		res[i] = Frame{n: c}
	}
	return res
}

func (f Frame) Child(name string) (Frame, bool) {
	if c := f.n.child(name); c != nil {
		return Frame{n: c}, true
	}
	return Frame{}, false
}

// Depth is the number of edges up to the root, or up to the topmost
// ancestor still alive.
func (f Frame) Depth() int {
	depth := 0
	for n, ok := f.n.parentNode(); ok; n, ok = n.parentNode() {
		depth++
	}
	return depth
}

func (f Frame) Root() Frame {
	n := f.n
	for p, ok := n.parentNode(); ok; p, ok = n.parentNode() {
		n = p
	}
	return Frame{n: n}
}

// Path joins the names from the topmost ancestor down to f with "/".
func (f Frame) Path() string {
	chain := ancestry(f.n)
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.name
	}
	return strings.Join(names, "/")
}

// Lookup finds a descendant of f by its slash separated relative path.
// Leading and trailing slashes are ignored, an empty path is f itself.
func (f Frame) Lookup(path string) (Frame, error) {
	n := f.n
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return f, nil
	}
	for _, name := range strings.Split(trimmed, "/") {
		if n = n.child(name); n == nil {
			return Frame{}, errors.Wrapf(ErrFrameNotFound, "%q under %q", path, f.n.name)
		}
	}
	return Frame{n: n}, nil
}
