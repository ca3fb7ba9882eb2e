package frame

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrWeakUpgradeFailed is returned when the frame a value refers to has been reclaimed.
	ErrWeakUpgradeFailed = errors.New("referenced frame has been reclaimed")
	// ErrBrokenChain is returned when an ancestor walk hits a reclaimed parent
	// or runs out of parents before reaching the requested ancestor.
	ErrBrokenChain = errors.New("frame chain is broken")
	// ErrRootHasNoParent is returned when changing the transform of a root frame.
	ErrRootHasNoParent = errors.New("root frame has no parent")
	ErrFrameNotFound   = errors.New("frame not found")
	// ErrInvalidName is returned for empty frame names and names containing "/".
	ErrInvalidName = errors.New("invalid frame name")
	// ErrNoReference is returned when calibrating against a nil pose.
	ErrNoReference = errors.New("no reference pose")
)

type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("a child with name %q already exists", e.Name)
}

type NoCommonAncestorError struct {
	A, B string
}

func (e *NoCommonAncestorError) Error() string {
	return fmt.Sprintf("frames %q and %q have no common ancestor", e.A, e.B)
}

type SnapshotMismatchError struct {
	Want, Got string
}

func (e *SnapshotMismatchError) Error() string {
	return fmt.Sprintf("snapshot of frame %q cannot be applied to frame %q", e.Got, e.Want)
}

func IsNameCollision(err error) bool {
	var nc *NameCollisionError
	return errors.As(err, &nc)
}

func IsNoCommonAncestor(err error) bool {
	var nca *NoCommonAncestorError
	return errors.As(err, &nca)
}

// ValidateName rejects names that Lookup could never reach.
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}
