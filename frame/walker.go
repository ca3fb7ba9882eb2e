package frame

import (
	"github.com/pkg/errors"

	"github.com/mogaika/frametree/geom"
)

// ancestry returns the chain from the topmost reachable ancestor down to n.
func ancestry(n *frameNode) []*frameNode {
	chain := make([]*frameNode, 0, 8)
	for cur, ok := n, true; ok; cur, ok = cur.parentNode() {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// LCAWith returns the deepest frame that is an ancestor of (or equal to)
// both f and other. Nodes are compared by identity, never by name. False
// means the frames live in disjoint trees.
func (f Frame) LCAWith(other Frame) (Frame, bool) {
	a := ancestry(f.n)
	b := ancestry(other.n)
	if a[0] != b[0] {
		return Frame{}, false
	}

	lca := a[0]
	for i := 1; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
		lca = a[i]
	}
	return Frame{n: lca}, true
}

// WalkUpAndTransform composes transforms from f outward until ancestor is
// reached. The result maps points expressed in f into ancestor.
func (f Frame) WalkUpAndTransform(ancestor Frame) (geom.Isometry, error) {
	acc := geom.IdentityIsometry()
	for n := f.n; n != ancestor.n; {
		acc = n.transform.Mul(acc)
		p, ok := n.parentNode()
		if !ok {
			if n.hasParent {
				return geom.Isometry{}, errors.Wrapf(ErrBrokenChain, "parent of %q was reclaimed", n.name)
			}
			return geom.Isometry{}, errors.Wrapf(ErrBrokenChain, "%q is not an ancestor of %q", ancestor.n.name, f.n.name)
		}
		n = p
	}
	return acc, nil
}

// TransformTo returns the transform mapping points expressed in f into target.
func (f Frame) TransformTo(target Frame) (geom.Isometry, error) {
	return resolve(f, geom.IdentityIsometry(), target)
}

// resolve expresses local, given relative to source, relative to target:
// inverse(walk(target, lca)) * walk(source, lca) * local.
func resolve(source Frame, local geom.Isometry, target Frame) (geom.Isometry, error) {
	ancestor, ok := source.LCAWith(target)
	if !ok {
		return geom.Isometry{}, &NoCommonAncestorError{A: source.Name(), B: target.Name()}
	}

	up, err := source.WalkUpAndTransform(ancestor)
	if err != nil {
		return geom.Isometry{}, err
	}
	down, err := target.WalkUpAndTransform(ancestor)
	if err != nil {
		return geom.Isometry{}, err
	}
	return down.Inverse().Mul(up).Mul(local), nil
}
