package frame

import (
	"math"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/frametree/geom"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, eps), "want %v, got %v", want, got)
}

func mustChild(t *testing.T, parent Frame, name string, pos mgl64.Vec3, rot geom.Rotation) Frame {
	t.Helper()
	child, err := parent.AddChild(name, pos, rot)
	require.NoError(t, err)
	return child
}

// collect runs the garbage collector until cond holds or gives up.
func collect(cond func() bool) bool {
	for i := 0; i < 10; i++ {
		runtime.GC()
		if cond() {
			return true
		}
	}
	return false
}

func TestNewRoot(t *testing.T) {
	root := NewRoot("world")
	assert.Equal(t, "world", root.Name())
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Depth())
	_, ok := root.Parent()
	assert.False(t, ok)
	assert.True(t, root.TransformToParent().ApproxEqual(geom.IdentityIsometry(), 0))
	assert.Empty(t, root.Children())
}

func TestTreeStructure(t *testing.T) {
	root := NewRoot("root")
	child := mustChild(t, root, "child", mgl64.Vec3{1, 2, 3}, geom.Identity())
	grandchild := mustChild(t, child, "grandchild", mgl64.Vec3{1, 2, 3}, geom.Identity())

	assert.Equal(t, 2, grandchild.Depth())
	parent, ok := grandchild.Parent()
	require.True(t, ok)
	assert.Equal(t, "child", parent.Name())
	assert.True(t, parent.Equal(child))
	assert.True(t, grandchild.Root().Equal(root))
	assert.Equal(t, "root/child/grandchild", grandchild.Path())

	found, err := root.Lookup("child/grandchild")
	require.NoError(t, err)
	assert.True(t, found.Equal(grandchild))

	_, err = root.Lookup("child/nope")
	assert.True(t, errors.Is(err, ErrFrameNotFound))
}

func TestChildrenInCreationOrder(t *testing.T) {
	root := NewRoot("world")
	for _, name := range []string{"c", "a", "b"} {
		mustChild(t, root, name, mgl64.Vec3{}, geom.Identity())
	}
	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestAddChildNameCollision(t *testing.T) {
	root := NewRoot("world")
	first := mustChild(t, root, "duplicate", mgl64.Vec3{1, 0, 0}, geom.Identity())
	mustChild(t, first, "inner", mgl64.Vec3{}, geom.Identity())

	_, err := root.AddChild("duplicate", mgl64.Vec3{2, 0, 0}, geom.Identity())
	require.Error(t, err)
	assert.True(t, IsNameCollision(err))
	assert.EqualError(t, err, `a child with name "duplicate" already exists`)

	children := root.Children()
	require.Len(t, children, 1)
	assert.True(t, children[0].Equal(first))
	assertVec(t, mgl64.Vec3{1, 0, 0}, children[0].TransformToParent().Translation)
	assert.Len(t, children[0].Children(), 1)
}

func TestAddChildInvalidNames(t *testing.T) {
	root := NewRoot("world")
	for _, name := range []string{"", "/", "a/b", "/a", "a/"} {
		_, err := root.AddChild(name, mgl64.Vec3{}, geom.Identity())
		assert.True(t, errors.Is(err, ErrInvalidName), "name %q: %v", name, err)

		_, err = root.CalibrateChild(name, mgl64.Vec3{}, geom.Identity(), root.AddPose(mgl64.Vec3{}, geom.Identity()))
		assert.True(t, errors.Is(err, ErrInvalidName), "name %q: %v", name, err)
	}
	assert.Empty(t, root.Children())
}

func TestLookupPaths(t *testing.T) {
	root := NewRoot("world")
	arm := mustChild(t, root, "arm", mgl64.Vec3{}, geom.Identity())
	tool := mustChild(t, arm, "tool", mgl64.Vec3{}, geom.Identity())

	for _, tc := range []struct {
		path string
		want Frame
	}{
		{"", root},
		{"/", root},
		{"arm", arm},
		{"/arm/", arm},
		{"arm/tool", tool},
		{"arm/tool/", tool},
	} {
		found, err := root.Lookup(tc.path)
		require.NoError(t, err, "path %q", tc.path)
		assert.True(t, found.Equal(tc.want), "path %q gave %v", tc.path, found)
	}

	for _, path := range []string{"arm//tool", "//arm", "arm/tool//", "arm/x", "tool"} {
		_, err := root.Lookup(path)
		assert.True(t, errors.Is(err, ErrFrameNotFound), "path %q: %v", path, err)
	}
}

func TestSiblingNamesAreLocal(t *testing.T) {
	root := NewRoot("world")
	a := mustChild(t, root, "a", mgl64.Vec3{}, geom.Identity())
	b := mustChild(t, root, "b", mgl64.Vec3{}, geom.Identity())
	mustChild(t, a, "tool", mgl64.Vec3{}, geom.Identity())
	mustChild(t, b, "tool", mgl64.Vec3{}, geom.Identity())
}

func TestUpdateTransformIsShared(t *testing.T) {
	root := NewRoot("root")
	child := mustChild(t, root, "child", mgl64.Vec3{1, 2, 3}, geom.Identity())
	alias := root.Children()[0]

	require.NoError(t, child.UpdateTransform(mgl64.Vec3{5, 6, 7}, geom.MustQuaternion(0, 0.7071, 0, 0.7071)))

	tf := alias.TransformToParent()
	assertVec(t, mgl64.Vec3{5, 6, 7}, tf.Translation)
	assert.True(t, tf.Orientation().ApproxEqual(geom.MustQuaternion(0, 1, 0, 1), eps))
}

func TestRootTransformPolicy(t *testing.T) {
	root := NewRoot("root")
	assert.True(t, root.TransformToParent().ApproxEqual(geom.IdentityIsometry(), 0))
	assert.Equal(t, ErrRootHasNoParent, root.UpdateTransform(mgl64.Vec3{1, 0, 0}, geom.Identity()))
	assert.Equal(t, ErrRootHasNoParent, root.ApplyInParentFrame(geom.FromTranslation(mgl64.Vec3{1, 0, 0})))
	assert.Equal(t, ErrRootHasNoParent, root.ApplyInLocalFrame(geom.FromTranslation(mgl64.Vec3{1, 0, 0})))
}

func TestApplyInParentFrame(t *testing.T) {
	root := NewRoot("root")
	child := mustChild(t, root, "child", mgl64.Vec3{1, 0, 1}, geom.Identity())

	require.NoError(t, child.ApplyInParentFrame(geom.FromRotation(geom.FromRPY(0, 0, math.Pi/2))))
	assertVec(t, mgl64.Vec3{0, 1, 1}, child.TransformToParent().Translation)

	require.NoError(t, child.ApplyInParentFrame(geom.FromTranslation(mgl64.Vec3{1, 0, 1})))
	assertVec(t, mgl64.Vec3{1, 1, 2}, child.TransformToParent().Translation)
}

func TestApplyInLocalFrame(t *testing.T) {
	root := NewRoot("root")
	child := mustChild(t, root, "child", mgl64.Vec3{}, geom.FromRPY(0, 0, math.Pi/2))

	require.NoError(t, child.ApplyInLocalFrame(geom.FromTranslation(mgl64.Vec3{1, 0, 0})))
	assertVec(t, mgl64.Vec3{0, 1, 0}, child.TransformToParent().Translation)

	require.NoError(t, child.ApplyInLocalFrame(geom.FromRotation(geom.FromRPY(0, 0, math.Pi/2))))
	tf := child.TransformToParent()
	assertVec(t, mgl64.Vec3{0, 1, 0}, tf.Translation)
	assert.True(t, tf.Orientation().ApproxEqual(geom.FromRPY(0, 0, math.Pi), eps))
}

func TestLCA(t *testing.T) {
	root := NewRoot("root")
	a := mustChild(t, root, "a", mgl64.Vec3{}, geom.Identity())
	b := mustChild(t, root, "b", mgl64.Vec3{}, geom.Identity())
	aa := mustChild(t, a, "x", mgl64.Vec3{}, geom.Identity())
	ab := mustChild(t, a, "y", mgl64.Vec3{}, geom.Identity())
	bx := mustChild(t, b, "x", mgl64.Vec3{}, geom.Identity())

	for _, tc := range []struct {
		name string
		l, r Frame
		want Frame
	}{
		{"siblings", aa, ab, a},
		{"same name different parents", aa, bx, root},
		{"ancestor", aa, a, a},
		{"self", ab, ab, ab},
		{"root", root, bx, root},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lca, ok := tc.l.LCAWith(tc.r)
			require.True(t, ok)
			assert.True(t, lca.Equal(tc.want), "got %v", lca)
		})
	}
}

func TestLCADisjointTreesWithSameNames(t *testing.T) {
	one := NewRoot("world")
	two := NewRoot("world")
	a := mustChild(t, one, "a", mgl64.Vec3{}, geom.Identity())
	b := mustChild(t, two, "a", mgl64.Vec3{}, geom.Identity())

	_, ok := a.LCAWith(b)
	assert.False(t, ok)
	_, ok = one.LCAWith(two)
	assert.False(t, ok)
}

func TestWalkUpAndTransform(t *testing.T) {
	root := NewRoot("root")
	a := mustChild(t, root, "a", mgl64.Vec3{1, 0, 0}, geom.FromRPY(0, 0, math.Pi/2))
	b := mustChild(t, a, "b", mgl64.Vec3{0, 2, 0}, geom.FromRPY(0.3, 0, 0))

	tf, err := b.WalkUpAndTransform(root)
	require.NoError(t, err)
	want := a.TransformToParent().Mul(b.TransformToParent())
	assert.True(t, tf.ApproxEqual(want, eps))

	tf, err = b.WalkUpAndTransform(b)
	require.NoError(t, err)
	assert.True(t, tf.ApproxEqual(geom.IdentityIsometry(), 0))

	other := NewRoot("other")
	_, err = b.WalkUpAndTransform(other)
	assert.True(t, errors.Is(err, ErrBrokenChain))
}

func TestCalibrateChild(t *testing.T) {
	base := NewRoot("base")
	reference := mustChild(t, base, "reference", mgl64.Vec3{1, 1, 1}, geom.Identity())
	refPose := reference.AddPose(mgl64.Vec3{1, 1, 1}, geom.Identity())

	calibrated, err := base.CalibrateChild("calibrated", mgl64.Vec3{}, geom.FromRPY(0, 0, 0), refPose)
	require.NoError(t, err)

	tf := calibrated.TransformToParent()
	assertVec(t, mgl64.Vec3{2, 2, 2}, tf.Translation)
	assert.True(t, tf.Orientation().ApproxEqual(geom.Identity(), eps))
}

func TestCalibrateChildRoundTrip(t *testing.T) {
	base := NewRoot("base")
	arm := mustChild(t, base, "arm", mgl64.Vec3{0.5, -1, 2}, geom.FromRPY(0.2, -0.4, 1.1))
	tool := mustChild(t, arm, "tool", mgl64.Vec3{0, 0, 0.3}, geom.FromRPY(0, 0.7, 0))
	side := mustChild(t, base, "side", mgl64.Vec3{-3, 0, 0}, geom.FromRPY(0, 0, -0.5))
	refPose := tool.AddPose(mgl64.Vec3{0.1, 0.2, 0.3}, geom.FromRPY(1, 0, 0.25))

	desiredPos := mgl64.Vec3{0.4, -0.2, 1.5}
	desiredRot := geom.FromRPY(-0.3, 0.2, 2.0)
	calibrated, err := side.CalibrateChild("calibrated", desiredPos, desiredRot, refPose)
	require.NoError(t, err)

	inCalibrated, err := refPose.InFrame(calibrated)
	require.NoError(t, err)
	tf := inCalibrated.Transformation()
	assertVec(t, desiredPos, tf.Translation)
	assert.True(t, tf.Orientation().ApproxEqual(desiredRot, eps))
}

func TestCalibrateChildErrors(t *testing.T) {
	base := NewRoot("base")
	mustChild(t, base, "taken", mgl64.Vec3{}, geom.Identity())
	refPose := base.AddPose(mgl64.Vec3{}, geom.Identity())

	_, err := base.CalibrateChild("taken", mgl64.Vec3{}, geom.Identity(), refPose)
	assert.True(t, IsNameCollision(err))

	other := NewRoot("other")
	_, err = other.CalibrateChild("free", mgl64.Vec3{}, geom.Identity(), refPose)
	assert.True(t, IsNoCommonAncestor(err))
	assert.Empty(t, other.Children())

	_, err = base.CalibrateChild("free", mgl64.Vec3{}, geom.Identity(), nil)
	assert.True(t, errors.Is(err, ErrNoReference), "%v", err)
	assert.Len(t, base.Children(), 1)
}

func buildOrphan(t *testing.T) (a, b Frame) {
	root := NewRoot("root")
	a = mustChild(t, root, "a", mgl64.Vec3{1, 0, 0}, geom.Identity())
	b = mustChild(t, a, "b", mgl64.Vec3{0, 1, 0}, geom.Identity())
	return a, b
}

func TestReclaimedParent(t *testing.T) {
	a, b := buildOrphan(t)
	require.True(t, collect(func() bool {
		_, ok := a.Parent()
		return !ok
	}), "root was not reclaimed")

	assert.False(t, a.IsRoot())
	assert.Equal(t, 0, a.Depth())
	assert.Equal(t, 1, b.Depth())
	assert.Equal(t, "a/b", b.Path())
	assert.True(t, b.Root().Equal(a))

	// frames below the reclaimed root still resolve among themselves
	tf, err := b.TransformTo(a)
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{0, 1, 0}, tf.Translation)

	_, err = b.WalkUpAndTransform(NewRoot("elsewhere"))
	assert.True(t, errors.Is(err, ErrBrokenChain))
}
