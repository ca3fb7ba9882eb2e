package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomQuat(rng *rand.Rand) mgl64.Quat {
	for {
		q := mgl64.Quat{W: rng.NormFloat64(), V: mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}}
		if q.Len() > 1e-3 {
			return q.Scale(1 / q.Len())
		}
	}
}

func TestQuaternionNormalizedOnConstruction(t *testing.T) {
	r, err := FromQuaternion(0, 0, 0.7071, 0.7071)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.Quat().Len(), 1e-12)

	r, err = FromQuaternion(0, 0, 0, 2)
	require.NoError(t, err)
	assert.True(t, r.ApproxEqual(Identity(), 1e-12))
}

func TestQuaternionRejectsZero(t *testing.T) {
	_, err := FromQuaternion(0, 0, 0, 0)
	assert.Error(t, err)
	_, err = FromQuaternion(math.NaN(), 0, 0, 1)
	assert.Error(t, err)
}

func TestQuaternionToRPY(t *testing.T) {
	r := MustQuaternion(0, 0, 0.7071, 0.7071)
	rpy := r.RPY()
	assert.InDelta(t, 0, rpy.Roll, 1e-5)
	assert.InDelta(t, 0, rpy.Pitch, 1e-5)
	assert.InDelta(t, math.Pi/2, rpy.Yaw, 1e-5)

	q := r.Quat()
	assert.InDelta(t, 0.7071067811865476, q.V[2], 1e-9)
	assert.InDelta(t, 0.7071067811865476, q.W, 1e-9)
}

func TestRPYStorageIsKept(t *testing.T) {
	r := FromRPY(1, 42, 3)
	assert.Equal(t, KindRPY, r.Kind())
	assert.Equal(t, RPY{Roll: 1, Pitch: 42, Yaw: 3}, r.RPY())
	assert.Equal(t, KindQuaternion, r.AsQuaternion().Kind())
	assert.True(t, r.AsQuaternion().ApproxEqual(r, 1e-12))
}

func TestRoundTripQuaternionRPY(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		q := randomQuat(rng)
		r, err := FromQuat(q)
		require.NoError(t, err)

		back := r.AsRPY().AsQuaternion()
		if !back.ApproxEqual(r, 1e-9) {
			t.Fatalf("quat->rpy->quat mismatch for %v: got %v", r, back)
		}
	}
}

func TestRoundTripRPYQuaternion(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		r := FromRPY(
			(rng.Float64()*2-1)*math.Pi,
			(rng.Float64()*2-1)*math.Pi/2,
			(rng.Float64()*2-1)*math.Pi)

		back := r.AsQuaternion().AsRPY()
		if !back.ApproxEqual(r, 1e-9) {
			t.Fatalf("rpy->quat->rpy mismatch for %v: got %v", r, back)
		}
		got := back.RPY()
		want := r.RPY()
		assert.InDelta(t, want.Roll, got.Roll, 1e-7)
		assert.InDelta(t, want.Pitch, got.Pitch, 1e-7)
		assert.InDelta(t, want.Yaw, got.Yaw, 1e-7)
	}
}

func TestGimbalLockRoundTrip(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2} {
		r := FromRPY(0.3, pitch, -1.1)
		back := r.AsQuaternion().AsRPY().AsQuaternion()
		assert.True(t, back.ApproxEqual(r, 1e-9), "pitch %v: %v vs %v", pitch, r, back)
		assert.Zero(t, back.RPY().Roll)
	}
}

func TestNearGimbalRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		offset float64
	}{
		{"1e-5", 1e-5},
		{"1e-7", 1e-7},
		{"1e-8", 1e-8},
		{"2e-9", 2e-9},
		{"1e-12", 1e-12},
	} {
		for _, sign := range []float64{1, -1} {
			r := FromRPY(0.7, sign*(math.Pi/2-tc.offset), -1.3)
			q := r.AsQuaternion()
			rpy := q.RPY()
			back := q.AsRPY().AsQuaternion()
			assert.True(t, back.ApproxEqual(r, 1e-9), "offset %s sign %v: %v vs %v", tc.name, sign, r, back)
			assert.InDelta(t, sign*(math.Pi/2-tc.offset), rpy.Pitch, 1e-7, "offset %s sign %v", tc.name, sign)
			assert.LessOrEqual(t, math.Abs(rpy.Roll), math.Pi)
			assert.LessOrEqual(t, math.Abs(rpy.Yaw), math.Pi)
		}
	}
}

func TestEulerConvention(t *testing.T) {
	// yaw of 90 degrees turns +X into +Y
	r := FromRPY(0, 0, math.Pi/2)
	v := r.Quat().Rotate(mgl64.Vec3{1, 0, 0})
	assert.True(t, v.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-12), "%v", v)

	// roll is applied before yaw
	r = FromRPY(math.Pi/2, 0, math.Pi/2)
	v = r.Quat().Rotate(mgl64.Vec3{0, 1, 0})
	assert.True(t, v.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12), "%v", v)
}

func TestIsometryIdentity(t *testing.T) {
	iso := IdentityIsometry()
	pos, rot := iso.Decompose()
	assert.Equal(t, mgl64.Vec3{}, pos)
	assert.True(t, rot.ApproxEqual(Identity(), 1e-12))

	iso = FromTranslation(mgl64.Vec3{1, 2, 3})
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, iso.Position())
}

func TestIsometryInverse(t *testing.T) {
	iso := NewIsometry(mgl64.Vec3{1, 2, 3}, FromRPY(0, 0, math.Pi/2))
	inv := iso.Inverse()

	assert.True(t, inv.Translation.ApproxEqualThreshold(mgl64.Vec3{-2, 1, -3}, 1e-9), "%v", inv.Translation)
	assert.InDelta(t, -math.Pi/2, inv.Orientation().RPY().Yaw, 1e-9)
	assert.True(t, iso.Mul(inv).ApproxEqual(IdentityIsometry(), 1e-12))
}

func TestIsometryMul(t *testing.T) {
	a := NewIsometry(mgl64.Vec3{1, 0, 0}, FromRPY(0, 0, math.Pi/2))
	b := NewIsometry(mgl64.Vec3{0, 1, 0}, FromRPY(0, 0, math.Pi/2))

	c := a.Mul(b)
	assert.True(t, c.Translation.ApproxEqualThreshold(mgl64.Vec3{}, 1e-12), "%v", c.Translation)
	assert.True(t, c.Orientation().ApproxEqual(FromRPY(0, 0, math.Pi), 1e-12))

	p := mgl64.Vec3{0.5, -1, 2}
	assert.True(t, c.TransformPoint(p).ApproxEqualThreshold(a.TransformPoint(b.TransformPoint(p)), 1e-12))
}

func TestIsometryMulAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	random := func() Isometry {
		return Isometry{
			Translation: mgl64.Vec3{rng.Float64(), rng.Float64(), rng.Float64()},
			Rotation:    randomQuat(rng),
		}
	}
	for i := 0; i < 100; i++ {
		a, b, c := random(), random(), random()
		assert.True(t, a.Mul(b).Mul(c).ApproxEqual(a.Mul(b.Mul(c)), 1e-12))
	}
}
