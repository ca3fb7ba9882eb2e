package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type Kind int8

const (
	KindQuaternion Kind = iota
	KindRPY
)

func (k Kind) String() string {
	switch k {
	case KindQuaternion:
		return "quaternion"
	case KindRPY:
		return "rpy"
	default:
		return fmt.Sprintf("Kind(%d)", int8(k))
	}
}

// RPY holds roll, pitch and yaw angles in radians.
type RPY struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Rotation is either a unit quaternion or a roll-pitch-yaw triple.
// Both forms describe the same rotation action, only the storage differs.
// The zero value is the identity quaternion.
type Rotation struct {
	kind Kind
	q    mgl64.Quat
	rpy  RPY
	set  bool
}

func Identity() Rotation {
	return Rotation{kind: KindQuaternion, q: mgl64.QuatIdent(), set: true}
}

// FromQuaternion normalizes (x, y, z, w). Only quaternions that cannot be
// normalized (zero length, NaN, Inf) are rejected.
func FromQuaternion(x, y, z, w float64) (Rotation, error) {
	return FromQuat(mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}})
}

func FromQuat(q mgl64.Quat) (Rotation, error) {
	n, err := normalize(q)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{kind: KindQuaternion, q: n, set: true}, nil
}

func MustQuaternion(x, y, z, w float64) Rotation {
	r, err := FromQuaternion(x, y, z, w)
	if err != nil {
		panic(err)
	}
	return r
}

// FromRPY uses the fixed convention q = Rz(yaw) * Ry(pitch) * Rx(roll).
func FromRPY(roll, pitch, yaw float64) Rotation {
	return Rotation{kind: KindRPY, rpy: RPY{Roll: roll, Pitch: pitch, Yaw: yaw}, set: true}
}

func (r Rotation) Kind() Kind {
	return r.kind
}

// Quat returns the canonical unit quaternion.
func (r Rotation) Quat() mgl64.Quat {
	if !r.set {
		return mgl64.QuatIdent()
	}
	switch r.kind {
	case KindRPY:
		return EulerToQuat(r.rpy)
	default:
		return r.q
	}
}

func (r Rotation) RPY() RPY {
	if r.set && r.kind == KindRPY {
		return r.rpy
	}
	return QuatToEuler(r.Quat())
}

func (r Rotation) AsQuaternion() Rotation {
	return Rotation{kind: KindQuaternion, q: r.Quat(), set: true}
}

func (r Rotation) AsRPY() Rotation {
	return Rotation{kind: KindRPY, rpy: r.RPY(), set: true}
}

// ApproxEqual reports whether both rotations act the same within eps,
// comparing quaternion components up to sign (q and -q are one rotation).
func (r Rotation) ApproxEqual(other Rotation, eps float64) bool {
	return QuatApproxEqual(r.Quat(), other.Quat(), eps)
}

func (r Rotation) String() string {
	if r.set && r.kind == KindRPY {
		return fmt.Sprintf("rpy(%.4f, %.4f, %.4f)", r.rpy.Roll, r.rpy.Pitch, r.rpy.Yaw)
	}
	q := r.Quat()
	return fmt.Sprintf("quat(%.4f, %.4f, %.4f, %.4f)", q.V[0], q.V[1], q.V[2], q.W)
}

func QuatApproxEqual(a, b mgl64.Quat, eps float64) bool {
	same, flipped := true, true
	for i := 0; i < 3; i++ {
		if math.Abs(a.V[i]-b.V[i]) > eps {
			same = false
		}
		if math.Abs(a.V[i]+b.V[i]) > eps {
			flipped = false
		}
	}
	same = same && math.Abs(a.W-b.W) <= eps
	flipped = flipped && math.Abs(a.W+b.W) <= eps
	return same || flipped
}

func normalize(q mgl64.Quat) (mgl64.Quat, error) {
	l := q.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Quat{}, errors.Errorf("Cannot normalize quaternion (%v, %v, %v, %v)", q.V[0], q.V[1], q.V[2], q.W)
	}
	return q.Scale(1 / l), nil
}
