package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Isometry is a rigid transform: rotation followed by translation, no scale.
// Rotation is always a unit quaternion.
type Isometry struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

func IdentityIsometry() Isometry {
	return Isometry{Rotation: mgl64.QuatIdent()}
}

func NewIsometry(position mgl64.Vec3, orientation Rotation) Isometry {
	return Isometry{Translation: position, Rotation: orientation.Quat()}
}

func FromTranslation(position mgl64.Vec3) Isometry {
	return Isometry{Translation: position, Rotation: mgl64.QuatIdent()}
}

func FromRotation(orientation Rotation) Isometry {
	return Isometry{Rotation: orientation.Quat()}
}

// Mul returns a∘b: a point expressed in b's source frame mapped through b, then a.
func (a Isometry) Mul(b Isometry) Isometry {
	return Isometry{
		Translation: a.Translation.Add(a.Rotation.Rotate(b.Translation)),
		Rotation:    a.Rotation.Mul(b.Rotation).Normalize(),
	}
}

func (a Isometry) Inverse() Isometry {
	inv := a.Rotation.Conjugate()
	return Isometry{
		Translation: inv.Rotate(a.Translation).Mul(-1),
		Rotation:    inv,
	}
}

func (a Isometry) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return a.Translation.Add(a.Rotation.Rotate(p))
}

func (a Isometry) Position() mgl64.Vec3 {
	return a.Translation
}

func (a Isometry) Orientation() Rotation {
	return Rotation{kind: KindQuaternion, q: a.Rotation, set: true}
}

func (a Isometry) Decompose() (mgl64.Vec3, Rotation) {
	return a.Translation, a.Orientation()
}

func (a Isometry) ApproxEqual(b Isometry, eps float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a.Translation[i]-b.Translation[i]) > eps {
			return false
		}
	}
	return QuatApproxEqual(a.Rotation, b.Rotation, eps)
}

func (a Isometry) String() string {
	q := a.Rotation
	return fmt.Sprintf("(%.2f, %.2f, %.2f)(%.4f, %.4f, %.4f, %.4f)",
		a.Translation[0], a.Translation[1], a.Translation[2],
		q.V[0], q.V[1], q.V[2], q.W)
}
