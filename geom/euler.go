package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// below this cos(pitch) the roll and yaw axes coincide
const gimbalThreshold = 1e-9

// input in radians
func EulerToQuat(e RPY) mgl64.Quat {
	sr, cr := math.Sincos(e.Roll * 0.5)
	sp, cp := math.Sincos(e.Pitch * 0.5)
	sy, cy := math.Sincos(e.Yaw * 0.5)

	var q mgl64.Quat
	q.V[0] = sr*cp*cy - cr*sp*sy
	q.V[1] = cr*sp*cy + sr*cp*sy
	q.V[2] = cr*cp*sy - sr*sp*cy
	q.W = cr*cp*cy + sr*sp*sy

	return q.Normalize()
}

// result in radians, roll and yaw in (-pi, pi], pitch in [-pi/2, pi/2].
// At gimbal lock roll is reported as zero and the whole rotation about the
// shared axis goes into yaw.
func QuatToEuler(q mgl64.Quat) (e RPY) {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	r00 := 1 - 2*(y*y+z*z)
	r10 := 2 * (x*y + w*z)
	r20 := 2 * (x*z - w*y)

	cp := math.Hypot(r00, r10)
	e.Pitch = math.Atan2(-r20, cp)

	// half of yaw+roll and half of yaw-roll, each scaled by a factor that
	// vanishes only at one of the poles
	sum := math.Atan2(z+x, w-y)
	diff := math.Atan2(z-x, w+y)

	switch {
	case cp > gimbalThreshold:
		e.Roll = wrapAngle(sum - diff)
		e.Yaw = wrapAngle(sum + diff)
	case e.Pitch > 0:
		e.Yaw = wrapAngle(2 * diff)
	default:
		e.Yaw = wrapAngle(2 * sum)
	}
	return e
}

// wraps into (-pi, pi]
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func DegreesToRadians(v RPY) RPY {
	return RPY{Roll: mgl64.DegToRad(v.Roll), Pitch: mgl64.DegToRad(v.Pitch), Yaw: mgl64.DegToRad(v.Yaw)}
}

func RadiansToDegrees(v RPY) RPY {
	return RPY{Roll: mgl64.RadToDeg(v.Roll), Pitch: mgl64.RadToDeg(v.Pitch), Yaw: mgl64.RadToDeg(v.Yaw)}
}
