package frame

import (
	"fmt"
	"weak"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/frametree/geom"
)

// Pose is a rigid transform relative to a frame. It only references the
// frame weakly; use Frame.AddPose to create one.
type Pose struct {
	anchor    weak.Pointer[frameNode]
	transform geom.Isometry
}

// Frame returns the anchor frame, or false once it has been reclaimed.
func (p *Pose) Frame() (Frame, bool) {
	n := p.anchor.Value()
	if n == nil {
		return Frame{}, false
	}
	return Frame{n: n}, true
}

func (p *Pose) Transformation() geom.Isometry {
	return p.transform
}

func (p *Pose) Update(position mgl64.Vec3, orientation geom.Rotation) {
	p.transform = geom.NewIsometry(position, orientation)
}

func (p *Pose) ApplyInParentFrame(iso geom.Isometry) {
	p.transform = iso.Mul(p.transform)
}

func (p *Pose) ApplyInLocalFrame(iso geom.Isometry) {
	p.transform = p.transform.Mul(iso)
}

// InFrame returns a new pose anchored at target describing the same
// position and orientation.
func (p *Pose) InFrame(target Frame) (*Pose, error) {
	source, ok := p.Frame()
	if !ok {
		return nil, ErrWeakUpgradeFailed
	}
	tf, err := resolve(source, p.transform, target)
	if err != nil {
		return nil, err
	}
	return &Pose{anchor: weak.Make(target.n), transform: tf}, nil
}

func (p *Pose) String() string {
	if f, ok := p.Frame(); ok {
		return fmt.Sprintf("%s@%s", p.transform, f.Name())
	}
	return fmt.Sprintf("%s@<reclaimed>", p.transform)
}
