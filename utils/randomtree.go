package utils

import (
	"math"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
)

var randomTreeLock sync.Mutex

// RandomTree builds a tree of the given depth where every inner frame has
// fanout children. Same seed, same tree.
func RandomTree(rootName string, depth, fanout int, seed int64) frame.Frame {
	randomTreeLock.Lock()
	defer randomTreeLock.Unlock()

	SeedRandomNames(seed)
	r := rand.New(rand.NewSource(seed))

	root := frame.NewRoot(rootName)
	names := RandomNameGenerator{rootName: {}}

	var grow func(parent frame.Frame, level int)
	grow = func(parent frame.Frame, level int) {
		if level >= depth {
			return
		}
		for i := 0; i < fanout; i++ {
			pos := mgl64.Vec3{r.Float64()*4 - 2, r.Float64()*4 - 2, r.Float64()*4 - 2}
			rot := geom.FromRPY(
				(r.Float64()*2-1)*math.Pi,
				(r.Float64()*2-1)*math.Pi/2,
				(r.Float64()*2-1)*math.Pi)
			child, err := parent.AddChild(names.RandomName(), pos, rot)
			if err != nil {
				panic(err)
			}
			grow(child, level+1)
		}
	}
	grow(root, 0)
	return root
}

// RandomIsometry draws a translation in [-scale, scale] and a uniformly
// random orientation.
func RandomIsometry(r *rand.Rand, scale float64) geom.Isometry {
	pos := mgl64.Vec3{
		(r.Float64()*2 - 1) * scale,
		(r.Float64()*2 - 1) * scale,
		(r.Float64()*2 - 1) * scale,
	}
	q := mgl64.Quat{W: r.NormFloat64(), V: mgl64.Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}}
	rot, err := geom.FromQuat(q)
	if err != nil {
		rot = geom.Identity()
	}
	return geom.NewIsometry(pos, rot)
}
