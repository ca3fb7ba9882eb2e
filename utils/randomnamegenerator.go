package utils

import (
	"fmt"
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out silly names, never the same one twice.
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) RandomName() string {
	if *rng == nil {
		*rng = make(map[string]struct{})
	}
	for attempt := 0; ; attempt++ {
		name := randomdata.SillyName()
		if attempt > 32 {
			name = fmt.Sprintf("%s%d", name, len(*rng))
		}
		// avoid duplicate names
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}

// SeedRandomNames makes the following names reproducible.
func SeedRandomNames(seed int64) {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
}
