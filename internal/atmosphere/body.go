package atmosphere

import (
	"fmt"
	"sort"

	"github.com/san-kum/fuelsim/internal/fuelflow"
)

// Body is a celestial body a vessel can fly at.
type Body struct {
	Name string
	// SurfaceGravity in m/s², used for thrust-to-weight ratios.
	SurfaceGravity float64
	Model          Model
}

var bodies = map[string]Body{
	"earth": {
		Name:           "earth",
		SurfaceGravity: 9.80665,
		Model:          USSA76{},
	},
	"kerbin": {
		Name:           "kerbin",
		SurfaceGravity: 9.81,
		Model: Exponential{
			SeaLevelPressure: 101325,
			Temperature:      288.15,
			ScaleHeight:      5600,
			Ceiling:          70000,
		},
	},
	"duna": {
		Name:           "duna",
		SurfaceGravity: 2.94,
		Model: Exponential{
			SeaLevelPressure: 6755,
			Temperature:      250,
			ScaleHeight:      5700,
			Ceiling:          50000,
		},
	},
	"vacuum": {
		Name:           "vacuum",
		SurfaceGravity: 9.80665,
		Model:          Vacuum{},
	},
}

func LookupBody(name string) (Body, error) {
	b, ok := bodies[name]
	if !ok {
		return Body{}, fmt.Errorf("unknown body %q (available: %v)", name, ListBodies())
	}
	return b, nil
}

func ListBodies() []string {
	names := make([]string, 0, len(bodies))
	for name := range bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Conditions samples a model at an altitude and airspeed.
func Conditions(m Model, altitude, speed float64) fuelflow.Conditions {
	s := m.At(altitude)
	c := fuelflow.Conditions{
		Pressure: s.Pressure / 1000,
		Density:  s.Density,
	}
	if a := s.SpeedOfSound(); a > 0 && s.Pressure > 0 {
		c.Mach = speed / a
	}
	return c
}
