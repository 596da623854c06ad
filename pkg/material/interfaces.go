// Package material provides media that fill the gaps of an optical system.
// Every type here satisfies optics.Medium.
package material

import "github.com/df07/go-sequential-optics/pkg/optics"

// Fraunhofer lines (nm) used to characterize glass dispersion
const (
	WavelengthF = 486.1327
	WavelengthD = 587.5618
	WavelengthC = 656.2725
)

var (
	_ optics.Medium = Air{}
	_ optics.Medium = (*Dielectric)(nil)
	_ optics.Medium = (*Glass)(nil)
)

// Air is a medium with unit refractive index at every wavelength
type Air struct{}

// RefractiveIndex returns 1
func (Air) RefractiveIndex(float64) float64 { return 1.0 }

// Name returns "air"
func (Air) Name() string { return "air" }
