package material

import "fmt"

// Dielectric is a non-dispersive medium with a constant refractive index
type Dielectric struct {
	Index float64 // Index of refraction (e.g., 1.5 for glass)
	Label string
}

// NewDielectric creates a new constant-index medium
func NewDielectric(index float64) *Dielectric {
	return &Dielectric{Index: index}
}

// RefractiveIndex returns the constant index regardless of wavelength
func (d *Dielectric) RefractiveIndex(float64) float64 {
	return d.Index
}

// Name returns the label, or the formatted index when unlabeled
func (d *Dielectric) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return fmt.Sprintf("%.6g", d.Index)
}
