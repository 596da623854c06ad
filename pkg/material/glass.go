package material

import (
	"fmt"
	"math"
)

// Glass is a dispersive medium described by its d-line index and Abbe number.
// The index follows a two-term Cauchy model n(λ) = A + B/λ² fitted so that
// n(d) = Nd and (n(F) - n(C)) = (Nd - 1)/Vd.
type Glass struct {
	Nd    float64
	Vd    float64
	Label string

	a, b float64
}

// NewGlass creates a glass and fits its dispersion coefficients
func NewGlass(nd, vd float64, label string) *Glass {
	g := &Glass{Nd: nd, Vd: vd, Label: label}
	g.fit()
	return g
}

func (g *Glass) fit() {
	if g.Vd == 0 {
		g.a, g.b = g.Nd, 0
		return
	}
	dn := (g.Nd - 1) / g.Vd
	g.b = dn / (1/(WavelengthF*WavelengthF) - 1/(WavelengthC*WavelengthC))
	g.a = g.Nd - g.b/(WavelengthD*WavelengthD)
}

// RefractiveIndex evaluates the Cauchy model at wvl (nm)
func (g *Glass) RefractiveIndex(wvl float64) float64 {
	return g.a + g.b/(wvl*wvl)
}

// Name returns the label, or the six digit glass code when unlabeled
func (g *Glass) Name() string {
	if g.Label != "" {
		return g.Label
	}
	return fmt.Sprintf("%.0f.%.0f", math.Round((g.Nd-1)*1000), math.Round(g.Vd*10))
}

// GlassDecode splits a numeric glass code into index and Abbe number,
// e.g. 517.642 -> (1.517, 64.2).
func GlassDecode(code float64) (nd, vd float64) {
	whole := math.Trunc(code)
	nd = round6(1.0 + whole/1000)
	vd = round6(100.0 * (code - whole))
	return nd, vd
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
