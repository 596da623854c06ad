package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlass_MatchesDLineAndAbbe(t *testing.T) {
	tests := []struct {
		name   string
		nd, vd float64
	}{
		{"crown", 1.5168, 64.17},
		{"flint", 1.6200, 36.37},
		{"dense flint", 1.8052, 25.36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGlass(tt.nd, tt.vd, "")
			nd := g.RefractiveIndex(WavelengthD)
			nf := g.RefractiveIndex(WavelengthF)
			nc := g.RefractiveIndex(WavelengthC)

			assert.InDelta(t, tt.nd, nd, 1e-12)
			assert.InDelta(t, tt.vd, (nd-1)/(nf-nc), 1e-9)
			assert.Greater(t, nf, nd, "normal dispersion: blue index above d-line")
			assert.Greater(t, nd, nc, "normal dispersion: red index below d-line")
		})
	}
}

func TestGlass_ZeroAbbeIsNonDispersive(t *testing.T) {
	g := NewGlass(1.7, 0, "mystery")
	assert.Equal(t, 1.7, g.RefractiveIndex(400))
	assert.Equal(t, 1.7, g.RefractiveIndex(800))
	assert.Equal(t, "mystery", g.Name())
}

func TestGlassDecode(t *testing.T) {
	nd, vd := GlassDecode(517.642)
	assert.InDelta(t, 1.517, nd, 1e-12)
	assert.InDelta(t, 64.2, vd, 1e-9)

	assert.Equal(t, "517.642", NewGlass(nd, vd, "").Name())
}
