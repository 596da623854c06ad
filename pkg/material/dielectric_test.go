package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAir(t *testing.T) {
	for _, wvl := range []float64{400, 550, 1000} {
		assert.Equal(t, 1.0, Air{}.RefractiveIndex(wvl))
	}
	assert.Equal(t, "air", Air{}.Name())
}

func TestDielectric_ConstantIndex(t *testing.T) {
	glass := NewDielectric(1.5)
	assert.Equal(t, 1.5, glass.RefractiveIndex(486))
	assert.Equal(t, 1.5, glass.RefractiveIndex(656))
	assert.Equal(t, "1.5", glass.Name())

	glass.Label = "BK7-ish"
	assert.Equal(t, "BK7-ish", glass.Name())
}
