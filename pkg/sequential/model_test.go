package sequential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/material"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// singlet builds a biconvex lens with the stop on its front face
func singlet(t *testing.T) *Model {
	t.Helper()
	m := NewModel()
	require.NoError(t, m.SetThickness(0, 100))
	_, err := m.AddSurface(SurfaceData{Curvature: 0.02, Thickness: 5, Index: 1.5168, VNumber: 64.17})
	require.NoError(t, err)
	_, err = m.AddSurface(SurfaceData{Curvature: -0.02, Thickness: 45, Index: 1})
	require.NoError(t, err)
	require.NoError(t, m.SetStop(1))
	require.NoError(t, m.Update())
	return m
}

func assertCardinality(t *testing.T, m *Model) {
	t.Helper()
	nodes := m.Nodes()
	for i, node := range nodes {
		if i == len(nodes)-1 {
			assert.Nil(t, node.Gap, "image surface must not own a gap")
		} else {
			assert.NotNil(t, node.Gap, "gap %d missing", i)
		}
	}
}

func TestNewModel_Minimal(t *testing.T) {
	m := NewModel()
	assert.Equal(t, 2, m.NumSurfaces())
	assertCardinality(t, m)

	_, g, err := m.GetSurfaceAndGap(1)
	require.NoError(t, err)
	assert.Nil(t, g)

	_, _, err = m.GetSurfaceAndGap(2)
	assert.True(t, errors.Is(err, ErrCursorOutOfRange))
}

func TestModel_InsertAdvancesCursor(t *testing.T) {
	m := NewModel()
	for i := 1; i <= 3; i++ {
		idx, err := m.AddSurface(SurfaceData{Curvature: 0.01 * float64(i), Thickness: float64(i), Index: 1.5})
		require.NoError(t, err)
		assert.Equal(t, i, idx)
		assert.Equal(t, i, m.CurSurface())
		assert.Equal(t, i+2, m.NumSurfaces())
		assertCardinality(t, m)
	}

	// Rows come out in insertion order
	rows := m.Rows()
	require.Len(t, rows, 5)
	assert.InDelta(t, 0.01, rows[1].Curvature, 1e-15)
	assert.InDelta(t, 0.03, rows[3].Curvature, 1e-15)
	assert.Equal(t, 3.0, rows[3].Thickness)
	assert.Equal(t, "Img", rows[4].Label)
	assert.True(t, rows[4].Stop)

	// The image surface has nothing after it to splice into
	require.NoError(t, m.SetCurSurface(4))
	_, err := m.InsertSurfaceAndGap()
	assert.True(t, errors.Is(err, ErrCursorOutOfRange))
}

func TestModel_InsertAfterShiftsStop(t *testing.T) {
	m := singlet(t)
	require.Equal(t, 1, m.Stop())

	idx, err := m.InsertAfter(0, optics.NewSurface("dummy", nil), optics.NewGap(1, material.Air{}))
	assert.True(t, errors.Is(err, ErrInconsistentModel))
	assert.Zero(t, idx)

	m2 := singlet(t)
	_, err = m2.InsertAfter(0, m2.Surface(1), optics.NewGap(1, material.Air{}))
	require.NoError(t, err)
	assert.Equal(t, 2, m2.Stop())
	assert.Equal(t, 1, m2.CurSurface())
}

func TestModel_Remove(t *testing.T) {
	m := singlet(t)

	assert.True(t, errors.Is(m.Remove(0), ErrCursorOutOfRange))
	assert.True(t, errors.Is(m.Remove(m.NumSurfaces()-1), ErrCursorOutOfRange))

	require.NoError(t, m.Remove(2))
	assert.Equal(t, 3, m.NumSurfaces())
	assertCardinality(t, m)
	assert.False(t, m.IsValid())
}

func TestModel_PathRequiresUpdate(t *testing.T) {
	m := singlet(t)

	_, err := m.Path(material.WavelengthD)
	require.NoError(t, err)

	require.NoError(t, m.SetThickness(2, 50))
	_, err = m.Path(material.WavelengthD)
	assert.True(t, errors.Is(err, ErrInconsistentModel))

	require.NoError(t, m.Update())
	path, err := m.Path(material.WavelengthD)
	require.NoError(t, err)
	assert.Equal(t, 50.0, path.Gaps[2].Thickness)
}

func TestModel_UpdateRejectsBrokenStructure(t *testing.T) {
	m := singlet(t)
	_, g, err := m.GetSurfaceAndGap(1)
	require.NoError(t, err)
	g.Medium = nil
	m.Invalidate()

	err = m.Update()
	assert.True(t, errors.Is(err, ErrInconsistentModel))
	assert.False(t, m.IsValid())
}

func TestModel_IndexTable(t *testing.T) {
	m := singlet(t)
	require.NoError(t, m.SetWavelengths(material.WavelengthF, material.WavelengthD, material.WavelengthC))
	require.NoError(t, m.Update())

	pathD, err := m.Path(material.WavelengthD)
	require.NoError(t, err)
	assert.InDelta(t, 1.5168, pathD.Indices[1], 1e-12)
	assert.Equal(t, 1.0, pathD.Indices[0])
	assert.Equal(t, pathD.Indices[2], pathD.Indices[3], "image entry repeats image space")

	pathF, err := m.Path(material.WavelengthF)
	require.NoError(t, err)
	assert.Greater(t, pathF.Indices[1], pathD.Indices[1])

	// Untabulated wavelengths are evaluated from the media
	path, err := m.Path(550)
	require.NoError(t, err)
	assert.Greater(t, path.Indices[1], pathD.Indices[1])
	assert.Less(t, path.Indices[1], pathF.Indices[1])
}

func TestModel_ZDirsFlipAtMirrors(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetThickness(0, 10))
	_, err := m.AddSurface(SurfaceData{Curvature: -0.01, Thickness: -20, Reflect: true})
	require.NoError(t, err)
	_, err = m.AddSurface(SurfaceData{Thickness: 5, Reflect: true})
	require.NoError(t, err)
	require.NoError(t, m.Update())

	path, err := m.Path(material.WavelengthD)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 1, 1}, path.ZDirs)
	assert.Equal(t, -1.0, path.SignedIndex(1))

	_, g, err := m.GetSurfaceAndGap(1)
	require.NoError(t, err)
	assert.Equal(t, "air", g.Medium.Name(), "mirror gap keeps the preceding medium")
}

type countingHook struct {
	calls int
	err   error
}

func (h *countingHook) UpdateModel(m *Model) error {
	h.calls++
	return h.err
}

func TestModel_UpdateHooks(t *testing.T) {
	m := singlet(t)
	ok := &countingHook{}
	m.AddUpdateHook(ok)
	require.NoError(t, m.Update())
	assert.Equal(t, 1, ok.calls)

	failing := &countingHook{err: errors.New("boom")}
	m.AddUpdateHook(failing)
	err := m.Update()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, m.IsValid(), "derived tables stay valid when a hook fails")
}

func TestMediumFor(t *testing.T) {
	tests := []struct {
		name    string
		index   float64
		vnumber float64
		want    string
		wantErr bool
	}{
		{"air", 1, 0, "air", false},
		{"dielectric", 1.5, 0, "1.5", false},
		{"glass", 1.517, 64.2, "517.642", false},
		{"glass code", 517.642, 0, "517.642", false},
		{"invalid", 0, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			medium, err := MediumFor(tt.index, tt.vnumber)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, medium.Name())
		})
	}
}

func TestSetWavelengths_Invalid(t *testing.T) {
	m := NewModel()
	assert.Error(t, m.SetWavelengths())
	assert.Error(t, m.SetWavelengths(550, -1))
	assert.Equal(t, []float64{material.WavelengthD}, m.Wavelengths())
}

// foldedModel has a tilted lens and a 45 degree fold mirror
func foldedModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel()
	require.NoError(t, m.SetThickness(0, 20))
	_, err := m.AddSurface(SurfaceData{Curvature: 0.01, Thickness: 4, Index: 1.6})
	require.NoError(t, err)
	require.NoError(t, m.SetDecenter(1, optics.NewDecenter(optics.DecenterLocal,
		core.NewVec3(0.2, -0.1, 0), core.NewVec3(2, -1, 0.5))))
	_, err = m.AddSurface(SurfaceData{Thickness: 15, Index: 1})
	require.NoError(t, err)
	_, err = m.AddSurface(SurfaceData{Thickness: -25, Reflect: true})
	require.NoError(t, err)
	require.NoError(t, m.SetDecenter(3, optics.NewDecenter(optics.DecenterBend,
		core.Vec3{}, core.NewVec3(45, 0, 0))))
	require.NoError(t, m.Update())
	return m
}

func TestGlobalCoords_ChainConsistency(t *testing.T) {
	m := foldedModel(t)
	n := m.NumSurfaces()

	fromObj, err := m.GlobalCoords(0)
	require.NoError(t, err)
	fromImg, err := m.GlobalCoords(n - 1)
	require.NoError(t, err)

	for k := 0; k < n; k++ {
		viaImage := fromObj[n-1].Compose(fromImg[k])
		assert.Less(t, viaImage.MaxDiff(fromObj[k]), 1e-12, "surface %d", k)
	}

	// Every reference frame is the identity in its own coordinates
	for glo := 0; glo < n; glo++ {
		tfrms, err := m.GlobalCoords(glo)
		require.NoError(t, err)
		assert.Less(t, tfrms[glo].MaxDiff(core.IdentityTransform()), 1e-15)
	}
}

func TestForwardTransform_PlainGap(t *testing.T) {
	s1 := optics.NewSurface("a", nil)
	s2 := optics.NewSurface("b", nil)

	tf := ForwardTransform(s1, 7, s2)
	assert.True(t, tf.R.IsIdentity())
	assert.Equal(t, core.NewVec3(0, 0, 7), tf.T)

	back := ReverseTransform(s1, 7, s2)
	assert.Equal(t, core.NewVec3(0, 0, -7), back.T)
}

func TestPath_ReverseTwiceRestores(t *testing.T) {
	m := foldedModel(t)
	path, err := m.Path(material.WavelengthD)
	require.NoError(t, err)

	rev := path.Reverse()
	require.NoError(t, rev.Validate())
	assert.Equal(t, path.Interfaces[0], rev.Interfaces[rev.Len()-1])
	assert.Equal(t, -path.ZDirs[path.Len()-2], rev.ZDirs[0])

	again := rev.Reverse()
	assert.Equal(t, path.Indices, again.Indices)
	assert.Equal(t, path.ZDirs, again.ZDirs)
	for i := range path.Transforms {
		assert.Less(t, again.Transforms[i].MaxDiff(path.Transforms[i]), 1e-12, "transform %d", i)
	}
}
