package sequential

import (
	"fmt"
	"slices"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// Path is an immutable snapshot of an updated model at one wavelength. It is
// all the tracer needs, and any number of goroutines may trace the same Path
// concurrently.
//
// For N interfaces: Transforms[i] is the frame of interface i+1 in the frame of
// interface i (identity for the last), Indices[i] and ZDirs[i] describe the
// space after interface i (the last entries repeat image space).
type Path struct {
	Interfaces []optics.Interface
	Gaps       []*optics.Gap
	Indices    []float64
	Transforms []core.Transform
	ZDirs      []float64
	Wavelength float64
}

// Len returns the number of interfaces
func (p *Path) Len() int {
	return len(p.Interfaces)
}

// SignedIndex returns the refractive index after interface i, negated when
// the ray travels against the local z axis.
func (p *Path) SignedIndex(i int) float64 {
	return p.Indices[i] * p.ZDirs[i]
}

// Validate checks that the table lengths agree
func (p *Path) Validate() error {
	n := len(p.Interfaces)
	switch {
	case n < 2:
		return fmt.Errorf("%w: path with %d interfaces", ErrInconsistentModel, n)
	case len(p.Gaps) != n-1:
		return fmt.Errorf("%w: %d gaps for %d interfaces", ErrInconsistentModel, len(p.Gaps), n)
	case len(p.Indices) != n:
		return fmt.Errorf("%w: %d indices for %d interfaces", ErrInconsistentModel, len(p.Indices), n)
	case len(p.Transforms) != n:
		return fmt.Errorf("%w: %d transforms for %d interfaces", ErrInconsistentModel, len(p.Transforms), n)
	case len(p.ZDirs) != n:
		return fmt.Errorf("%w: %d z directions for %d interfaces", ErrInconsistentModel, len(p.ZDirs), n)
	}
	return nil
}

// Reverse returns the path traversed from the image back to the object. The
// transforms are inverted and every propagation sense is flipped.
func (p *Path) Reverse() *Path {
	n := p.Len()
	rev := &Path{
		Interfaces: make([]optics.Interface, n),
		Gaps:       make([]*optics.Gap, n-1),
		Indices:    make([]float64, n),
		Transforms: make([]core.Transform, n),
		ZDirs:      make([]float64, n),
		Wavelength: p.Wavelength,
	}
	for i := 0; i < n; i++ {
		j := n - 1 - i
		rev.Interfaces[i] = p.Interfaces[j]
		if i == n-1 {
			rev.Transforms[i] = core.IdentityTransform()
			rev.Indices[i] = p.Indices[0]
			rev.ZDirs[i] = -p.ZDirs[0]
			continue
		}
		rev.Gaps[i] = p.Gaps[j-1]
		rev.Transforms[i] = p.Transforms[j-1].Inverse()
		rev.Indices[i] = p.Indices[j-1]
		rev.ZDirs[i] = -p.ZDirs[j-1]
	}
	return rev
}

// Path returns a snapshot of the model at wavelength wvl. Wavelengths not
// tabulated by Update have their indices evaluated from the current media.
func (m *Model) Path(wvl float64) (*Path, error) {
	if !m.valid {
		return nil, fmt.Errorf("%w: model not updated since last edit", ErrInconsistentModel)
	}
	n := len(m.nodes)
	if len(m.lclTfrms) != n || len(m.zDirs) != n || len(m.indices) != len(m.wavelengths) {
		return nil, fmt.Errorf("%w: derived tables do not match %d interfaces", ErrInconsistentModel, n)
	}

	var rndx []float64
	if wi := slices.Index(m.wavelengths, wvl); wi >= 0 {
		rndx = slices.Clone(m.indices[wi])
	} else {
		rndx = m.indicesAt(wvl)
	}

	path := &Path{
		Interfaces: make([]optics.Interface, n),
		Gaps:       make([]*optics.Gap, n-1),
		Indices:    rndx,
		Transforms: slices.Clone(m.lclTfrms),
		ZDirs:      slices.Clone(m.zDirs),
		Wavelength: wvl,
	}
	for i, node := range m.nodes {
		path.Interfaces[i] = node.Surface
		if i < n-1 {
			path.Gaps[i] = node.Gap
		}
	}
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return path, nil
}
