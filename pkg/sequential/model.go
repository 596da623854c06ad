// Package sequential holds the ordered interface/gap sequence of an optical
// system together with the tables derived from it: refractive indices per
// wavelength, local frame transforms and propagation senses.
//
// Edits invalidate the derived tables. Update must run before the model is
// traced; Path refuses to hand out a snapshot of an out-of-date model.
package sequential

import (
	"fmt"
	"math"
	"slices"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/geometry"
	"github.com/df07/go-sequential-optics/pkg/material"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// Node is one interface and the gap that follows it. Gap is nil only for the
// final (image) node.
type Node struct {
	Surface *optics.Surface
	Gap     *optics.Gap
}

// UpdateHook recomputes state that depends on an updated model, such as
// first-order data or clear apertures. Hooks run in registration order.
type UpdateHook interface {
	UpdateModel(m *Model) error
}

// Model is a sequential optical system
type Model struct {
	nodes       []Node
	stop        int
	cur         int
	wavelengths []float64

	// derived tables, valid only after Update
	valid     bool
	lclTfrms  []core.Transform
	zDirs     []float64
	indices   [][]float64 // wavelength × interface
	hookQueue []UpdateHook
}

// NewModel creates the minimal system: object and image planes joined by an
// empty air gap, traced at the d line.
func NewModel() *Model {
	return &Model{
		nodes: []Node{
			{Surface: optics.NewSurface("Obj", geometry.NewPlane()), Gap: optics.NewGap(0, material.Air{})},
			{Surface: optics.NewSurface("Img", geometry.NewPlane())},
		},
		stop:        1,
		wavelengths: []float64{material.WavelengthD},
	}
}

// NumSurfaces returns the number of interfaces, object and image included
func (m *Model) NumSurfaces() int {
	return len(m.nodes)
}

// Nodes returns a copy of the node sequence
func (m *Model) Nodes() []Node {
	return slices.Clone(m.nodes)
}

// Surface returns interface i, or nil if i is out of range
func (m *Model) Surface(i int) *optics.Surface {
	if i < 0 || i >= len(m.nodes) {
		return nil
	}
	return m.nodes[i].Surface
}

// GetSurfaceAndGap returns interface i and the gap following it. The gap is
// nil for the image interface.
func (m *Model) GetSurfaceAndGap(i int) (*optics.Surface, *optics.Gap, error) {
	if i < 0 || i >= len(m.nodes) {
		return nil, nil, fmt.Errorf("%w: surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	return m.nodes[i].Surface, m.nodes[i].Gap, nil
}

// CurSurface returns the edit cursor
func (m *Model) CurSurface() int {
	return m.cur
}

// SetCurSurface moves the edit cursor
func (m *Model) SetCurSurface(i int) error {
	if i < 0 || i >= len(m.nodes) {
		return fmt.Errorf("%w: surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	m.cur = i
	return nil
}

// Stop returns the aperture stop index
func (m *Model) Stop() int {
	return m.stop
}

// SetStop marks interface i as the aperture stop
func (m *Model) SetStop(i int) error {
	if i < 0 || i >= len(m.nodes) {
		return fmt.Errorf("%w: stop %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	m.stop = i
	m.valid = false
	return nil
}

// Wavelengths returns the wavelengths (nm) tabulated by Update
func (m *Model) Wavelengths() []float64 {
	return slices.Clone(m.wavelengths)
}

// SetWavelengths replaces the tabulated wavelengths
func (m *Model) SetWavelengths(wvls ...float64) error {
	if len(wvls) == 0 {
		return fmt.Errorf("sequential: at least one wavelength required")
	}
	for _, w := range wvls {
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("sequential: invalid wavelength %v", w)
		}
	}
	m.wavelengths = slices.Clone(wvls)
	m.valid = false
	return nil
}

// Insert splices a new interface and its trailing gap in right after the
// cursor and moves the cursor onto the new interface.
func (m *Model) Insert(s *optics.Surface, g *optics.Gap) (int, error) {
	return m.InsertAfter(m.cur, s, g)
}

// InsertAfter splices a new interface and its trailing gap in right after
// interface idx. The gap of idx now ends at the new interface, g ends at the
// interface that used to follow idx. The cursor moves onto the new interface.
func (m *Model) InsertAfter(idx int, s *optics.Surface, g *optics.Gap) (int, error) {
	if idx < 0 || idx >= len(m.nodes)-1 {
		return 0, fmt.Errorf("%w: cannot insert after surface %d of %d", ErrCursorOutOfRange, idx, len(m.nodes))
	}
	if s == nil || s.Profile == nil {
		return 0, fmt.Errorf("%w: inserted surface has no profile", ErrInconsistentModel)
	}
	if g == nil || g.Medium == nil {
		return 0, fmt.Errorf("%w: inserted gap has no medium", ErrInconsistentModel)
	}

	pos := idx + 1
	m.nodes = slices.Insert(m.nodes, pos, Node{Surface: s, Gap: g})
	if m.stop >= pos {
		m.stop++
	}
	m.cur = pos
	m.valid = false
	return pos, nil
}

// InsertSurfaceAndGap inserts a flat refracting surface followed by an empty
// air gap after the cursor.
func (m *Model) InsertSurfaceAndGap() (int, error) {
	s := optics.NewSurface("", geometry.NewSpherical(0))
	return m.Insert(s, optics.NewGap(0, material.Air{}))
}

// Remove deletes interface i and its trailing gap. The object and image
// interfaces cannot be removed.
func (m *Model) Remove(i int) error {
	if i <= 0 || i >= len(m.nodes)-1 {
		return fmt.Errorf("%w: cannot remove surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	m.nodes = slices.Delete(m.nodes, i, i+1)
	if m.stop > i {
		m.stop--
	}
	if m.cur >= i {
		m.cur = max(i-1, 0)
	}
	m.valid = false
	return nil
}

// SetThickness changes the thickness of the gap following interface i
func (m *Model) SetThickness(i int, t float64) error {
	g, err := m.gap(i)
	if err != nil {
		return err
	}
	g.Thickness = t
	m.valid = false
	return nil
}

// SetMedium changes the medium of the gap following interface i
func (m *Model) SetMedium(i int, medium optics.Medium) error {
	if medium == nil {
		return fmt.Errorf("%w: nil medium", ErrInconsistentModel)
	}
	g, err := m.gap(i)
	if err != nil {
		return err
	}
	g.Medium = medium
	m.valid = false
	return nil
}

// SetProfile replaces the profile of interface i
func (m *Model) SetProfile(i int, p optics.Profile) error {
	if p == nil {
		return fmt.Errorf("%w: nil profile", ErrInconsistentModel)
	}
	s := m.Surface(i)
	if s == nil {
		return fmt.Errorf("%w: surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	s.Profile = p
	m.valid = false
	return nil
}

// SetMode changes the interaction law of interface i
func (m *Model) SetMode(i int, mode optics.Mode) error {
	s := m.Surface(i)
	if s == nil {
		return fmt.Errorf("%w: surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	s.Interact = mode
	m.valid = false
	return nil
}

// SetDecenter attaches (or with nil, removes) the decenter of interface i
func (m *Model) SetDecenter(i int, d *optics.Decenter) error {
	s := m.Surface(i)
	if s == nil {
		return fmt.Errorf("%w: surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	s.Decenter = d
	m.valid = false
	return nil
}

// Invalidate marks the derived tables stale. Call it after mutating a
// surface or gap through a pointer obtained from the model.
func (m *Model) Invalidate() {
	m.valid = false
}

// IsValid reports whether the derived tables match the structure
func (m *Model) IsValid() bool {
	return m.valid
}

// AddUpdateHook registers a hook run at the end of every Update
func (m *Model) AddUpdateHook(h UpdateHook) {
	m.hookQueue = append(m.hookQueue, h)
}

func (m *Model) gap(i int) (*optics.Gap, error) {
	if i < 0 || i >= len(m.nodes)-1 {
		return nil, fmt.Errorf("%w: no gap after surface %d of %d", ErrCursorOutOfRange, i, len(m.nodes))
	}
	return m.nodes[i].Gap, nil
}

// checkStructure verifies the node invariants: at least two interfaces, a
// medium-bearing gap after every interface but the last, none after the last.
func (m *Model) checkStructure() error {
	n := len(m.nodes)
	if n < 2 {
		return fmt.Errorf("%w: %d interfaces, need at least 2", ErrInconsistentModel, n)
	}
	for i, node := range m.nodes {
		if node.Surface == nil || node.Surface.Profile == nil {
			return fmt.Errorf("%w: surface %d has no profile", ErrInconsistentModel, i)
		}
		if node.Surface.Interact == optics.Phase && node.Surface.Element == nil {
			return fmt.Errorf("%w: surface %d: %w", ErrInconsistentModel, i, optics.ErrNoPhaseElement)
		}
		last := i == n-1
		if last && node.Gap != nil {
			return fmt.Errorf("%w: image surface has a trailing gap", ErrInconsistentModel)
		}
		if !last && (node.Gap == nil || node.Gap.Medium == nil) {
			return fmt.Errorf("%w: gap %d missing or has no medium", ErrInconsistentModel, i)
		}
	}
	if m.stop < 0 || m.stop >= n {
		return fmt.Errorf("%w: stop %d of %d", ErrInconsistentModel, m.stop, n)
	}
	return nil
}

// Update refreshes every interface's cached geometry, rebuilds the derived
// tables and then runs the registered update hooks.
func (m *Model) Update() error {
	m.valid = false
	if err := m.checkStructure(); err != nil {
		return err
	}

	for _, node := range m.nodes {
		node.Surface.Update()
	}

	m.zDirs = m.computeZDirs()
	m.lclTfrms = m.computeLocalTransforms()
	m.indices = make([][]float64, len(m.wavelengths))
	for wi, w := range m.wavelengths {
		m.indices[wi] = m.indicesAt(w)
	}
	m.valid = true

	for _, h := range m.hookQueue {
		if err := h.UpdateModel(m); err != nil {
			return fmt.Errorf("sequential: update hook: %w", err)
		}
	}
	return nil
}

// computeZDirs returns the propagation sense after each interface. It starts
// at +1 in object space and flips at every reflecting interface.
func (m *Model) computeZDirs() []float64 {
	zDirs := make([]float64, len(m.nodes))
	z := 1.0
	for i, node := range m.nodes {
		if i > 0 && node.Surface.Interact == optics.Reflect {
			z = -z
		}
		zDirs[i] = z
	}
	return zDirs
}

// computeLocalTransforms returns, for each interface, the frame of the next
// interface in its own frame. The entry for the image interface is identity.
func (m *Model) computeLocalTransforms() []core.Transform {
	n := len(m.nodes)
	tfrms := make([]core.Transform, n)
	for i := 0; i < n-1; i++ {
		tfrms[i] = ForwardTransform(m.nodes[i].Surface, m.nodes[i].Gap.Thickness, m.nodes[i+1].Surface)
	}
	tfrms[n-1] = core.IdentityTransform()
	return tfrms
}

// indicesAt returns the index after each interface; the image interface
// repeats the image-space index.
func (m *Model) indicesAt(wvl float64) []float64 {
	n := len(m.nodes)
	rndx := make([]float64, n)
	for i := 0; i < n-1; i++ {
		rndx[i] = m.nodes[i].Gap.Medium.RefractiveIndex(wvl)
	}
	rndx[n-1] = rndx[n-2]
	return rndx
}

// LocalTransforms returns a copy of the derived local transforms
func (m *Model) LocalTransforms() ([]core.Transform, error) {
	if !m.valid {
		return nil, fmt.Errorf("%w: model not updated", ErrInconsistentModel)
	}
	return slices.Clone(m.lclTfrms), nil
}

// GlobalCoords places every interface in the frame of interface glo
func (m *Model) GlobalCoords(glo int) ([]core.Transform, error) {
	if glo < 0 || glo >= len(m.nodes) {
		return nil, fmt.Errorf("%w: reference surface %d of %d", ErrCursorOutOfRange, glo, len(m.nodes))
	}
	lcl, err := m.LocalTransforms()
	if err != nil {
		return nil, err
	}
	return ComputeGlobalCoords(lcl, glo), nil
}

// SurfaceRow is one line of a prescription listing
type SurfaceRow struct {
	Index        int
	Label        string
	Mode         optics.Mode
	Curvature    float64
	Thickness    float64
	Medium       string
	SemiDiameter float64
	Stop         bool
}

// Rows lists the prescription one interface per row
func (m *Model) Rows() []SurfaceRow {
	rows := make([]SurfaceRow, len(m.nodes))
	for i, node := range m.nodes {
		row := SurfaceRow{
			Index:        i,
			Label:        node.Surface.Label,
			Mode:         node.Surface.Interact,
			Curvature:    node.Surface.Curvature(),
			SemiDiameter: node.Surface.SemiDiameter(),
			Stop:         i == m.stop,
		}
		if node.Gap != nil {
			row.Thickness = node.Gap.Thickness
			if node.Gap.Medium != nil {
				row.Medium = node.Gap.Medium.Name()
			}
		}
		rows[i] = row
	}
	return rows
}
