package trace

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
	"github.com/df07/go-sequential-optics/pkg/sequential"
)

// EICEntry is the equally inclined chord bookkeeping at one interface:
// signed indices and chord distances from the vertex before and after the
// interaction, and the path difference DW = NAfter*EAfter - NBefore*EBefore.
type EICEntry struct {
	NBefore float64
	EBefore float64
	NAfter  float64
	EAfter  float64
	DW      float64
}

// eicFromVertex is the equally inclined chord distance from the vertex to p
// along d, for a ray travelling in the zDir sense.
func eicFromVertex(p, d core.Vec3, zDir float64) float64 {
	return (p.Dot(d) + zDir*p.Z) / (1.0 + zDir*d.Z)
}

// PathLength sums a ledger whose entry j belongs to interface j+1 and whose
// last entry is the image interface. With k the last interface before the
// image, the result is the optical path from leaving interface 1 to arriving
// at interface k, measured against the axial chords:
//
//	P = -n'_1 e'_1 + n_k e_k - Σ_{j=2}^{k-1} DW_j
//
// Only the two boundary chords enter directly; the interior terms are small
// differences, so nothing large cancels for near-axial rays.
func PathLength(ledger []EICEntry) float64 {
	if len(ledger) < 2 {
		return 0
	}
	last := len(ledger) - 2
	p := -ledger[0].NAfter*ledger[0].EAfter + ledger[last].NBefore*ledger[last].EBefore
	for j := 1; j < last; j++ {
		p -= ledger[j].DW
	}
	return p
}

// EICDistance is the distance along the ray (p, d) from the point where the
// equally inclined chord to the ray (p0, d0) meets it, to p.
func EICDistance(p, d, p0, d0 core.Vec3) float64 {
	return d.Add(d0).Dot(p.Subtract(p0)) / (1.0 + d.Dot(d0))
}

// AccumulatePath rebuilds the chord ledger of a completed ray record and
// returns it with its path length. Phase contributions of diffractive
// surfaces are not part of the record and are not included.
func AccumulatePath(ray []Segment, path *sequential.Path) (float64, []EICEntry, error) {
	if err := path.Validate(); err != nil {
		return 0, nil, err
	}
	n := path.Len()
	if len(ray) != n {
		return 0, nil, fmt.Errorf("%w: %d segments for %d interfaces", ErrIncompleteRay, len(ray), n)
	}

	ledger := make([]EICEntry, 0, n-1)
	zDirBefore := path.ZDirs[0]
	nBefore := path.SignedIndex(0)
	for i := 1; i < n; i++ {
		zDirAfter := path.ZDirs[i]
		nAfter := path.SignedIndex(i)

		b4Dir := path.Transforms[i-1].ToChildDir(ray[i-1].Dir)
		incPt := ray[i].Point
		eBefore := eicFromVertex(incPt, b4Dir, zDirBefore)
		eAfter := eicFromVertex(incPt, ray[i].Dir, zDirAfter)

		ledger = append(ledger, EICEntry{
			NBefore: nBefore,
			EBefore: eBefore,
			NAfter:  nAfter,
			EAfter:  eAfter,
			DW:      nAfter*eAfter - nBefore*eBefore,
		})
		zDirBefore = zDirAfter
		nBefore = nAfter
	}
	return PathLength(ledger), ledger, nil
}

// TransferToExitPupil moves the ray leaving the last interface before the
// image back along itself to the exit pupil. The point where the ray crosses
// the axis is used; an axial ray falls back to expDstParax, the paraxial exit
// pupil distance. seg is expressed in the frame of the interface, dec is its
// decenter (may be nil). Returns the pupil point and the signed distance.
func TransferToExitPupil(dec *optics.Decenter, seg Segment, expDstParax float64) (core.Vec3, float64) {
	b4Pt, b4Dir := seg.Point, seg.Dir
	if dec != nil {
		if r, t, ok := dec.TransformAfter(); ok {
			rt := r.Transpose()
			b4Pt = rt.MulVec(b4Pt).Subtract(t)
			b4Dir = rt.MulVec(b4Dir)
		}
	}

	h := b4Pt.X*b4Pt.X + b4Pt.Y*b4Pt.Y
	u := b4Dir.X*b4Dir.X + b4Dir.Y*b4Dir.Y
	dst := expDstParax
	if u != 0 {
		dst = -math.Sqrt(h / u)
	}
	return b4Pt.AddScaled(b4Dir, dst), dst
}
