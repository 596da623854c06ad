package sequential

import (
	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// ForwardTransform returns the frame of s2 expressed in the frame of s1, where
// the two surfaces are separated by zdist along the local z axis. Decenters of
// s1 (after) and s2 (before) are folded in.
func ForwardTransform(s1 *optics.Surface, zdist float64, s2 *optics.Surface) core.Transform {
	ra, ta := core.Identity3(), core.Vec3{}
	if s1 != nil && s1.Decenter != nil {
		if r, t, ok := s1.Decenter.TransformAfter(); ok {
			ra, ta = r, t
		}
	}
	rb, tb := core.Identity3(), core.Vec3{}
	if s2 != nil && s2.Decenter != nil {
		if r, t, ok := s2.Decenter.TransformBefore(); ok {
			rb, tb = r, t
		}
	}

	t := ta.Add(core.NewVec3(0, 0, zdist)).Add(tb)
	return core.NewTransform(ra.Mul(rb), ra.MulVec(t))
}

// ReverseTransform returns the frame of s1 expressed in the frame of s2
func ReverseTransform(s1 *optics.Surface, zdist float64, s2 *optics.Surface) core.Transform {
	return ForwardTransform(s1, zdist, s2).Inverse()
}

// ComputeGlobalCoords places every interface in the frame of interface glo.
// lcl[i] is the frame of interface i+1 in the frame of interface i. Interfaces
// before glo are reached by composing inverted steps, those after by composing
// forward steps.
func ComputeGlobalCoords(lcl []core.Transform, glo int) []core.Transform {
	n := len(lcl)
	tfrms := make([]core.Transform, n)
	if glo < 0 || glo >= n {
		return tfrms
	}
	tfrms[glo] = core.IdentityTransform()

	for i := glo - 1; i >= 0; i-- {
		tfrms[i] = tfrms[i+1].Compose(lcl[i].Inverse())
	}
	for i := glo + 1; i < n; i++ {
		tfrms[i] = tfrms[i-1].Compose(lcl[i-1])
	}
	return tfrms
}
