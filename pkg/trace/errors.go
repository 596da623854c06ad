package trace

import (
	"errors"
	"fmt"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/optics"
)

// ErrIncompleteRay is returned when a ray record does not cover the whole path
var ErrIncompleteRay = errors.New("trace: ray record does not span the path")

// MissedSurfaceError reports a ray that found no intersection with Surface.
// Ray holds the segments traced up to the failure.
type MissedSurfaceError struct {
	Surface int
	Ray     []Segment
	Err     error
}

func (e *MissedSurfaceError) Error() string {
	return fmt.Sprintf("trace: missed surface %d after %d segments", e.Surface, len(e.Ray))
}

// Unwrap exposes the profile's error, normally optics.ErrMissedSurface
func (e *MissedSurfaceError) Unwrap() error {
	if e.Err == nil {
		return optics.ErrMissedSurface
	}
	return e.Err
}

// TIRError reports a ray that could not leave Surface: total internal
// reflection, or an evanescent diffraction order on a phase surface.
type TIRError struct {
	Surface int
	Point   core.Vec3 // point of incidence, local to Surface
	Ray     []Segment
}

func (e *TIRError) Error() string {
	return fmt.Sprintf("trace: total internal reflection at surface %d, point %v", e.Surface, e.Point)
}

// Unwrap returns optics.ErrTotalInternalReflection
func (e *TIRError) Unwrap() error {
	return optics.ErrTotalInternalReflection
}

// Outcome classifies a trace error as "ok", "missed", "tir" or "error"
func Outcome(err error) string {
	var missed *MissedSurfaceError
	var tir *TIRError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &missed):
		return "missed"
	case errors.As(err, &tir):
		return "tir"
	}
	return "error"
}
