package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldOutOfRange is returned for a field index the spec does not define
	ErrFieldOutOfRange = errors.New("analysis: field index out of range")

	// ErrSpecNotUpdated is returned when a spec is used before its model update ran
	ErrSpecNotUpdated = errors.New("analysis: optical spec not updated against the model")

	// ErrUnusableRay is returned when a wavefront is requested for a ray that
	// did not complete the path
	ErrUnusableRay = errors.New("analysis: ray did not complete the path")
)

// SampleError identifies the sample of a batch that failed. Err is the
// underlying trace failure, usually *trace.MissedSurfaceError or *trace.TIRError.
type SampleError struct {
	Field      int
	Wavelength float64
	Pupil      [2]float64
	Err        error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("analysis: field %d, wavelength %g nm, pupil (%g, %g): %v",
		e.Field, e.Wavelength, e.Pupil[0], e.Pupil[1], e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}
