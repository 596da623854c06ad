package optics

import "errors"

var (
	// ErrMissedSurface is returned by profiles when a ray has no consistent
	// intersection with the surface inside its domain.
	ErrMissedSurface = errors.New("optics: missed surface")

	// ErrTotalInternalReflection is returned when no real outgoing direction
	// exists: refraction beyond the critical angle or an evanescent grating order.
	ErrTotalInternalReflection = errors.New("optics: total internal reflection")

	// ErrNoPhaseElement is returned when a Phase-mode surface has no element attached
	ErrNoPhaseElement = errors.New("optics: phase mode without a phase element")
)
