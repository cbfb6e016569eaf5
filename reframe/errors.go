package reframe

import "github.com/pkg/errors"

var (
	// ErrDegenerateGeometry is returned when the image rect, the output size, the subject box or an
	// intermediate offset is zero-sized, negative-sized or non-finite. No transform is produced.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrConvergenceExceeded is returned together with a usable partial Result when the iteration cap
	// is reached before the subject is centered within tolerance.
	ErrConvergenceExceeded = errors.New("convergence not reached")
)
