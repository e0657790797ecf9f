package hkl

import "errors"

// Engine error kinds. All are surfaced immediately at the call that detects
// them and are never silently recovered; callers match with errors.Is.
var (
	// ErrInvalidCell means lattice parameters do not form a valid unit cell.
	ErrInvalidCell = errors.New("invalid unit cell")

	// ErrDegenerateReflections means the selected reference reflections are
	// insufficient or collinear in reciprocal space, so no orientation can
	// be fitted from them.
	ErrDegenerateReflections = errors.New("degenerate reference reflections")

	// ErrSingularOrientation means the UB matrix is unusable (no active
	// sample, or a caller-supplied UB that is numerically singular).
	ErrSingularOrientation = errors.New("singular orientation matrix")

	// ErrUnreachableTarget means no forward solution satisfies every axis
	// limit in the active mode.
	ErrUnreachableTarget = errors.New("target unreachable within axis limits")

	// ErrInvalidWavelength rejects non-positive wavelengths or energies.
	ErrInvalidWavelength = errors.New("invalid wavelength")

	// ErrAxisName means an unknown axis, mode, geometry or sample name, or
	// a malformed physical position vector.
	ErrAxisName = errors.New("unknown axis name")

	// ErrLimitViolation means an explicit axis-value set outside its limits.
	ErrLimitViolation = errors.New("axis value outside limits")

	// ErrModeConfiguration means the active mode needs to solve an axis the
	// axis store has pinned or excluded from fitting.
	ErrModeConfiguration = errors.New("mode configuration conflict")
)
