package hkl

import (
	"fmt"
	"math"
)

// Default inclusive limits applied to every physical axis at construction,
// in degrees.
const (
	DefaultLowerLimit = -180.0
	DefaultUpperLimit = 180.0
)

// AxisParameter is the per-axis numeric state: current value, inclusive
// limits and a fit flag. Fixed axes (fit=false) are held at their current
// value throughout a solve. Degenerate limits (lower == upper) hard-pin an
// axis to a constant, which is how a lower-circle instrument is emulated on
// a higher-circle geometry.
//
// All values are degrees. AxisParameter values are read and written through
// the owning Engine, which provides locking.
type AxisParameter struct {
	name  string
	value float64
	lower float64
	upper float64
	fit   bool
}

func newAxisParameter(name string) *AxisParameter {
	return &AxisParameter{
		name:  name,
		lower: DefaultLowerLimit,
		upper: DefaultUpperLimit,
		fit:   true,
	}
}

// Name returns the canonical (pre-remap) axis name.
func (p *AxisParameter) Name() string { return p.name }

// Value returns the current axis value in degrees.
func (p *AxisParameter) Value() float64 { return p.value }

// Limits returns the inclusive (lower, upper) limit pair in degrees.
func (p *AxisParameter) Limits() (lower, upper float64) { return p.lower, p.upper }

// Fit reports whether the kinematics solver may vary this axis.
func (p *AxisParameter) Fit() bool { return p.fit }

// Pinned reports whether the limits are degenerate, pinning the axis to a
// single value.
func (p *AxisParameter) Pinned() bool { return p.lower == p.upper }

// setValue enforces the limit invariant: the value must lie in
// [lower, upper] after any set. NaN and infinities never satisfy it.
func (p *AxisParameter) setValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < p.lower || v > p.upper {
		return fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrLimitViolation, p.name, v, p.lower, p.upper)
	}
	p.value = v
	return nil
}

// setLimits replaces the limit pair. The current value must remain inside
// the new interval; degenerate pairs (lower == upper) are allowed and snap
// the value onto the pin.
func (p *AxisParameter) setLimits(lower, upper float64) error {
	if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper {
		return fmt.Errorf("%w: %s limits (%g, %g) are inverted", ErrLimitViolation, p.name, lower, upper)
	}
	if p.value < lower || p.value > upper {
		if lower == upper {
			p.lower, p.upper = lower, upper
			p.value = lower
			return nil
		}
		return fmt.Errorf("%w: %s current value %g outside new limits [%g, %g]",
			ErrLimitViolation, p.name, p.value, lower, upper)
	}
	p.lower, p.upper = lower, upper
	return nil
}

// inLimits reports whether v lies within the inclusive limit pair.
func (p *AxisParameter) inLimits(v float64) bool {
	return v >= p.lower && v <= p.upper
}
