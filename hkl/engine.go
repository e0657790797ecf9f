package hkl

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// DefaultWavelength is the wavelength in Ångström assigned to a new Engine,
// copper K-alpha.
const DefaultWavelength = 1.54

// HKL is a pseudo-axis position: Miller indices in reciprocal space.
type HKL struct {
	H, K, L float64
}

// Position is a full physical-axis position vector in degrees, ordered as
// PhysicalAxisNames.
type Position []float64

// Engine is a diffractometer calculation context: one geometry with an
// active mode, a per-axis parameter store, a set of named samples with one
// active, and the wavelength/energy state. All exported methods are safe for
// concurrent use; a single mutex makes every read-modify-write sequence
// atomic with respect to other callers. Independent Engine instances share
// no state.
type Engine struct {
	mu sync.Mutex

	geom *Geometry
	mode *Mode

	axes    []*AxisParameter
	display []string // presentation names, canonical order

	samples map[string]*Sample
	active  *Sample

	wavelength float64 // Å
	pseudo     HKL     // cache refreshed by inverse transforms
}

// NewEngine constructs an engine for the given geometry type with the named
// mode active. Axis values start at zero with limits (-180, 180) and
// fit enabled; the wavelength starts at DefaultWavelength.
func NewEngine(t GeometryType, mode string) (*Engine, error) {
	g, err := newGeometry(t)
	if err != nil {
		return nil, err
	}
	m, err := g.Mode(mode)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		geom:       g,
		mode:       m,
		samples:    make(map[string]*Sample),
		wavelength: DefaultWavelength,
	}
	for _, a := range g.axes {
		e.axes = append(e.axes, newAxisParameter(a.name))
		e.display = append(e.display, a.name)
	}
	return e, nil
}

// GeometryType returns the engine's instrument kind.
func (e *Engine) GeometryType() GeometryType {
	return e.geom.typ
}

// Modes lists the geometry's mode catalog.
func (e *Engine) Modes() []string {
	return e.geom.ModeNames()
}

// Mode returns the active mode name.
func (e *Engine) Mode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode.Name
}

// SetMode switches the active mode by name. Modes are mutually exclusive.
func (e *Engine) SetMode(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.geom.Mode(name)
	if err != nil {
		return err
	}
	e.mode = m
	return nil
}

// ModeAxes returns the solved and held axis names of the active mode, in
// presentation names.
func (e *Engine) ModeAxes() (solved, held []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.mode.Solved {
		i, _ := e.geom.axisIndex(n)
		solved = append(solved, e.display[i])
	}
	for _, n := range e.mode.Held {
		i, _ := e.geom.axisIndex(n)
		held = append(held, e.display[i])
	}
	return solved, held
}

// PhysicalAxisNames returns the physical axis names in canonical order,
// after any rename map.
func (e *Engine) PhysicalAxisNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.display))
	copy(out, e.display)
	return out
}

// PseudoAxisNames returns the engine's logical output coordinates.
func (e *Engine) PseudoAxisNames() []string {
	return []string{"h", "k", "l"}
}

// RenameAxes installs a bijective presentation-layer name map. Keys must
// cover every current axis name exactly once and values must be unique. The
// map changes only how axes are addressed and reported; the underlying
// geometry equations and axis order are untouched.
func (e *Engine) RenameAxes(nameMap map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(nameMap) != len(e.display) {
		return fmt.Errorf("%w: rename map must cover all %d axes", ErrAxisName, len(e.display))
	}
	next := make([]string, len(e.display))
	seen := make(map[string]bool, len(nameMap))
	for i, cur := range e.display {
		newName, ok := nameMap[cur]
		if !ok {
			return fmt.Errorf("%w: rename map missing axis %q", ErrAxisName, cur)
		}
		if newName == "" || seen[newName] {
			return fmt.Errorf("%w: rename map value %q is empty or duplicated", ErrAxisName, newName)
		}
		seen[newName] = true
		next[i] = newName
	}
	e.display = next
	return nil
}

// axisIndex resolves a presentation name to the canonical axis index.
// Callers hold e.mu.
func (e *Engine) axisIndex(name string) (int, error) {
	for i, n := range e.display {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (axes: %v)", ErrAxisName, name, e.display)
}

// AxisValue returns the current value of the named axis in degrees.
func (e *Engine) AxisValue(name string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return 0, err
	}
	return e.axes[i].Value(), nil
}

// SetAxisValue sets the named axis value, enforcing its limits.
func (e *Engine) SetAxisValue(name string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return err
	}
	return e.axes[i].setValue(value)
}

// AxisLimits returns the inclusive limit pair of the named axis in degrees.
func (e *Engine) AxisLimits(name string) (lower, upper float64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return 0, 0, err
	}
	lower, upper = e.axes[i].Limits()
	return lower, upper, nil
}

// SetAxisLimits replaces the limit pair of the named axis. Degenerate pairs
// (lower == upper) pin the axis, snapping its value onto the pin.
func (e *Engine) SetAxisLimits(name string, lower, upper float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return err
	}
	return e.axes[i].setLimits(lower, upper)
}

// AxisFit reports whether the solver may vary the named axis.
func (e *Engine) AxisFit(name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return false, err
	}
	return e.axes[i].Fit(), nil
}

// SetAxisFit sets the fit flag of the named axis.
func (e *Engine) SetAxisFit(name string, fit bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.axisIndex(name)
	if err != nil {
		return err
	}
	e.axes[i].fit = fit
	return nil
}

// PhysicalPositions returns the current values of all axes in canonical
// order, degrees.
func (e *Engine) PhysicalPositions() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionsLocked()
}

func (e *Engine) positionsLocked() Position {
	out := make(Position, len(e.axes))
	for i, p := range e.axes {
		out[i] = p.Value()
	}
	return out
}

// SetPhysicalPositions sets every axis value and refreshes the cached
// pseudo position through the inverse transform, as one atomic step. Limit
// checks apply to each axis; no axis is modified when any value violates
// its limits.
func (e *Engine) SetPhysicalPositions(pos Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(pos) != len(e.axes) {
		return fmt.Errorf("%w: expected %d axis values, got %d", ErrAxisName, len(e.axes), len(pos))
	}
	for i, v := range pos {
		if !e.axes[i].inLimits(v) {
			return fmt.Errorf("%w: %s=%g outside [%g, %g]",
				ErrLimitViolation, e.display[i], v, e.axes[i].lower, e.axes[i].upper)
		}
	}
	for i, v := range pos {
		e.axes[i].value = v
	}
	if e.active != nil {
		if hkl, err := e.inverseLocked(pos); err == nil {
			e.pseudo = hkl
		}
	}
	return nil
}

// Wavelength returns the wavelength in Ångström.
func (e *Engine) Wavelength() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wavelength
}

// SetWavelength sets the wavelength in Ångström. Energy is a derived view
// of the same state.
func (e *Engine) SetWavelength(angstrom float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if angstrom <= 0 || math.IsNaN(angstrom) || math.IsInf(angstrom, 0) {
		return fmt.Errorf("%w: %g Å", ErrInvalidWavelength, angstrom)
	}
	e.wavelength = angstrom
	return nil
}

// Energy returns the photon energy in keV derived from the wavelength.
func (e *Engine) Energy() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return units.WavelengthToEnergy(e.wavelength)
}

// SetEnergy sets the photon energy in keV, overwriting the wavelength.
func (e *Engine) SetEnergy(keV float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if keV <= 0 || math.IsNaN(keV) || math.IsInf(keV, 0) {
		return fmt.Errorf("%w: energy %g keV", ErrInvalidWavelength, keV)
	}
	e.wavelength = units.EnergyToWavelength(keV)
	return nil
}

// NewSample creates a sample with the given lattice, registers it under its
// name and selects it. Duplicate names are rejected.
func (e *Engine) NewSample(name string, lat Lattice) (*Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		return nil, fmt.Errorf("%w: empty sample name", ErrAxisName)
	}
	if _, exists := e.samples[name]; exists {
		return nil, fmt.Errorf("%w: sample %q already exists", ErrAxisName, name)
	}
	s := newSample(name, lat)
	e.samples[name] = s
	e.active = s
	return s, nil
}

// SelectSample switches the active sample by name.
func (e *Engine) SelectSample(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.samples[name]
	if !ok {
		return fmt.Errorf("%w: no sample %q (have: %v)", ErrAxisName, name, e.sampleNamesLocked())
	}
	e.active = s
	return nil
}

// Sample returns the active sample, or nil when none has been created.
func (e *Engine) Sample() *Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SampleNames lists the registered sample names, sorted.
func (e *Engine) SampleNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampleNamesLocked()
}

func (e *Engine) sampleNamesLocked() []string {
	names := make([]string, 0, len(e.samples))
	for n := range e.samples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetLattice replaces the active sample's lattice and rebuilds UB from the
// existing orientation, the explicit re-fit path.
func (e *Engine) SetLattice(lat Lattice) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	e.active.lattice = lat
	e.active.ub = e.active.u.Mul(lat.BMatrix())
	return nil
}

// AddReflection appends a reference reflection to the active sample,
// pairing (h,k,l) with the given physical position (degrees, canonical axis
// order) and the current wavelength. No recomputation happens until
// ComputeUB is called.
func (e *Engine) AddReflection(h, k, l float64, pos Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	if len(pos) != len(e.axes) {
		return fmt.Errorf("%w: expected %d axis values, got %d", ErrAxisName, len(e.axes), len(pos))
	}
	stored := make([]float64, len(pos))
	copy(stored, pos)
	e.active.reflections = append(e.active.reflections, Reflection{
		H: h, K: k, L: l,
		Position:   stored,
		Wavelength: e.wavelength,
	})
	return nil
}

// Reflections returns a copy of the active sample's reflections in
// insertion order.
func (e *Engine) Reflections() []Reflection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	out := make([]Reflection, len(e.active.reflections))
	copy(out, e.active.reflections)
	return out
}

// ClearReflections drops the active sample's reflection list. The current
// UB is kept until the next ComputeUB.
func (e *Engine) ClearReflections() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.reflections = nil
	}
}

// ComputeUB fits the orientation matrix from the reflections at the given
// indices (at least two). Exactly two use the closed-form two-vector
// alignment; more use a least-squares rotation fit. The stored UB is
// replaced atomically on success and left untouched on any error.
func (e *Engine) ComputeUB(indices ...int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	if len(indices) < 2 {
		return fmt.Errorf("%w: need at least 2 reflections, got %d", ErrDegenerateReflections, len(indices))
	}
	seen := make(map[int]bool, len(indices))
	b := e.active.lattice.BMatrix()
	hc := make([]Vec3, 0, len(indices))
	up := make([]Vec3, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(e.active.reflections) {
			return fmt.Errorf("%w: reflection index %d out of range [0, %d)",
				ErrDegenerateReflections, idx, len(e.active.reflections))
		}
		if seen[idx] {
			return fmt.Errorf("%w: reflection index %d repeated", ErrDegenerateReflections, idx)
		}
		seen[idx] = true
		h, u, err := reflectionVectors(e.geom, b, e.active.reflections[idx])
		if err != nil {
			return err
		}
		hc = append(hc, h)
		up = append(up, u)
	}

	u, err := fitOrientation(hc, up)
	if err != nil {
		return err
	}
	e.active.u = u
	e.active.ub = u.Mul(b)
	return nil
}

// UB returns the active sample's UB matrix.
func (e *Engine) UB() (Mat3, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return Mat3{}, fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	return e.active.ub, nil
}

// SetUB installs a pre-calibrated UB directly, the escape hatch for known
// orientations. The matrix must be invertible. U is rederived so a later
// SetLattice stays consistent.
func (e *Engine) SetUB(ub Mat3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	if _, ok := ub.Inverse(); !ok {
		return fmt.Errorf("%w: supplied UB is singular", ErrSingularOrientation)
	}
	bInv, ok := e.active.lattice.BMatrix().Inverse()
	if !ok {
		return fmt.Errorf("%w: lattice B matrix is singular", ErrSingularOrientation)
	}
	e.active.ub = ub
	e.active.u = ub.Mul(bInv)
	return nil
}

// PseudoPositions returns the engine's cached pseudo-axis values, the
// result of the most recent inverse transform.
func (e *Engine) PseudoPositions() HKL {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pseudo
}
