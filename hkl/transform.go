package hkl

import (
	"fmt"
	"math"
	"sort"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// Forward solves the mode-constrained forward transform: the physical axis
// positions that place the (h,k,l) reflection on the detector. The result is
// the ordered, finite set of solutions that satisfy every solved axis's
// limits, closest-to-current-position first; held axes carry their exact
// current values. An empty branch set or full filtering yields
// ErrUnreachableTarget.
func (e *Engine) Forward(h, k, l float64) ([]Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return nil, fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}

	solvedIdx := make([]int, 0, len(e.mode.Solved))
	for _, name := range e.mode.Solved {
		i, ok := e.geom.axisIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: mode %s references unknown axis %q", ErrModeConfiguration, e.mode.Name, name)
		}
		p := e.axes[i]
		if !p.Fit() {
			return nil, fmt.Errorf("%w: mode %s must solve axis %s, but fit is disabled",
				ErrModeConfiguration, e.mode.Name, e.display[i])
		}
		if p.Pinned() {
			return nil, fmt.Errorf("%w: mode %s must solve axis %s, but its limits pin it to %g",
				ErrModeConfiguration, e.mode.Name, e.display[i], p.lower)
		}
		solvedIdx = append(solvedIdx, i)
	}

	v := e.active.ub.MulVec(Vec3{h, k, l})
	if v.norm() < 1e-12 {
		return nil, fmt.Errorf("%w: (%g,%g,%g) has a zero scattering vector", ErrUnreachableTarget, h, k, l)
	}

	cur := make([]float64, len(e.axes))
	for i, p := range e.axes {
		cur[i] = units.Radians(p.Value())
	}
	sc := solveContext{
		g:   e.geom,
		k:   2 * math.Pi / e.wavelength,
		v:   v,
		cur: cur,
	}

	var solutions []Position
	for _, cand := range e.mode.solve(sc) {
		pos, ok := e.admitCandidate(cand, solvedIdx)
		if ok {
			solutions = append(solutions, pos)
		}
	}
	solutions = dedupPositions(solutions)
	if len(solutions) == 0 {
		return nil, fmt.Errorf("%w: no %s branch for (%g,%g,%g) within limits",
			ErrUnreachableTarget, e.mode.Name, h, k, l)
	}

	current := e.positionsLocked()
	sort.SliceStable(solutions, func(a, b int) bool {
		return travel(solutions[a], current, solvedIdx) < travel(solutions[b], current, solvedIdx)
	})
	return solutions, nil
}

// admitCandidate converts one solver branch (radians, canonical order) into
// a degree Position, normalising each solved angle onto (-180, 180] and
// falling back to the ±360° representative when that is what the limit pair
// admits. Held axes are copied from the store untouched.
func (e *Engine) admitCandidate(cand []float64, solvedIdx []int) (Position, bool) {
	pos := e.positionsLocked()
	solved := make(map[int]bool, len(solvedIdx))
	for _, i := range solvedIdx {
		solved[i] = true
	}
	for i, rad := range cand {
		if !solved[i] {
			continue
		}
		deg := units.NormalizeDegrees(units.Degrees(rad))
		if !e.axes[i].inLimits(deg) {
			switch {
			case e.axes[i].inLimits(deg + 360):
				deg += 360
			case e.axes[i].inLimits(deg - 360):
				deg -= 360
			default:
				return nil, false
			}
		}
		pos[i] = deg
	}
	return pos, true
}

func dedupPositions(in []Position) []Position {
	var out []Position
	for _, cand := range in {
		dup := false
		for _, kept := range out {
			same := true
			for i := range cand {
				if math.Abs(cand[i]-kept[i]) > 1e-9 {
					same = false
					break
				}
			}
			if same {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, cand)
		}
	}
	return out
}

// travel is the total angular distance over the solved axes between a
// solution and the current position, the ranking key for Forward results.
func travel(sol, current Position, solvedIdx []int) float64 {
	var sum float64
	for _, i := range solvedIdx {
		sum += math.Abs(sol[i] - current[i])
	}
	return sum
}

// Inverse computes the pseudo-axis position from a full physical position
// vector (degrees, canonical axis order): the rotation composition of the
// axis angles gives the lab-frame scattering vector, which is pulled back
// through UB. The transform is single-valued. Every axis value must be
// supplied and finite. On success the engine's cached pseudo position is
// updated; physical axis values are not modified.
func (e *Engine) Inverse(pos Position) (HKL, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	hkl, err := e.inverseLocked(pos)
	if err != nil {
		return HKL{}, err
	}
	e.pseudo = hkl
	return hkl, nil
}

func (e *Engine) inverseLocked(pos Position) (HKL, error) {
	if len(pos) != len(e.axes) {
		return HKL{}, fmt.Errorf("%w: expected %d axis values, got %d", ErrAxisName, len(e.axes), len(pos))
	}
	for i, v := range pos {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return HKL{}, fmt.Errorf("%w: axis %s value is not set", ErrAxisName, e.display[i])
		}
	}
	if e.active == nil {
		return HKL{}, fmt.Errorf("%w: no active sample", ErrSingularOrientation)
	}
	ubInv, ok := e.active.ub.Inverse()
	if !ok {
		return HKL{}, fmt.Errorf("%w: UB is not invertible", ErrSingularOrientation)
	}

	rad := make([]float64, len(pos))
	for i, deg := range pos {
		rad[i] = units.Radians(deg)
	}
	wavenumber := 2 * math.Pi / e.wavelength
	kin := Vec3{wavenumber, 0, 0}
	q := e.geom.detectorRotation(rad).MulVec(kin).sub(kin)
	hkl := ubInv.MulVec(e.geom.sampleRotation(rad).Transpose().MulVec(q))
	return HKL{H: hkl[0], K: hkl[1], L: hkl[2]}, nil
}
