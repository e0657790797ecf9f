package hkl

import (
	"fmt"
	"sort"
)

// GeometryType selects one of the supported instrument kinds.
type GeometryType string

// Supported diffractometer geometries.
const (
	// E4CV is the Eulerian four-circle with a vertical scattering plane:
	// omega, chi, phi sample circles and a tth detector arm.
	E4CV GeometryType = "E4CV"
	// E4CH is the Eulerian four-circle with a horizontal scattering plane.
	E4CH GeometryType = "E4CH"
	// E6C is the Eulerian six-circle: mu, omega, chi, phi sample circles
	// and a gamma/delta two-axis detector arm.
	E6C GeometryType = "E6C"
	// TwoC is the two-circle: a single omega sample circle and a tth arm.
	TwoC GeometryType = "TwoC"
	// ZAXIS is the z-axis surface geometry: mu, omega sample circles and a
	// gamma/delta detector arm.
	ZAXIS GeometryType = "ZAXIS"
)

// Rotation directions shared by the geometry catalog.
var (
	axisX      = Vec3{1, 0, 0}
	axisZ      = Vec3{0, 0, 1}
	axisMinusY = Vec3{0, -1, 0}
)

// axisDef couples a physical axis name with its right-handed rotation
// direction in the laboratory frame.
type axisDef struct {
	name string
	dir  Vec3
}

// Mode is a named constraint scheme: it designates which physical axes the
// forward solver varies and which it reads as constants from the axis
// store. Exactly one mode is active on an Engine at a time.
type Mode struct {
	// Name identifies the mode within its geometry's catalog.
	Name string
	// Solved lists the axes the forward solver varies.
	Solved []string
	// Held lists the axes whose current values enter the equations as
	// constants. Axes in neither list do not participate in the mode.
	Held []string
	// Branches is the fixed upper bound on geometrically valid solutions
	// the closed-form solve can produce for this mode.
	Branches int

	solve forwardFunc
}

// Geometry describes one diffractometer type: its ordered physical axes,
// the sample and detector holder compositions, and its mode catalog.
// Geometry values are immutable; they are shared lookup tables.
type Geometry struct {
	typ  GeometryType
	axes []axisDef
	// sampleIdx and detectorIdx list axis indices in rotation-composition
	// order (outermost first). They may present axes in a different order
	// than the external axis order.
	sampleIdx   []int
	detectorIdx []int
	modes       map[string]*Mode
}

// Type returns the geometry type tag.
func (g *Geometry) Type() GeometryType { return g.typ }

// AxisNames returns the physical axis names in canonical order.
func (g *Geometry) AxisNames() []string {
	names := make([]string, len(g.axes))
	for i, a := range g.axes {
		names[i] = a.name
	}
	return names
}

// ModeNames returns the geometry's mode catalog in sorted order.
func (g *Geometry) ModeNames() []string {
	names := make([]string, 0, len(g.modes))
	for name := range g.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode looks up a mode by name.
func (g *Geometry) Mode(name string) (*Mode, error) {
	m, ok := g.modes[name]
	if !ok {
		return nil, fmt.Errorf("%w: geometry %s has no mode %q (available: %v)",
			ErrAxisName, g.typ, name, g.ModeNames())
	}
	return m, nil
}

func (g *Geometry) axisIndex(name string) (int, bool) {
	for i, a := range g.axes {
		if a.name == name {
			return i, true
		}
	}
	return 0, false
}

// sampleRotation composes the sample holder rotation for the given axis
// values (radians, canonical axis order).
func (g *Geometry) sampleRotation(values []float64) Mat3 {
	return g.holderRotation(g.sampleIdx, values)
}

// detectorRotation composes the detector holder rotation for the given axis
// values (radians, canonical axis order).
func (g *Geometry) detectorRotation(values []float64) Mat3 {
	return g.holderRotation(g.detectorIdx, values)
}

func (g *Geometry) holderRotation(idx []int, values []float64) Mat3 {
	r := identity
	for _, i := range idx {
		r = r.Mul(rotationAbout(g.axes[i].dir, values[i]))
	}
	return r
}

// newGeometry looks up the descriptor for a geometry type.
func newGeometry(t GeometryType) (*Geometry, error) {
	g, ok := geometryCatalog[t]
	if !ok {
		types := make([]string, 0, len(geometryCatalog))
		for k := range geometryCatalog {
			types = append(types, string(k))
		}
		sort.Strings(types)
		return nil, fmt.Errorf("%w: unknown geometry type %q (choose from: %v)", ErrAxisName, t, types)
	}
	return g, nil
}

// ModeNamesFor lists the mode catalog of a geometry type without
// constructing an engine.
func ModeNamesFor(t GeometryType) ([]string, error) {
	g, err := newGeometry(t)
	if err != nil {
		return nil, err
	}
	return g.ModeNames(), nil
}

// AxisNamesFor lists the canonical physical axes of a geometry type.
func AxisNamesFor(t GeometryType) ([]string, error) {
	g, err := newGeometry(t)
	if err != nil {
		return nil, err
	}
	return g.AxisNames(), nil
}

// GeometryTypes returns all supported geometry type tags, sorted.
func GeometryTypes() []GeometryType {
	out := make([]GeometryType, 0, len(geometryCatalog))
	for k := range geometryCatalog {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// geometryCatalog is the fixed per-type descriptor table. Axis rotation
// directions follow the lab frame convention of the package doc; they were
// validated numerically against reference six-circle measurements.
var geometryCatalog = map[GeometryType]*Geometry{
	E4CV: {
		typ: E4CV,
		axes: []axisDef{
			{"omega", axisMinusY},
			{"chi", axisX},
			{"phi", axisMinusY},
			{"tth", axisMinusY},
		},
		sampleIdx:   []int{0, 1, 2},
		detectorIdx: []int{3},
		modes: map[string]*Mode{
			"bissector": {
				Name:     "bissector",
				Solved:   []string{"omega", "chi", "phi", "tth"},
				Branches: 4,
				solve:    solveFourCircleBissector,
			},
			"constant_omega": {
				Name:     "constant_omega",
				Solved:   []string{"chi", "phi", "tth"},
				Held:     []string{"omega"},
				Branches: 4,
				solve:    solveFourCircleConstantOmega,
			},
			"constant_chi": {
				Name:     "constant_chi",
				Solved:   []string{"omega", "phi", "tth"},
				Held:     []string{"chi"},
				Branches: 4,
				solve:    solveFourCircleConstantChi,
			},
			"constant_phi": {
				Name:     "constant_phi",
				Solved:   []string{"omega", "chi", "tth"},
				Held:     []string{"phi"},
				Branches: 4,
				solve:    solveFourCircleConstantPhi,
			},
		},
	},
	E4CH: {
		typ: E4CH,
		axes: []axisDef{
			{"omega", axisZ},
			{"chi", axisX},
			{"phi", axisZ},
			{"tth", axisZ},
		},
		sampleIdx:   []int{0, 1, 2},
		detectorIdx: []int{3},
		modes: map[string]*Mode{
			"bissector": {
				Name:     "bissector",
				Solved:   []string{"omega", "chi", "phi", "tth"},
				Branches: 4,
				solve:    solveFourCircleBissector,
			},
			"constant_omega": {
				Name:     "constant_omega",
				Solved:   []string{"chi", "phi", "tth"},
				Held:     []string{"omega"},
				Branches: 4,
				solve:    solveFourCircleConstantOmega,
			},
			"constant_chi": {
				Name:     "constant_chi",
				Solved:   []string{"omega", "phi", "tth"},
				Held:     []string{"chi"},
				Branches: 4,
				solve:    solveFourCircleConstantChi,
			},
			"constant_phi": {
				Name:     "constant_phi",
				Solved:   []string{"omega", "chi", "tth"},
				Held:     []string{"phi"},
				Branches: 4,
				solve:    solveFourCircleConstantPhi,
			},
		},
	},
	E6C: {
		typ: E6C,
		axes: []axisDef{
			{"mu", axisZ},
			{"omega", axisMinusY},
			{"chi", axisX},
			{"phi", axisMinusY},
			{"gamma", axisZ},
			{"delta", axisMinusY},
		},
		sampleIdx:   []int{0, 1, 2, 3},
		detectorIdx: []int{4, 5},
		modes: map[string]*Mode{
			"bissector_vertical": {
				Name:     "bissector_vertical",
				Solved:   []string{"omega", "chi", "phi", "delta"},
				Held:     []string{"mu", "gamma"},
				Branches: 4,
				solve:    solveSixCircleBissectorVertical,
			},
			"constant_omega_vertical": {
				Name:     "constant_omega_vertical",
				Solved:   []string{"chi", "phi", "delta"},
				Held:     []string{"mu", "omega", "gamma"},
				Branches: 4,
				solve:    solveSixCircleConstantOmegaVertical,
			},
			"constant_chi_vertical": {
				Name:     "constant_chi_vertical",
				Solved:   []string{"omega", "phi", "delta"},
				Held:     []string{"mu", "chi", "gamma"},
				Branches: 4,
				solve:    solveSixCircleConstantChiVertical,
			},
			"constant_phi_vertical": {
				Name:     "constant_phi_vertical",
				Solved:   []string{"omega", "chi", "delta"},
				Held:     []string{"mu", "phi", "gamma"},
				Branches: 4,
				solve:    solveSixCircleConstantPhiVertical,
			},
			"lifting_detector_mu": {
				Name:     "lifting_detector_mu",
				Solved:   []string{"mu", "gamma", "delta"},
				Held:     []string{"omega", "chi", "phi"},
				Branches: 4,
				solve:    solveSixCircleLiftingMu,
			},
			"lifting_detector_omega": {
				Name:     "lifting_detector_omega",
				Solved:   []string{"omega", "gamma", "delta"},
				Held:     []string{"mu", "chi", "phi"},
				Branches: 4,
				solve:    solveSixCircleLiftingOmega,
			},
			"lifting_detector_phi": {
				Name:     "lifting_detector_phi",
				Solved:   []string{"phi", "gamma", "delta"},
				Held:     []string{"mu", "omega", "chi"},
				Branches: 4,
				solve:    solveSixCircleLiftingPhi,
			},
		},
	},
	TwoC: {
		typ: TwoC,
		axes: []axisDef{
			{"omega", axisMinusY},
			{"tth", axisMinusY},
		},
		sampleIdx:   []int{0},
		detectorIdx: []int{1},
		modes: map[string]*Mode{
			"bissector": {
				Name:     "bissector",
				Solved:   []string{"omega", "tth"},
				Branches: 2,
				solve:    solveTwoCircleBissector,
			},
		},
	},
	ZAXIS: {
		typ: ZAXIS,
		axes: []axisDef{
			{"mu", axisZ},
			{"omega", axisMinusY},
			{"delta", axisMinusY},
			{"gamma", axisZ},
		},
		sampleIdx:   []int{0, 1},
		detectorIdx: []int{3, 2},
		modes: map[string]*Mode{
			"zaxis": {
				Name:     "zaxis",
				Solved:   []string{"mu", "gamma", "delta"},
				Held:     []string{"omega"},
				Branches: 4,
				solve:    solveZAxis,
			},
		},
	},
}
