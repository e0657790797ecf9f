// Package config loads instrument profiles: JSON descriptions of a
// diffractometer setup (geometry, mode, lattice, wavelength, axis
// constraints, reference reflections) that can be replayed onto a fresh
// engine. Fields omitted from the JSON retain the engine defaults, so
// partial profiles are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crystalbeam/diffcalc/hkl"
)

// LatticeSpec is the unit cell block of a profile.
type LatticeSpec struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	C     float64 `json:"c"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// ReflectionSpec is one reference reflection: Miller indices plus the full
// motor position (degrees, canonical axis order).
type ReflectionSpec struct {
	HKL      [3]float64 `json:"hkl"`
	Position []float64  `json:"position"`
}

// Profile is the root instrument description. Geometry, mode and lattice
// are required; everything else is optional.
type Profile struct {
	Geometry string       `json:"geometry"`
	Mode     string       `json:"mode"`
	Sample   *string      `json:"sample,omitempty"`
	Lattice  *LatticeSpec `json:"lattice"`

	Wavelength *float64 `json:"wavelength,omitempty"` // Å
	Energy     *float64 `json:"energy,omitempty"`     // keV, wins over wavelength

	// AxisNames is a presentation rename map; when present it must cover
	// every axis of the geometry. All later blocks use the renamed names.
	AxisNames map[string]string `json:"axis_names,omitempty"`

	Pinned []string              `json:"pinned,omitempty"` // axes pinned at 0
	Limits map[string][2]float64 `json:"limits,omitempty"`
	Values map[string]float64    `json:"values,omitempty"`
	Fit    map[string]bool       `json:"fit,omitempty"`

	Reflections []ReflectionSpec `json:"reflections,omitempty"`
	// UB installs a pre-calibrated orientation (row-major); it wins over
	// reflection fitting.
	UB *[9]float64 `json:"ub,omitempty"`
}

// LoadProfile reads and parses a profile from a JSON file. The path must
// carry a .json extension and the file is capped at 1MB.
func LoadProfile(path string) (*Profile, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("profile must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat profile: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("profile too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", cleanPath, err)
	}
	return &p, nil
}

// Build constructs and configures an engine from the profile. Orientation
// comes from the explicit UB when present, otherwise from fitting all
// listed reflections.
func (p *Profile) Build() (*hkl.Engine, error) {
	if p.Geometry == "" || p.Mode == "" {
		return nil, fmt.Errorf("profile needs geometry and mode")
	}
	if p.Lattice == nil {
		return nil, fmt.Errorf("profile needs a lattice block")
	}

	e, err := hkl.NewEngine(hkl.GeometryType(p.Geometry), p.Mode)
	if err != nil {
		return nil, err
	}

	switch {
	case p.Energy != nil:
		if err := e.SetEnergy(*p.Energy); err != nil {
			return nil, err
		}
	case p.Wavelength != nil:
		if err := e.SetWavelength(*p.Wavelength); err != nil {
			return nil, err
		}
	}

	lat, err := hkl.NewLattice(p.Lattice.A, p.Lattice.B, p.Lattice.C,
		p.Lattice.Alpha, p.Lattice.Beta, p.Lattice.Gamma)
	if err != nil {
		return nil, err
	}
	name := "sample"
	if p.Sample != nil {
		name = *p.Sample
	}
	if _, err := e.NewSample(name, lat); err != nil {
		return nil, err
	}

	if len(p.AxisNames) > 0 {
		if err := e.RenameAxes(p.AxisNames); err != nil {
			return nil, err
		}
	}
	for _, axis := range p.Pinned {
		if err := e.SetAxisLimits(axis, 0, 0); err != nil {
			return nil, fmt.Errorf("pinning %s: %w", axis, err)
		}
	}
	for axis, lim := range p.Limits {
		if err := e.SetAxisLimits(axis, lim[0], lim[1]); err != nil {
			return nil, err
		}
	}
	for axis, v := range p.Values {
		if err := e.SetAxisValue(axis, v); err != nil {
			return nil, err
		}
	}
	for axis, fit := range p.Fit {
		if err := e.SetAxisFit(axis, fit); err != nil {
			return nil, err
		}
	}

	for _, r := range p.Reflections {
		if err := e.AddReflection(r.HKL[0], r.HKL[1], r.HKL[2], hkl.Position(r.Position)); err != nil {
			return nil, err
		}
	}

	switch {
	case p.UB != nil:
		var ub hkl.Mat3
		copy(ub[:], p.UB[:])
		if err := e.SetUB(ub); err != nil {
			return nil, err
		}
	case len(p.Reflections) >= 2:
		indices := make([]int, len(p.Reflections))
		for i := range indices {
			indices[i] = i
		}
		if err := e.ComputeUB(indices...); err != nil {
			return nil, err
		}
	}
	return e, nil
}
