package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, "e4cv.json", `{
  "geometry": "E4CV",
  "mode": "constant_chi",
  "wavelength": 1.54,
  "lattice": {"a": 5.431, "b": 5.431, "c": 5.431, "alpha": 90, "beta": 90, "gamma": 90},
  "values": {"chi": 30},
  "limits": {"tth": [0, 160]}
}`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Geometry != "E4CV" || p.Mode != "constant_chi" {
		t.Errorf("unexpected geometry/mode: %q/%q", p.Geometry, p.Mode)
	}
	if p.Wavelength == nil || *p.Wavelength != 1.54 {
		t.Errorf("wavelength = %v, want 1.54", p.Wavelength)
	}
	if p.Energy != nil {
		t.Errorf("energy should be unset, got %v", *p.Energy)
	}

	e, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := e.Mode(); got != "constant_chi" {
		t.Errorf("engine mode = %q, want constant_chi", got)
	}
	if v, _ := e.AxisValue("chi"); v != 30 {
		t.Errorf("chi = %v, want 30", v)
	}
	if lo, hi, _ := e.AxisLimits("tth"); lo != 0 || hi != 160 {
		t.Errorf("tth limits = [%v, %v], want [0, 160]", lo, hi)
	}
}

func TestLoadProfileRejectsNonJSON(t *testing.T) {
	if _, err := LoadProfile("profile.yaml"); err == nil {
		t.Fatal("expected error for non-json extension")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildRequiresLattice(t *testing.T) {
	p := &Profile{Geometry: "E4CV", Mode: "bissector"}
	if _, err := p.Build(); err == nil {
		t.Fatal("expected error for missing lattice")
	}
}

func TestBuildFitsUBFromReflections(t *testing.T) {
	path := writeProfile(t, "e6c.json", `{
  "geometry": "E6C",
  "mode": "lifting_detector_mu",
  "wavelength": 1.61198,
  "lattice": {"a": 9.069, "b": 9.069, "c": 10.39, "alpha": 90, "beta": 90, "gamma": 120},
  "pinned": ["omega", "chi", "phi"],
  "reflections": [
    {"hkl": [3, 3, 0], "position": [25.285, 0, 0, 0, 64.449, -0.871]},
    {"hkl": [5, 2, 0], "position": [46.816, 0, 0, 0, 79.712, -1.374]}
  ]
}`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	e, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sols, err := e.Forward(4, 4, 0)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(sols) == 0 {
		t.Fatal("expected at least one solution")
	}
	if mu := sols[0][0]; mu < 38.3 || mu > 38.5 {
		t.Errorf("mu = %v, want about 38.38", mu)
	}
}
