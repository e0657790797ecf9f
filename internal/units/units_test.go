package units

import (
	"math"
	"testing"
)

func TestWavelengthEnergyRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		wavelength float64
		energy     float64
	}{
		{"copper K-alpha", 1.54, 8.0509},
		{"selenium edge", 0.9795, 12.6579},
		{"one angstrom", 1.0, 12.39842},
		{"soft x-ray 2 angstrom", 2.0, 6.19921},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := WavelengthToEnergy(tt.wavelength)
			if math.Abs(e-tt.energy) > 0.001 {
				t.Errorf("WavelengthToEnergy(%f) = %f, want %f", tt.wavelength, e, tt.energy)
			}
			back := EnergyToWavelength(e)
			if math.Abs(back-tt.wavelength) > 1e-12 {
				t.Errorf("round trip gave %f, want %f", back, tt.wavelength)
			}
		})
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{360, 0},
		{540, 180},
		{-540, 180},
		{720.5, 0.5},
	}

	for _, tt := range tests {
		got := NormalizeDegrees(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeDegrees(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRadians(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{5 * math.Pi, math.Pi},
	}

	for _, tt := range tests {
		got := NormalizeRadians(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeRadians(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestDegreesRadians(t *testing.T) {
	if got := Radians(180); math.Abs(got-math.Pi) > 1e-15 {
		t.Errorf("Radians(180) = %f, want pi", got)
	}
	if got := Degrees(math.Pi / 2); math.Abs(got-90) > 1e-12 {
		t.Errorf("Degrees(pi/2) = %f, want 90", got)
	}
}
