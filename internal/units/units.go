// Package units provides shared physical constants and unit conversions
// for the diffractometer engine.
//
// The engine uses fixed units throughout: lengths in Ångström, angles in
// degrees at the API boundary (radians internally), photon energy in keV.
package units

import "math"

// HCKevAngstrom is the Planck constant times the speed of light in keV·Å,
// so that E[keV] = HCKevAngstrom / λ[Å].
const HCKevAngstrom = 12.39842

// DegreesPerRadian converts radians to degrees when multiplied.
const DegreesPerRadian = 180.0 / math.Pi

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees / DegreesPerRadian
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * DegreesPerRadian
}

// WavelengthToEnergy converts a wavelength in Ångström to a photon energy
// in keV. The caller is responsible for rejecting non-positive wavelengths.
func WavelengthToEnergy(wavelengthAngstrom float64) float64 {
	return HCKevAngstrom / wavelengthAngstrom
}

// EnergyToWavelength converts a photon energy in keV to a wavelength in
// Ångström. The caller is responsible for rejecting non-positive energies.
func EnergyToWavelength(energyKeV float64) float64 {
	return HCKevAngstrom / energyKeV
}

// NormalizeDegrees maps an angle in degrees onto (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// NormalizeRadians maps an angle in radians onto (-π, π].
func NormalizeRadians(rad float64) float64 {
	r := math.Mod(rad, 2*math.Pi)
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
