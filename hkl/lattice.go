package hkl

import (
	"fmt"
	"math"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// Lattice holds real-space unit cell parameters: edge lengths in Ångström
// and angles in degrees. A Lattice is immutable once a sample is built from
// it; replacing a sample's lattice recomputes the orientation from scratch.
type Lattice struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64
}

// NewLattice validates cell parameters and returns the lattice. Lengths must
// be positive, angles must lie in (0°, 180°), each angle must be smaller
// than the sum of the other two, and the cell volume must be real and
// positive.
func NewLattice(a, b, c, alpha, beta, gamma float64) (Lattice, error) {
	l := Lattice{A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma}
	// Written as negated comparisons so NaN fails validation too.
	if !(a > 0) || !(b > 0) || !(c > 0) || math.IsInf(a, 1) || math.IsInf(b, 1) || math.IsInf(c, 1) {
		return Lattice{}, fmt.Errorf("%w: cell lengths must be positive, got (%g, %g, %g)",
			ErrInvalidCell, a, b, c)
	}
	for _, ang := range []float64{alpha, beta, gamma} {
		if !(ang > 0) || !(ang < 180) {
			return Lattice{}, fmt.Errorf("%w: cell angles must lie in (0, 180), got (%g, %g, %g)",
				ErrInvalidCell, alpha, beta, gamma)
		}
	}
	if alpha >= beta+gamma || beta >= alpha+gamma || gamma >= alpha+beta {
		return Lattice{}, fmt.Errorf("%w: cell angles (%g, %g, %g) violate the triangle condition",
			ErrInvalidCell, alpha, beta, gamma)
	}
	if l.volumeSquaredFactor() <= 0 {
		return Lattice{}, fmt.Errorf("%w: cell angles (%g, %g, %g) give a non-positive volume",
			ErrInvalidCell, alpha, beta, gamma)
	}
	return l, nil
}

// volumeSquaredFactor is the dimensionless factor
// 1 - cos²α - cos²β - cos²γ + 2·cosα·cosβ·cosγ whose square root scales the
// cell volume. Non-positive values mean the angles cannot form a cell.
func (l Lattice) volumeSquaredFactor() float64 {
	ca := math.Cos(units.Radians(l.Alpha))
	cb := math.Cos(units.Radians(l.Beta))
	cg := math.Cos(units.Radians(l.Gamma))
	return 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
}

// Volume returns the unit cell volume in Å³.
func (l Lattice) Volume() float64 {
	return l.A * l.B * l.C * math.Sqrt(l.volumeSquaredFactor())
}

// ReciprocalCell holds reciprocal lattice parameters: lengths in 1/Å
// (2π convention) and angles in degrees.
type ReciprocalCell struct {
	AStar, BStar, CStar            float64
	AlphaStar, BetaStar, GammaStar float64
}

// Reciprocal derives the reciprocal cell parameters.
func (l Lattice) Reciprocal() ReciprocalCell {
	alpha := units.Radians(l.Alpha)
	beta := units.Radians(l.Beta)
	gamma := units.Radians(l.Gamma)
	v := l.Volume()

	tau := 2 * math.Pi
	rc := ReciprocalCell{
		AStar: tau * l.B * l.C * math.Sin(alpha) / v,
		BStar: tau * l.A * l.C * math.Sin(beta) / v,
		CStar: tau * l.A * l.B * math.Sin(gamma) / v,
	}
	cosAlphaStar := (math.Cos(beta)*math.Cos(gamma) - math.Cos(alpha)) /
		(math.Sin(beta) * math.Sin(gamma))
	cosBetaStar := (math.Cos(alpha)*math.Cos(gamma) - math.Cos(beta)) /
		(math.Sin(alpha) * math.Sin(gamma))
	cosGammaStar := (math.Cos(alpha)*math.Cos(beta) - math.Cos(gamma)) /
		(math.Sin(alpha) * math.Sin(beta))
	rc.AlphaStar = units.Degrees(math.Acos(cosAlphaStar))
	rc.BetaStar = units.Degrees(math.Acos(cosBetaStar))
	rc.GammaStar = units.Degrees(math.Acos(cosGammaStar))
	return rc
}

// BMatrix builds the Busing-Levy B matrix (2π convention) mapping integer
// (h,k,l) to a Cartesian reciprocal-space vector in the crystal frame.
func (l Lattice) BMatrix() Mat3 {
	rc := l.Reciprocal()
	betaStar := units.Radians(rc.BetaStar)
	gammaStar := units.Radians(rc.GammaStar)
	cosAlpha := math.Cos(units.Radians(l.Alpha))

	return Mat3{
		rc.AStar, rc.BStar * math.Cos(gammaStar), rc.CStar * math.Cos(betaStar),
		0, rc.BStar * math.Sin(gammaStar), -rc.CStar * math.Sin(betaStar) * cosAlpha,
		0, 0, 2 * math.Pi / l.C,
	}
}
