package hkl

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// Reflection pairs Miller indices with the physical axis positions (degrees,
// canonical axis order) observed for them and the wavelength in effect when
// they were measured.
type Reflection struct {
	H, K, L    float64
	Position   []float64
	Wavelength float64
}

// Sample owns a lattice, the orientation matrix U fitted for it, the derived
// UB product, and its reference reflections in insertion order. Samples are
// created and mutated through an Engine, which provides locking; exactly one
// sample is active on an engine at a time.
type Sample struct {
	id      string
	name    string
	lattice Lattice

	u  Mat3
	ub Mat3

	reflections []Reflection
}

func newSample(name string, lat Lattice) *Sample {
	return &Sample{
		id:      uuid.NewString(),
		name:    name,
		lattice: lat,
		u:       identity,
		ub:      lat.BMatrix(),
	}
}

// ID returns the unique identifier assigned at creation.
func (s *Sample) ID() string { return s.id }

// Name returns the user-chosen sample name.
func (s *Sample) Name() string { return s.name }

// Lattice returns the sample's unit cell.
func (s *Sample) Lattice() Lattice { return s.lattice }

// U returns the fitted crystal-to-lab rotation (identity before any fit).
func (s *Sample) U() Mat3 { return s.u }

// UB returns the orientation times metric product mapping (h,k,l) to a
// lab-frame scattering vector.
func (s *Sample) UB() Mat3 { return s.ub }

// collinearTol rejects reflection pairs whose reciprocal vectors span less
// than about 0.06 milliradian.
const collinearTol = 1e-6

// fitOrientation computes U from paired unit vectors: hc (predicted from the
// lattice metric) and up (reconstructed from the measured angles), both in
// their respective frames. Exactly two pairs use the closed-form Busing-Levy
// triad construction; more pairs use an SVD orthogonal-Procrustes fit.
func fitOrientation(hc, up []Vec3) (Mat3, error) {
	if len(hc) == 2 {
		tc, err := orthonormalTriad(hc[0], hc[1])
		if err != nil {
			return Mat3{}, err
		}
		tp, err := orthonormalTriad(up[0], up[1])
		if err != nil {
			return Mat3{}, err
		}
		return tp.Mul(tc.Transpose()), nil
	}
	return procrustesRotation(hc, up)
}

// orthonormalTriad builds the right-handed triad (v1̂, t2, t3) with
// t3 = v1×v2 normalised, as column vectors of a rotation matrix.
func orthonormalTriad(v1, v2 Vec3) (Mat3, error) {
	c := v1.cross(v2)
	if c.norm() < collinearTol*v1.norm()*v2.norm() {
		return Mat3{}, fmt.Errorf("%w: reflection vectors are collinear", ErrDegenerateReflections)
	}
	t1 := v1.unit()
	t3 := c.unit()
	t2 := t3.cross(t1)
	return Mat3{
		t1[0], t2[0], t3[0],
		t1[1], t2[1], t3[1],
		t1[2], t2[2], t3[2],
	}, nil
}

// procrustesRotation solves min Σ|R·hc_i - up_i|² over rotations R via the
// singular value decomposition of the cross-covariance matrix. A vanishing
// second singular value means the reflections do not span a plane.
func procrustesRotation(hc, up []Vec3) (Mat3, error) {
	var cov [9]float64
	for n := range hc {
		a := hc[n].unit()
		b := up[n].unit()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[3*i+j] += b[i] * a[j]
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, cov[:]), mat.SVDFull); !ok {
		return Mat3{}, fmt.Errorf("%w: orientation fit did not converge", ErrDegenerateReflections)
	}
	values := svd.Values(nil)
	if values[1] < collinearTol {
		return Mat3{}, fmt.Errorf("%w: reflections span less than two independent directions", ErrDegenerateReflections)
	}

	var w, v mat.Dense
	svd.UTo(&w)
	svd.VTo(&v)
	// Force a proper rotation (det +1), not a reflection.
	d := mat.Det(&w) * mat.Det(&v)
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = w.At(i, 0)*v.At(j, 0) + w.At(i, 1)*v.At(j, 1) + d*w.At(i, 2)*v.At(j, 2)
		}
	}
	return r, nil
}

// reflectionVectors reconstructs, for one stored reflection, the metric
// prediction B·(h,k,l) and the scattering vector measured at the stored
// angles rotated back into the crystal holder frame.
func reflectionVectors(g *Geometry, b Mat3, r Reflection) (hc, up Vec3, err error) {
	if r.Wavelength <= 0 {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: reflection (%g,%g,%g) stored with wavelength %g",
			ErrInvalidWavelength, r.H, r.K, r.L, r.Wavelength)
	}
	hc = b.MulVec(Vec3{r.H, r.K, r.L})
	if hc.norm() < 1e-12 {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: reflection (%g,%g,%g) has zero reciprocal vector",
			ErrDegenerateReflections, r.H, r.K, r.L)
	}

	rad := make([]float64, len(r.Position))
	for i, deg := range r.Position {
		rad[i] = units.Radians(deg)
	}
	wavenumber := 2 * math.Pi / r.Wavelength
	kin := Vec3{wavenumber, 0, 0}
	q := g.detectorRotation(rad).MulVec(kin).sub(kin)
	up = g.sampleRotation(rad).Transpose().MulVec(q)
	return hc, up, nil
}
