package hkl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// TestNewSampleDefaults checks that a fresh sample starts unoriented: U is
// the identity, so UB is the bare metric matrix.
func TestNewSampleDefaults(t *testing.T) {
	t.Parallel()

	lat, err := NewLattice(5.431, 5.431, 5.431, 90, 90, 90)
	require.NoError(t, err)

	s := newSample("silicon", lat)
	assert.Equal(t, "silicon", s.Name())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, identity, s.U())
	assert.Equal(t, lat.BMatrix(), s.UB())

	other := newSample("silicon", lat)
	assert.NotEqual(t, s.ID(), other.ID(), "IDs must be unique per sample")
}

// TestOrthonormalTriad checks the two-vector triad construction and its
// collinearity guard.
func TestOrthonormalTriad(t *testing.T) {
	t.Parallel()

	t.Run("builds a rotation", func(t *testing.T) {
		t.Parallel()
		m, err := orthonormalTriad(Vec3{1, 0, 0}, Vec3{1, 1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, m.Det(), 1e-12)
		p := m.Mul(m.Transpose())
		for i := range identity {
			assert.InDelta(t, identity[i], p[i], 1e-12)
		}
	})

	t.Run("rejects collinear vectors", func(t *testing.T) {
		t.Parallel()
		_, err := orthonormalTriad(Vec3{1, 2, 3}, Vec3{2, 4, 6})
		assert.ErrorIs(t, err, ErrDegenerateReflections)
	})
}

// TestProcrustesRotation checks that the least-squares fit recovers an exact
// rotation from three vector pairs and rejects rank-deficient input.
func TestProcrustesRotation(t *testing.T) {
	t.Parallel()

	t.Run("recovers a known rotation", func(t *testing.T) {
		t.Parallel()
		r := rotationAbout(Vec3{0, 0, 1}, units.Radians(25)).
			Mul(rotationAbout(Vec3{1, 0, 0}, units.Radians(10)))
		hc := []Vec3{{1, 0, 0}, {0, 1, 0}, {1, 1, 1}}
		up := make([]Vec3, len(hc))
		for i, v := range hc {
			up[i] = r.MulVec(v)
		}

		got, err := procrustesRotation(hc, up)
		require.NoError(t, err)
		for i := range r {
			assert.InDelta(t, r[i], got[i], 1e-9, "element %d", i)
		}
	})

	t.Run("rejects vectors on a single line", func(t *testing.T) {
		t.Parallel()
		hc := []Vec3{{1, 0, 0}, {2, 0, 0}, {-1, 0, 0}}
		up := []Vec3{{0, 1, 0}, {0, 2, 0}, {0, -1, 0}}
		_, err := procrustesRotation(hc, up)
		assert.ErrorIs(t, err, ErrDegenerateReflections)
	})
}

// TestFitOrientationTwoReflections reproduces a six-circle orientation fit
// from two measured reflections of a hexagonal crystal and compares the
// resulting UB against reference values.
func TestFitOrientationTwoReflections(t *testing.T) {
	t.Parallel()

	lat, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
	require.NoError(t, err)
	g, err := newGeometry(E6C)
	require.NoError(t, err)

	b := lat.BMatrix()
	refl := []Reflection{
		{H: 3, K: 3, L: 0, Position: []float64{25.285, 0, 0, 0, 64.449, -0.871}, Wavelength: 1.61198},
		{H: 5, K: 2, L: 0, Position: []float64{46.816, 0, 0, 0, 79.712, -1.374}, Wavelength: 1.61198},
	}

	var hc, up []Vec3
	for _, r := range refl {
		h, u, err := reflectionVectors(g, b, r)
		require.NoError(t, err)
		hc = append(hc, h)
		up = append(up, u)
	}

	u, err := fitOrientation(hc, up)
	require.NoError(t, err)
	ub := u.Mul(b)

	want := Mat3{
		0.3132355, -0.4807593, 0.0111365,
		0.7359072, 0.6394270, 0.0100377,
		-0.0179890, -0.0017607, 0.6045480,
	}
	for i := range want {
		assert.InDelta(t, want[i], ub[i], 1e-5, "UB element %d", i)
	}
	assert.InDelta(t, 1.0, u.Det(), 1e-9, "U must be a proper rotation")
}

// TestReflectionVectors checks the stored-wavelength and zero-vector guards.
func TestReflectionVectors(t *testing.T) {
	t.Parallel()

	lat, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
	require.NoError(t, err)
	g, err := newGeometry(E6C)
	require.NoError(t, err)
	b := lat.BMatrix()

	_, _, err = reflectionVectors(g, b, Reflection{
		H: 1, K: 0, L: 0,
		Position:   []float64{0, 0, 0, 0, 0, 0},
		Wavelength: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidWavelength)

	_, _, err = reflectionVectors(g, b, Reflection{
		H: 0, K: 0, L: 0,
		Position:   []float64{0, 0, 0, 0, 0, 0},
		Wavelength: 1.54,
	})
	assert.ErrorIs(t, err, ErrDegenerateReflections)
}
