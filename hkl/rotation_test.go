package hkl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVecInDelta(t *testing.T, want, got Vec3, tol float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d", i)
	}
}

// TestRotationAbout checks handedness and axis invariance of the Rodrigues
// rotation.
func TestRotationAbout(t *testing.T) {
	t.Parallel()

	t.Run("right-handed about +z", func(t *testing.T) {
		t.Parallel()
		r := rotationAbout(Vec3{0, 0, 1}, math.Pi/2)
		assertVecInDelta(t, Vec3{0, 1, 0}, r.MulVec(Vec3{1, 0, 0}), 1e-12)
	})

	t.Run("axis direction is invariant", func(t *testing.T) {
		t.Parallel()
		n := Vec3{1, 2, -1}
		r := rotationAbout(n, 0.7)
		assertVecInDelta(t, n, r.MulVec(n), 1e-12)
	})

	t.Run("non-unit direction is normalised", func(t *testing.T) {
		t.Parallel()
		a := rotationAbout(Vec3{0, 0, 3}, 0.4)
		b := rotationAbout(Vec3{0, 0, 1}, 0.4)
		for i := range a {
			assert.InDelta(t, b[i], a[i], 1e-12)
		}
	})

	t.Run("inverse is the transpose", func(t *testing.T) {
		t.Parallel()
		r := rotationAbout(Vec3{1, -1, 2}, 1.1)
		p := r.Mul(r.Transpose())
		for i := range identity {
			assert.InDelta(t, identity[i], p[i], 1e-12)
		}
		assert.InDelta(t, 1.0, r.Det(), 1e-12)
	})
}

// TestMat3Inverse checks the closed-form inverse and its singularity guard.
func TestMat3Inverse(t *testing.T) {
	t.Parallel()

	t.Run("recovers identity", func(t *testing.T) {
		t.Parallel()
		m := Mat3{2, 1, 0, -1, 3, 2, 0, 1, 1}
		inv, ok := m.Inverse()
		require.True(t, ok)
		p := m.Mul(inv)
		for i := range identity {
			assert.InDelta(t, identity[i], p[i], 1e-12)
		}
	})

	t.Run("rejects a singular matrix", func(t *testing.T) {
		t.Parallel()
		m := Mat3{1, 2, 3, 2, 4, 6, 0, 0, 1} // first two rows dependent
		_, ok := m.Inverse()
		assert.False(t, ok)
	})
}

// TestSignedAngle checks sign conventions of the projected angle.
func TestSignedAngle(t *testing.T) {
	t.Parallel()

	z := Vec3{0, 0, 1}
	assert.InDelta(t, math.Pi/2, signedAngle(Vec3{1, 0, 0}, Vec3{0, 1, 0}, z), 1e-12)
	assert.InDelta(t, -math.Pi/2, signedAngle(Vec3{0, 1, 0}, Vec3{1, 0, 0}, z), 1e-12)

	// Components along the axis are ignored.
	assert.InDelta(t, math.Pi/2, signedAngle(Vec3{1, 0, 5}, Vec3{0, 1, -3}, z), 1e-12)
}

// TestCosSinSolutions checks root enumeration of a·cosθ + b·sinθ = c.
func TestCosSinSolutions(t *testing.T) {
	t.Parallel()

	t.Run("two roots", func(t *testing.T) {
		t.Parallel()
		a, b, c := 1.0, 1.0, 0.5
		roots := cosSinSolutions(a, b, c)
		require.Len(t, roots, 2)
		for _, th := range roots {
			assert.InDelta(t, c, a*math.Cos(th)+b*math.Sin(th), 1e-12)
		}
	})

	t.Run("roots stay in the principal interval", func(t *testing.T) {
		t.Parallel()
		// base = atan2(0, -1) = π, so the raw base+d root lies beyond π
		// and must be wrapped back.
		roots := cosSinSolutions(-1, 0, 0.5)
		require.Len(t, roots, 2)
		for _, th := range roots {
			assert.Greater(t, th, -math.Pi)
			assert.LessOrEqual(t, th, math.Pi)
			assert.InDelta(t, 0.5, -math.Cos(th), 1e-12)
		}
	})

	t.Run("tangent case folds to one root", func(t *testing.T) {
		t.Parallel()
		roots := cosSinSolutions(1, 0, 1)
		require.Len(t, roots, 1)
		assert.InDelta(t, 0, roots[0], 1e-9)
	})

	t.Run("no roots when out of range", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, cosSinSolutions(1, 1, 3))
	})

	t.Run("degenerate equation", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []float64{0}, cosSinSolutions(0, 0, 0))
		assert.Empty(t, cosSinSolutions(0, 0, 1))
	})
}
