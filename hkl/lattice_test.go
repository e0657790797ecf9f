package hkl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLattice checks parameter validation against the cell-validity rules.
func TestNewLattice(t *testing.T) {
	t.Parallel()

	t.Run("accepts a cubic cell", func(t *testing.T) {
		t.Parallel()
		lat, err := NewLattice(5.431, 5.431, 5.431, 90, 90, 90)
		require.NoError(t, err)
		assert.Equal(t, 5.431, lat.A)
		assert.Equal(t, 90.0, lat.Gamma)
	})

	t.Run("accepts a hexagonal cell", func(t *testing.T) {
		t.Parallel()
		_, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
		require.NoError(t, err)
	})

	t.Run("rejects non-positive lengths", func(t *testing.T) {
		t.Parallel()
		_, err := NewLattice(0, 5.431, 5.431, 90, 90, 90)
		assert.ErrorIs(t, err, ErrInvalidCell)

		_, err = NewLattice(5.431, -1, 5.431, 90, 90, 90)
		assert.ErrorIs(t, err, ErrInvalidCell)
	})

	t.Run("rejects angles outside (0, 180)", func(t *testing.T) {
		t.Parallel()
		_, err := NewLattice(5.431, 5.431, 5.431, 0, 90, 90)
		assert.ErrorIs(t, err, ErrInvalidCell)

		_, err = NewLattice(5.431, 5.431, 5.431, 90, 180, 90)
		assert.ErrorIs(t, err, ErrInvalidCell)

		_, err = NewLattice(5.431, 5.431, 5.431, 90, 90, 200)
		assert.ErrorIs(t, err, ErrInvalidCell)
	})

	t.Run("rejects an impossible angle triple", func(t *testing.T) {
		t.Parallel()
		// Each angle is individually legal but the squared cell volume
		// comes out negative.
		_, err := NewLattice(1, 1, 1, 140, 140, 140)
		assert.ErrorIs(t, err, ErrInvalidCell)
	})

	t.Run("rejects NaN parameters", func(t *testing.T) {
		t.Parallel()
		_, err := NewLattice(math.NaN(), 5.431, 5.431, 90, 90, 90)
		assert.ErrorIs(t, err, ErrInvalidCell)
	})
}

// TestLatticeVolume checks direct-cell volumes for cubic and hexagonal cells.
func TestLatticeVolume(t *testing.T) {
	t.Parallel()

	cubic, err := NewLattice(5.431, 5.431, 5.431, 90, 90, 90)
	require.NoError(t, err)
	assert.InDelta(t, 160.191478, cubic.Volume(), 1e-5)

	hex, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
	require.NoError(t, err)
	assert.InDelta(t, 740.056680, hex.Volume(), 1e-5)
}

// TestLatticeReciprocal checks reciprocal cell parameters in the 2π
// convention.
func TestLatticeReciprocal(t *testing.T) {
	t.Parallel()

	t.Run("cubic", func(t *testing.T) {
		t.Parallel()
		lat, err := NewLattice(5.431, 5.431, 5.431, 90, 90, 90)
		require.NoError(t, err)

		rc := lat.Reciprocal()
		assert.InDelta(t, 2*math.Pi/5.431, rc.AStar, 1e-12)
		assert.InDelta(t, 2*math.Pi/5.431, rc.BStar, 1e-12)
		assert.InDelta(t, 2*math.Pi/5.431, rc.CStar, 1e-12)
		assert.InDelta(t, 90, rc.AlphaStar, 1e-9)
		assert.InDelta(t, 90, rc.BetaStar, 1e-9)
		assert.InDelta(t, 90, rc.GammaStar, 1e-9)
	})

	t.Run("hexagonal", func(t *testing.T) {
		t.Parallel()
		lat, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
		require.NoError(t, err)

		rc := lat.Reciprocal()
		assert.InDelta(t, 0.7999997, rc.AStar, 1e-6)
		assert.InDelta(t, 0.7999997, rc.BStar, 1e-6)
		assert.InDelta(t, 0.6047339, rc.CStar, 1e-6)
		assert.InDelta(t, 90, rc.AlphaStar, 1e-9)
		assert.InDelta(t, 90, rc.BetaStar, 1e-9)
		assert.InDelta(t, 60, rc.GammaStar, 1e-9)
	})
}

// TestBMatrix checks the metric matrix layout: upper triangular, with the
// (2,2) element fixed at 2π/c.
func TestBMatrix(t *testing.T) {
	t.Parallel()

	t.Run("cubic cell is diagonal", func(t *testing.T) {
		t.Parallel()
		lat, err := NewLattice(5.431, 5.431, 5.431, 90, 90, 90)
		require.NoError(t, err)

		b := lat.BMatrix()
		s := 2 * math.Pi / 5.431
		want := Mat3{
			s, 0, 0,
			0, s, 0,
			0, 0, s,
		}
		for i := range want {
			assert.InDelta(t, want[i], b[i], 1e-12, "element %d", i)
		}
	})

	t.Run("hexagonal cell", func(t *testing.T) {
		t.Parallel()
		lat, err := NewLattice(9.069, 9.069, 10.39, 90, 90, 120)
		require.NoError(t, err)

		b := lat.BMatrix()
		want := Mat3{
			0.7999997, 0.3999999, 0,
			0, 0.6928201, 0,
			0, 0, 0.6047339,
		}
		for i := range want {
			assert.InDelta(t, want[i], b[i], 1e-6, "element %d", i)
		}
	})
}
