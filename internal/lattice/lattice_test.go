package lattice

import (
	"testing"

	"github.com/san-kum/isingsim/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSpinsValid(t *testing.T, l *Lattice) {
	t.Helper()
	for i := 0; i < l.Size(); i++ {
		for j := 0; j < l.Size(); j++ {
			s := l.Get(i, j)
			if s != Up && s != Down {
				t.Fatalf("site (%d,%d) holds %d", i, j, s)
			}
		}
	}
}

func TestNewInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, -10} {
		_, err := New(size, rng.New(1))
		require.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestNewSpinsValid(t *testing.T) {
	l, err := New(17, rng.New(3))
	require.NoError(t, err)
	assert.Equal(t, 17, l.Size())
	assertSpinsValid(t, l)
}

func TestNewRoughlyBalanced(t *testing.T) {
	l, err := New(100, rng.New(11))
	require.NoError(t, err)

	m := float64(l.TotalMagnetisation()) / 10000
	assert.InDelta(t, 0, m, 0.05)
}

func TestNewDeterministic(t *testing.T) {
	a, _ := New(20, rng.New(42))
	b, _ := New(20, rng.New(42))
	assert.Equal(t, a.Spins(), b.Spins())
}

func TestGetWraps(t *testing.T) {
	l, err := FromSpins([][]int8{
		{1, -1, 1},
		{-1, -1, 1},
		{1, 1, -1},
	})
	require.NoError(t, err)

	tests := []struct {
		i, j int
		want int8
	}{
		{0, 0, 1},
		{-1, 0, 1},
		{3, 1, -1},
		{-3, -3, 1},
		{1, -1, 1},
		{4, 4, -1},
		{-4, 5, -1},
		{302, 301, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Get(tt.i, tt.j), "Get(%d,%d)", tt.i, tt.j)
	}
}

func TestFlip(t *testing.T) {
	l, err := Uniform(4, Up)
	require.NoError(t, err)

	l.Flip(1, 2)
	assert.Equal(t, Down, l.Get(1, 2))
	assert.Equal(t, 14, l.TotalMagnetisation())

	l.Flip(-3, 6) // same site, wrapped
	assert.Equal(t, Up, l.Get(1, 2))
	assert.Equal(t, 16, l.TotalMagnetisation())
	assertSpinsValid(t, l)
}

func TestTotalMagnetisationBounds(t *testing.T) {
	up, _ := Uniform(5, Up)
	down, _ := Uniform(5, Down)
	assert.Equal(t, 25, up.TotalMagnetisation())
	assert.Equal(t, -25, down.TotalMagnetisation())
}

func TestFromSpinsRejects(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int8
	}{
		{"empty", nil},
		{"ragged", [][]int8{{1, 1}, {1}}},
		{"not square", [][]int8{{1, 1, 1}, {1, 1, 1}}},
		{"zero spin", [][]int8{{1, 0}, {1, 1}}},
		{"two", [][]int8{{2, 1}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSpins(tt.rows)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestUniformRejects(t *testing.T) {
	_, err := Uniform(0, Up)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = Uniform(3, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSpinsAndCloneAreCopies(t *testing.T) {
	l, _ := Uniform(3, Up)

	rows := l.Spins()
	rows[0][0] = Down
	assert.Equal(t, Up, l.Get(0, 0))

	c := l.Clone()
	c.Flip(0, 0)
	assert.Equal(t, Up, l.Get(0, 0))
	assert.Equal(t, Down, c.Get(0, 0))
}
