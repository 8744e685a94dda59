package lattice

import (
	"fmt"

	"github.com/san-kum/isingsim/internal/rng"
)

const (
	Up   int8 = 1
	Down int8 = -1
)

// View is read access to a lattice.
type View interface {
	Size() int
	Get(i, j int) int8
}

type Lattice struct {
	size  int
	spins []int8 // row-major
}

// New fills a size x size lattice with independent, equally likely spins.
func New(size int, src rng.Source) (*Lattice, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParameter, size)
	}
	l := &Lattice{size: size, spins: make([]int8, size*size)}
	for k := range l.spins {
		if src.Intn(2) == 0 {
			l.spins[k] = Down
		} else {
			l.spins[k] = Up
		}
	}
	return l, nil
}

// Uniform returns a lattice with every site set to s.
func Uniform(size int, s int8) (*Lattice, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParameter, size)
	}
	if s != Up && s != Down {
		return nil, fmt.Errorf("%w: spin must be +1 or -1, got %d", ErrInvalidParameter, s)
	}
	l := &Lattice{size: size, spins: make([]int8, size*size)}
	for k := range l.spins {
		l.spins[k] = s
	}
	return l, nil
}

// FromSpins rebuilds a lattice from rows of +1/-1 values.
func FromSpins(rows [][]int8) (*Lattice, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty spin grid", ErrInvalidParameter)
	}
	l := &Lattice{size: n, spins: make([]int8, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d spins, want %d", ErrInvalidParameter, i, len(row), n)
		}
		for j, s := range row {
			if s != Up && s != Down {
				return nil, fmt.Errorf("%w: spin (%d,%d) is %d", ErrInvalidParameter, i, j, s)
			}
			l.spins[i*n+j] = s
		}
	}
	return l, nil
}

func (l *Lattice) Size() int { return l.size }

func (l *Lattice) wrap(k int) int {
	return ((k % l.size) + l.size) % l.size
}

func (l *Lattice) index(i, j int) int {
	return l.wrap(i)*l.size + l.wrap(j)
}

func (l *Lattice) Get(i, j int) int8 {
	return l.spins[l.index(i, j)]
}

func (l *Lattice) Flip(i, j int) {
	k := l.index(i, j)
	l.spins[k] = -l.spins[k]
}

// TotalMagnetisation is the plain sum of all spins.
func (l *Lattice) TotalMagnetisation() int {
	sum := 0
	for _, s := range l.spins {
		sum += int(s)
	}
	return sum
}

// Spins returns a copy of the grid, one slice per row.
func (l *Lattice) Spins() [][]int8 {
	rows := make([][]int8, l.size)
	for i := range rows {
		rows[i] = make([]int8, l.size)
		copy(rows[i], l.spins[i*l.size:(i+1)*l.size])
	}
	return rows
}

func (l *Lattice) Clone() *Lattice {
	c := &Lattice{size: l.size, spins: make([]int8, len(l.spins))}
	copy(c.spins, l.spins)
	return c
}
