package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(50), b.Intn(50))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestScriptedWraps(t *testing.T) {
	s := &Scripted{Floats: []float64{0.1, 0.9}, Ints: []int{3, -1}}

	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.9, s.Float64())
	assert.Equal(t, 0.1, s.Float64())

	assert.Equal(t, 3, s.Intn(4))
	assert.Equal(t, 3, s.Intn(4), "negative values wrap into range")
	assert.Equal(t, 1, s.Intn(2))
}

func TestScriptedEmpty(t *testing.T) {
	var s Scripted
	assert.Zero(t, s.Float64())
	assert.Zero(t, s.Intn(10))
}
