// Package energy evaluates the Ising Hamiltonian on a lattice.
//
// The total energy uses the neighbour-sum convention in which every bond is
// counted once from each endpoint. LocalDelta is derived under the same
// convention, so the two always agree.
package energy

import "github.com/san-kum/isingsim/internal/lattice"

// NeighbourSum is the sum of the four nearest neighbours of (i, j).
func NeighbourSum(v lattice.View, i, j int) int {
	return int(v.Get(i+1, j)) + int(v.Get(i-1, j)) + int(v.Get(i, j+1)) + int(v.Get(i, j-1))
}

// Total returns E = -J Σ s_ij (s_i+1,j + s_i-1,j + s_i,j+1 + s_i,j-1) - H Σ s_ij.
func Total(v lattice.View, J, H float64) float64 {
	n := v.Size()
	bonds, field := 0, 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := int(v.Get(i, j))
			bonds += s * NeighbourSum(v, i, j)
			field += s
		}
	}
	return -J*float64(bonds) - H*float64(field)
}

// LocalDelta is the change in Total caused by flipping (i, j), evaluated on
// the pre-flip state. Flipping s changes its own four bond terms and, because
// each bond appears twice, the four mirrored terms of its neighbours:
// ΔE = 2s(2J·nb + H).
//
// A 1x1 lattice is its own neighbour in every direction: its bond term is
// s² and never changes, leaving only the field term.
func LocalDelta(v lattice.View, i, j int, J, H float64) float64 {
	s := float64(v.Get(i, j))
	if v.Size() == 1 {
		return 2 * s * H
	}
	nb := float64(NeighbourSum(v, i, j))
	return 2 * s * (2*J*nb + H)
}
