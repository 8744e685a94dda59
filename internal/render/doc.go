// Package render draws lattice snapshots, either as PNG/SVG images through
// gonum/plot or as glyph grids for terminals.
package render
