package metrics

import "github.com/san-kum/isingsim/internal/sim"

// MeanEnergy averages the total lattice energy per site.
type MeanEnergy struct {
	sites   int
	sum     float64
	samples int
}

func NewMeanEnergy(sites int) *MeanEnergy {
	return &MeanEnergy{sites: sites}
}

func (e *MeanEnergy) Name() string { return "mean_energy" }

func (e *MeanEnergy) Observe(s sim.Sample) {
	e.sum += s.Energy
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 || e.sites == 0 {
		return 0
	}
	return e.sum / float64(e.samples) / float64(e.sites)
}

func (e *MeanEnergy) Reset() {
	e.sum = 0
	e.samples = 0
}

// SpecificHeat is the per-site heat capacity β²·(<E²> - <E>²)/N.
type SpecificHeat struct {
	beta    float64
	sites   int
	sum     float64
	sumSq   float64
	samples int
}

func NewSpecificHeat(beta float64, sites int) *SpecificHeat {
	return &SpecificHeat{beta: beta, sites: sites}
}

func (c *SpecificHeat) Name() string { return "specific_heat" }

func (c *SpecificHeat) Observe(s sim.Sample) {
	c.sum += s.Energy
	c.sumSq += s.Energy * s.Energy
	c.samples++
}

func (c *SpecificHeat) Value() float64 {
	if c.samples == 0 || c.sites == 0 {
		return 0
	}
	n := float64(c.samples)
	mean := c.sum / n
	variance := c.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return c.beta * c.beta * variance / float64(c.sites)
}

func (c *SpecificHeat) Reset() {
	c.sum = 0
	c.sumSq = 0
	c.samples = 0
}
