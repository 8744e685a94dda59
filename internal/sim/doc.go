// Package sim drives a Metropolis simulation of the 2D Ising model.
//
// A [Driver] owns one lattice for the duration of a run. Run yields one
// [Sample] per sampling boundary, taken before that sweep's updates, so a run
// of N sweeps with interval 1 yields N+1 samples:
//
//	l, _ := lattice.New(p.Size, src)
//	d, _ := sim.New(l, p, src)
//	for s := range d.Run(ctx) {
//	    fmt.Println(s.Sweep, s.Magnetisation)
//	}
//	if err := d.Err(); err != nil { ... }
//
// # Thread Safety
//
// A Driver is strictly sequential. Observers run on the driver's goroutine
// between sweeps and must not retain the lattice view. For parallel work use
// [Ensemble], which gives every run its own lattice and random source.
package sim
