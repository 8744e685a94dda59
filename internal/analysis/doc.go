// Package analysis provides statistics for magnetisation and energy time
// series produced by a simulation run.
//
//   - [Mean], [Variance]: plain moments
//   - [Autocorrelation]: normalised autocorrelation via FFT
//   - [IntegratedTime]: integrated autocorrelation time
//   - [PowerSpectrum]: magnitude spectrum of the mean-removed series
//   - [BinderCumulant]: fourth-order cumulant of the order parameter
//
// # Equilibration
//
// Samples taken before the lattice has equilibrated bias every estimator;
// drop them first with [Discard]:
//
//	m := analysis.Discard(series, 200)
//	tau := analysis.IntegratedTime(analysis.Autocorrelation(m, 0))
package analysis
