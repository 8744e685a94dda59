package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Discard drops the first n values.
func Discard(series []float64, n int) []float64 {
	if n <= 0 {
		return series
	}
	if n >= len(series) {
		return nil
	}
	return series[n:]
}

func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// Variance is the population variance.
func Variance(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	mean := Mean(series)
	sum := 0.0
	for _, v := range series {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(series))
}

// Autocorrelation returns ρ(0..maxLag), normalised so ρ(0) = 1. The series is
// zero-padded to twice its length so the circular FFT correlation does not
// wrap. maxLag <= 0 or beyond the series returns every lag. A constant
// series has no defined correlation and yields ρ(0) = 1 followed by zeros.
func Autocorrelation(series []float64, maxLag int) []float64 {
	n := len(series)
	if n == 0 {
		return nil
	}
	if maxLag <= 0 || maxLag >= n {
		maxLag = n - 1
	}

	mean := Mean(series)
	padded := make([]float64, 2*n)
	for i, v := range series {
		padded[i] = v - mean
	}

	freq := fft.FFTReal(padded)
	for i, c := range freq {
		freq[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	corr := fft.IFFT(freq)

	acf := make([]float64, maxLag+1)
	c0 := real(corr[0])
	if c0 <= 1e-12 {
		acf[0] = 1
		return acf
	}
	for k := range acf {
		acf[k] = real(corr[k]) / c0
	}
	return acf
}

// IntegratedTime estimates τ_int = 1/2 + Σ ρ(k), summing until the first
// non-positive ρ(k).
func IntegratedTime(acf []float64) float64 {
	if len(acf) == 0 {
		return 0
	}
	tau := 0.5
	for _, rho := range acf[1:] {
		if rho <= 0 {
			break
		}
		tau += rho
	}
	return tau
}

// PowerSpectrum returns |X(k)| for k in [0, n/2) of the mean-removed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	mean := Mean(series)
	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	freq := fft.FFTReal(centred)
	ps := make([]float64, len(freq)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(freq[i])
	}
	return ps
}

// DominantFrequency returns the index of the largest non-DC bin, or 0.
func DominantFrequency(ps []float64) int {
	best, idx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, idx = ps[i], i
		}
	}
	return idx
}

// BinderCumulant is U4 = 1 - <m⁴>/(3<m²>²). It tends to 2/3 deep in the
// ordered phase and to 0 in the disordered phase.
func BinderCumulant(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var m2, m4 float64
	for _, m := range series {
		sq := m * m
		m2 += sq
		m4 += sq * sq
	}
	n := float64(len(series))
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return 1 - m4/(3*m2*m2)
}

// StandardError estimates the error of the mean of a correlated series
// using its integrated autocorrelation time.
func StandardError(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	tau := IntegratedTime(Autocorrelation(series, n/2))
	return math.Sqrt(2 * tau * Variance(series) / float64(n))
}
