package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each non-negative frequency bin of
// data after removing its mean. The result has len(data)/2+1 bins.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := stat.Mean(data, nil)
	seq := make([]float64, len(data))
	for i, v := range data {
		seq[i] = v - mean
	}

	fft := fourier.NewFFT(len(seq))
	coeff := fft.Coefficients(nil, seq)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero bin
// of data sampled every interval seconds, and that bin's magnitude.
func DominantFrequency(data []float64, interval float64) (freq, power float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || interval <= 0 {
		return 0, 0
	}
	fft := fourier.NewFFT(len(data))
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return fft.Freq(best) / interval, ps[best]
}
