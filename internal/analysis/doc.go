// Package analysis characterizes recorded and live runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of a sampled series,
//     such as total energy, via gonum's real FFT
//   - [Divergence]: separation of two runs started one small nudge apart,
//     with a fitted exponential growth rate
//
// # Sensitivity
//
// A positive growth rate means nearby starts separate exponentially until
// the separation saturates at roughly a particle radius:
//
//	res, err := analysis.Divergence(ctx, cfg, 1e-6)
//	if res.Exponent > 0 {
//	    // collisions amplify small differences
//	}
package analysis
