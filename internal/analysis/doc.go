// Package analysis summarizes the monthly records of a finished run.
//
// The package includes tools for characterizing population dynamics:
//
//   - [Describe]: minimum, maximum, mean and final value of a series
//   - [PowerSpectrum]: magnitude spectrum of a series via radix-2 FFT
//   - [DominantPeriod]: strongest cycle length in months
//   - [Portrait]: rabbits against foxes in phase space
//   - [FirstExtinction]: first month a population reaches zero
//
// # Predator-prey cycles
//
// A fox population that tracks rabbits with a lag shows up as a closed loop
// in the portrait and a shared dominant period:
//
//	p := analysis.DominantPeriod(analysis.Series(records, analysis.Rabbits))
//	if p == 12 {
//	    // annual, climate-driven
//	}
package analysis
