package ecology

import "math/rand"

// Uniform returns a value uniformly distributed in [low, high].
type Uniform func(low, high float64) float64

// NewUniform returns a seeded source. It is not safe for concurrent use; the
// observer is its only caller during a run.
func NewUniform(seed int64) Uniform {
	rng := rand.New(rand.NewSource(seed))
	return func(low, high float64) float64 {
		return low + rng.Float64()*(high-low)
	}
}

// Constant ignores its bounds and always returns v.
func Constant(v float64) Uniform {
	return func(low, high float64) float64 { return v }
}

// Midpoint returns the centre of the range, i.e. no noise.
func Midpoint() Uniform {
	return func(low, high float64) float64 { return (low + high) / 2 }
}
