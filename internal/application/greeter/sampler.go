package greeter

import (
	"math/rand/v2"
	"time"
)

// Sampler produces the artificial delay for one greeting
type Sampler interface {
	Next() time.Duration
}

// UniformSampler draws delays uniformly from [Min, Min+Spread) at millisecond
// granularity. It is safe for concurrent use.
type UniformSampler struct {
	Min    time.Duration
	Spread time.Duration
}

// NewUniformSampler creates a sampler over [lower, lower+spread)
func NewUniformSampler(lower, spread time.Duration) *UniformSampler {
	return &UniformSampler{Min: lower, Spread: spread}
}

// Next returns the next delay
func (s *UniformSampler) Next() time.Duration {
	steps := int64(s.Spread / time.Millisecond)
	if steps <= 0 {
		return s.Min
	}
	return time.Duration(rand.N(steps))*time.Millisecond + s.Min
}

// FixedSampler always returns the same delay
type FixedSampler time.Duration

// Next returns the fixed delay
func (f FixedSampler) Next() time.Duration {
	return time.Duration(f)
}
