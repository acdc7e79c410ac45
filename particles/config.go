// Package particles spawns short-lived sprite particles from emitters and ages
// them until they fade out.
package particles

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// InvalidRangeError reports a malformed numeric range in an emitter configuration.
type InvalidRangeError struct {
	Field  string
	Min    float64
	Max    float64
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("particles: invalid %s [%g, %g]: %s", e.Field, e.Min, e.Max, e.Reason)
}

// Range is an inclusive interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min" toml:"min"`
	Max float64 `yaml:"max" toml:"max"`
}

// Fixed returns a range holding only v.
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

func (r Range) validate(field string) error {
	switch {
	case math.IsNaN(r.Min) || math.IsNaN(r.Max):
		return &InvalidRangeError{Field: field, Min: r.Min, Max: r.Max, Reason: "NaN bound"}
	case math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0):
		return &InvalidRangeError{Field: field, Min: r.Min, Max: r.Max, Reason: "infinite bound"}
	case r.Min > r.Max:
		return &InvalidRangeError{Field: field, Min: r.Min, Max: r.Max, Reason: "min greater than max"}
	}
	return nil
}

// Sample draws a value in [Min, Max].
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Percentage is a probability in [0, 1].
type Percentage float64

func (p Percentage) validate(field string) error {
	v := float64(p)
	if math.IsNaN(v) || v < 0 || v > 1 {
		return &InvalidRangeError{Field: field, Min: 0, Max: 1, Reason: fmt.Sprintf("percentage %g outside [0, 1]", v)}
	}
	return nil
}

// EmitterConfig describes what an emitter spawns.
type EmitterConfig struct {
	// Rate is particles per second.
	Rate float64 `yaml:"rate"`
	// Lifetime is in seconds.
	Lifetime Range `yaml:"lifetime"`
	// Speed is in units per second.
	Speed Range `yaml:"speed"`
	// Angle is the launch direction in radians.
	Angle Range `yaml:"angle"`
	// Size is the particle edge length.
	Size Range `yaml:"size"`
	// Burst is the chance per emission of spawning a second particle.
	Burst Percentage `yaml:"burst"`
	// Max caps the emitter's live particles; zero means unlimited.
	Max int `yaml:"max"`
}

// Validate checks every range. It is meant to run once when a scene is built,
// never per frame.
func (c EmitterConfig) Validate() error {
	if math.IsNaN(c.Rate) || c.Rate <= 0 {
		return &InvalidRangeError{Field: "rate", Min: c.Rate, Max: c.Rate, Reason: "rate must be positive"}
	}
	if err := c.Lifetime.validate("lifetime"); err != nil {
		return err
	}
	if c.Lifetime.Min <= 0 {
		return &InvalidRangeError{Field: "lifetime", Min: c.Lifetime.Min, Max: c.Lifetime.Max, Reason: "lifetime must be positive"}
	}
	if err := c.Speed.validate("speed"); err != nil {
		return err
	}
	if err := c.Angle.validate("angle"); err != nil {
		return err
	}
	if err := c.Size.validate("size"); err != nil {
		return err
	}
	if c.Size.Min < 0 {
		return &InvalidRangeError{Field: "size", Min: c.Size.Min, Max: c.Size.Max, Reason: "negative size"}
	}
	if err := c.Burst.validate("burst"); err != nil {
		return err
	}
	if c.Max < 0 {
		return &InvalidRangeError{Field: "max", Min: float64(c.Max), Max: float64(c.Max), Reason: "negative cap"}
	}
	return nil
}
