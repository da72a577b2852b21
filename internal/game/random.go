package game

import (
	"math"
	"time"
)

// Rand is the uniform [0,1) source behind every dice roll, variance draw and
// selection. *math/rand.Rand satisfies it; tests substitute scripted sources.
type Rand interface {
	Float64() float64
}

// Clock supplies wall-clock time for scheduling.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// chance draws once and reports a hit with probability p.
func chance(r Rand, p float64) bool {
	return r.Float64() < p
}

// intn draws an index in [0,n). n must be positive.
func intn(r Rand, n int) int {
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// between draws an integer in [lo,hi] inclusive.
func between(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + intn(r, hi-lo+1)
}

// uniform draws a float in [lo,hi).
func uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// clampStat bounds a territory attribute to [0,100].
func clampStat(v int) int {
	return clampInt(v, 0, 100)
}
