package render

import "math"

// gateTarget is the fraction of the remaining distance the gate covers
// within the configured time.
const gateTarget = 0.8

// Gate is a one-pole attack/release envelope. Opening the gate moves the
// level towards 1, closing it towards 0. The level is never reset, so a
// retriggered voice continues from where it is.
type Gate struct {
	value        float64
	open         bool
	attackCoeff  float64
	releaseCoeff float64
}

// gateCoefficient returns the per-sample smoothing factor for a time given
// in samples. Zero or negative times jump immediately.
func gateCoefficient(samples float64) float64 {
	if samples <= 0 {
		return 1
	}
	return 1 - math.Pow(10, math.Log10(gateTarget)/samples)
}

// SetTimes sets the attack and release times in samples.
func (g *Gate) SetTimes(attack, release float64) {
	g.attackCoeff = gateCoefficient(attack)
	g.releaseCoeff = gateCoefficient(release)
}

// SetOpen opens or closes the gate.
func (g *Gate) SetOpen(open bool) { g.open = open }

// Open reports whether the gate is open.
func (g *Gate) Open() bool { return g.open }

// Value returns the current level.
func (g *Gate) Value() float64 { return g.value }

// Reset drops the level to zero.
func (g *Gate) Reset() { g.value = 0 }

// Tick advances the envelope by one sample and returns the new level.
func (g *Gate) Tick() float32 {
	if g.open {
		g.value += (1 - g.value) * g.attackCoeff
	} else {
		g.value -= g.value * g.releaseCoeff
	}
	return float32(g.value)
}
