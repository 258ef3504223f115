package audio

import "math"

// GenerateUnisonDetunes returns n detune offsets in cents, evenly spread
// over [-detune, +detune]. A single voice gets 0.
func GenerateUnisonDetunes(n int, detune float64) []float64 {
	if n < 1 {
		return []float64{}
	}
	values := make([]float64, n)
	unisonSpread(values, n, detune)
	return values
}

// GenerateUnisonPans returns n pan positions in [-spread, +spread].
func GenerateUnisonPans(n int, spread float64) []float64 {
	if n < 1 {
		return []float64{}
	}
	values := make([]float64, n)
	unisonSpread(values, n, spread)
	return values
}

// unisonSpread writes n values symmetric about 0 into dst without allocating.
func unisonSpread(dst []float64, n int, extent float64) {
	if n == 1 {
		dst[0] = 0
		return
	}
	for i := 0; i < n; i++ {
		dst[i] = extent * float64(2*i-(n-1)) / float64(n-1)
	}
}

// unisonPhases are the start phases of each slot for a given count. They are
// picked so that undetuned copies still sum to about N times the power of one
// copy for the first harmonics, which is what unisonGain assumes.
var unisonPhases = [maxUnison + 1][maxUnison]float64{
	1: {0},
	2: {0, 0.236},
	3: {0, 0.294, 0.926},
	4: {0, 0.241, 0, 0.741},
	5: {0, 0.99, 0.664, 0.866, 0.538},
	6: {0, 0.343, 0.012, 0.631, 0.853, 0.866},
	7: {0, 0.06, 0.768, 0.658, 0.074, 0.482, 0.94},
}

// unisonGain keeps the summed power of n voices equal to one voice.
func unisonGain(n int) float64 {
	if n < 1 {
		n = 1
	}
	return 1 / math.Sqrt(float64(n))
}

// equalPowerPan maps pan in [-1, 1] to left/right gains with l²+r² = 1.
func equalPowerPan(pan float64) (float64, float64) {
	angle := (clampFloat(pan, -1, 1) + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}
