package audio

import "math"

// ----- Limiter ----- //

const (
	limiterThreshold = -1.0  // dBFS
	limiterRatio     = 20.0  // :1
	limiterAttack    = 0.002 // sec
	limiterRelease   = 0.080 // sec
	limiterMakeup    = 1.0   // dB
)

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

func gainToDB(gain float64) float64 {
	return 20 * math.Log10(gain)
}

// limiter follows the stereo peak and pulls it down above the threshold,
// then clips hard at ±1.
type limiter struct {
	attackCoef  float64
	releaseCoef float64
	makeup      float64
	env         float64
}

func newLimiter(sampleRate float64) *limiter {
	return &limiter{
		attackCoef:  math.Exp(-1 / (limiterAttack * sampleRate)),
		releaseCoef: math.Exp(-1 / (limiterRelease * sampleRate)),
		makeup:      dbToGain(limiterMakeup),
	}
}

func (lm *limiter) gain(peak float64) float64 {
	if peak > lm.env {
		lm.env = lm.attackCoef*lm.env + (1-lm.attackCoef)*peak
	} else {
		lm.env = lm.releaseCoef*lm.env + (1-lm.releaseCoef)*peak
	}
	if lm.env <= 0 {
		return lm.makeup
	}
	over := gainToDB(lm.env) - limiterThreshold
	if over <= 0 {
		return lm.makeup
	}
	return dbToGain(-over*(1-1/limiterRatio)) * lm.makeup
}

func (lm *limiter) process(left []float64, right []float64) {
	for i := range left {
		g := lm.gain(math.Max(math.Abs(left[i]), math.Abs(right[i])))
		left[i] = clampFloat(left[i]*g, -1, 1)
		right[i] = clampFloat(right[i]*g, -1, 1)
	}
}

func (lm *limiter) reset() {
	lm.env = 0
}
