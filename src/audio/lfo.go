package audio

import "math"

// ----- Shapes ----- //

// naiveWave returns the raw shape at phase in [0, 1).
func naiveWave(w Waveform, phase float64) float64 {
	switch w {
	case WaveTriangle:
		if phase < 0.5 {
			return phase*4 - 1
		}
		return phase*(-4) + 3
	case WaveSawtooth:
		return phase*2 - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// ----- LFO ----- //

type lfo struct {
	sampleRate float64
	enabled    bool
	waveform   Waveform
	target     LFOTarget
	rate       float64 // Hz
	depth      smoother
	phase      float64 // 0 ~ 1
}

func newLfo(sampleRate float64) *lfo {
	return &lfo{
		sampleRate: sampleRate,
		depth:      newSmoother(sampleRate, 0),
	}
}

// applyParams updates waveform, rate and depth without touching the phase.
// Enabling a disabled LFO restarts it from phase 0.
func (l *lfo) applyParams(p LFOParams) {
	if p.Enabled && !l.enabled {
		l.phase = 0
		l.depth.reset(p.Depth)
	}
	l.enabled = p.Enabled
	l.waveform = p.Waveform
	l.target = p.Target
	l.rate = p.Rate
	l.depth.setTarget(p.Depth)
}

func (l *lfo) step() float64 {
	value := naiveWave(l.waveform, l.phase)
	l.phase += l.rate / l.sampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
	return value
}
