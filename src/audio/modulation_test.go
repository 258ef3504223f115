package audio

import (
	"math"
	"testing"
)

func TestModulation(t *testing.T) {
	l := newLfo(48000)
	m := newModulation(4)
	lfos := []*lfo{l}

	m.render(lfos, 4)
	expectEqual(t, m.pitchRatio[0], 1.0)

	l.applyParams(LFOParams{Enabled: true, Waveform: WaveSquare, Rate: 1, Depth: 1, Target: TargetPitch})
	m.render(lfos, 4)
	expectNearlyEqual(t, m.pitchRatio[0], math.Exp2(1.0/12))
	expectEqual(t, m.filterRatio[0], 1.0)

	l.applyParams(LFOParams{Enabled: true, Waveform: WaveSquare, Rate: 1, Depth: 1, Target: TargetFilter})
	m.render(lfos, 4)
	expectNearlyEqual(t, m.filterRatio[0], 16)

	l.applyParams(LFOParams{Enabled: true, Waveform: WaveSquare, Rate: 1, Depth: 1, Target: TargetAmp})
	m.render(lfos, 4)
	expectNearlyEqual(t, m.ampFactor[0], 1)
	l.phase = 0.5
	m.render(lfos, 4)
	expectNearlyEqual(t, m.ampFactor[0], 0)
}

func TestLfoRestartsWhenEnabled(t *testing.T) {
	l := newLfo(100)
	p := LFOParams{Enabled: true, Waveform: WaveSawtooth, Rate: 10, Depth: 0.5}
	l.applyParams(p)
	for i := 0; i < 5; i++ {
		l.step()
	}
	expectNearlyEqual(t, l.phase, 0.5)
	l.applyParams(p)
	expectNearlyEqual(t, l.phase, 0.5)
	p.Enabled = false
	l.applyParams(p)
	p.Enabled = true
	l.applyParams(p)
	expectNearlyEqual(t, l.phase, 0)
	expectNearlyEqual(t, l.depth.value, 0.5)
}
