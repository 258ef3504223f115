package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ----- Reverb ----- //

var (
	combDelays    = [...]float64{0.0297, 0.0371, 0.0411, 0.0437, 0.0473, 0.0531} // sec
	allpassDelays = [...]float64{0.0050, 0.0017}                                  // sec
)

const (
	reverbStereoSpread  = 0.00052 // sec added on the right channel
	allpassFeedback     = 0.5
	reverbHighpassFreq  = 150.0
	reverbLowpassFreq   = 7000.0
	reverbDefaultDecay  = 2.0
	numCombs            = len(combDelays)
	numAllpasses        = len(allpassDelays)
	reverbCombNormalize = 1.0 / float64(numCombs)
)

// combFeedback makes a comb line fall by 60 dB after decay seconds.
func combFeedback(sec float64, decay float64) float64 {
	return math.Pow(0.001, sec/decay)
}

type comb struct {
	line     *delay.Line
	length   int
	delay    float64 // sec
	feedback float64
}

func (c *comb) process(x float64) float64 {
	y := c.line.Read(c.length)
	c.line.Write(x + c.feedback*y)
	return y
}

type allpass struct {
	line   *delay.Line
	length int
}

func (a *allpass) process(x float64) float64 {
	z := a.line.Read(a.length)
	v := x + allpassFeedback*z
	a.line.Write(v)
	return z - allpassFeedback*v
}

type reverbChannel struct {
	hp        biquad.Section
	lp        biquad.Section
	combs     [numCombs]comb
	allpasses [numAllpasses]allpass
}

func (rc *reverbChannel) init(sampleRate float64, offset float64) error {
	rc.hp.Coefficients = design.Highpass(reverbHighpassFreq, butterworthQ, sampleRate)
	rc.lp.Coefficients = design.Lowpass(math.Min(reverbLowpassFreq, sampleRate*0.45), butterworthQ, sampleRate)
	for i, d := range combDelays {
		sec := d + offset
		length := int(math.Round(sec * sampleRate))
		line, err := newDelayLine(length + 1)
		if err != nil {
			return err
		}
		rc.combs[i] = comb{line: line, length: length, delay: sec}
	}
	for i, d := range allpassDelays {
		length := int(math.Round(d * sampleRate))
		line, err := newDelayLine(length + 1)
		if err != nil {
			return err
		}
		rc.allpasses[i] = allpass{line: line, length: length}
	}
	return nil
}

func (rc *reverbChannel) setDecay(decay float64) {
	for i := range rc.combs {
		rc.combs[i].feedback = combFeedback(rc.combs[i].delay, decay)
	}
}

func (rc *reverbChannel) process(x float64) float64 {
	x = rc.lp.ProcessSample(rc.hp.ProcessSample(x))
	sum := 0.0
	for i := range rc.combs {
		sum += rc.combs[i].process(x)
	}
	y := sum * reverbCombNormalize
	for i := range rc.allpasses {
		y = rc.allpasses[i].process(y)
	}
	return y
}

func (rc *reverbChannel) reset() {
	rc.hp.Reset()
	rc.lp.Reset()
	for i := range rc.combs {
		rc.combs[i].line.Reset()
	}
	for i := range rc.allpasses {
		rc.allpasses[i].line.Reset()
	}
}

// reverb is a Schroeder reverberator: parallel combs into series allpasses.
// A decay change is ramped, with the comb feedback recomputed every
// coefficientsInterval samples while the ramp runs.
type reverb struct {
	left      reverbChannel
	right     reverbChannel
	decay     smoother // sec
	countdown int
	mix       smoother
}

func newReverb(sampleRate float64) (*reverb, error) {
	r := &reverb{
		decay: newSmoother(sampleRate, reverbDefaultDecay),
		mix:   newSmoother(sampleRate, 0),
	}
	if err := r.left.init(sampleRate, 0); err != nil {
		return nil, err
	}
	if err := r.right.init(sampleRate, reverbStereoSpread); err != nil {
		return nil, err
	}
	r.setDecay(reverbDefaultDecay)
	return r, nil
}

func (r *reverb) setDecay(decay float64) {
	r.left.setDecay(decay)
	r.right.setDecay(decay)
}

func (r *reverb) applyParams(p ReverbParams) {
	r.decay.setTarget(clampFloat(p.Decay, 0.1, 20))
	r.mix.setTarget(p.Mix)
}

func (r *reverb) process(left []float64, right []float64) {
	for i := range left {
		if r.decay.ramping() {
			decay := r.decay.next()
			r.countdown--
			if r.countdown <= 0 || !r.decay.ramping() {
				r.setDecay(decay)
				r.countdown = coefficientsInterval
			}
		}
		mix := r.mix.next()
		l, rr := left[i], right[i]
		wetL := r.left.process(l)
		wetR := r.right.process(rr)
		left[i] = l + (wetL-l)*mix
		right[i] = rr + (wetR-rr)*mix
	}
}

func (r *reverb) reset() {
	r.left.reset()
	r.right.reset()
	r.decay.reset(r.decay.targetValue)
	r.setDecay(r.decay.value)
	r.countdown = 0
	r.mix.reset(r.mix.targetValue)
}
