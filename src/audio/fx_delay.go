package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ----- Delay ----- //

const (
	maxDelayTime      = 2.0 // sec
	delayRightOffset  = 1.02
	delayCrossFeed    = 0.15
	delayHighpassFreq = 200.0
	delayLowpassFreq  = 5000.0
)

// stereoDelay feeds each repeat through a highpass and a lowpass and bleeds a
// little of each channel into the other.
type stereoDelay struct {
	sampleRate float64
	lineL      *delay.Line
	lineR      *delay.Line
	hpL, hpR   biquad.Section
	lpL, lpR   biquad.Section
	time       smoother // samples
	feedback   smoother
	mix        smoother
}

func newStereoDelay(sampleRate float64) (*stereoDelay, error) {
	length := int(maxDelayTime*delayRightOffset*sampleRate) + 4
	lineL, err := newDelayLine(length)
	if err != nil {
		return nil, err
	}
	lineR, err := newDelayLine(length)
	if err != nil {
		return nil, err
	}
	d := &stereoDelay{
		sampleRate: sampleRate,
		lineL:      lineL,
		lineR:      lineR,
		time:       newSmoother(sampleRate, sampleRate*0.25),
		feedback:   newSmoother(sampleRate, 0),
		mix:        newSmoother(sampleRate, 0),
	}
	hp := design.Highpass(delayHighpassFreq, butterworthQ, sampleRate)
	lp := design.Lowpass(math.Min(delayLowpassFreq, sampleRate*0.45), butterworthQ, sampleRate)
	d.hpL.Coefficients, d.hpR.Coefficients = hp, hp
	d.lpL.Coefficients, d.lpR.Coefficients = lp, lp
	return d, nil
}

// effectiveFeedback is never above 0.95.
func effectiveFeedback(feedback float64) float64 {
	return clampFloat(feedback, 0, maxFeedback)
}

func (d *stereoDelay) applyParams(p DelayParams) {
	d.time.setTarget(clampFloat(p.Time, 0.01, maxDelayTime) * d.sampleRate)
	d.feedback.setTarget(effectiveFeedback(p.Feedback))
	d.mix.setTarget(p.Mix)
}

func (d *stereoDelay) process(left []float64, right []float64) {
	for i := range left {
		timeL := d.time.next()
		feedback := d.feedback.next()
		mix := d.mix.next()
		l, r := left[i], right[i]
		wetL := d.lineL.ReadFractional(timeL)
		wetR := d.lineR.ReadFractional(timeL * delayRightOffset)
		fbL := d.lpL.ProcessSample(d.hpL.ProcessSample(wetL))
		fbR := d.lpR.ProcessSample(d.hpR.ProcessSample(wetR))
		d.lineL.Write(l + feedback*((1-delayCrossFeed)*fbL+delayCrossFeed*fbR))
		d.lineR.Write(r + feedback*((1-delayCrossFeed)*fbR+delayCrossFeed*fbL))
		left[i] = l + (wetL-l)*mix
		right[i] = r + (wetR-r)*mix
	}
}

func (d *stereoDelay) reset() {
	d.lineL.Reset()
	d.lineR.Reset()
	d.hpL.Reset()
	d.hpR.Reset()
	d.lpL.Reset()
	d.lpR.Reset()
	d.time.reset(d.time.targetValue)
	d.feedback.reset(d.feedback.targetValue)
	d.mix.reset(d.mix.targetValue)
}
