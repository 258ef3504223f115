package audio

import (
	"math"
	"testing"
)

func sineBlock(n int, freq float64, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

func TestDistortionIdentityAtZeroAmount(t *testing.T) {
	d := newDistortion(testSampleRate)
	d.applyParams(DistortionParams{Enabled: true, Amount: 0, Mix: 1})
	in := sineBlock(1024, 440, 0.9)
	l := append([]float64{}, in...)
	r := append([]float64{}, in...)
	d.process(l, r)
	for i := range in {
		expectEqual(t, l[i], in[i])
		expectEqual(t, r[i], in[i])
	}
}

func TestDistortionSaturates(t *testing.T) {
	d := newDistortion(testSampleRate)
	d.applyParams(DistortionParams{Enabled: true, Amount: 1, Mix: 1})
	d.reset()
	l := []float64{10, -10, 0.5}
	r := []float64{0, 0, 0}
	d.process(l, r)
	expectTrue(t, l[0] < 1 && l[0] > 0, "")
	expectNearlyEqual(t, l[1], -l[0])
	expectTrue(t, l[2] > 0.5/(1+1), "")
	expectEqual(t, softClip(0.3, 0), 0.3)
}

func TestCombFeedback(t *testing.T) {
	expectNearlyEqual(t, combFeedback(1, 1), 0.001)
	expectNearlyEqual(t, combFeedback(0.5, 1), math.Sqrt(0.001))
	r, err := newReverb(testSampleRate)
	expectNoError(t, err)
	r.applyParams(ReverbParams{Enabled: true, Decay: 3, Mix: 0.5})
	r.process(make([]float64, 1024), make([]float64, 1024))
	for _, ch := range []*reverbChannel{&r.left, &r.right} {
		for _, c := range ch.combs {
			// after decay seconds every comb has lost 60 dB
			expectNearlyEqual(t, math.Pow(c.feedback, 3/c.delay), 0.001)
		}
	}
	expectNearlyEqual(t, r.right.combs[0].delay-r.left.combs[0].delay, reverbStereoSpread)
	expectEqual(t, r.right.allpasses[0].length, r.left.allpasses[0].length)
}

func TestReverbTailDecays(t *testing.T) {
	r, err := newReverb(testSampleRate)
	expectNoError(t, err)
	r.applyParams(ReverbParams{Enabled: true, Decay: 0.5, Mix: 1})
	r.reset()
	n := int(testSampleRate)
	l := make([]float64, n)
	rr := make([]float64, n)
	l[0], rr[0] = 1, 1
	r.process(l, rr)
	early, late := 0.0, 0.0
	for i := 0; i < n/4; i++ {
		early = math.Max(early, math.Abs(l[i]))
	}
	for i := 3 * n / 4; i < n; i++ {
		late = math.Max(late, math.Abs(l[i]))
	}
	expectTrue(t, early > 0, "reverb should respond")
	expectTrue(t, late < early*0.01, "tail should decay")
}

func TestReverbDecayChangeIsRamped(t *testing.T) {
	r, err := newReverb(testSampleRate)
	expectNoError(t, err)
	r.applyParams(ReverbParams{Enabled: true, Decay: 1, Mix: 1})
	r.reset()
	c := &r.left.combs[0]
	from := combFeedback(c.delay, 1)
	to := combFeedback(c.delay, 10)
	expectNearlyEqual(t, c.feedback, from)

	r.applyParams(ReverbParams{Enabled: true, Decay: 10, Mix: 1})
	expectNearlyEqual(t, c.feedback, from)
	prev := c.feedback
	steps := 0
	for i := 0; i < 64; i++ {
		r.process(make([]float64, 32), make([]float64, 32))
		expectTrue(t, c.feedback >= prev, "feedback should rise towards the new decay")
		if c.feedback > prev {
			steps++
		}
		expectTrue(t, c.feedback-prev < (to-from)/2, "feedback should not jump")
		prev = c.feedback
	}
	expectTrue(t, steps > 10, "feedback should move in small steps")
	expectNearlyEqual(t, c.feedback, to)
}

func TestDelayFeedbackClamp(t *testing.T) {
	expectEqual(t, effectiveFeedback(1.2), maxFeedback)
	expectEqual(t, effectiveFeedback(-1), 0.0)
	expectEqual(t, effectiveFeedback(0.5), 0.5)
}

func TestDelayImpulse(t *testing.T) {
	d, err := newStereoDelay(testSampleRate)
	expectNoError(t, err)
	d.applyParams(DelayParams{Enabled: true, Time: 0.01, Feedback: 0, Mix: 1})
	d.reset()
	l := make([]float64, 1000)
	r := make([]float64, 1000)
	l[0], r[0] = 1, 1
	d.process(l, r)
	expectEqual(t, l[0], 0.0)
	expectNearlyEqual(t, l[480], 1)
	expectNearlyEqual(t, l[479], 0)
	expectNearlyEqual(t, r[480], 0)
	expectTrue(t, r[489] > 0 && r[490] > 0, "right channel should be offset")
}

func TestLimiter(t *testing.T) {
	lm := newLimiter(testSampleRate)
	n := 4800
	l := make([]float64, n)
	r := make([]float64, n)
	for i := range l {
		l[i] = 4
		r[i] = -4
	}
	lm.process(l, r)
	for i := range l {
		expectTrue(t, math.Abs(l[i]) <= 1 && math.Abs(r[i]) <= 1, "limiter should never exceed full scale")
	}

	lm.reset()
	quiet := sineBlock(256, 440, 0.1)
	l = append([]float64{}, quiet...)
	r = append([]float64{}, quiet...)
	lm.process(l, r)
	for i := range quiet {
		expectNearlyEqual(t, l[i], quiet[i]*dbToGain(limiterMakeup))
	}
}

func TestFXChainBypass(t *testing.T) {
	c, err := newFXChain(testSampleRate)
	expectNoError(t, err)
	c.applyParams(DefaultParams().FX)
	expectEqual(t, len(c.stages), 1)

	in := sineBlock(2048, 220, 0.3)
	l := append([]float64{}, in...)
	r := append([]float64{}, in...)
	c.process(l, r)

	lm := newLimiter(testSampleRate)
	el := append([]float64{}, in...)
	er := append([]float64{}, in...)
	lm.process(el, er)
	for i := range in {
		expectEqual(t, l[i], el[i])
		expectEqual(t, r[i], er[i])
	}
}

func TestFXChainOrder(t *testing.T) {
	c, err := newFXChain(testSampleRate)
	expectNoError(t, err)
	fx := DefaultParams().FX
	fx.Distortion.Enabled = true
	fx.Chorus.Enabled = true
	fx.Delay.Enabled = true
	fx.Reverb.Enabled = true
	c.applyParams(fx)
	expectEqual(t, len(c.stages), 5)
	expectTrue(t, c.stages[0] == effect(c.distortion), "")
	expectTrue(t, c.stages[1] == effect(c.chorus), "")
	expectTrue(t, c.stages[2] == effect(c.delay), "")
	expectTrue(t, c.stages[3] == effect(c.reverb), "")
	expectTrue(t, c.stages[4] == effect(c.limiter), "")

	fx.Chorus.Enabled = false
	c.applyParams(fx)
	expectEqual(t, len(c.stages), 4)
	expectTrue(t, c.stages[1] == effect(c.delay), "")
}

func TestFXChainClearsTailOnReenable(t *testing.T) {
	c, err := newFXChain(testSampleRate)
	expectNoError(t, err)
	fx := DefaultParams().FX
	fx.Delay = DelayParams{Enabled: true, Time: 0.1, Feedback: 0.5, Mix: 0.5}
	c.applyParams(fx)
	l := sineBlock(512, 440, 0.5)
	r := sineBlock(512, 440, 0.5)
	c.process(l, r)

	fx.Delay.Enabled = false
	c.applyParams(fx)
	fx.Delay.Enabled = true
	c.applyParams(fx)
	for n := 0; n < c.delay.lineL.Len(); n++ {
		expectEqual(t, c.delay.lineL.Read(n), 0.0)
	}
}
