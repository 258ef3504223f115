package audio

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const butterworthQ = 1 / math.Sqrt2

// ----- Coefficients ----- //

// filterCoefficients designs one RBJ section at freq (Hz).
func filterCoefficients(kind FilterType, freq float64, q float64, sampleRate float64) biquad.Coefficients {
	switch kind {
	case FilterHighpass:
		return design.Highpass(freq, q, sampleRate)
	case FilterBandpass:
		// constant skirt gain, scaled back to a 0 dB peak
		c := design.Bandpass(freq, q, sampleRate)
		c.B0 /= q
		c.B1 /= q
		c.B2 /= q
		return c
	case FilterNotch:
		return design.Notch(freq, q, sampleRate)
	default:
		return design.Lowpass(freq, q, sampleRate)
	}
}

// ----- Cascade ----- //

const (
	maxFilterSections    = 4
	coefficientsInterval = 16 // samples
)

func sectionsForRolloff(rolloff int) int {
	switch rolloff {
	case -48:
		return 4
	case -24:
		return 2
	default:
		return 1
	}
}

// filterBank is one configuration of the stereo chain.
type filterBank struct {
	kind     FilterType
	sections int
	left     [maxFilterSections]biquad.Section
	right    [maxFilterSections]biquad.Section
}

func (b *filterBank) process(l float64, r float64) (float64, float64) {
	for i := 0; i < b.sections; i++ {
		l = b.left[i].ProcessSample(l)
		r = b.right[i].ProcessSample(r)
	}
	return l, r
}

func (b *filterBank) reset(from int) {
	for i := from; i < maxFilterSections; i++ {
		b.left[i].Reset()
		b.right[i].Reset()
	}
}

// cascadeFilter is a stereo chain of 1, 2 or 4 identical-type sections for
// 12, 24 or 48 dB/oct. Resonance is applied on the last section only.
// A live type or slope change crossfades from the previous chain.
type cascadeFilter struct {
	sampleRate float64
	freq       float64
	q          float64
	cur        filterBank
	prev       filterBank
	fade       smoother // weight of cur
}

func newCascadeFilter(sampleRate float64) cascadeFilter {
	c := cascadeFilter{
		sampleRate: sampleRate,
		cur:        filterBank{sections: 1},
		fade:       newSmoother(sampleRate, 1),
	}
	c.setCutoff(maxCutoff, butterworthQ)
	return c
}

func (c *cascadeFilter) configure(kind FilterType, rolloff int) {
	sections := sectionsForRolloff(rolloff)
	if kind == c.cur.kind && sections == c.cur.sections {
		return
	}
	c.prev = c.cur
	if kind != c.cur.kind {
		c.cur.reset(0)
	} else {
		c.cur.reset(c.cur.sections)
	}
	c.cur.kind = kind
	c.cur.sections = sections
	c.setCutoff(c.freq, c.q)
	c.fade.reset(0)
	c.fade.setTarget(1)
}

// setCutoff recomputes the current chain. freq is clamped below Nyquist.
func (c *cascadeFilter) setCutoff(freq float64, q float64) {
	c.freq = freq
	c.q = q
	freq = clampCutoff(freq, c.sampleRate)
	for i := 0; i < c.cur.sections; i++ {
		sq := butterworthQ
		if i == c.cur.sections-1 {
			sq = q
		}
		coeffs := filterCoefficients(c.cur.kind, freq, sq, c.sampleRate)
		c.cur.left[i].Coefficients = coeffs
		c.cur.right[i].Coefficients = coeffs
	}
}

func (c *cascadeFilter) process(l float64, r float64) (float64, float64) {
	nl, nr := c.cur.process(l, r)
	if !c.fade.ramping() {
		return nl, nr
	}
	t := c.fade.next()
	ol, or := c.prev.process(l, r)
	return ol + (nl-ol)*t, or + (nr-or)*t
}

// reset clears all state and drops any crossfade in progress.
func (c *cascadeFilter) reset() {
	c.cur.reset(0)
	c.prev.reset(0)
	c.fade.reset(1)
}

// clampCutoff keeps freq away from Nyquist.
func clampCutoff(freq float64, sampleRate float64) float64 {
	limit := math.Min(maxCutoff, sampleRate*0.45)
	return clampFloat(freq, minCutoff, limit)
}
