package audio

import "github.com/cwbudde/algo-dsp/dsp/delay"

// ----- Chorus ----- //

const (
	chorusBaseDelay  = 0.020 // sec
	chorusMaxSweep   = 0.005 // sec at depth 1
	chorusRightPhase = 0.25
)

// chorus sweeps one delay line per channel with its own sine LFO.
type chorus struct {
	sampleRate float64
	lineL      *delay.Line
	lineR      *delay.Line
	lfoL       *lfo
	lfoR       *lfo
	depth      smoother
	mix        smoother
}

func newChorus(sampleRate float64) (*chorus, error) {
	length := int((chorusBaseDelay+chorusMaxSweep)*sampleRate) + 4
	lineL, err := newDelayLine(length)
	if err != nil {
		return nil, err
	}
	lineR, err := newDelayLine(length)
	if err != nil {
		return nil, err
	}
	c := &chorus{
		sampleRate: sampleRate,
		lineL:      lineL,
		lineR:      lineR,
		lfoL:       newLfo(sampleRate),
		lfoR:       newLfo(sampleRate),
		depth:      newSmoother(sampleRate, 0),
		mix:        newSmoother(sampleRate, 0),
	}
	c.reset()
	return c, nil
}

func (c *chorus) applyParams(p ChorusParams) {
	c.lfoL.rate = p.Rate
	c.lfoR.rate = p.Rate
	c.depth.setTarget(p.Depth)
	c.mix.setTarget(p.Mix)
}

func (c *chorus) process(left []float64, right []float64) {
	base := chorusBaseDelay * c.sampleRate
	sweep := chorusMaxSweep * c.sampleRate
	for i := range left {
		depth := c.depth.next()
		mix := c.mix.next()
		l, r := left[i], right[i]
		c.lineL.Write(l)
		c.lineR.Write(r)
		wetL := c.lineL.ReadFractional(base + c.lfoL.step()*depth*sweep)
		wetR := c.lineR.ReadFractional(base + c.lfoR.step()*depth*sweep)
		left[i] = l + (wetL-l)*mix
		right[i] = r + (wetR-r)*mix
	}
}

func (c *chorus) reset() {
	c.lineL.Reset()
	c.lineR.Reset()
	c.lfoL.phase = 0
	c.lfoR.phase = chorusRightPhase
	c.depth.reset(c.depth.targetValue)
	c.mix.reset(c.mix.targetValue)
}
