package audio

import "github.com/pkg/errors"

// ----- Effects Chain ----- //

type effect interface {
	process(left []float64, right []float64)
	reset()
}

const (
	stageDistortion = iota
	stageChorus
	stageDelay
	stageReverb
	numOptionalStages
)

// fxChain runs Distortion, Chorus, Delay and Reverb when enabled, then the
// limiter. The stage list is rebuilt whenever an enabled flag changes.
type fxChain struct {
	distortion *distortion
	chorus     *chorus
	delay      *stereoDelay
	reverb     *reverb
	limiter    *limiter
	optional   [numOptionalStages]effect
	enabled    [numOptionalStages]bool
	stages     []effect
}

func newFXChain(sampleRate float64) (*fxChain, error) {
	ch, err := newChorus(sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "chorus")
	}
	dl, err := newStereoDelay(sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "delay")
	}
	rv, err := newReverb(sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "reverb")
	}
	c := &fxChain{
		distortion: newDistortion(sampleRate),
		chorus:     ch,
		delay:      dl,
		reverb:     rv,
		limiter:    newLimiter(sampleRate),
		stages:     make([]effect, 0, numOptionalStages+1),
	}
	c.optional = [numOptionalStages]effect{c.distortion, c.chorus, c.delay, c.reverb}
	c.rebuild()
	return c, nil
}

func (c *fxChain) applyParams(p FXParams) {
	c.distortion.applyParams(p.Distortion)
	c.chorus.applyParams(p.Chorus)
	c.delay.applyParams(p.Delay)
	c.reverb.applyParams(p.Reverb)
	enabled := [numOptionalStages]bool{
		p.Distortion.Enabled,
		p.Chorus.Enabled,
		p.Delay.Enabled,
		p.Reverb.Enabled,
	}
	if enabled == c.enabled {
		return
	}
	for i, on := range enabled {
		if on != c.enabled[i] {
			// a stage never carries its tail across a disable/enable cycle
			c.optional[i].reset()
		}
	}
	c.enabled = enabled
	c.rebuild()
}

func (c *fxChain) rebuild() {
	c.stages = c.stages[:0]
	for i, on := range c.enabled {
		if on {
			c.stages = append(c.stages, c.optional[i])
		}
	}
	c.stages = append(c.stages, c.limiter)
}

func (c *fxChain) process(left []float64, right []float64) {
	for _, stage := range c.stages {
		stage.process(left, right)
	}
}

func (c *fxChain) reset() {
	for _, e := range c.optional {
		e.reset()
	}
	c.limiter.reset()
}
