package audio

import "math"

// ----- Ramp Kind ----- //

const (
	rampNone = iota
	rampLinear
	rampExponential
)

// ----- Ramped Value ----- //

// rampedValue moves towards a target one sample at a time.
type rampedValue struct {
	kind         int
	length       int // samples
	pos          int
	initialValue float64
	targetValue  float64
	value        float64
}

func (r *rampedValue) init(value float64) {
	r.kind = rampNone
	r.length = 0
	r.pos = 0
	r.initialValue = value
	r.targetValue = value
	r.value = value
}

func (r *rampedValue) linear(length int, targetValue float64) {
	if length <= 0 {
		r.init(targetValue)
		return
	}
	r.kind = rampLinear
	r.length = length
	r.pos = 0
	r.initialValue = r.value
	r.targetValue = targetValue
}

// exponential needs both ends to be positive.
func (r *rampedValue) exponential(length int, targetValue float64) {
	if r.value <= 0 || targetValue <= 0 {
		r.linear(length, targetValue)
		return
	}
	if length <= 0 {
		r.init(targetValue)
		return
	}
	r.kind = rampExponential
	r.length = length
	r.pos = 0
	r.initialValue = r.value
	r.targetValue = targetValue
}

func (r *rampedValue) ramping() bool {
	return r.kind != rampNone
}

// step advances one sample and reports whether the ramp ended on this step.
func (r *rampedValue) step() bool {
	if r.kind == rampNone {
		return false
	}
	r.pos++
	if r.pos >= r.length {
		r.end()
		return true
	}
	t := float64(r.pos) / float64(r.length)
	switch r.kind {
	case rampLinear:
		r.value = r.initialValue + (r.targetValue-r.initialValue)*t
	case rampExponential:
		r.value = r.initialValue * math.Pow(r.targetValue/r.initialValue, t)
	}
	return false
}

func (r *rampedValue) end() {
	r.kind = rampNone
	r.value = r.targetValue
	r.initialValue = r.targetValue
	r.pos = 0
}

// ----- Smoother ----- //

const smoothingTime = 0.02 // sec

// smoother applies live control changes as a short linear ramp from the
// current instantaneous value.
type smoother struct {
	rampedValue
	length int
}

func newSmoother(sampleRate float64, value float64) smoother {
	s := smoother{length: int(smoothingTime * sampleRate)}
	s.init(value)
	return s
}

func (s *smoother) setTarget(value float64) {
	if value == s.targetValue {
		return
	}
	s.linear(s.length, value)
}

// reset writes the value without a ramp.
func (s *smoother) reset(value float64) {
	s.init(value)
}

func (s *smoother) next() float64 {
	s.step()
	return s.value
}
