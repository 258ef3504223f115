package audio

import "math"

// ----- Envelope Phase ----- //

const (
	phaseIdle = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

const (
	minEnvelopeTime  = 0.005 // sec
	minEnvelopeLevel = 1e-4
)

// ----- Trigger ----- //

const (
	triggerNone = iota
	triggerAttack
	triggerRelease
	triggerCancel
)

type trigger struct {
	kind     int
	at       int64 // sample
	velocity float64
}

// ----- Envelope ----- //

/*
  p +     x
    |    / \
    |   /   \_
  s +  /      `x------x
    | /                \_
    |/                   `-_
  b +-----+----+-------+------
    |a    |d   |       |r    |
*/

// envelope drives one target (gain or cutoff) through attack, decay,
// sustain and release. Attack is linear, decay and release are exponential.
type envelope struct {
	sampleRate   float64
	base         float64
	targetPeak   float64
	attack       float64 // sec
	decay        float64 // sec
	sustain      float64 // 0 ~ 1
	release      float64 // sec
	phase        int
	peak         float64
	sustainLevel float64
	velocity     float64
	clock        int64 // samples
	pending      trigger
	value        rampedValue
}

func newEnvelope(sampleRate float64, base float64, targetPeak float64) *envelope {
	e := &envelope{
		sampleRate: sampleRate,
	}
	e.setRange(base, targetPeak)
	e.value.init(base)
	return e
}

// setRange sets the resting value and the peak reached at full velocity.
func (e *envelope) setRange(base float64, targetPeak float64) {
	e.base = base
	e.targetPeak = targetPeak
	if e.phase == phaseIdle {
		e.value.init(base)
	}
}

func (e *envelope) setParams(p ADSRParams) {
	e.attack = p.Attack
	e.decay = p.Decay
	e.sustain = p.Sustain
	e.release = p.Release
	if e.phase == phaseSustain {
		level := e.base + (e.peak-e.base)*e.sustain
		if level != e.sustainLevel {
			e.sustainLevel = level
			e.value.linear(int(smoothingTime*e.sampleRate), level)
		}
	}
}

func (e *envelope) now() float64 {
	return float64(e.clock) / e.sampleRate
}

func (e *envelope) samples(sec float64) int {
	return int(math.Round(math.Max(sec, minEnvelopeTime) * e.sampleRate))
}

func (e *envelope) schedule(kind int, time float64, velocity float64) {
	at := int64(math.Round(time * e.sampleRate))
	if at <= e.clock {
		e.pending.kind = triggerNone
		e.apply(kind, velocity)
		return
	}
	e.pending = trigger{kind: kind, at: at, velocity: velocity}
}

func (e *envelope) triggerAttack(time float64, velocity float64) {
	e.schedule(triggerAttack, time, velocity)
}

func (e *envelope) triggerRelease(time float64) {
	e.schedule(triggerRelease, time, 0)
}

// cancel aborts every segment and snaps back to the base value.
func (e *envelope) cancel(time float64) {
	e.schedule(triggerCancel, time, 0)
}

func (e *envelope) apply(kind int, velocity float64) {
	switch kind {
	case triggerAttack:
		e.velocity = velocity
		e.peak = e.base + (e.targetPeak-e.base)*velocity
		e.sustainLevel = e.base + (e.peak-e.base)*e.sustain
		e.phase = phaseAttack
		e.value.linear(e.samples(e.attack), e.peak)
	case triggerRelease:
		if e.phase == phaseIdle {
			return
		}
		e.phase = phaseRelease
		e.value.init(math.Max(e.value.value, minEnvelopeLevel))
		e.value.exponential(e.samples(e.release), math.Max(e.base, minEnvelopeLevel))
	case triggerCancel:
		e.phase = phaseIdle
		e.value.init(e.base)
	}
}

func (e *envelope) idle() bool {
	return e.phase == phaseIdle && e.pending.kind == triggerNone
}

// releaseSamples is the length of a release segment started now.
func (e *envelope) releaseSamples() int {
	return e.samples(e.release)
}

// step advances one sample and returns the new value.
func (e *envelope) step() float64 {
	if e.pending.kind != triggerNone && e.clock >= e.pending.at {
		kind, velocity := e.pending.kind, e.pending.velocity
		e.pending.kind = triggerNone
		e.apply(kind, velocity)
	}
	e.clock++
	switch e.phase {
	case phaseAttack:
		if e.value.step() || !e.value.ramping() {
			e.phase = phaseDecay
			e.value.exponential(e.samples(e.decay), math.Max(e.sustainLevel, minEnvelopeLevel))
		}
	case phaseDecay:
		if e.value.step() || !e.value.ramping() {
			e.phase = phaseSustain
		}
	case phaseSustain:
		e.value.step()
	case phaseRelease:
		if e.value.step() || !e.value.ramping() {
			e.phase = phaseIdle
			e.value.init(e.base)
		}
	}
	return e.value.value
}

// filterEnvelopePeak is the cutoff reached at full velocity. envAmount
// scales exponentially, ±4 octaves at ±1.
func filterEnvelopePeak(cutoff float64, envAmount float64) float64 {
	return clampFloat(cutoff*math.Exp2(envAmount*4), minCutoff, maxCutoff)
}
