package audio

import (
	"math"
	"testing"
)

const testSampleRate = 48000.0

func stepN(e *envelope, n int) float64 {
	v := e.value.value
	for i := 0; i < n; i++ {
		v = e.step()
	}
	return v
}

func TestEnvelopeADSR(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0.01, Decay: 0.2, Sustain: 0.5, Release: 0.1})
	e.triggerAttack(0, 1)
	expectNearlyEqual(t, stepN(e, 240), 0.5)
	expectNearlyEqual(t, stepN(e, 240), 1)
	expectEqual(t, e.phase, phaseDecay)
	v := stepN(e, 4800)
	expectTrue(t, v < 1 && v > 0.5, "decay should be between peak and sustain")
	// exponential: halfway in time is the geometric mean
	expectNearlyEqual(t, v, math.Sqrt(0.5))
	expectNearlyEqual(t, stepN(e, 4800), 0.5)
	expectEqual(t, e.phase, phaseSustain)
	expectNearlyEqual(t, stepN(e, 1000), 0.5)

	e.triggerRelease(e.now())
	expectEqual(t, e.phase, phaseRelease)
	v = stepN(e, 4799)
	expectTrue(t, v > 0 && v < 0.001, "release should approach the floor")
	expectNearlyEqual(t, e.step(), 0)
	expectEqual(t, e.idle(), true)
}

func TestEnvelopeVelocity(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0.01, Decay: 0.2, Sustain: 0.5, Release: 0.1})
	e.triggerAttack(0, 0.5)
	expectNearlyEqual(t, stepN(e, 480), 0.5)
	expectNearlyEqual(t, stepN(e, 9600), 0.25)
}

func TestEnvelopeMinimumTimes(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0, Decay: 0, Sustain: 0, Release: 0})
	e.triggerAttack(0, 1)
	// 5 ms floor
	expectNearlyEqual(t, stepN(e, 120), 0.5)
	expectNearlyEqual(t, stepN(e, 120), 1)
	// sustain 0 decays to the 1e-4 floor, never to zero
	expectNearlyEqual(t, stepN(e, 240), minEnvelopeLevel)
	expectTrue(t, e.value.value > 0, "exponential decay must not reach zero")
}

func TestEnvelopeReleaseMidAttack(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 0.1})
	e.triggerAttack(0, 1)
	held := stepN(e, 2400)
	expectNearlyEqual(t, held, 0.5)
	e.triggerRelease(e.now())
	next := e.step()
	expectTrue(t, next < held && held-next < 0.01, "release should start from the current value")
}

func TestEnvelopeRetriggerFromCurrentValue(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 1})
	e.triggerAttack(0, 1)
	stepN(e, 480+4800)
	e.triggerRelease(e.now())
	current := stepN(e, 1000)
	e.triggerAttack(e.now(), 1)
	next := e.step()
	expectTrue(t, next > current && next-current < 0.01, "attack should continue from the current value")
}

func TestEnvelopeCancel(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(DefaultParams().AmpEnv)
	e.triggerAttack(0, 1)
	stepN(e, 100)
	e.cancel(e.now())
	expectEqual(t, e.idle(), true)
	expectNearlyEqual(t, e.step(), 0)
}

func TestEnvelopeScheduledTrigger(t *testing.T) {
	e := newEnvelope(testSampleRate, 0, 1)
	e.setParams(ADSRParams{Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.1})
	e.triggerAttack(0.01, 1)
	expectEqual(t, e.idle(), false)
	expectNearlyEqual(t, stepN(e, 480), 0)
	expectNearlyEqual(t, stepN(e, 480), 1)
}

func TestFilterEnvelope(t *testing.T) {
	expectNearlyEqual(t, filterEnvelopePeak(1000, 0), 1000)
	expectNearlyEqual(t, filterEnvelopePeak(1000, 0.5), 4000)
	expectNearlyEqual(t, filterEnvelopePeak(1000, 1), 16000)
	expectNearlyEqual(t, filterEnvelopePeak(2000, 1), 20000)
	expectNearlyEqual(t, filterEnvelopePeak(1000, -0.5), 250)
	expectNearlyEqual(t, filterEnvelopePeak(100, -1), 20)

	e := newEnvelope(testSampleRate, 1000, filterEnvelopePeak(1000, 1))
	e.setParams(ADSRParams{Attack: 0.01, Decay: 0.1, Sustain: 0, Release: 0.1})
	e.triggerAttack(0, 1)
	expectNearlyEqual(t, stepN(e, 480), 16000)
	expectNearlyEqual(t, stepN(e, 4800), 1000)
	e.triggerRelease(e.now())
	expectNearlyEqual(t, stepN(e, 4800), 1000)
}
