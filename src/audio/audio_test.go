package audio

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got nil")
	}
}

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectTrue(t *testing.T, ok bool, msg string) {
	t.Helper()
	if !ok {
		t.Error(msg)
	}
}

func newTestSynth(t *testing.T) *Synth {
	t.Helper()
	s, err := NewSynth(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create synth: %v", err)
	}
	return s
}

func peak(values []float64) float64 {
	p := 0.0
	for _, v := range values {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 200

	s := newTestSynth(t)
	out := make([]byte, minBufferSizeInBytes)
	expectNoError(t, applyCommand(s, []string{"set", "polyphony", "16"}))
	expectNoError(t, applyCommand(s, []string{"set", "osc", "0", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "osc", "1", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "sub", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "noise", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "filter", "rolloff", "-24"}))
	expectNoError(t, applyCommand(s, []string{"set", "unison", "voices", "5"}))
	expectNoError(t, applyCommand(s, []string{"set", "lfo", "0", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "lfo", "1", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "fx", "distortion", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "fx", "chorus", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "fx", "delay", "enabled", "true"}))
	expectNoError(t, applyCommand(s, []string{"set", "fx", "reverb", "enabled", "true"}))
	_, err := s.Read(out)
	expectNoError(t, err)
	for n := 0; n < polyphony; n++ {
		s.NoteOn(48+n, 1)
	}
	start := time.Now()
	for n := 0; n < times; n++ {
		_, err = s.Read(out)
		expectNoError(t, err)
	}
	elapsed := time.Since(start)
	fmt.Printf("average process time: %.2fms\n", float64(elapsed.Microseconds())/float64(times)/1000)
	expectEqual(t, s.Status().ActiveVoices, polyphony)
}

func TestCommands(t *testing.T) {
	s := newTestSynth(t)
	expectNoError(t, applyCommand(s, []string{"set", "osc", "1", "waveform", "square"}))
	expectEqual(t, s.Params().Osc[1].Waveform, WaveSquare)
	expectNoError(t, applyCommand(s, []string{"set", "fx", "delay", "feedback", "1"}))
	expectNearlyEqual(t, s.Params().FX.Delay.Feedback, 0.95)
	expectNoError(t, applyCommand(s, []string{"params", `{"filter":{"cutoff":500}}`}))
	expectNearlyEqual(t, s.Params().Filter.Cutoff, 500)

	expectNoError(t, applyCommand(s, []string{"note_on", "60", "0.5"}))
	expectNoError(t, applyCommand(s, []string{"note_off", "60"}))
	expectNoError(t, applyCommand(s, []string{"panic"}))
	expectEqual(t, len(s.events), 3)

	expectError(t, applyCommand(s, []string{}))
	expectError(t, applyCommand(s, []string{"mono"}))
	expectError(t, applyCommand(s, []string{"note_on", "C4"}))
	expectError(t, applyCommand(s, []string{"set", "filter"}))
	expectError(t, applyCommand(s, []string{"set", "filter", "slope", "1"}))
	expectError(t, applyCommand(s, []string{"params", "{"}))
}
