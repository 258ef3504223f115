package audio

import "testing"

func TestDispatchMidiNotes(t *testing.T) {
	s := newFrozenSynth(t)
	expectNoError(t, dispatchMidi(s, []byte{0x90, 60, 100}))
	ev := <-s.events
	expectEqual(t, ev.kind, eventNoteOn)
	expectEqual(t, ev.note, 60)
	expectNearlyEqual(t, ev.velocity, 100.0/127.0)

	expectNoError(t, dispatchMidi(s, []byte{0x90, 60, 0}))
	ev = <-s.events
	expectEqual(t, ev.kind, eventNoteOff)
	expectEqual(t, ev.note, 60)

	expectNoError(t, dispatchMidi(s, []byte{0x81, 61, 64}))
	ev = <-s.events
	expectEqual(t, ev.kind, eventNoteOff)
	expectEqual(t, ev.note, 61)
}

func TestDispatchMidiControlChange(t *testing.T) {
	s := newFrozenSynth(t)
	expectNoError(t, dispatchMidi(s, []byte{0xB0, 74, 127}))
	expectNearlyEqual(t, s.Params().Filter.Cutoff, maxCutoff)
	expectNoError(t, dispatchMidi(s, []byte{0xB0, 74, 0}))
	expectNearlyEqual(t, s.Params().Filter.Cutoff, minCutoff)
	expectNoError(t, dispatchMidi(s, []byte{0xB0, 7, 0}))
	expectNearlyEqual(t, s.Params().MasterVolume, 0)
	expectNoError(t, dispatchMidi(s, []byte{0xB0, 1, 127}))
	expectNearlyEqual(t, s.Params().LFO[0].Depth, 1)

	expectNoError(t, dispatchMidi(s, []byte{0xB0, 123, 0}))
	ev := <-s.events
	expectEqual(t, ev.kind, eventPanic)

	// unmapped controllers are ignored
	expectNoError(t, dispatchMidi(s, []byte{0xB0, 20, 5}))
	expectEqual(t, len(s.events), 0)
}
