package audio

import "math"

// ----- OSC ----- //

// osc is a phase accumulator. Its state lives in the voice arena and is reset
// in place on every note-on.
type osc struct {
	waveform Waveform
	ratio    float64 // tuning relative to the note frequency
	phase    float64 // 0 ~ 1
	tables   *Wavetables
}

func (o *osc) reset(waveform Waveform, ratio float64, phase float64, tables *Wavetables) {
	o.waveform = waveform
	o.ratio = ratio
	o.phase = phase
	o.tables = tables
}

func (o *osc) step(noteFreq float64, sampleRate float64) float64 {
	freq := noteFreq * o.ratio
	value := 0.0
	switch o.waveform {
	case WaveSawtooth:
		if o.tables != nil {
			value = o.tables.Saw.getAtPhase(freq, o.phase)
		} else {
			value = naiveWave(WaveSawtooth, o.phase)
		}
	case WaveSquare:
		if o.tables != nil {
			value = o.tables.Square.getAtPhase(freq, o.phase)
		} else {
			value = naiveWave(WaveSquare, o.phase)
		}
	default:
		value = naiveWave(o.waveform, o.phase)
	}
	o.phase += freq / sampleRate
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return value
}

// tuneRatio converts octave, semitone and cent offsets into a frequency ratio.
func tuneRatio(octave int, semitone int, cents float64) float64 {
	return math.Exp2(float64(octave) + float64(semitone)/12 + cents/1200)
}
