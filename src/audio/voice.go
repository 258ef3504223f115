package audio

import "math"

const voiceGain = 0.25

// ----- Unison Slot ----- //

// unisonSlot is one detuned, panned copy of the oscillator bank.
type unisonSlot struct {
	osc    [maxOscs]osc
	sub    osc
	hasSub bool
	detune float64 // cent
	panL   float64
	panR   float64
}

// ----- Cleanup ----- //

// cleanup is a deferred teardown. It only fires if the voice is still on the
// generation that scheduled it.
type cleanup struct {
	pending bool
	gen     uint64
	at      int64 // frame
}

// ----- Voice ----- //

/*
  idle --noteOn--> sounding --release--> releasing --cleanup--> idle
    ^                 |                      |
    +------stop-------+----------stop--------+
*/
type voice struct {
	sampleRate float64
	tables     *Wavetables

	gen        uint64
	active     bool // accepts noteOff
	sounding   bool // has oscillators
	note       int
	velocity   float64
	startFrame int64
	cleanup    cleanup

	slots         [maxUnison]unisonSlot
	numSlots      int
	gain          float64
	oscRatio      [maxOscs]float64
	subRatio      float64
	detunes       [maxUnison]float64
	pans          [maxUnison]float64
	freq          rampedValue
	ampEnv        *envelope
	filterEnv     *envelope
	filter        cascadeFilter
	noise         *noiseSource
	oscLevel      [maxOscs]smoother
	subLevel      smoother
	noiseLevel    smoother
	cutoff        smoother
	resonance     smoother
	triggerCutoff float64
	coefCountdown int

	outL []float64
	outR []float64
}

func newVoice(id int, sampleRate float64, blockSize int, tables *Wavetables) *voice {
	v := &voice{
		sampleRate: sampleRate,
		tables:     tables,
		ampEnv:     newEnvelope(sampleRate, 0, 1),
		filterEnv:  newEnvelope(sampleRate, maxCutoff, maxCutoff),
		filter:     newCascadeFilter(sampleRate),
		noise:      newNoiseSource(int(sampleRate), int64(id)+1),
		subLevel:   newSmoother(sampleRate, 0),
		noiseLevel: newSmoother(sampleRate, 0),
		cutoff:     newSmoother(sampleRate, maxCutoff),
		resonance:  newSmoother(sampleRate, 1),
		outL:       make([]float64, blockSize),
		outR:       make([]float64, blockSize),
	}
	for i := range v.oscLevel {
		v.oscLevel[i] = newSmoother(sampleRate, 0)
	}
	v.triggerCutoff = maxCutoff
	return v
}

func oscLevel(p OscParams) float64 {
	if !p.Enabled {
		return 0
	}
	return p.Level
}

func subLevel(p SubOscParams) float64 {
	if !p.Enabled {
		return 0
	}
	return p.Level
}

func noiseLevel(p NoiseParams) float64 {
	if !p.Enabled {
		return 0
	}
	return p.Level
}

// noteOn arms the voice. A voice that is still sounding glides to the new
// pitch when glide is on, otherwise its oscillators are rebuilt.
func (v *voice) noteOn(note int, velocity float64, frame int64, p *SynthParams) {
	target := noteToFreq(note)
	glide := v.sounding && p.GlideTime > 0 && target != v.freq.targetValue
	v.gen++
	v.cleanup.pending = false
	v.active = true
	v.note = note
	v.velocity = velocity
	v.startFrame = frame
	if glide {
		v.freq.exponential(int(p.GlideTime*v.sampleRate), target)
	} else {
		v.freq.init(target)
		v.setupOscillators(p)
		v.filter.configure(p.Filter.Type, p.Filter.Rolloff)
		v.filter.reset()
		v.coefCountdown = 0
		if p.Noise.Enabled {
			v.noise.fill(p.Noise.Type)
		}
		for i := range v.oscLevel {
			v.oscLevel[i].reset(oscLevel(p.Osc[i]))
		}
		v.subLevel.reset(subLevel(p.Sub))
		v.noiseLevel.reset(noiseLevel(p.Noise))
		v.cutoff.reset(p.Filter.Cutoff)
		v.resonance.reset(p.Filter.Resonance)
	}
	v.triggerCutoff = v.cutoff.value
	v.ampEnv.setParams(p.AmpEnv)
	v.filterEnv.setParams(p.FilterEnv)
	v.filterEnv.setRange(v.triggerCutoff, filterEnvelopePeak(v.triggerCutoff, p.Filter.EnvAmount))
	v.ampEnv.triggerAttack(v.ampEnv.now(), velocity)
	v.filterEnv.triggerAttack(v.filterEnv.now(), velocity)
}

func (v *voice) setupOscillators(p *SynthParams) {
	n := clampInt(p.Unison.Voices, 1, maxUnison)
	unisonSpread(v.detunes[:n], n, p.Unison.Detune)
	unisonSpread(v.pans[:n], n, p.Unison.Spread)
	center := (n - 1) / 2
	for i := range v.oscRatio {
		o := p.Osc[i]
		v.oscRatio[i] = tuneRatio(o.Octave, o.Semitone, o.Fine)
	}
	v.subRatio = math.Exp2(-float64(p.Sub.Octave))
	for s := 0; s < n; s++ {
		slot := &v.slots[s]
		slot.detune = v.detunes[s]
		slot.panL, slot.panR = equalPowerPan(v.pans[s])
		detune := math.Exp2(slot.detune / 1200)
		phase := unisonPhases[n][s]
		for i := range slot.osc {
			slot.osc[i].reset(p.Osc[i].Waveform, v.oscRatio[i]*detune, phase, v.tables)
		}
		slot.hasSub = s == center
		slot.sub.reset(p.Sub.Waveform, v.subRatio, 0, v.tables)
	}
	v.numSlots = n
	v.gain = unisonGain(n)
	v.sounding = true
}

// updateParams retargets a live voice. Level, cutoff and resonance changes
// go through the smoothers.
func (v *voice) updateParams(p *SynthParams) {
	for i := range v.oscLevel {
		v.oscLevel[i].setTarget(oscLevel(p.Osc[i]))
	}
	v.subLevel.setTarget(subLevel(p.Sub))
	v.noiseLevel.setTarget(noiseLevel(p.Noise))
	v.cutoff.setTarget(p.Filter.Cutoff)
	v.resonance.setTarget(p.Filter.Resonance)
	v.filter.configure(p.Filter.Type, p.Filter.Rolloff)
	v.ampEnv.setParams(p.AmpEnv)
	v.filterEnv.setParams(p.FilterEnv)
	if !v.sounding {
		return
	}
	for i := range v.oscRatio {
		o := p.Osc[i]
		v.oscRatio[i] = tuneRatio(o.Octave, o.Semitone, o.Fine)
	}
	v.subRatio = math.Exp2(-float64(p.Sub.Octave))
	unisonSpread(v.detunes[:v.numSlots], v.numSlots, p.Unison.Detune)
	for s := 0; s < v.numSlots; s++ {
		slot := &v.slots[s]
		slot.detune = v.detunes[s]
		detune := math.Exp2(slot.detune / 1200)
		for i := range slot.osc {
			slot.osc[i].waveform = p.Osc[i].Waveform
			slot.osc[i].ratio = v.oscRatio[i] * detune
		}
		slot.sub.waveform = p.Sub.Waveform
		slot.sub.ratio = v.subRatio
	}
}

// release starts the release segments and schedules the teardown.
func (v *voice) release(frame int64) {
	if !v.active {
		return
	}
	v.active = false
	v.ampEnv.triggerRelease(v.ampEnv.now())
	v.filterEnv.triggerRelease(v.filterEnv.now())
	v.cleanup = cleanup{
		pending: true,
		gen:     v.gen,
		at:      frame + int64(v.ampEnv.releaseSamples()),
	}
}

// stop silences the voice at once, skipping the release tail.
func (v *voice) stop() {
	v.gen++
	v.active = false
	v.cleanup.pending = false
	v.teardown()
}

// teardown is a no-op on a voice that has already stopped.
func (v *voice) teardown() {
	if !v.sounding {
		return
	}
	v.sounding = false
	v.numSlots = 0
	v.freq.init(v.freq.targetValue)
	v.ampEnv.cancel(v.ampEnv.now())
	v.filterEnv.cancel(v.filterEnv.now())
}

// runCleanup tears the voice down if its cleanup is due and still current.
func (v *voice) runCleanup(frame int64) bool {
	c := v.cleanup
	if !c.pending || frame < c.at {
		return false
	}
	v.cleanup.pending = false
	if c.gen != v.gen || v.active {
		return false
	}
	v.teardown()
	return true
}

func (v *voice) render(mod *modulation, from int, to int) {
	sr := v.sampleRate
	for i := from; i < to; i++ {
		noteFreq := v.freq.value * mod.pitchRatio[i]
		v.freq.step()
		level0 := v.oscLevel[0].next()
		level1 := v.oscLevel[1].next()
		levelSub := v.subLevel.next()
		levelNoise := v.noiseLevel.next()
		left, right := 0.0, 0.0
		for s := 0; s < v.numSlots; s++ {
			slot := &v.slots[s]
			x := slot.osc[0].step(noteFreq, sr)*level0 + slot.osc[1].step(noteFreq, sr)*level1
			if slot.hasSub {
				x += slot.sub.step(noteFreq, sr) * levelSub
			}
			left += x * slot.panL
			right += x * slot.panR
		}
		left *= v.gain
		right *= v.gain
		n := v.noise.next() * levelNoise
		left += n
		right += n

		cutoff := v.filterEnv.step() * v.cutoff.next() / v.triggerCutoff * mod.filterRatio[i]
		q := v.resonance.next()
		if v.coefCountdown <= 0 {
			v.filter.setCutoff(cutoff, q)
			v.coefCountdown = coefficientsInterval
		}
		v.coefCountdown--
		left, right = v.filter.process(left, right)

		amp := v.ampEnv.step() * mod.ampFactor[i] * voiceGain
		v.outL[i] = left * amp
		v.outR[i] = right * amp
	}
}
