package audio

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ----- Enums ----- //

func enumFromString(names []string, s string, fallback int) int {
	for i, name := range names {
		if name == s {
			return i
		}
	}
	return fallback
}

func enumToString(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return names[0]
	}
	return names[v]
}

// Waveform selects the shape of an oscillator or LFO.
type Waveform int

// Waveforms
const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSawtooth
	WaveSquare
)

var waveformNames = []string{"sine", "triangle", "sawtooth", "square"}

func (w Waveform) String() string { return enumToString(waveformNames, int(w)) }

// MarshalText ...
func (w Waveform) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// UnmarshalText falls back to sine for unknown names.
func (w *Waveform) UnmarshalText(text []byte) error {
	*w = Waveform(enumFromString(waveformNames, string(text), int(WaveSine)))
	return nil
}

// NoiseType selects the noise colour.
type NoiseType int

// Noise types
const (
	NoiseWhite NoiseType = iota
	NoisePink
)

var noiseTypeNames = []string{"white", "pink"}

func (n NoiseType) String() string { return enumToString(noiseTypeNames, int(n)) }

// MarshalText ...
func (n NoiseType) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText ...
func (n *NoiseType) UnmarshalText(text []byte) error {
	*n = NoiseType(enumFromString(noiseTypeNames, string(text), int(NoiseWhite)))
	return nil
}

// FilterType selects the response of the voice filter.
type FilterType int

// Filter types
const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

var filterTypeNames = []string{"lowpass", "highpass", "bandpass", "notch"}

func (f FilterType) String() string { return enumToString(filterTypeNames, int(f)) }

// MarshalText ...
func (f FilterType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText ...
func (f *FilterType) UnmarshalText(text []byte) error {
	*f = FilterType(enumFromString(filterTypeNames, string(text), int(FilterLowpass)))
	return nil
}

// LFOTarget is the parameter an LFO modulates.
type LFOTarget int

// LFO targets
const (
	TargetPitch LFOTarget = iota
	TargetFilter
	TargetAmp
)

var lfoTargetNames = []string{"pitch", "filter", "amp"}

func (t LFOTarget) String() string { return enumToString(lfoTargetNames, int(t)) }

// MarshalText ...
func (t LFOTarget) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText ...
func (t *LFOTarget) UnmarshalText(text []byte) error {
	*t = LFOTarget(enumFromString(lfoTargetNames, string(text), int(TargetPitch)))
	return nil
}

// ----- Params ----- //

// OscParams ...
type OscParams struct {
	Enabled  bool     `json:"enabled"`
	Waveform Waveform `json:"waveform"`
	Octave   int      `json:"octave"`   // -2 ~ 2
	Semitone int      `json:"semitone"` // -12 ~ 12
	Fine     float64  `json:"fine"`     // -100 ~ 100 cent
	Level    float64  `json:"level"`    // 0 ~ 1
}

// SubOscParams ...
type SubOscParams struct {
	Enabled  bool     `json:"enabled"`
	Waveform Waveform `json:"waveform"`
	Octave   int      `json:"octave"` // 1 ~ 2 below the fundamental
	Level    float64  `json:"level"`  // 0 ~ 1
}

// NoiseParams ...
type NoiseParams struct {
	Enabled bool      `json:"enabled"`
	Type    NoiseType `json:"type"`
	Level   float64   `json:"level"` // 0 ~ 1
}

// FilterParams ...
type FilterParams struct {
	Type      FilterType `json:"type"`
	Cutoff    float64    `json:"cutoff"`    // 20 ~ 20000 Hz
	Resonance float64    `json:"resonance"` // 0.1 ~ 30
	Rolloff   int        `json:"rolloff"`   // -12, -24, -48 dB/oct
	EnvAmount float64    `json:"envAmount"` // -1 ~ 1
}

// ADSRParams ...
type ADSRParams struct {
	Attack  float64 `json:"attack"`  // sec
	Decay   float64 `json:"decay"`   // sec
	Sustain float64 `json:"sustain"` // 0 ~ 1
	Release float64 `json:"release"` // sec
}

// LFOParams ...
type LFOParams struct {
	Enabled  bool      `json:"enabled"`
	Waveform Waveform  `json:"waveform"`
	Rate     float64   `json:"rate"`  // 0.1 ~ 20 Hz
	Depth    float64   `json:"depth"` // 0 ~ 1
	Target   LFOTarget `json:"target"`
}

// UnisonParams ...
type UnisonParams struct {
	Voices int     `json:"voices"` // 1 ~ 7
	Detune float64 `json:"detune"` // 0 ~ 100 cent
	Spread float64 `json:"spread"` // 0 ~ 1
}

// DistortionParams ...
type DistortionParams struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"` // 0 ~ 1
	Mix     float64 `json:"mix"`    // 0 ~ 1
}

// ChorusParams ...
type ChorusParams struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`  // 0.1 ~ 10 Hz
	Depth   float64 `json:"depth"` // 0 ~ 1
	Mix     float64 `json:"mix"`   // 0 ~ 1
}

// DelayParams ...
type DelayParams struct {
	Enabled  bool    `json:"enabled"`
	Time     float64 `json:"time"`     // 0.01 ~ 2 sec
	Feedback float64 `json:"feedback"` // 0 ~ 0.95
	Mix      float64 `json:"mix"`      // 0 ~ 1
}

// ReverbParams ...
type ReverbParams struct {
	Enabled bool    `json:"enabled"`
	Decay   float64 `json:"decay"` // 0.1 ~ 20 sec
	Mix     float64 `json:"mix"`   // 0 ~ 1
}

// FXParams ...
type FXParams struct {
	Distortion DistortionParams `json:"distortion"`
	Chorus     ChorusParams     `json:"chorus"`
	Delay      DelayParams      `json:"delay"`
	Reverb     ReverbParams     `json:"reverb"`
}

// OscBank merges JSON arrays element by element.
type OscBank [2]OscParams

// UnmarshalJSON ...
func (b *OscBank) UnmarshalJSON(data []byte) error {
	return mergeElements(b[:], data)
}

// LFOBank merges JSON arrays element by element.
type LFOBank [2]LFOParams

// UnmarshalJSON ...
func (b *LFOBank) UnmarshalJSON(data []byte) error {
	return mergeElements(b[:], data)
}

// SynthParams is an immutable snapshot of every sound parameter.
// Methods never modify the receiver; they return a new snapshot.
type SynthParams struct {
	Osc          OscBank      `json:"osc"`
	Sub          SubOscParams `json:"sub"`
	Noise        NoiseParams  `json:"noise"`
	Filter       FilterParams `json:"filter"`
	AmpEnv       ADSRParams   `json:"ampEnv"`
	FilterEnv    ADSRParams   `json:"filterEnv"`
	LFO          LFOBank      `json:"lfo"`
	Unison       UnisonParams `json:"unison"`
	FX           FXParams     `json:"fx"`
	MasterVolume float64      `json:"masterVolume"` // 0 ~ 1
	Polyphony    int          `json:"polyphony"`    // 0 ~ 16
	GlideTime    float64      `json:"glideTime"`    // 0 ~ 5 sec
}

const (
	maxOscs     = 2
	maxLFOs     = 2
	maxUnison   = 7
	minCutoff   = 20.0
	maxCutoff   = 20000.0
	maxGlide    = 5.0
	maxEnvTime  = 10.0
	maxFeedback = 0.95
)

// DefaultParams returns the init patch.
func DefaultParams() SynthParams {
	return SynthParams{
		Osc: OscBank{
			{Enabled: true, Waveform: WaveSawtooth, Level: 0.8},
			{Enabled: false, Waveform: WaveSquare, Fine: 7, Level: 0.5},
		},
		Sub:       SubOscParams{Enabled: false, Waveform: WaveSine, Octave: 1, Level: 0.5},
		Noise:     NoiseParams{Enabled: false, Type: NoiseWhite, Level: 0.2},
		Filter:    FilterParams{Type: FilterLowpass, Cutoff: 2000, Resonance: 1, Rolloff: -12, EnvAmount: 0.5},
		AmpEnv:    ADSRParams{Attack: 0.01, Decay: 0.2, Sustain: 0.7, Release: 0.3},
		FilterEnv: ADSRParams{Attack: 0.01, Decay: 0.3, Sustain: 0.3, Release: 0.3},
		LFO: LFOBank{
			{Enabled: false, Waveform: WaveSine, Rate: 5, Depth: 0.1, Target: TargetPitch},
			{Enabled: false, Waveform: WaveTriangle, Rate: 0.5, Depth: 0.3, Target: TargetFilter},
		},
		Unison: UnisonParams{Voices: 1, Detune: 10, Spread: 0.5},
		FX: FXParams{
			Distortion: DistortionParams{Amount: 0.3, Mix: 0.5},
			Chorus:     ChorusParams{Rate: 1.5, Depth: 0.5, Mix: 0.5},
			Delay:      DelayParams{Time: 0.35, Feedback: 0.35, Mix: 0.3},
			Reverb:     ReverbParams{Decay: 2.5, Mix: 0.3},
		},
		MasterVolume: 0.7,
		Polyphony:    8,
		GlideTime:    0,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampWaveform(w Waveform) Waveform {
	if w < WaveSine || w > WaveSquare {
		return WaveSine
	}
	return w
}

func clampRolloff(r int) int {
	switch {
	case r <= -36:
		return -48
	case r <= -18:
		return -24
	default:
		return -12
	}
}

func (a ADSRParams) clamp() ADSRParams {
	a.Attack = clampFloat(a.Attack, 0, maxEnvTime)
	a.Decay = clampFloat(a.Decay, 0, maxEnvTime)
	a.Sustain = clampFloat(a.Sustain, 0, 1)
	a.Release = clampFloat(a.Release, 0, maxEnvTime)
	return a
}

// Clamp returns a copy with every field forced into its documented range.
func (p SynthParams) Clamp() SynthParams {
	for i := range p.Osc {
		o := &p.Osc[i]
		o.Waveform = clampWaveform(o.Waveform)
		o.Octave = clampInt(o.Octave, -2, 2)
		o.Semitone = clampInt(o.Semitone, -12, 12)
		o.Fine = clampFloat(o.Fine, -100, 100)
		o.Level = clampFloat(o.Level, 0, 1)
	}
	p.Sub.Waveform = clampWaveform(p.Sub.Waveform)
	p.Sub.Octave = clampInt(p.Sub.Octave, 1, 2)
	p.Sub.Level = clampFloat(p.Sub.Level, 0, 1)
	if p.Noise.Type != NoisePink {
		p.Noise.Type = NoiseWhite
	}
	p.Noise.Level = clampFloat(p.Noise.Level, 0, 1)
	if p.Filter.Type < FilterLowpass || p.Filter.Type > FilterNotch {
		p.Filter.Type = FilterLowpass
	}
	p.Filter.Cutoff = clampFloat(p.Filter.Cutoff, minCutoff, maxCutoff)
	p.Filter.Resonance = clampFloat(p.Filter.Resonance, 0.1, 30)
	p.Filter.Rolloff = clampRolloff(p.Filter.Rolloff)
	p.Filter.EnvAmount = clampFloat(p.Filter.EnvAmount, -1, 1)
	p.AmpEnv = p.AmpEnv.clamp()
	p.FilterEnv = p.FilterEnv.clamp()
	for i := range p.LFO {
		l := &p.LFO[i]
		l.Waveform = clampWaveform(l.Waveform)
		l.Rate = clampFloat(l.Rate, 0.1, 20)
		l.Depth = clampFloat(l.Depth, 0, 1)
		if l.Target < TargetPitch || l.Target > TargetAmp {
			l.Target = TargetPitch
		}
	}
	p.Unison.Voices = clampInt(p.Unison.Voices, 1, maxUnison)
	p.Unison.Detune = clampFloat(p.Unison.Detune, 0, 100)
	p.Unison.Spread = clampFloat(p.Unison.Spread, 0, 1)
	fx := &p.FX
	fx.Distortion.Amount = clampFloat(fx.Distortion.Amount, 0, 1)
	fx.Distortion.Mix = clampFloat(fx.Distortion.Mix, 0, 1)
	fx.Chorus.Rate = clampFloat(fx.Chorus.Rate, 0.1, 10)
	fx.Chorus.Depth = clampFloat(fx.Chorus.Depth, 0, 1)
	fx.Chorus.Mix = clampFloat(fx.Chorus.Mix, 0, 1)
	fx.Delay.Time = clampFloat(fx.Delay.Time, 0.01, maxDelayTime)
	fx.Delay.Feedback = clampFloat(fx.Delay.Feedback, 0, maxFeedback)
	fx.Delay.Mix = clampFloat(fx.Delay.Mix, 0, 1)
	fx.Reverb.Decay = clampFloat(fx.Reverb.Decay, 0.1, 20)
	fx.Reverb.Mix = clampFloat(fx.Reverb.Mix, 0, 1)
	p.MasterVolume = clampFloat(p.MasterVolume, 0, 1)
	p.Polyphony = clampInt(p.Polyphony, 0, maxPolyphony)
	p.GlideTime = clampFloat(p.GlideTime, 0, maxGlide)
	return p
}

// ----- Merge / Set ----- //

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func mergeElements[T any](dst []T, data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) > len(dst) {
		return errors.Errorf("expected at most %d items, got %d", len(dst), len(items))
	}
	for i, item := range items {
		if err := decodeStrict(item, &dst[i]); err != nil {
			return err
		}
	}
	return nil
}

// Merge applies a partial JSON document on top of the snapshot. Only the
// fields present in the document change; array items given as null are left
// untouched. The result is clamped.
func (p SynthParams) Merge(partial []byte) (SynthParams, error) {
	next := p
	if err := decodeStrict(partial, &next); err != nil {
		return p, errors.Wrap(err, "merge params")
	}
	return next.Clamp(), nil
}

// Set changes a single field addressed by its JSON path, for example
// ("osc", "1", "waveform") or ("fx", "delay", "feedback").
func (p SynthParams) Set(path []string, value string) (SynthParams, error) {
	if len(path) == 0 {
		return p, errors.New("empty parameter path")
	}
	doc := []byte(value)
	if !json.Valid(doc) {
		quoted, err := json.Marshal(value)
		if err != nil {
			return p, err
		}
		doc = quoted
	}
	for i := len(path) - 1; i >= 0; i-- {
		key := path[i]
		if index, err := strconv.Atoi(key); err == nil {
			if index < 0 || index >= maxOscs {
				return p, errors.Errorf("index out of range: %s", key)
			}
			items := make([]json.RawMessage, index+1)
			for j := range items {
				items[j] = json.RawMessage("null")
			}
			items[index] = doc
			doc, _ = json.Marshal(items)
			continue
		}
		doc, _ = json.Marshal(map[string]json.RawMessage{key: doc})
	}
	next, err := p.Merge(doc)
	if err != nil {
		return p, errors.Wrapf(err, "set %v", path)
	}
	return next, nil
}

// ToJSON ...
func (p SynthParams) ToJSON() json.RawMessage {
	return toRawMessage(&p)
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
