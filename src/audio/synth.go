package audio

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/pkg/errors"
)

const (
	baseFreq     = 440.0
	maxPolyphony = 16
)

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Exp2(float64(note-69)/12)
}

// freqToNote rounds up so the selected table never has partials above
// Nyquist.
func freqToNote(freq float64) int {
	if freq <= 0 {
		return 0
	}
	note := int(math.Ceil(math.Log2(freq/baseFreq)*12.0)) + 69
	return clampInt(note, 0, numNotes-1)
}

// ----- Config ----- //

// Config is fixed for the lifetime of a Synth.
type Config struct {
	SampleRate     int
	BlockSize      int // frames rendered per internal block
	MaxPolyphony   int // voices allocated up front
	EventQueueSize int
	WavetableDir   string // empty: generate tables in memory
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		BlockSize:      512,
		MaxPolyphony:   maxPolyphony,
		EventQueueSize: 256,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
	c.MaxPolyphony = clampInt(c.MaxPolyphony, 1, maxPolyphony)
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = d.EventQueueSize
	}
	return c
}

// ----- Status ----- //

// Status is a snapshot of render-side counters, safe to read from any
// goroutine.
type Status struct {
	ActiveVoices   int
	SoundingVoices int
	DroppedEvents  int64
	RenderedBlocks int64
	Frames         int64
}

// ----- Synth ----- //

// Synth is the engine. Control methods (NoteOn, NoteOff, Panic, SetParams,
// PatchParams, Set) may be called from any goroutine. Process and Read belong
// to a single rendering goroutine; they never block or allocate.
type Synth struct {
	config     Config
	sampleRate float64
	now        func() time.Time

	ctrlMu         sync.Mutex
	params         atomic.Pointer[SynthParams]
	events         chan noteEvent
	panicRequested atomic.Bool

	applied    *SynthParams
	pending    []noteEvent
	lastRender time.Time
	frame      int64
	pool       *voicePool
	lfos       []*lfo
	mod        *modulation
	fx         *fxChain
	master     smoother
	gain       []float64
	readL      []float64
	readR      []float64
	analyzer   *analyzer

	droppedEvents  atomic.Int64
	renderedBlocks atomic.Int64
	activeVoices   atomic.Int32
	soundingVoices atomic.Int32
	frames         atomic.Int64
}

// NewSynth builds every voice, effect and buffer the render path will use.
func NewSynth(config Config) (*Synth, error) {
	config = config.normalize()
	sampleRate := float64(config.SampleRate)
	var tables *Wavetables
	var err error
	if config.WavetableDir != "" {
		tables, err = LoadWavetables(config.WavetableDir, numTableSamples)
	} else {
		tables, err = wavetablesFor(sampleRate)
	}
	if err != nil {
		return nil, err
	}
	analyzer, err := newAnalyzer()
	if err != nil {
		return nil, err
	}
	fx, err := newFXChain(sampleRate)
	if err != nil {
		return nil, err
	}
	s := &Synth{
		config:     config,
		sampleRate: sampleRate,
		now:        time.Now,
		events:     make(chan noteEvent, config.EventQueueSize),
		pending:    make([]noteEvent, 0, config.EventQueueSize),
		pool:       newVoicePool(config.MaxPolyphony, sampleRate, config.BlockSize, tables),
		lfos:       []*lfo{newLfo(sampleRate), newLfo(sampleRate)},
		mod:        newModulation(config.BlockSize),
		fx:         fx,
		master:     newSmoother(sampleRate, 0),
		gain:       make([]float64, config.BlockSize),
		readL:      make([]float64, config.BlockSize),
		readR:      make([]float64, config.BlockSize),
		analyzer:   analyzer,
	}
	p := DefaultParams()
	s.params.Store(&p)
	s.applyParams()
	s.master.reset(p.MasterVolume)
	return s, nil
}

// Config ...
func (s *Synth) Config() Config {
	return s.config
}

// ----- Control ----- //

func (s *Synth) send(ev noteEvent) bool {
	select {
	case s.events <- ev:
		return true
	default:
		s.droppedEvents.Add(1)
		log.Printf("[WARN] event queue full, dropped event (kind=%d, note=%d)\n", ev.kind, ev.note)
		return false
	}
}

// NoteOn queues a note. Notes outside 0-127 are ignored and velocity is
// clamped to [0, 1].
func (s *Synth) NoteOn(note int, velocity float64) {
	if note < 0 || note >= numNotes {
		return
	}
	s.send(noteEvent{
		kind:     eventNoteOn,
		note:     note,
		velocity: clampFloat(velocity, 0, 1),
		at:       s.now(),
	})
}

// NoteOff ...
func (s *Synth) NoteOff(note int) {
	if note < 0 || note >= numNotes {
		return
	}
	s.send(noteEvent{kind: eventNoteOff, note: note, at: s.now()})
}

// Panic silences every voice. It still takes effect when the queue is full.
func (s *Synth) Panic() {
	if !s.send(noteEvent{kind: eventPanic, at: s.now()}) {
		s.panicRequested.Store(true)
	}
}

// SetParams replaces the whole snapshot.
func (s *Synth) SetParams(p SynthParams) {
	s.ctrlMu.Lock()
	defer s.ctrlMu.Unlock()
	next := p.Clamp()
	s.params.Store(&next)
}

// PatchParams merges a partial JSON document into the current snapshot.
func (s *Synth) PatchParams(partial []byte) error {
	s.ctrlMu.Lock()
	defer s.ctrlMu.Unlock()
	next, err := s.params.Load().Merge(partial)
	if err != nil {
		return err
	}
	s.params.Store(&next)
	return nil
}

// Set changes one field, see SynthParams.Set.
func (s *Synth) Set(path []string, value string) error {
	s.ctrlMu.Lock()
	defer s.ctrlMu.Unlock()
	next, err := s.params.Load().Set(path, value)
	if err != nil {
		return err
	}
	s.params.Store(&next)
	return nil
}

// Params returns the latest snapshot.
func (s *Synth) Params() SynthParams {
	return *s.params.Load()
}

// Status ...
func (s *Synth) Status() Status {
	return Status{
		ActiveVoices:   int(s.activeVoices.Load()),
		SoundingVoices: int(s.soundingVoices.Load()),
		DroppedEvents:  s.droppedEvents.Load(),
		RenderedBlocks: s.renderedBlocks.Load(),
		Frames:         s.frames.Load(),
	}
}

// Spectrum returns the magnitude spectrum of the most recent output.
func (s *Synth) Spectrum() []float64 {
	result, err := s.analyzer.spectrum()
	if err != nil {
		log.Printf("[WARN] spectrum: %v\n", err)
		return nil
	}
	return result
}

// ----- Render ----- //

func (s *Synth) applyParams() {
	p := s.params.Load()
	if p == s.applied {
		return
	}
	prev := s.applied
	s.applied = p
	if prev == nil || prev.Polyphony != p.Polyphony {
		s.pool.resize(clampInt(p.Polyphony, 0, s.config.MaxPolyphony))
	}
	s.pool.updateParams(p)
	for i, l := range s.lfos {
		l.applyParams(p.LFO[i])
	}
	s.fx.applyParams(p.FX)
	s.master.setTarget(p.MasterVolume)
}

func (s *Synth) drainEvents() {
	for len(s.pending) < cap(s.pending) {
		select {
		case ev := <-s.events:
			s.pending = append(s.pending, ev)
		default:
			return
		}
	}
}

func (s *Synth) applyEvent(ev *noteEvent, frame int64) {
	switch ev.kind {
	case eventNoteOn:
		s.pool.noteOn(ev.note, ev.velocity, frame, s.applied)
	case eventNoteOff:
		s.pool.noteOff(ev.note, frame)
	case eventPanic:
		s.panic()
	}
}

func (s *Synth) panic() {
	s.pool.panic()
	s.fx.reset()
	s.master.reset(s.master.targetValue)
}

// Process renders len(left) frames of stereo output. Events queued since the
// previous call are applied at their frame offsets.
func (s *Synth) Process(left []float64, right []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if n == 0 {
		return
	}
	left, right = left[:n], right[:n]
	now := s.now()
	s.applyParams()
	if s.panicRequested.Swap(false) {
		s.panic()
	}
	s.drainEvents()
	placeEvents(s.pending, s.lastRender, s.sampleRate, n)
	next := 0
	for start := 0; start < n; start += s.config.BlockSize {
		end := start + s.config.BlockSize
		if end > n {
			end = n
		}
		next = s.renderBlock(left[start:end], right[start:end], start, next)
	}
	s.pending = s.pending[:0]
	s.lastRender = now

	active, sounding := s.pool.counts()
	s.activeVoices.Store(int32(active))
	s.soundingVoices.Store(int32(sounding))
	s.frames.Store(s.frame)
}

func (s *Synth) renderBlock(left []float64, right []float64, start int, next int) int {
	n := len(left)
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	s.mod.render(s.lfos, n)
	pos := 0
	for next < len(s.pending) && s.pending[next].offset < start+n {
		offset := s.pending[next].offset - start
		if offset < pos {
			offset = pos
		}
		s.pool.render(s.mod, left, right, pos, offset)
		pos = offset
		s.applyEvent(&s.pending[next], s.frame+int64(offset))
		next++
	}
	s.pool.render(s.mod, left, right, pos, n)
	s.frame += int64(n)
	s.pool.runCleanups(s.frame)

	s.fx.process(left, right)
	for i := 0; i < n; i++ {
		s.gain[i] = s.master.next()
	}
	vecmath.MulBlockInPlace(left, s.gain[:n])
	vecmath.MulBlockInPlace(right, s.gain[:n])
	s.analyzer.tap(left, right)
	s.renderedBlocks.Add(1)
	return next
}

// ----- Reader ----- //

const (
	channelNum      = 2
	bitDepthInBytes = 2
	bytesPerSample  = bitDepthInBytes * channelNum
)

// Read renders interleaved 16-bit little-endian stereo, so a Synth can be
// streamed straight into an audio player.
func (s *Synth) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	frames := len(buf) / bytesPerSample
	if frames == 0 {
		return 0, errors.New("buffer too small")
	}
	done := 0
	for done < frames {
		n := frames - done
		if n > len(s.readL) {
			n = len(s.readL)
		}
		l, r := s.readL[:n], s.readR[:n]
		s.Process(l, r)
		writeBuffer(l, buf[done*bytesPerSample:], 0)
		writeBuffer(r, buf[done*bytesPerSample:], 1)
		done += n
	}
	return frames * bytesPerSample, nil
}

func writeBuffer(out []float64, buf []byte, ch int) {
	const max = 32767
	for i, value := range out {
		b := int16(clampFloat(value, -1, 1) * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}
