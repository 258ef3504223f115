package audio

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	numTables       = 128
	numTableSamples = 2048
)

type wavetable struct {
	values []float64
}

func newWavetable(cap int) *wavetable {
	return &wavetable{
		values: make([]float64, 0, cap),
	}
}

// getAtPhase reads with linear interpolation. phase is in [0, 1).
func (wt *wavetable) getAtPhase(phase float64) float64 {
	length := len(wt.values)
	pos := phase * float64(length)
	index := int(pos)
	if index >= length {
		index = length - 1
	}
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	frac := pos - float64(index)
	return wt.values[index]*(1-frac) + wt.values[nextIndex]*frac
}

// makeBandLimited synthesizes one cycle from its sine partials with an
// inverse FFT. amplitude(n) is the weight of the n-th harmonic. The result
// is normalized to a peak of 1.
func (wt *wavetable) makeBandLimited(plan *algofft.Plan[complex128], spectrum []complex128, out []complex128, partials int, amplitude func(n int) float64) error {
	samples := len(spectrum)
	if samples > cap(wt.values) {
		return errors.New("capacity exceeded")
	}
	for i := range spectrum {
		spectrum[i] = 0
	}
	for n := 1; n <= partials && n < samples/2; n++ {
		a := amplitude(n)
		// sin(nx) = (e^inx - e^-inx) / 2i
		spectrum[n] = complex(0, -a/2)
		spectrum[samples-n] = complex(0, a/2)
	}
	if err := plan.Inverse(out, spectrum); err != nil {
		return err
	}
	wt.values = wt.values[0:samples]
	peak := 0.0
	for i := range wt.values {
		wt.values[i] = real(out[i])
		peak = math.Max(peak, math.Abs(wt.values[i]))
	}
	if peak > 0 {
		for i := range wt.values {
			wt.values[i] /= peak
		}
	}
	return nil
}

// WavetableSet holds one band-limited table per MIDI note.
type WavetableSet struct {
	tables []*wavetable
}

// NewWavetableSet ...
func NewWavetableSet(tableCap int, sampleCap int) *WavetableSet {
	tables := make([]*wavetable, tableCap)
	for i := 0; i < tableCap; i++ {
		tables[i] = newWavetable(sampleCap)
	}
	return &WavetableSet{
		tables: tables,
	}
}

// MakeBandLimitedTablesForAllNotes fills every table with as many partials
// as fit below Nyquist for that note.
func (wts *WavetableSet) MakeBandLimitedTablesForAllNotes(sampleRate float64, samples int, amplitude func(n int) float64) error {
	if cap(wts.tables) < numTables {
		return errors.New("capacity of tables exceeded")
	}
	plan, err := algofft.NewPlan64(samples)
	if err != nil {
		return errors.Wrap(err, "fft plan")
	}
	spectrum := make([]complex128, samples)
	out := make([]complex128, samples)
	wts.tables = wts.tables[0:numTables]
	for note := 0; note < numTables; note++ {
		partials := int(sampleRate / 2 / noteToFreq(note))
		if partials < 1 {
			partials = 1
		}
		if err := wts.tables[note].makeBandLimited(plan, spectrum, out, partials, amplitude); err != nil {
			return err
		}
	}
	return nil
}

func (wts *WavetableSet) getAtPhase(freq float64, phase float64) float64 {
	return wts.tables[freqToNote(freq)].getAtPhase(phase)
}

func (wts *WavetableSet) complete() bool {
	if len(wts.tables) != numTables {
		return false
	}
	for _, wt := range wts.tables {
		if len(wt.values) == 0 {
			return false
		}
	}
	return true
}

// PartialSaw ...
func PartialSaw(n int) float64 {
	return 1 / float64(n)
}

// PartialSquare ...
func PartialSquare(n int) float64 {
	if n%2 == 1 {
		return 1 / float64(n)
	}
	return 0
}

// IO
//   all = { number_of_tables int32, tables []table }
//   table = { number_of_samples int32, samples []float64 }

// Save ...
func (wts *WavetableSet) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save wavetable")
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	numTables := int32(len(wts.tables))
	if err := binary.Write(w, binary.BigEndian, numTables); err != nil {
		return err
	}
	for _, wt := range wts.tables {
		numSamples := int32(len(wt.values))
		if err := binary.Write(w, binary.BigEndian, numSamples); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, wt.values); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Load ...
func (wts *WavetableSet) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "load wavetable")
	}
	defer file.Close()
	r := bufio.NewReader(file)
	var numTables int32
	if err := binary.Read(r, binary.BigEndian, &numTables); err != nil {
		return err
	}
	if numTables < 0 || int(numTables) > cap(wts.tables) {
		return errors.Errorf("number of tables exceeded: %d", numTables)
	}
	wts.tables = wts.tables[0:numTables]
	for _, wt := range wts.tables {
		var numSamples int32
		if err := binary.Read(r, binary.BigEndian, &numSamples); err != nil {
			return err
		}
		if numSamples < 0 || int(numSamples) > cap(wt.values) {
			return errors.Errorf("number of samples exceeded: %d", numSamples)
		}
		wt.values = wt.values[0:numSamples]
		if err := binary.Read(r, binary.BigEndian, wt.values); err != nil {
			return err
		}
	}
	return nil
}

// ----- Wavetables ----- //

// Wavetables are the band-limited tables the oscillators read. They are
// immutable once built and shared between voices.
type Wavetables struct {
	Saw    *WavetableSet
	Square *WavetableSet
}

// WavetableFiles are the file names gentables writes and the host loads.
var WavetableFiles = struct{ Saw, Square string }{"saw.wt", "square.wt"}

// BuildWavetables generates both sets in parallel.
func BuildWavetables(sampleRate float64) (*Wavetables, error) {
	w := &Wavetables{
		Saw:    NewWavetableSet(numTables, numTableSamples),
		Square: NewWavetableSet(numTables, numTableSamples),
	}
	var g errgroup.Group
	g.Go(func() error {
		return w.Saw.MakeBandLimitedTablesForAllNotes(sampleRate, numTableSamples, PartialSaw)
	})
	g.Go(func() error {
		return w.Square.MakeBandLimitedTablesForAllNotes(sampleRate, numTableSamples, PartialSquare)
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "build wavetables")
	}
	return w, nil
}

// LoadWavetables reads the sets from dir.
func LoadWavetables(dir string, sampleCap int) (*Wavetables, error) {
	w := &Wavetables{
		Saw:    NewWavetableSet(numTables, sampleCap),
		Square: NewWavetableSet(numTables, sampleCap),
	}
	var g errgroup.Group
	g.Go(func() error {
		return w.Saw.Load(filepath.Join(dir, WavetableFiles.Saw))
	})
	g.Go(func() error {
		return w.Square.Load(filepath.Join(dir, WavetableFiles.Square))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !w.Saw.complete() || !w.Square.complete() {
		return nil, errors.Errorf("incomplete wavetables in %s", dir)
	}
	return w, nil
}

// Save writes both sets into dir.
func (w *Wavetables) Save(dir string) error {
	var g errgroup.Group
	g.Go(func() error {
		return w.Saw.Save(filepath.Join(dir, WavetableFiles.Saw))
	})
	g.Go(func() error {
		return w.Square.Save(filepath.Join(dir, WavetableFiles.Square))
	})
	return g.Wait()
}

var (
	defaultWavetables   = map[float64]*Wavetables{}
	defaultWavetablesMu sync.Mutex
)

// wavetablesFor returns generated tables, building each sample rate once.
func wavetablesFor(sampleRate float64) (*Wavetables, error) {
	defaultWavetablesMu.Lock()
	defer defaultWavetablesMu.Unlock()
	if w, ok := defaultWavetables[sampleRate]; ok {
		return w, nil
	}
	w, err := BuildWavetables(sampleRate)
	if err != nil {
		return nil, err
	}
	defaultWavetables[sampleRate] = w
	return w, nil
}
