package audio

import (
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/pkg/errors"
)

const fftSize = 2048

// ----- Analyzer ----- //

// analyzer keeps the last fftSize output samples. The render path writes
// only when the lock is free and otherwise skips the block.
type analyzer struct {
	mu   sync.Mutex
	ring []float64
	pos  int

	// fftMu guards everything below
	fftMu    sync.Mutex
	plan     *algofft.Plan[complex128]
	window   []float64
	frame    []float64
	windowed []float64
	in       []complex128
	out      []complex128
	re       []float64
	im       []float64
	mag      []float64
}

func newAnalyzer() (*analyzer, error) {
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, errors.Wrap(err, "fft plan")
	}
	hann, err := window.Hann(fftSize, window.WithPeriodic())
	if err != nil {
		return nil, errors.Wrap(err, "fft window")
	}
	a := &analyzer{
		ring:     make([]float64, fftSize),
		plan:     plan,
		window:   hann,
		frame:    make([]float64, fftSize),
		windowed: make([]float64, fftSize),
		in:       make([]complex128, fftSize),
		out:      make([]complex128, fftSize),
		re:       make([]float64, fftSize/2),
		im:       make([]float64, fftSize/2),
		mag:      make([]float64, fftSize/2),
	}
	return a, nil
}

func (a *analyzer) tap(left []float64, right []float64) {
	if !a.mu.TryLock() {
		return
	}
	for i := range left {
		a.ring[a.pos] = (left[i] + right[i]) / 2
		a.pos++
		if a.pos >= fftSize {
			a.pos = 0
		}
	}
	a.mu.Unlock()
}

// spectrum returns fftSize/2 magnitudes scaled so a full-scale sine reads
// about 1 at its bin.
func (a *analyzer) spectrum() ([]float64, error) {
	a.fftMu.Lock()
	defer a.fftMu.Unlock()
	a.mu.Lock()
	// ring:  | 4 | 1 | 2 | 3 |
	// pos:       ^
	// frame: | 1 | 2 | 3 | 4 |
	copy(a.frame, a.ring[a.pos:])
	copy(a.frame[fftSize-a.pos:], a.ring[:a.pos])
	a.mu.Unlock()

	vecmath.MulBlock(a.windowed, a.frame, a.window)
	for i, v := range a.windowed {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, errors.Wrap(err, "fft")
	}
	for i := range a.re {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)
	result := make([]float64, fftSize/2)
	vecmath.ScaleBlock(result, a.mag, 4.0/fftSize)
	return result, nil
}
