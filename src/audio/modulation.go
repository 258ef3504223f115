package audio

import "math"

// ----- Modulation ----- //

// modulation holds per-sample factors rendered once per block from the
// global LFOs and shared by every voice.
type modulation struct {
	pitchRatio  []float64
	filterRatio []float64
	ampFactor   []float64
}

func newModulation(blockSize int) *modulation {
	m := &modulation{
		pitchRatio:  make([]float64, blockSize),
		filterRatio: make([]float64, blockSize),
		ampFactor:   make([]float64, blockSize),
	}
	m.init(blockSize)
	return m
}

func (m *modulation) init(n int) {
	for i := 0; i < n; i++ {
		m.pitchRatio[i] = 1.0
		m.filterRatio[i] = 1.0
		m.ampFactor[i] = 1.0
	}
}

func (m *modulation) render(lfos []*lfo, n int) {
	m.init(n)
	for _, l := range lfos {
		if !l.enabled {
			continue
		}
		for i := 0; i < n; i++ {
			wave := l.step()
			amount := l.depth.next()
			switch l.target {
			case TargetPitch:
				// depth 1 = ±100 cent
				m.pitchRatio[i] *= math.Exp2(wave * amount / 12.0)
			case TargetFilter:
				m.filterRatio[i] *= math.Pow(16.0, wave*amount)
			case TargetAmp:
				m.ampFactor[i] *= 1.0 + (wave-1.0)/2.0*amount
			}
		}
	}
}
