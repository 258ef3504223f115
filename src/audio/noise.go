package audio

import "math/rand"

// ----- Noise ----- //

// noiseSource loops over a one second buffer refilled on note-on, so the
// render path never calls the random generator per sample.
type noiseSource struct {
	buf []float64
	pos int
	rng *rand.Rand
}

func newNoiseSource(length int, seed int64) *noiseSource {
	n := &noiseSource{
		buf: make([]float64, length),
		rng: rand.New(rand.NewSource(seed)),
	}
	n.fill(NoiseWhite)
	return n
}

func (n *noiseSource) fill(kind NoiseType) {
	switch kind {
	case NoisePink:
		fillPink(n.buf, n.rng)
	default:
		fillWhite(n.buf, n.rng)
	}
	n.pos = n.rng.Intn(len(n.buf))
}

func (n *noiseSource) next() float64 {
	v := n.buf[n.pos]
	n.pos++
	if n.pos >= len(n.buf) {
		n.pos = 0
	}
	return v
}

func fillWhite(buf []float64, rng *rand.Rand) {
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
}

// fillPink uses Paul Kellet's refined filter.
func fillPink(buf []float64, rng *rand.Rand) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range buf {
		white := rng.Float64()*2 - 1
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		pink := b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*0.5362
		b6 = white * 0.115926
		buf[i] = clampFloat(pink*0.11, -1, 1)
	}
}
