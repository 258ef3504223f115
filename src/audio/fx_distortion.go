package audio

// ----- Distortion ----- //

type distortion struct {
	amount smoother
	mix    smoother
}

func newDistortion(sampleRate float64) *distortion {
	return &distortion{
		amount: newSmoother(sampleRate, 0),
		mix:    newSmoother(sampleRate, 0),
	}
}

func (d *distortion) applyParams(p DistortionParams) {
	d.amount.setTarget(p.Amount)
	d.mix.setTarget(p.Mix)
}

// softClip is y = (1+k)x / (1+k|x|). k = 0 is the identity.
func softClip(x float64, k float64) float64 {
	if x < 0 {
		return (1 + k) * x / (1 - k*x)
	}
	return (1 + k) * x / (1 + k*x)
}

func (d *distortion) shape(x float64, amount float64) float64 {
	k := amount * 50
	pre := 1 + 2*amount
	post := 1 / (1 + amount)
	return softClip(x*pre, k) * post
}

func (d *distortion) process(left []float64, right []float64) {
	for i := range left {
		amount := d.amount.next()
		mix := d.mix.next()
		l, r := left[i], right[i]
		left[i] = l + (d.shape(l, amount)-l)*mix
		right[i] = r + (d.shape(r, amount)-r)*mix
	}
}

func (d *distortion) reset() {
	d.amount.reset(d.amount.targetValue)
	d.mix.reset(d.mix.targetValue)
}
