package audio

import (
	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/pkg/errors"
)

// newDelayLine allocates a line that can be read up to length-3 samples back
// with interpolation.
func newDelayLine(length int) (*delay.Line, error) {
	line, err := delay.New(length)
	return line, errors.Wrapf(err, "delay line of %d samples", length)
}
