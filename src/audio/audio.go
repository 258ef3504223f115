package audio

import (
	"context"
	"io"
	"log"

	"github.com/hajimehoshi/oto"
	"github.com/pkg/errors"
)

const minBufferSizeInBytes = 4096

// ----- Audio ----- //

// Audio streams a Synth to the default output device and feeds it commands.
// Failing to open the device leaves the Synth untouched.
type Audio struct {
	ctx               context.Context
	otoContext        *oto.Context
	CommandCh         chan []string
	synth             *Synth
	bufferSizeInBytes int
}

var _ io.Reader = (*Audio)(nil)

// NewAudio ...
func NewAudio(synth *Synth) (*Audio, error) {
	config := synth.Config()
	bufferSizeInBytes := config.BlockSize * bytesPerSample * 2
	if bufferSizeInBytes < minBufferSizeInBytes {
		bufferSizeInBytes = minBufferSizeInBytes
	}
	otoContext, err := oto.NewContext(config.SampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, errors.Wrap(err, "open output device")
	}
	audio := &Audio{
		ctx:               context.Background(),
		otoContext:        otoContext,
		CommandCh:         make(chan []string, 256),
		synth:             synth,
		bufferSizeInBytes: bufferSizeInBytes,
	}
	go audio.processCommands()
	return audio, nil
}

// Synth ...
func (a *Audio) Synth() *Synth {
	return a.synth
}

func (a *Audio) processCommands() {
	for command := range a.CommandCh {
		if err := a.Update(command); err != nil {
			log.Printf("failed to apply command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		return a.synth.Read(buf)
	}
}

// Start blocks until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	if _, err := io.CopyBuffer(p, a, make([]byte, a.bufferSizeInBytes)); err != nil {
		return errors.Wrap(err, "stream audio")
	}
	log.Println("Start() ended.")
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	return a.otoContext.Close()
}

// GetFFT ...
func (a *Audio) GetFFT() []float64 {
	return a.synth.Spectrum()
}

// Status ...
func (a *Audio) Status() Status {
	return a.synth.Status()
}
