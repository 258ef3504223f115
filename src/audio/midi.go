package audio

import (
	"bytes"
	"context"
	"log"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/midimessage/channel"
	"gitlab.com/gomidi/midi/midireader"
	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn forwards raw messages from the first MIDI input port until
// ctx is done.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			message := make([]byte, len(data))
			copy(message, data)
			select {
			case ch <- message:
			default:
				log.Println("[WARN] MIDI queue full, message dropped")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		<-ctx.Done()
		log.Println("stop listening MIDI IN...")
		if err := in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v\n", err)
		}
	}()
	return ch
}

// ----- Dispatch ----- //

// MIDI controllers mapped onto parameters.
const (
	ccModulation    = 1
	ccVolume        = 7
	ccResonance     = 71
	ccCutoff        = 74
	ccAllSoundOff   = 120
	ccAllNotesOff   = 123
	midiValueMax    = 127.0
	resonanceCCBase = 0.1
)

// AddMidiEvent decodes one raw MIDI message and forwards it to the synth.
func (a *Audio) AddMidiEvent(data []byte) {
	if err := dispatchMidi(a.synth, data); err != nil {
		log.Printf("failed to handle MIDI message %v: %v\n", data, err)
	}
}

// dispatchMidi treats note-on with velocity 0 as note-off.
func dispatchMidi(s *Synth, data []byte) error {
	msg, err := midireader.New(bytes.NewReader(data), nil).Read()
	if err != nil {
		return errors.Wrap(err, "decode MIDI")
	}
	switch m := msg.(type) {
	case channel.NoteOn:
		if m.Velocity() == 0 {
			s.NoteOff(int(m.Key()))
			return nil
		}
		s.NoteOn(int(m.Key()), float64(m.Velocity())/midiValueMax)
	case channel.NoteOff:
		s.NoteOff(int(m.Key()))
	case channel.NoteOffVelocity:
		s.NoteOff(int(m.Key()))
	case channel.ControlChange:
		return controlChange(s, m.Controller(), m.Value())
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func controlChange(s *Synth, controller uint8, value uint8) error {
	v := float64(value) / midiValueMax
	switch controller {
	case ccVolume:
		return s.Set([]string{"masterVolume"}, formatFloat(v))
	case ccCutoff:
		// 20 Hz ~ 20 kHz, exponential
		return s.Set([]string{"filter", "cutoff"}, formatFloat(minCutoff*math.Pow(maxCutoff/minCutoff, v)))
	case ccResonance:
		return s.Set([]string{"filter", "resonance"}, formatFloat(resonanceCCBase*math.Pow(300, v)))
	case ccModulation:
		return s.Set([]string{"lfo", "0", "depth"}, formatFloat(v))
	case ccAllSoundOff, ccAllNotesOff:
		s.Panic()
	}
	return nil
}
