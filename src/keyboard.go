package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jinjor/subsynth/src/audio"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const (
	keyboardKeys     = "awsedftgyhujk" // C to C
	keyboardBaseNote = 60
	keyboardGate     = 250 * time.Millisecond
	keyCtrlC         = 0x03
)

// keyboard turns single key presses into short notes.
type keyboard struct {
	synth  *audio.Synth
	octave int
	gate   time.Duration
}

// press handles one key and reports whether the user asked to quit.
func (k *keyboard) press(key byte) bool {
	switch key {
	case 'q', keyCtrlC:
		return true
	case 'z':
		if k.octave > -4 {
			k.octave--
		}
	case 'x':
		if k.octave < 4 {
			k.octave++
		}
	case ' ':
		k.synth.Panic()
	default:
		note, ok := k.noteFor(key)
		if !ok {
			return false
		}
		k.synth.NoteOn(note, 1)
		time.AfterFunc(k.gate, func() {
			k.synth.NoteOff(note)
		})
	}
	return false
}

func (k *keyboard) noteFor(key byte) (int, bool) {
	i := strings.IndexByte(keyboardKeys, key)
	if i < 0 {
		return 0, false
	}
	note := keyboardBaseNote + k.octave*12 + i
	if note < 0 || note > 127 {
		return 0, false
	}
	return note, true
}

// runKeyboard reads stdin in raw mode until ctx is done or q is pressed.
func runKeyboard(ctx context.Context, synth *audio.Synth, quit func()) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		log.Println("WARN: stdin is not a terminal, keyboard disabled")
		return nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return errors.Wrap(err, "set raw mode")
	}
	defer func() {
		if err := term.Restore(fd, oldState); err != nil {
			log.Printf("failed to restore terminal: %v\n", err)
		}
	}()

	keys := make(chan byte, 16)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				keys <- buf[0]
			}
		}
	}()

	k := &keyboard{synth: synth, gate: keyboardGate}
	log.Printf("keyboard: %s plays C4-C5, z/x octave, space panic, q quit\r\n", keyboardKeys)
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if k.press(key) {
				quit()
				return nil
			}
		}
	}
}
