package audio

import "time"

// ----- Note Event ----- //

const (
	eventNoteOn = iota
	eventNoteOff
	eventPanic
)

type noteEvent struct {
	kind     int
	note     int
	velocity float64
	at       time.Time
	offset   int // frames into the current Process call
}

// placeEvents converts arrival times into frame offsets in [0, frames).
// Events that arrived during the previous call are spread over this one the
// same way they were spread in wall-clock time; offsets never go backwards.
func placeEvents(events []noteEvent, lastRender time.Time, sampleRate float64, frames int) {
	prev := 0
	for i := range events {
		offset := 0
		if !lastRender.IsZero() {
			offset = int(events[i].at.Sub(lastRender).Seconds() * sampleRate)
		}
		if offset < prev {
			offset = prev
		}
		if offset >= frames {
			offset = frames - 1
		}
		if offset < 0 {
			offset = 0
		}
		events[i].offset = offset
		prev = offset
	}
}
