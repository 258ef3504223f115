package audio

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

const numNotes = 128

// ----- Voice Pool ----- //

// voicePool maps notes to voices. Every voice is allocated up front; resizing
// only moves voices between the pool and the spare list.
type voicePool struct {
	voices []*voice
	spare  []*voice
	notes  [numNotes]*voice
}

func newVoicePool(maxPolyphony int, sampleRate float64, blockSize int, tables *Wavetables) *voicePool {
	p := &voicePool{
		voices: make([]*voice, 0, maxPolyphony),
		spare:  make([]*voice, 0, maxPolyphony),
	}
	for i := maxPolyphony - 1; i >= 0; i-- {
		p.spare = append(p.spare, newVoice(i, sampleRate, blockSize, tables))
	}
	return p
}

func (p *voicePool) size() int {
	return len(p.voices)
}

func (p *voicePool) noteOn(note int, velocity float64, frame int64, params *SynthParams) {
	if note < 0 || note >= numNotes {
		return
	}
	// retrigger
	if v := p.notes[note]; v != nil {
		p.notes[note] = nil
		v.release(frame)
	}
	glide := params.GlideTime > 0
	v := p.findFreeVoice(glide)
	if v == nil {
		v = p.stealVoice(glide)
	}
	if v == nil {
		return
	}
	v.noteOn(note, velocity, frame, params)
	p.notes[note] = v
}

// findFreeVoice prefers an idle voice so release tails keep ringing, then the
// oldest releasing one. With glide on, the latest releasing voice is taken
// instead so the pitch slides from the previous note.
func (p *voicePool) findFreeVoice(glide bool) *voice {
	if glide {
		if v := p.latestReleasing(); v != nil {
			return v
		}
	}
	for _, v := range p.voices {
		if !v.sounding {
			return v
		}
	}
	var oldest *voice
	for _, v := range p.voices {
		if v.active {
			continue
		}
		if oldest == nil || v.startFrame < oldest.startFrame {
			oldest = v
		}
	}
	return oldest
}

func (p *voicePool) latestReleasing() *voice {
	var latest *voice
	for _, v := range p.voices {
		if v.active || !v.sounding {
			continue
		}
		if latest == nil || v.startFrame > latest.startFrame {
			latest = v
		}
	}
	return latest
}

// stealVoice takes the oldest mapped voice and hands it back. It is
// hard-stopped unless glide is on, in which case it keeps sounding and
// slides to the new note.
func (p *voicePool) stealVoice(glide bool) *voice {
	var oldest *voice
	for _, v := range p.notes {
		if v == nil {
			continue
		}
		if oldest == nil || v.startFrame < oldest.startFrame {
			oldest = v
		}
	}
	if oldest == nil {
		return nil
	}
	p.notes[oldest.note] = nil
	if !glide {
		oldest.stop()
	}
	return oldest
}

func (p *voicePool) noteOff(note int, frame int64) {
	if note < 0 || note >= numNotes {
		return
	}
	v := p.notes[note]
	if v == nil {
		return
	}
	p.notes[note] = nil
	v.release(frame)
}

// panic stops every voice and clears all mappings.
func (p *voicePool) panic() {
	for note := range p.notes {
		p.notes[note] = nil
	}
	for _, v := range p.voices {
		v.stop()
	}
}

func (p *voicePool) detach(v *voice) {
	if v.active && p.notes[v.note] == v {
		p.notes[v.note] = nil
	}
	v.stop()
}

// resize grows from the spare list. Shrinking drops inactive voices first,
// then active ones in pool order.
func (p *voicePool) resize(n int) {
	if n < 0 {
		n = 0
	}
	for len(p.voices) < n && len(p.spare) > 0 {
		v := p.spare[len(p.spare)-1]
		p.spare = p.spare[:len(p.spare)-1]
		v.stop()
		p.voices = append(p.voices, v)
	}
	excess := len(p.voices) - n
	if excess <= 0 {
		return
	}
	kept := p.voices[:0]
	for _, v := range p.voices {
		if excess > 0 && !v.active {
			p.detach(v)
			p.spare = append(p.spare, v)
			excess--
			continue
		}
		kept = append(kept, v)
	}
	p.voices = kept
	for excess > 0 {
		v := p.voices[0]
		copy(p.voices, p.voices[1:])
		p.voices = p.voices[:len(p.voices)-1]
		p.detach(v)
		p.spare = append(p.spare, v)
		excess--
	}
}

func (p *voicePool) updateParams(params *SynthParams) {
	for _, v := range p.voices {
		v.updateParams(params)
	}
}

// render adds every sounding voice into the bus over [from, to).
func (p *voicePool) render(mod *modulation, busL []float64, busR []float64, from int, to int) {
	if from >= to {
		return
	}
	for _, v := range p.voices {
		if !v.sounding {
			continue
		}
		v.render(mod, from, to)
		vecmath.AddBlockInPlace(busL[from:to], v.outL[from:to])
		vecmath.AddBlockInPlace(busR[from:to], v.outR[from:to])
	}
}

func (p *voicePool) runCleanups(frame int64) {
	for _, v := range p.voices {
		v.runCleanup(frame)
	}
}

func (p *voicePool) counts() (active int, sounding int) {
	for _, v := range p.voices {
		if v.active {
			active++
		}
		if v.sounding {
			sounding++
		}
	}
	return active, sounding
}

func (p *voicePool) voiceFor(note int) *voice {
	if note < 0 || note >= numNotes {
		return nil
	}
	return p.notes[note]
}
