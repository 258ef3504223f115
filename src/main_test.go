package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jinjor/subsynth/src/audio"
)

func newTestSynth(t *testing.T) *audio.Synth {
	t.Helper()
	synth, err := audio.NewSynth(audio.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return synth
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseCommand(t *testing.T) {
	command, err := parseCommand("set filter cutoff 1000\r")
	if err != nil {
		t.Fatal(err)
	}
	if len(command) != 4 || command[3] != "1000" {
		t.Errorf("unexpected command: %v", command)
	}
	command, err = parseCommand("params %7B%22masterVolume%22%3A0.5%7D")
	if err != nil {
		t.Fatal(err)
	}
	if command[1] != `{"masterVolume":0.5}` {
		t.Errorf("unexpected params: %v", command[1])
	}
	if _, err := parseCommand("set a %zz"); err == nil {
		t.Error("expected an error for a bad escape")
	}
}

func TestPresets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_list.json"), `{"items":[{"name":"soft"},{"name":"broken"}]}`)
	writeFile(t, filepath.Join(dir, "soft.json"), `{"masterVolume":0.2,"filter":{"cutoff":500}}`)
	writeFile(t, filepath.Join(dir, "broken.json"), `{"filter":`)

	pm := newPresetManager(dir)
	list, err := pm.getList()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0] != "soft" {
		t.Errorf("unexpected list: %v", list)
	}

	synth := newTestSynth(t)
	if err := pm.apply(synth, "soft"); err != nil {
		t.Fatal(err)
	}
	p := synth.Params()
	if p.MasterVolume != 0.2 || p.Filter.Cutoff != 500 {
		t.Errorf("preset not applied: %v %v", p.MasterVolume, p.Filter.Cutoff)
	}
	if p.Filter.Resonance != audio.DefaultParams().Filter.Resonance {
		t.Error("fields missing from the preset should be kept")
	}
	if err := pm.apply(synth, "broken"); err == nil {
		t.Error("expected an error for a broken preset")
	}
	if err := pm.apply(synth, "../soft"); err == nil {
		t.Error("expected an error for an unlisted preset")
	}
	if synth.Params().MasterVolume != 0.2 {
		t.Error("failed presets should leave the params untouched")
	}

	if _, err := newPresetManager(t.TempDir()).getList(); err == nil {
		t.Error("expected an error without _list.json")
	}
}

func TestLoadParamsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	writeFile(t, path, `{"unison":{"voices":3},"osc":[null,{"enabled":true}]}`)
	synth := newTestSynth(t)
	if err := loadParamsFile(synth, path); err != nil {
		t.Fatal(err)
	}
	p := synth.Params()
	if p.Unison.Voices != 3 || !p.Osc[1].Enabled || !p.Osc[0].Enabled {
		t.Errorf("params not applied: %+v", p)
	}
	if err := loadParamsFile(synth, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestHandlePresetCommand(t *testing.T) {
	synth := newTestSynth(t)
	handled, err := handlePresetCommand([]string{"preset", "x"}, nil, synth, nil)
	if !handled || err == nil {
		t.Error("preset without a directory should fail")
	}
	handled, _ = handlePresetCommand([]string{"note_on", "60"}, nil, synth, nil)
	if handled {
		t.Error("note_on should go to the synth")
	}
}

func TestKeyboard(t *testing.T) {
	k := &keyboard{synth: newTestSynth(t), gate: keyboardGate}
	if note, ok := k.noteFor('a'); !ok || note != 60 {
		t.Errorf("expected C4, got %v", note)
	}
	if note, ok := k.noteFor('k'); !ok || note != 72 {
		t.Errorf("expected C5, got %v", note)
	}
	if _, ok := k.noteFor('b'); ok {
		t.Error("b is not a note key")
	}
	k.press('z')
	if note, _ := k.noteFor('a'); note != 48 {
		t.Errorf("expected C3, got %v", note)
	}
	k.press('x')
	k.press('x')
	if note, _ := k.noteFor('a'); note != 72 {
		t.Errorf("expected C5, got %v", note)
	}
	if k.press(' ') {
		t.Error("space should not quit")
	}
	if !k.press('q') {
		t.Error("q should quit")
	}
}
