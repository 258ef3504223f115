package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jinjor/subsynth/src/audio"
	"github.com/pkg/errors"
)

// ----- Preset ----- //

type presetMetaJSON struct {
	Name string `json:"name"`
}
type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}

// presetManager reads <dir>/_list.json and <dir>/<name>.json. A preset
// file is a partial params document, merged over the current sound.
type presetManager struct {
	dir  string
	list []string
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]string, error) {
	if pm.list == nil {
		if err := pm.loadList(); err != nil {
			return nil, err
		}
	}
	return pm.list, nil
}

func (pm *presetManager) loadList() error {
	bytes, err := os.ReadFile(filepath.Join(pm.dir, "_list.json"))
	if err != nil {
		return errors.Wrap(err, "load preset list")
	}
	metaListJSON := &presetMetaListJSON{}
	if err := json.Unmarshal(bytes, metaListJSON); err != nil {
		return errors.Wrap(err, "parse preset list")
	}
	list := make([]string, 0, len(metaListJSON.Items))
	for _, item := range metaListJSON.Items {
		list = append(list, item.Name)
	}
	pm.list = list
	return nil
}

func (pm *presetManager) apply(synth *audio.Synth, name string) error {
	list, err := pm.getList()
	if err != nil {
		return err
	}
	found := false
	for _, item := range list {
		if item == name {
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("unknown preset %q", name)
	}
	bytes, err := os.ReadFile(filepath.Join(pm.dir, name+".json"))
	if err != nil {
		return errors.Wrap(err, "load preset")
	}
	return errors.Wrapf(synth.PatchParams(bytes), "preset %s", name)
}

func loadParamsFile(synth *audio.Synth, path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "load params")
	}
	return errors.Wrap(synth.PatchParams(bytes), path)
}
