package audio

import (
	"strconv"

	"github.com/pkg/errors"
)

// ----- Command ----- //

// Update applies one command from the control socket:
//
//	note_on <note> [velocity]
//	note_off <note>
//	panic
//	set <path...> <value>
//	params <json>
func (a *Audio) Update(command []string) error {
	return applyCommand(a.synth, command)
}

func applyCommand(s *Synth, command []string) error {
	if len(command) == 0 {
		return errors.New("empty command")
	}
	switch command[0] {
	case "note_on":
		if len(command) < 2 || len(command) > 3 {
			return errors.Errorf("invalid note_on %v", command)
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return errors.Wrap(err, "note_on")
		}
		velocity := 1.0
		if len(command) == 3 {
			velocity, err = strconv.ParseFloat(command[2], 64)
			if err != nil {
				return errors.Wrap(err, "note_on")
			}
		}
		s.NoteOn(note, velocity)
	case "note_off":
		if len(command) != 2 {
			return errors.Errorf("invalid note_off %v", command)
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return errors.Wrap(err, "note_off")
		}
		s.NoteOff(note)
	case "panic":
		s.Panic()
	case "set":
		if len(command) < 3 {
			return errors.Errorf("invalid key-value pair %v", command[1:])
		}
		last := len(command) - 1
		return s.Set(command[1:last], command[last])
	case "params":
		if len(command) != 2 {
			return errors.Errorf("invalid params %v", command)
		}
		return s.PatchParams([]byte(command[1]))
	default:
		return errors.Errorf("unknown command %v", command[0])
	}
	return nil
}
