package midi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading midi file")
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Errorf("error parsing midi file... %v", r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing midi file")
	}
	return res, nil
}

type noteKey struct {
	channel uint8
	key     uint8
}

type pending struct {
	start    int64
	velocity uint8
}

// Notes pairs every note start with the next end of the same key on the same
// channel. Times are seconds from the beginning of the file. Notes still
// sounding when their track ends are closed at the track's last event.
func Notes(s *smf.SMF) []model.Note {
	var notes []model.Note

	for _, events := range s.Tracks {
		var absTicks int64
		sounding := make(map[noteKey][]pending)

		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				k := noteKey{channel, key}
				sounding[k] = append(sounding[k], pending{start: absTicks, velocity: velocity})
			case event.Message.GetNoteEnd(&channel, &key):
				k := noteKey{channel, key}
				open := sounding[k]
				if len(open) == 0 {
					continue
				}
				notes = append(notes, makeNote(s, k, open[0], absTicks))
				sounding[k] = open[1:]
			}
		}

		keys := make([]noteKey, 0, len(sounding))
		for k := range sounding {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].channel != keys[j].channel {
				return keys[i].channel < keys[j].channel
			}
			return keys[i].key < keys[j].key
		})
		for _, k := range keys {
			for _, p := range sounding[k] {
				notes = append(notes, makeNote(s, k, p, absTicks))
			}
		}
	}

	model.SortNotes(notes)
	return notes
}

func makeNote(s *smf.SMF, k noteKey, p pending, endTicks int64) model.Note {
	return model.Note{
		Pitch:    int(k.key),
		Start:    float64(s.TimeAt(p.start)) / 1e6,
		End:      float64(s.TimeAt(endTicks)) / 1e6,
		Velocity: float64(p.velocity),
		Extra: map[string]json.RawMessage{
			"channel": json.RawMessage(fmt.Sprint(k.channel)),
		},
	}
}
