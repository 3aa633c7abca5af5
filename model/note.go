package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrMissingField is returned when a note or piece lacks a field every
// consumer relies on.
var ErrMissingField = errors.New("missing required field")

var requiredNoteFields = []string{"pitch", "start", "end", "velocity"}

// Note is one musical event. Columns other than the four required ones are
// carried through untouched in Extra so records keep whatever the corpus
// provided.
type Note struct {
	Pitch    int
	Start    float64
	End      float64
	Velocity float64
	Extra    map[string]json.RawMessage
}

// Clone returns a copy that shares no memory with n.
func (n Note) Clone() Note {
	c := n
	if n.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

func (n Note) Duration() float64 {
	return n.End - n.Start
}

func (n Note) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	write := func(key string, val interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(val)
		if err != nil {
			return errors.Wrapf(err, "could not encode note field %q", key)
		}
		buf.Write(v)
		return nil
	}

	for _, f := range []struct {
		key string
		val interface{}
	}{
		{"pitch", n.Pitch},
		{"start", n.Start},
		{"end", n.End},
		{"velocity", n.Velocity},
	} {
		if err := write(f.key, f.val); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(n.Extra))
	for k := range n.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, n.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(err, "could not decode note")
	}
	note, err := noteFromFields(fields)
	if err != nil {
		return err
	}
	*n = note
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeNumber(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return 0, errors.Wrapf(ErrMissingField, "note has no %q", key)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errors.Wrapf(err, "note field %q is not a number", key)
	}
	return v, nil
}

// noteFromFields consumes the required keys of fields; whatever remains
// becomes the note's Extra.
func noteFromFields(fields map[string]json.RawMessage) (Note, error) {
	var note Note
	vals := make([]float64, len(requiredNoteFields))
	for i, key := range requiredNoteFields {
		v, err := decodeNumber(fields, key)
		if err != nil {
			return Note{}, err
		}
		vals[i] = v
	}
	if vals[0] != math.Trunc(vals[0]) {
		return Note{}, errors.Errorf("note pitch %v is not an integer", vals[0])
	}
	note.Pitch = int(vals[0])
	note.Start = vals[1]
	note.End = vals[2]
	note.Velocity = vals[3]

	for _, key := range requiredNoteFields {
		delete(fields, key)
	}
	// extras are kept compact so they read back as they were written
	for key, raw := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Note{}, errors.Wrapf(err, "note field %q", key)
		}
		fields[key] = buf.Bytes()
	}
	if len(fields) > 0 {
		note.Extra = fields
	}
	return note, nil
}

// SortNotes orders notes by start time. Notes starting together keep their
// relative order.
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
}
