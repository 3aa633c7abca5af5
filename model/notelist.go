package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// NoteList decodes a piece's notes table. Corpora export it either
// row-oriented (an array of note objects) or column-oriented (an object of
// equally long arrays, one per column).
type NoteList []Note

func (l *NoteList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) {
		*l = NoteList{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var rows []Note
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return err
		}
		if rows == nil {
			rows = []Note{}
		}
		*l = rows
		return nil
	case '{':
		var columns map[string][]json.RawMessage
		if err := json.Unmarshal(trimmed, &columns); err != nil {
			return errors.Wrap(err, "could not decode note columns")
		}
		rows, err := notesFromColumns(columns)
		if err != nil {
			return err
		}
		*l = rows
		return nil
	}
	return errors.Errorf("notes must be an array or an object of columns, got %q", trimmed[:1])
}

func notesFromColumns(columns map[string][]json.RawMessage) ([]Note, error) {
	length := -1
	for name, col := range columns {
		if length == -1 {
			length = len(col)
			continue
		}
		if len(col) != length {
			return nil, errors.Errorf("note column %q has %v rows, expected %v", name, len(col), length)
		}
	}
	if length <= 0 {
		return []Note{}, nil
	}

	notes := make([]Note, 0, length)
	for i := 0; i < length; i++ {
		fields := make(map[string]json.RawMessage, len(columns))
		for name, col := range columns {
			fields[name] = col[i]
		}
		note, err := noteFromFields(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "note row %v", i)
		}
		notes = append(notes, note)
	}
	return notes, nil
}
