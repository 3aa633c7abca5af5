package model

import "encoding/json"

// Piece is one musical work as supplied by a corpus.
type Piece struct {
	// Name identifies the piece in log lines (file name, line number...).
	Name string
	// HasNotes is false when the corpus entry carried no notes field at all.
	HasNotes bool
	Notes    []Note
	// Source is the raw provenance exactly as the corpus delivered it: absent,
	// an object, or a loosely quoted string.
	Source json.RawMessage
}

type SourceInfo struct {
	Composer string `json:"composer"`
	Title    string `json:"title"`
	Year     uint   `json:"year,omitempty"`
}
