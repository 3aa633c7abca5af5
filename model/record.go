package model

// Metadata describes where a window came from.
type Metadata struct {
	SourceDataset   string `json:"source_dataset"`
	Composer        string `json:"composer"`
	Title           string `json:"title"`
	ChunkStartIndex int    `json:"chunk_start_index"`
}

// Record is one window of a piece: the context notes, the notes to predict,
// and the metadata of the piece the window was cut from.
type Record struct {
	NotesFirst  []Note   `json:"notes_first"`
	NotesSecond []Note   `json:"notes_second"`
	Metadata    Metadata `json:"metadata"`
}

// Notes returns both halves in window order.
func (r Record) Notes() []Note {
	res := make([]Note, 0, len(r.NotesFirst)+len(r.NotesSecond))
	res = append(res, r.NotesFirst...)
	return append(res, r.NotesSecond...)
}
