package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
)

// JSONLSource reads a corpus exported as <Dir>/<split>.jsonl, one piece per
// line. Each piece is an object with a notes table and a source field.
type JSONLSource struct {
	Dir string
}

func NewJSONLSource(dir string) *JSONLSource {
	return &JSONLSource{Dir: dir}
}

func (s *JSONLSource) Split(name string) (Iterator, error) {
	path := filepath.Join(s.Dir, name+constants.RecordsExt)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSplitNotFound, "%v (%v)", name, path)
		}
		return nil, errors.Wrapf(err, "could not open split %v", name)
	}
	return &jsonlIterator{f: f, r: bufio.NewReaderSize(f, 1<<20), split: name}, nil
}

type jsonlIterator struct {
	f     *os.File
	r     *bufio.Reader
	split string
	line  int
}

func (it *jsonlIterator) Next() (model.Piece, error) {
	for {
		data, err := it.r.ReadBytes('\n')
		if len(data) == 0 && err == io.EOF {
			return model.Piece{}, io.EOF
		}
		if err != nil && err != io.EOF {
			return model.Piece{}, errors.Wrapf(err, "could not read split %v", it.split)
		}
		it.line++
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		name := fmt.Sprintf("%v:%v", it.split, it.line)
		piece, decodeErr := DecodePiece(data)
		piece.Name = name
		if decodeErr != nil {
			return piece, &PieceError{Name: name, Err: decodeErr}
		}
		return piece, nil
	}
}

func (it *jsonlIterator) Close() error {
	return it.f.Close()
}

// DecodePiece decodes one exported piece. A piece without a notes key comes
// back with HasNotes false rather than as an error, so the caller decides
// how to treat it.
func DecodePiece(data []byte) (model.Piece, error) {
	var piece model.Piece
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return piece, errors.Wrap(err, "could not decode piece")
	}

	piece.Source = fields["source"]
	raw, ok := fields["notes"]
	if !ok {
		return piece, nil
	}
	piece.HasNotes = true

	var notes model.NoteList
	if err := json.Unmarshal(raw, &notes); err != nil {
		return piece, errors.Wrap(err, "could not decode notes")
	}
	piece.Notes = notes
	return piece, nil
}
