// Package corpus supplies pieces split by split. Pieces are streamed one at
// a time; nothing here holds a whole split in memory.
package corpus

import (
	"fmt"

	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
)

var ErrSplitNotFound = errors.New("split not found")

type Source interface {
	// Split opens the named split. It returns an error wrapping
	// ErrSplitNotFound when the corpus has no such split.
	Split(name string) (Iterator, error)
}

// Iterator walks the pieces of one split. Next returns io.EOF once the split
// is exhausted and a *PieceError when a single piece could not be decoded;
// iteration may continue after a *PieceError. Any other error means the
// split can't be read any further.
type Iterator interface {
	Next() (model.Piece, error)
	Close() error
}

// SourceLookup resolves provenance for pieces whose files carry none.
type SourceLookup interface {
	GetSources(names []string) (map[string]model.SourceInfo, error)
}

type PieceError struct {
	Name string
	Err  error
}

func (e *PieceError) Error() string {
	return fmt.Sprintf("piece %v: %v", e.Name, e.Err)
}

func (e *PieceError) Unwrap() error {
	return e.Err
}
