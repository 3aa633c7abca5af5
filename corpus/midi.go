package corpus

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/midi"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/source"
	"github.com/jsphweid/notewindow/util"
	"github.com/pkg/errors"
)

// lookups are issued in batches of this many files
const lookupBatch = 100

// MidiSource treats every .mid/.midi file under <Dir>/<split> as one piece.
// Provenance comes from Lookup, keyed by the file's path relative to Dir;
// pieces it doesn't know are titled after their file.
type MidiSource struct {
	Dir    string
	Lookup SourceLookup
	// MaxFiles limits files per split; 0 means all of them.
	MaxFiles int
}

func NewMidiSource(dir string, lookup SourceLookup) *MidiSource {
	return &MidiSource{Dir: dir, Lookup: lookup}
}

func (s *MidiSource) Split(name string) (Iterator, error) {
	dir := filepath.Join(s.Dir, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrapf(ErrSplitNotFound, "%v (%v)", name, dir)
	}

	paths, err := util.GatherAllMidiPaths(dir, s.MaxFiles)
	if err != nil {
		return nil, err
	}
	return &midiIterator{src: s, paths: paths}, nil
}

type midiIterator struct {
	src     *MidiSource
	paths   []string
	pos     int
	sources map[string]model.SourceInfo
	// sources holds lookups for paths[:fetched]
	fetched int
}

func (it *midiIterator) relName(path string) string {
	rel, err := filepath.Rel(it.src.Dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (it *midiIterator) fetchSources() {
	if it.src.Lookup == nil || it.pos < it.fetched {
		return
	}
	end := util.Min(it.pos+lookupBatch, len(it.paths))
	names := make([]string, 0, end-it.pos)
	for _, p := range it.paths[it.pos:end] {
		names = append(names, it.relName(p))
	}
	it.fetched = end

	found, err := it.src.Lookup.GetSources(names)
	if err != nil {
		// provenance is best effort; pieces fall back to their file names
		log.Corpus.Warnf("Skipping source lookup for %v files because: %v", len(names), err)
		found = nil
	}
	it.sources = found
}

func (it *midiIterator) Next() (model.Piece, error) {
	if it.pos >= len(it.paths) {
		return model.Piece{}, io.EOF
	}
	it.fetchSources()

	path := it.paths[it.pos]
	it.pos++
	name := it.relName(path)

	info, ok := it.sources[name]
	if !ok {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		info = model.SourceInfo{Composer: source.Unknown, Title: stem}
	}
	piece := model.Piece{Name: name, Source: source.Encode(info)}

	parsed, err := midi.ReadMidiFile(path)
	if err != nil {
		return piece, &PieceError{Name: name, Err: err}
	}
	piece.HasNotes = true
	piece.Notes = midi.Notes(parsed)
	return piece, nil
}

func (it *midiIterator) Close() error {
	return nil
}
