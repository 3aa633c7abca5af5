package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/corpus"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/store"
	"github.com/jsphweid/notewindow/util"
	"github.com/jsphweid/notewindow/window"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	piece model.Piece
	err   error
}

type fakeSource struct {
	splits map[string][]step
	closed []string
}

func (f *fakeSource) Split(name string) (corpus.Iterator, error) {
	steps, ok := f.splits[name]
	if !ok {
		return nil, errors.Wrap(corpus.ErrSplitNotFound, name)
	}
	return &fakeIterator{src: f, name: name, steps: steps}, nil
}

type fakeIterator struct {
	src   *fakeSource
	name  string
	steps []step
}

func (it *fakeIterator) Next() (model.Piece, error) {
	if len(it.steps) == 0 {
		return model.Piece{}, io.EOF
	}
	s := it.steps[0]
	it.steps = it.steps[1:]
	return s.piece, s.err
}

func (it *fakeIterator) Close() error {
	it.src.closed = append(it.src.closed, it.name)
	return nil
}

// ascending notes, or descending when reversed
func piece(name string, n int, reversed bool, src string) model.Piece {
	notes := make([]model.Note, n)
	for i := range notes {
		k := i
		if reversed {
			k = n - 1 - i
		}
		notes[i] = model.Note{Pitch: 50 + k, Start: float64(k) * 0.5, End: float64(k)*0.5 + 0.25, Velocity: 64}
	}
	return model.Piece{Name: name, HasNotes: true, Notes: notes, Source: json.RawMessage(src)}
}

func newTestPipeline(t *testing.T, src corpus.Source, splits ...string) *Pipeline {
	p, err := New(src, window.Config{WindowSize: 10, PredictSize: 2, Stride: 5}, constants.SourceDataset, t.TempDir(), splits)
	require.NoError(t, err)
	return p
}

func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(io.Discard) })
	return &buf
}

func readAll(t *testing.T, path string) []model.Record {
	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()
	var res []model.Record
	require.NoError(t, r.Each(func(_ int, rec model.Record) error {
		res = append(res, rec)
		return nil
	}))
	return res
}

func TestNewRejectsBadWindow(t *testing.T) {
	_, err := New(&fakeSource{}, window.Config{WindowSize: 10, PredictSize: 10, Stride: 1}, "x", t.TempDir(), []string{"train"})
	assert.True(t, errors.Is(err, window.ErrInvalidConfig))
}

func TestProcessPieceSortsBeforeBuilding(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})
	records, err := p.ProcessPiece(piece("a", 12, true, `"{'composer': 'Bach', 'title': 'Goldberg Variations'}"`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert := assert.New(t)
	notes := records[0].Notes()
	for i := 1; i < len(notes); i++ {
		assert.LessOrEqual(notes[i-1].Start, notes[i].Start)
	}
	assert.Equal(50, notes[0].Pitch)
	assert.Equal(model.Metadata{
		SourceDataset:   "maestro-sustain-v2",
		Composer:        "Bach",
		Title:           "Goldberg Variations",
		ChunkStartIndex: 0,
	}, records[0].Metadata)
}

func TestProcessPieceKeepsTiesInOrder(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})
	pc := piece("chord", 10, false, ``)
	for i := range pc.Notes {
		pc.Notes[i].Start = 1.0
	}
	records, err := p.ProcessPiece(pc)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, pc.Notes, records[0].Notes())
}

func TestProcessPieceDoesNotTouchInput(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})
	pc := piece("a", 10, true, ``)
	first := pc.Notes[0]
	_, err := p.ProcessPiece(pc)
	require.NoError(t, err)
	assert.Equal(t, first, pc.Notes[0])
}

func TestProcessPieceWithoutNotes(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})
	_, err := p.ProcessPiece(model.Piece{Name: "empty"})
	assert.Equal(t, KindMissingField, Classify(err))
}

func TestProcessPieceDefaultsProvenance(t *testing.T) {
	p := newTestPipeline(t, &fakeSource{})
	records, err := p.ProcessPiece(piece("a", 10, false, `"{'title': 'Mephisto's Waltz'}"`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "unknown", records[0].Metadata.Composer)
	assert.Equal(t, "unknown", records[0].Metadata.Title)
}

func TestRun(t *testing.T) {
	captureLog(t)
	src := &fakeSource{splits: map[string][]step{
		"train": {
			{piece: piece("a", 21, true, `{"composer": "Liszt", "title": "La campanella"}`)},
			{piece: model.Piece{Name: "no-notes"}},
			{piece: piece("short", 4, false, ``)},
			{piece: model.Piece{Name: "bad"}, err: &corpus.PieceError{Name: "bad", Err: errors.New("could not decode piece")}},
			{piece: piece("b", 10, false, ``)},
		},
		"test": {},
	}}
	p := newTestPipeline(t, src, "train", "validation", "test")

	report, err := p.Run()
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, report.Splits, 3)
	assert.NotEmpty(report.RunID)

	train := report.Splits[0]
	assert.Equal(5, train.Seen)
	assert.Equal(3, train.Processed)
	assert.Equal(2, train.Failed)
	assert.Equal(FailureCounts{MissingField: 1, Other: 1}, train.FailedByKind)
	// 21 notes: starts 0, 5, 10; 10 notes: start 0
	assert.Equal(4, train.Records)
	assert.Empty(train.Error)

	validation := report.Splits[1]
	assert.True(validation.Skipped)
	assert.Contains(validation.Error, "split not found")

	test := report.Splits[2]
	assert.False(test.Skipped)
	assert.Equal(0, test.Records)

	assert.Equal(4, report.TotalRecords())
	assert.Equal(3, report.TotalProcessed())
	assert.Equal([]string{"train", "test"}, src.closed)

	records := readAll(t, train.Path)
	require.Len(t, records, 4)
	assert.Equal([]int{0, 5, 10, 0}, []int{
		records[0].Metadata.ChunkStartIndex,
		records[1].Metadata.ChunkStartIndex,
		records[2].Metadata.ChunkStartIndex,
		records[3].Metadata.ChunkStartIndex,
	})
	assert.Equal("Liszt", records[0].Metadata.Composer)
	assert.Equal("unknown", records[3].Metadata.Composer)
	assert.Equal(0.0, records[0].NotesFirst[0].Start)

	assert.FileExists(store.Path(p.OutDir, "test"))
	assert.NoFileExists(store.Path(p.OutDir, "validation"))

	manifest, err := util.ReadJSON[Report](filepath.Join(p.OutDir, constants.ManifestName))
	require.NoError(t, err)
	assert.Equal(report.RunID, manifest.RunID)
	assert.Equal(p.Window, manifest.Window)
	assert.Equal(4, manifest.TotalRecords())
}

func TestRunBoundsErrorLogging(t *testing.T) {
	logs := captureLog(t)
	var steps []step
	for i := 0; i < 20; i++ {
		steps = append(steps, step{piece: model.Piece{Name: fmt.Sprintf("p%v", i)}})
	}
	src := &fakeSource{splits: map[string][]step{"train": steps, "test": steps}}
	p := newTestPipeline(t, src, "train", "test")

	report, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 20, report.Splits[0].Failed)
	assert.Equal(t, 2*DefaultMaxLoggedErrors, strings.Count(logs.String(), "Skipping piece"))
}

func TestRunStopsSplitOnReadFailure(t *testing.T) {
	captureLog(t)
	src := &fakeSource{splits: map[string][]step{
		"train": {
			{piece: piece("a", 10, false, ``)},
			{err: errors.New("stream reset")},
			{piece: piece("never", 10, false, ``)},
		},
		"test": {{piece: piece("b", 10, false, ``)}},
	}}
	p := newTestPipeline(t, src, "train", "test")

	report, err := p.Run()
	require.NoError(t, err)

	train := report.Splits[0]
	assert.Contains(t, train.Error, "stream reset")
	assert.Equal(t, 1, train.Records)
	// records written before the failure are kept
	assert.Len(t, readAll(t, train.Path), 1)

	assert.Equal(t, 1, report.Splits[1].Records)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindMissingField, Classify(errors.Wrap(model.ErrMissingField, "note has no \"end\"")))
	assert.Equal(t, KindMissingField, Classify(&corpus.PieceError{Name: "x", Err: errors.Wrap(model.ErrMissingField, "x")}))
	assert.Equal(t, KindOther, Classify(errors.New("boom")))

	var n model.Note
	err := json.Unmarshal([]byte(`{"pitch": 60.5, "start": 0, "end": 1, "velocity": 64}`), &n)
	assert.Equal(t, KindOther, Classify(err))
	assert.Equal(t, "missing-field", KindMissingField.String())
}
