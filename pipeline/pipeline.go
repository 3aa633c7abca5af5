// Package pipeline drives a corpus through the window builder and writes one
// records file per split.
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/corpus"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/source"
	"github.com/jsphweid/notewindow/store"
	"github.com/jsphweid/notewindow/util"
	"github.com/jsphweid/notewindow/window"
	"github.com/pkg/errors"
)

const (
	DefaultMaxLoggedErrors = 2
	DefaultProgressEvery   = 100
)

// RecordBuilder turns one piece's ordered notes into records.
type RecordBuilder interface {
	Build(notes []model.Note, meta model.Metadata) []model.Record
}

type Pipeline struct {
	Source  corpus.Source
	Builder RecordBuilder
	// Window is only recorded in the manifest.
	Window  window.Config
	Dataset string
	OutDir  string
	Splits  []string
	// MaxLoggedErrors bounds how many piece failures are logged per split.
	MaxLoggedErrors int
	// ProgressEvery logs a progress line every this many pieces.
	ProgressEvery int
}

// New wires a pipeline around a Builder made from cfg. It fails only when
// cfg is invalid.
func New(src corpus.Source, cfg window.Config, dataset, outDir string, splits []string) (*Pipeline, error) {
	b, err := window.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Source:          src,
		Builder:         b,
		Window:          cfg,
		Dataset:         dataset,
		OutDir:          outDir,
		Splits:          splits,
		MaxLoggedErrors: DefaultMaxLoggedErrors,
		ProgressEvery:   DefaultProgressEvery,
	}, nil
}

// ProcessPiece sorts the piece's notes by start, resolves its provenance and
// cuts it into records. Only a piece without notes is an error.
func (p *Pipeline) ProcessPiece(piece model.Piece) ([]model.Record, error) {
	if !piece.HasNotes {
		return nil, errors.Wrapf(model.ErrMissingField, "piece has no %q", "notes")
	}
	notes := make([]model.Note, len(piece.Notes))
	copy(notes, piece.Notes)
	model.SortNotes(notes)

	meta := source.Metadata(p.Dataset, source.Parse(piece.Source))
	return p.Builder.Build(notes, meta), nil
}

// Run processes every split in order. A missing split, a bad piece or a
// split that breaks halfway never stops the run; its error comes back only
// when nothing could be written at all.
func (p *Pipeline) Run() (Report, error) {
	report := Report{
		RunID:         uuid.New().String(),
		Started:       time.Now().UTC(),
		Window:        p.Window,
		SourceDataset: p.Dataset,
	}

	if err := util.EnsureDir(p.OutDir); err != nil {
		return report, err
	}

	for _, split := range p.Splits {
		report.Splits = append(report.Splits, p.runSplit(split))
	}
	report.Finished = time.Now().UTC()

	log.Pipeline.Printf("Run %v finished: %v records from %v pieces", report.RunID, report.TotalRecords(), report.TotalProcessed())
	if err := util.WriteJSON(filepath.Join(p.OutDir, constants.ManifestName), report); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) runSplit(split string) SplitReport {
	sr := SplitReport{Split: split, Path: store.Path(p.OutDir, split)}

	it, err := p.Source.Split(split)
	if err != nil {
		sr.Skipped = true
		sr.Error = err.Error()
		if errors.Is(err, corpus.ErrSplitNotFound) {
			log.Pipeline.Warnf("Skipping %v - not in corpus", split)
		} else {
			log.Pipeline.Errorf("Skipping %v because: %v", split, err)
		}
		return sr
	}
	defer it.Close()

	log.Pipeline.Printf("Processing %v -> %v", split, sr.Path)

	if err := p.writeSplit(it, &sr); err != nil {
		sr.Error = err.Error()
		log.Pipeline.Errorf("Split %v stopped early because: %v", split, err)
	}

	log.Pipeline.WithFields(log.Fields{
		"split":   split,
		"failed":  sr.Failed,
		"records": sr.Records,
	}).Infof("Finished %v. Processed %v pieces.", split, sr.Processed)
	return sr
}

func (p *Pipeline) writeSplit(it corpus.Iterator, sr *SplitReport) (err error) {
	w, err := store.Create(sr.Path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for {
		piece, nextErr := it.Next()
		if nextErr == io.EOF {
			return nil
		}
		var pieceErr *corpus.PieceError
		if nextErr != nil && !errors.As(nextErr, &pieceErr) {
			return nextErr
		}
		sr.Seen++

		var records []model.Record
		if nextErr == nil {
			records, nextErr = p.ProcessPiece(piece)
		}
		if nextErr != nil {
			p.pieceFailed(sr, piece.Name, nextErr)
			continue
		}

		for _, r := range records {
			if err := w.Write(r); err != nil {
				return err
			}
		}
		sr.Records += len(records)
		sr.Processed++

		if p.ProgressEvery > 0 && sr.Seen%p.ProgressEvery == 0 {
			log.Pipeline.Printf("Processing %v: %v pieces seen, %v records", sr.Split, sr.Seen, sr.Records)
		}
	}
}

func (p *Pipeline) pieceFailed(sr *SplitReport, name string, err error) {
	sr.Failed++
	kind := Classify(err)
	sr.FailedByKind.add(kind)
	if sr.Failed > p.MaxLoggedErrors {
		return
	}
	switch kind {
	case KindMissingField:
		log.Pipeline.Warnf("Skipping piece %v in %v because of a missing field: %v", name, sr.Split, err)
	default:
		log.Pipeline.Warnf("Skipping piece %v in %v because: %v", name, sr.Split, err)
	}
}
