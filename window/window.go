// Package window cuts ordered note sequences into overlapping fixed-size
// windows. Every window is split into a context half and a target half.
package window

import (
	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid window configuration")

type Config struct {
	// WindowSize is the total number of notes in one window.
	WindowSize int `yaml:"window_size" json:"window_size"`
	// PredictSize is how many trailing notes of a window are the target.
	PredictSize int `yaml:"predict_size" json:"predict_size"`
	// Stride is the step, in notes, between consecutive window starts.
	Stride int `yaml:"stride" json:"stride"`
}

func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size must be positive, got %v", c.WindowSize)
	}
	if c.PredictSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "predict size must be positive, got %v", c.PredictSize)
	}
	if c.Stride <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "stride must be positive, got %v", c.Stride)
	}
	if c.PredictSize >= c.WindowSize {
		return errors.Wrapf(ErrInvalidConfig, "predict size (%v) must be lower than window size (%v)", c.PredictSize, c.WindowSize)
	}
	return nil
}

// Builder holds a validated Config and nothing else, so one Builder can be
// shared by any number of pieces and goroutines.
type Builder struct {
	cfg Config
}

func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg}, nil
}

func (b *Builder) Config() Config {
	return b.cfg
}

// SplitPoint is the index inside a window where the target half begins.
func (b *Builder) SplitPoint() int {
	return b.cfg.WindowSize - b.cfg.PredictSize
}

// Count returns how many windows Build produces for n notes.
func (b *Builder) Count(n int) int {
	if n < b.cfg.WindowSize {
		return 0
	}
	return (n-b.cfg.WindowSize)/b.cfg.Stride + 1
}

// Build returns the windows of notes in ascending start order. notes must
// already be ordered; Build never reorders them. A tail shorter than a full
// window is dropped, never padded.
func (b *Builder) Build(notes []model.Note, meta model.Metadata) []model.Record {
	count := b.Count(len(notes))
	if count == 0 {
		return nil
	}

	split := b.SplitPoint()
	records := make([]model.Record, 0, count)
	for start := 0; start+b.cfg.WindowSize <= len(notes); start += b.cfg.Stride {
		window := notes[start : start+b.cfg.WindowSize]

		m := meta
		m.ChunkStartIndex = start

		records = append(records, model.Record{
			NotesFirst:  cloneNotes(window[:split]),
			NotesSecond: cloneNotes(window[split:]),
			Metadata:    m,
		})
	}
	return records
}

// windows overlap, so every record gets its own notes
func cloneNotes(notes []model.Note) []model.Note {
	res := make([]model.Note, len(notes))
	for i, n := range notes {
		res[i] = n.Clone()
	}
	return res
}
