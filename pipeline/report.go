package pipeline

import (
	"time"

	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/window"
	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindMissingField
)

func (k ErrorKind) String() string {
	if k == KindMissingField {
		return "missing-field"
	}
	return "other"
}

func Classify(err error) ErrorKind {
	if errors.Is(err, model.ErrMissingField) {
		return KindMissingField
	}
	return KindOther
}

type FailureCounts struct {
	MissingField int `json:"missing_field"`
	Other        int `json:"other"`
}

func (c *FailureCounts) add(kind ErrorKind) {
	if kind == KindMissingField {
		c.MissingField++
		return
	}
	c.Other++
}

type SplitReport struct {
	Split string `json:"split"`
	Path  string `json:"path"`
	// Skipped is set when the split could not be opened at all.
	Skipped      bool          `json:"skipped,omitempty"`
	Error        string        `json:"error,omitempty"`
	Seen         int           `json:"seen"`
	Processed    int           `json:"processed"`
	Failed       int           `json:"failed"`
	FailedByKind FailureCounts `json:"failed_by_kind"`
	Records      int           `json:"records"`
}

// Report is also written next to the records as the run manifest.
type Report struct {
	RunID         string        `json:"run_id"`
	Started       time.Time     `json:"started"`
	Finished      time.Time     `json:"finished"`
	Window        window.Config `json:"window"`
	SourceDataset string        `json:"source_dataset"`
	Splits        []SplitReport `json:"splits"`
}

func (r Report) TotalRecords() int {
	var total int
	for _, s := range r.Splits {
		total += s.Records
	}
	return total
}

func (r Report) TotalProcessed() int {
	var total int
	for _, s := range r.Splits {
		total += s.Processed
	}
	return total
}

func (r Report) Split(name string) (SplitReport, bool) {
	for _, s := range r.Splits {
		if s.Split == name {
			return s, true
		}
	}
	return SplitReport{}, false
}
