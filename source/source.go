// Package source turns a piece's free-form provenance into the composer and
// title carried by every record of that piece.
package source

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jsphweid/notewindow/model"
)

const Unknown = "unknown"

// Parse never fails. Provenance arrives as nothing, an object, or a string
// holding an object written with single quotes. Anything it can't read falls
// back to Unknown.
//
// The quote swap is lossy: a title with an apostrophe in it ("Mephisto's
// Waltz") no longer decodes and the whole piece falls back to defaults.
func Parse(raw json.RawMessage) model.SourceInfo {
	info := model.SourceInfo{Composer: Unknown, Title: Unknown}

	fields, ok := decodeFields(raw)
	if !ok {
		return info
	}

	if v, ok := stringField(fields, "composer"); ok {
		info.Composer = v
	}
	if v, ok := stringField(fields, "title"); ok {
		info.Title = v
	}
	info.Year = yearField(fields)
	return info
}

func decodeFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		trimmed = []byte(strings.ReplaceAll(s, "'", `"`))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func yearField(fields map[string]json.RawMessage) uint {
	raw, ok := fields["year"]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return uint(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		year, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err == nil {
			return uint(year)
		}
	}
	return 0
}

// Metadata builds the per-piece metadata every window of the piece starts
// from.
func Metadata(dataset string, info model.SourceInfo) model.Metadata {
	return model.Metadata{
		SourceDataset: dataset,
		Composer:      info.Composer,
		Title:         info.Title,
	}
}

// Encode renders info the way a corpus would deliver it, for sources that
// learn provenance from elsewhere (file names, a metadata table).
func Encode(info model.SourceInfo) json.RawMessage {
	data, err := json.Marshal(info)
	if err != nil {
		return nil
	}
	return data
}
