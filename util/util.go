package util

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "could not create directory %v", dir)
	}
	return nil
}

// GatherAllMidiPaths walks path and returns every .mid/.midi file in lexical
// order. A maxNum of 0 means no limit.
func GatherAllMidiPaths(path string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(s)
		if strings.HasSuffix(lower, ".mid") || strings.HasSuffix(lower, ".midi") {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	if err := filepath.WalkDir(path, walk); err != nil {
		return nil, errors.Wrapf(err, "could not walk %v", path)
	}
	return res, nil
}

func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// WriteJSON writes data as indented JSON, replacing whatever was at filename.
func WriteJSON(filename string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "could not encode %v", filename)
	}
	if err := os.WriteFile(filename, append(b, '\n'), 0666); err != nil {
		return errors.Wrapf(err, "write failed for file %v", filename)
	}
	return nil
}

func ReadJSON[A any](filename string) (A, error) {
	var data A
	b, err := os.ReadFile(filename)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return data, errors.Wrapf(err, "could not decode %v", filename)
	}
	return data, nil
}

func Min[A constraints.Ordered](a A, b A) A {
	if a > b {
		return b
	}
	return a
}

func Max[A constraints.Ordered](a A, b A) A {
	if a < b {
		return b
	}
	return a
}

// Clamp limits v to [lo, hi]. When hi < lo, lo wins.
func Clamp[A constraints.Ordered](v, lo, hi A) A {
	return Max(lo, Min(v, hi))
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
