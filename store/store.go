// Package store persists records as line-delimited JSON, one file per split,
// and reads them back by line number.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/model"
	"github.com/pkg/errors"
)

// ErrNoRecords is returned by Open when a split has not been generated yet.
// The error also matches os.ErrNotExist.
var ErrNoRecords = errors.New("no records file")

type missingError struct {
	path string
	err  error
}

func (e *missingError) Error() string {
	return fmt.Sprintf("%v: %v: %v", ErrNoRecords, e.path, e.err)
}

func (e *missingError) Is(target error) bool {
	return target == ErrNoRecords
}

func (e *missingError) Unwrap() error {
	return e.err
}

func Path(dir, split string) string {
	return filepath.Join(dir, split+constants.RecordsExt)
}

type Writer struct {
	f     *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

// Create truncates path. Records are appended as they are written; the
// buffer is only ever one record deep.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create records file %v", path)
	}
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{f: f, buf: buf, enc: enc}, nil
}

func (w *Writer) Write(r model.Record) error {
	// Encode terminates each value with a newline
	if err := w.enc.Encode(r); err != nil {
		return errors.Wrap(err, "could not encode record")
	}
	if err := w.buf.Flush(); err != nil {
		return errors.Wrap(err, "could not write record")
	}
	w.count++
	return nil
}

func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return errors.Wrap(flushErr, "could not flush records file")
	}
	return closeErr
}

// Reader gives random access to a records file. Open scans the file once
// to learn where every line starts.
type Reader struct {
	f       *os.File
	path    string
	offsets []int64
	size    int64
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &missingError{path: path, err: err}
		}
		return nil, errors.Wrapf(err, "could not open records file %v", path)
	}

	offsets, size, err := indexLines(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "could not index records file %v", path)
	}
	return &Reader{f: f, path: path, offsets: offsets, size: size}, nil
}

func indexLines(r io.Reader) ([]int64, int64, error) {
	var offsets []int64
	var pos int64
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadSlice('\n')
		n := int64(len(line))
		if n > 0 {
			offsets = append(offsets, pos)
		}
		pos += n
		if err == bufio.ErrBufferFull {
			// long line: keep consuming until its newline without
			// recording another start
			for err == bufio.ErrBufferFull {
				line, err = br.ReadSlice('\n')
				pos += int64(len(line))
			}
		}
		if err == io.EOF {
			return offsets, pos, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

func (r *Reader) Path() string {
	return r.path
}

// Count is the number of lines, and so of records, in the file.
func (r *Reader) Count() int {
	return len(r.offsets)
}

// Lookup returns the record on line index (zero-based). ok is false when
// index is outside [0, Count()).
func (r *Reader) Lookup(index int) (model.Record, bool, error) {
	var rec model.Record
	line, ok, err := r.Raw(index)
	if !ok || err != nil {
		return rec, false, err
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, false, errors.Wrapf(err, "could not decode record %v", index)
	}
	return rec, true, nil
}

// Raw returns line index as stored, without its newline.
func (r *Reader) Raw(index int) ([]byte, bool, error) {
	if index < 0 || index >= len(r.offsets) {
		return nil, false, nil
	}
	end := r.size
	if index+1 < len(r.offsets) {
		end = r.offsets[index+1]
	}
	buf := make([]byte, end-r.offsets[index])
	if _, err := r.f.ReadAt(buf, r.offsets[index]); err != nil && err != io.EOF {
		return nil, false, errors.Wrapf(err, "could not read record %v", index)
	}
	if n := len(buf); n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
	}
	return buf, true, nil
}

// Each decodes every record in file order and stops at the first error fn
// returns.
func (r *Reader) Each(fn func(index int, rec model.Record) error) error {
	for i := range r.offsets {
		rec, _, err := r.Lookup(i)
		if err != nil {
			return err
		}
		if err := fn(i, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}
