//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package flatfile reads and writes the header-first, comma-delimited
// files exchanged between the generator and the warehouse loaders.
package flatfile

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrMissingColumn is returned by Open when a required column is absent
// from the header.
var ErrMissingColumn = errors.New("missing required column")

// Writer writes one flat file. Rows go to a temporary file in the target
// directory which replaces the target on Close, so readers never observe
// a partially written file.
type Writer struct {
	path string
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
	rows int64
}

// Create starts a new flat file at path and writes the header row.
func Create(path string, header []string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating directory %s", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, errors.Wrapf(err, "creating temp file for %s", path)
	}

	buf := bufio.NewWriter(f)
	w := &Writer{path: path, file: f, buf: buf, csv: csv.NewWriter(buf)}
	if err := w.csv.Write(header); err != nil {
		w.Abort()
		return nil, errors.Wrapf(err, "writing header to %s", path)
	}
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return errors.Wrapf(err, "writing row %d to %s", w.rows+1, w.path)
	}
	w.rows++
	return nil
}

// Rows returns the number of records written, excluding the header.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Path returns the final path of the file.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes the file and moves it into place.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.Abort()
		return errors.Wrapf(err, "flushing %s", w.path)
	}
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return errors.Wrapf(err, "flushing %s", w.path)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())
		return errors.Wrapf(err, "closing %s", w.path)
	}
	if err := os.Chmod(w.file.Name(), 0o644); err != nil {
		_ = os.Remove(w.file.Name())
		return errors.Wrapf(err, "setting mode on %s", w.path)
	}
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		_ = os.Remove(w.file.Name())
		return errors.Wrapf(err, "renaming into %s", w.path)
	}
	return nil
}

// Abort discards the file.
func (w *Writer) Abort() {
	_ = w.file.Close()
	_ = os.Remove(w.file.Name())
}

// Record is one data row addressed by column name.
type Record struct {
	// Line is the 1-based line number in the file, counting the header.
	Line   int
	values []string
	index  map[string]int
}

// Get returns the value of column, or "" if the column is unknown.
func (r Record) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Reader reads a flat file row by row.
type Reader struct {
	path   string
	file   *os.File
	csv    *csv.Reader
	header []string
	index  map[string]int
	line   int
}

// Open opens path, reads its header and checks every required column is
// present.
func Open(path string, required ...string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	r := &Reader{path: path, file: f, csv: csv.NewReader(bufio.NewReader(f))}
	r.csv.ReuseRecord = false

	header, err := r.csv.Read()
	if err == io.EOF {
		f.Close()
		return nil, errors.Errorf("%s is empty, expected a header row", path)
	}
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}
	r.line = 1

	r.header = header
	r.index = make(map[string]int, len(header))
	for i, h := range header {
		// Tolerate a UTF-8 byte order mark written by spreadsheet tools
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		r.index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := r.index[col]; !ok {
			f.Close()
			return nil, errors.Wrapf(ErrMissingColumn, "%s: column %q", path, col)
		}
	}
	return r, nil
}

// Header returns the header row.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	values, err := r.csv.Read()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "reading %s", r.path)
	}
	r.line++
	return Record{Line: r.line, values: values, index: r.index}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
