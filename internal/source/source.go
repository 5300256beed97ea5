// Package source opens the record files of a data directory for the engine.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stemsi/exstem-progress/internal/engine"
	"github.com/stemsi/exstem-progress/internal/loader"
)

// ErrSourceUnavailable is returned when a record file cannot be opened.
var ErrSourceUnavailable = errors.New("record source unavailable")

// FileNames names the four record files inside a data directory.
type FileNames struct {
	Students    string
	Instructors string
	Majors      string
	Grades      string
}

// DefaultFileNames are the file names used when none are configured.
var DefaultFileNames = FileNames{
	Students:    "students.txt",
	Instructors: "instructors.txt",
	Majors:      "majors.txt",
	Grades:      "grades.txt",
}

// List returns the names in load order.
func (n FileNames) List() []string {
	return []string{n.Students, n.Instructors, n.Majors, n.Grades}
}

// Bundle holds the opened files of one run.
type Bundle struct {
	Sources engine.Sources
	closers []io.Closer
}

// Close closes every opened file.
func (b *Bundle) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// OpenDir opens the four record files under dir. If any file cannot be opened
// the files opened so far are closed and the error wraps ErrSourceUnavailable.
func OpenDir(dir string, names FileNames, skipHeader bool) (*Bundle, error) {
	b := &Bundle{}
	open := func(name string) (loader.Source, error) {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return loader.Source{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
		}
		b.closers = append(b.closers, f)
		return loader.Source{Name: name, Reader: f, SkipHeader: skipHeader}, nil
	}

	var err error
	if b.Sources.Students, err = open(names.Students); err != nil {
		b.Close()
		return nil, err
	}
	if b.Sources.Instructors, err = open(names.Instructors); err != nil {
		b.Close()
		return nil, err
	}
	if b.Sources.Majors, err = open(names.Majors); err != nil {
		b.Close()
		return nil, err
	}
	if b.Sources.Grades, err = open(names.Grades); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}
