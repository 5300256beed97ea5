// Package engine runs the single-pass merge of the four record sources into
// student, instructor and major registries with derived progress.
package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/progress"
	"github.com/stemsi/exstem-progress/internal/registry"
)

// Sources are the already-opened inputs of a run.
type Sources struct {
	Students    loader.Source
	Instructors loader.Source
	Majors      loader.Source
	Grades      loader.Source
}

// Options tune a run.
type Options struct {
	WarnUnknownMajor bool
	// SkipMalformed drops a source with a bad field count, reporting a
	// malformed_source diagnostic, instead of failing the run.
	SkipMalformed bool
	Log           zerolog.Logger
	// OnDiagnostic, when set, is called for each diagnostic as it is found.
	OnDiagnostic func(model.Diagnostic)
}

// Result owns the registries built by one run.
type Result struct {
	Students    registry.Students
	Instructors registry.Instructors
	Majors      registry.Majors
	Grades      []loader.GradeRecord
	Diagnostics []model.Diagnostic
}

// Run builds the registries and derives progress. A structural problem in a
// source fails the run with the wrapped *loader.FormatError, unless
// opts.SkipMalformed is set, in which case that source contributes nothing
// and the run continues.
func Run(src Sources, opts Options) (*Result, error) {
	res := &Result{}
	rep := registry.ReporterFunc(func(d model.Diagnostic) {
		res.Diagnostics = append(res.Diagnostics, d)
		opts.Log.Warn().
			Str("kind", string(d.Kind)).
			Str("source", d.Source).
			Int("line", d.Line).
			Str("subject", d.Subject).
			Msg(d.Message)
		if opts.OnDiagnostic != nil {
			opts.OnDiagnostic(d)
		}
	})

	// skip reports whether err is a format error the caller chose to skip.
	skip := func(err error) bool {
		var ferr *loader.FormatError
		if !opts.SkipMalformed || !errors.As(err, &ferr) {
			return false
		}
		rep.Report(model.Diagnostic{
			Kind:    model.DiagMalformedSource,
			Source:  ferr.Source,
			Line:    ferr.Line,
			Subject: ferr.Source,
			Message: "source skipped: " + ferr.Error(),
		})
		return true
	}

	var err error
	if res.Students, err = registry.LoadStudents(loader.People(src.Students)); err != nil {
		if !skip(err) {
			return nil, fmt.Errorf("load students: %w", err)
		}
		res.Students = make(registry.Students)
	}
	if res.Instructors, err = registry.LoadInstructors(loader.People(src.Instructors)); err != nil {
		if !skip(err) {
			return nil, fmt.Errorf("load instructors: %w", err)
		}
		res.Instructors = make(registry.Instructors)
	}
	if res.Majors, err = registry.LoadMajors(src.Majors.Name, loader.CourseTags(src.Majors), rep); err != nil {
		if !skip(err) {
			return nil, fmt.Errorf("load majors: %w", err)
		}
		res.Majors = make(registry.Majors)
	}
	if res.Grades, err = loader.CollectGrades(src.Grades); err != nil {
		if !skip(err) {
			return nil, fmt.Errorf("load grades: %w", err)
		}
		res.Grades = nil
	}

	registry.RecordGrades(res.Students, src.Grades.Name, res.Grades, rep)
	registry.AggregateEnrollment(res.Instructors, src.Grades.Name, res.Grades, rep)

	calc := &progress.Calculator{
		Majors:           res.Majors,
		WarnUnknownMajor: opts.WarnUnknownMajor,
		Reporter:         rep,
		Source:           src.Students.Name,
	}
	calc.Apply(res.Students)

	opts.Log.Debug().
		Int("students", len(res.Students)).
		Int("instructors", len(res.Instructors)).
		Int("majors", len(res.Majors)).
		Int("grades", len(res.Grades)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("Pipeline run complete")

	return res, nil
}
