// Package registry builds the keyed student, instructor and major registries
// from decoded records and folds the grade stream into them.
package registry

import (
	"iter"
	"sort"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
)

// Reporter receives non-fatal diagnostics.
type Reporter interface {
	Report(d model.Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(model.Diagnostic)

func (f ReporterFunc) Report(d model.Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(model.Diagnostic) {})

// Students is the student registry keyed by CWID.
type Students map[string]*model.Student

// Instructors is the instructor registry keyed by CWID.
type Instructors map[string]*model.Instructor

// LoadStudents builds the student registry. A repeated CWID replaces the
// earlier entry.
func LoadStudents(people iter.Seq2[loader.PersonRecord, error]) (Students, error) {
	students := make(Students)
	for p, err := range people {
		if err != nil {
			return nil, err
		}
		students[p.ID] = model.NewStudent(p.ID, p.Name, p.Affiliation)
	}
	return students, nil
}

// LoadInstructors builds the instructor registry. A repeated CWID replaces the
// earlier entry.
func LoadInstructors(people iter.Seq2[loader.PersonRecord, error]) (Instructors, error) {
	instructors := make(Instructors)
	for p, err := range people {
		if err != nil {
			return nil, err
		}
		instructors[p.ID] = model.NewInstructor(p.ID, p.Name, p.Affiliation)
	}
	return instructors, nil
}

// Sorted returns the students ordered by CWID.
func (s Students) Sorted() []*model.Student {
	out := make([]*model.Student, 0, len(s))
	for _, st := range s {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CWID < out[j].CWID })
	return out
}

// Sorted returns the instructors ordered by CWID.
func (in Instructors) Sorted() []*model.Instructor {
	out := make([]*model.Instructor, 0, len(in))
	for _, i := range in {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CWID < out[b].CWID })
	return out
}
