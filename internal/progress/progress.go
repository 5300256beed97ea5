// Package progress derives each student's completed and remaining courses from
// their grade book and the requirements of their major.
package progress

import (
	"fmt"
	"sort"

	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/registry"
)

// PassingGrades are the grade symbols that complete a course. Matching is
// exact: "c" or "C-" do not pass.
var PassingGrades = []string{"A", "A-", "B+", "B", "B-", "C+", "C"}

var passing = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PassingGrades))
	for _, g := range PassingGrades {
		m[g] = struct{}{}
	}
	return m
}()

// IsPassing reports whether grade completes a course.
func IsPassing(grade string) bool {
	_, ok := passing[grade]
	return ok
}

// Progress is the derived state of one student. Course lists are sorted.
type Progress struct {
	Completed          []string
	RemainingRequired  []string
	RemainingElectives []string
	Tracked            bool
}

// Evaluate computes progress for a grade book against major. A nil major
// means the student's major is unknown: completed courses are still derived
// but no requirement tracking takes place.
//
// The elective requirement is met by passing any one listed elective, after
// which RemainingElectives collapses to ["None"].
func Evaluate(grades map[string]string, major *model.Major) Progress {
	p := Progress{Completed: []string{}}

	var required, electives map[string]struct{}
	offered := 0
	if major != nil {
		p.Tracked = true
		required = toSet(major.Required)
		electives = toSet(major.Electives)
		offered = len(electives)
	}

	for course, grade := range grades {
		if !IsPassing(grade) {
			continue
		}
		p.Completed = append(p.Completed, course)
		delete(required, course)
		delete(electives, course)
	}
	sort.Strings(p.Completed)

	if !p.Tracked {
		p.RemainingRequired = []string{}
		p.RemainingElectives = []string{}
		return p
	}

	p.RemainingRequired = sortedKeys(required)
	if len(electives) != offered {
		p.RemainingElectives = []string{model.ElectivesSatisfied}
	} else {
		p.RemainingElectives = sortedKeys(electives)
	}
	return p
}

// Calculator applies Evaluate to every student of a registry.
type Calculator struct {
	Majors registry.Majors
	// WarnUnknownMajor reports students whose major is missing from Majors.
	// Off by default: such students are skipped silently.
	WarnUnknownMajor bool
	Reporter         registry.Reporter
	Source           string
}

// Apply fills the derived fields of every student. It recomputes from the
// grade books each time, so repeated calls give identical results.
func (c *Calculator) Apply(students registry.Students) {
	for _, st := range students {
		major := c.Majors[st.Major]
		if major == nil && c.WarnUnknownMajor && c.Reporter != nil {
			c.Reporter.Report(model.Diagnostic{
				Kind:    model.DiagUnknownMajor,
				Source:  c.Source,
				Subject: st.Major,
				Message: fmt.Sprintf("student %s has major %s which has no requirements", st.CWID, st.Major),
			})
		}

		p := Evaluate(st.Grades, major)
		st.Completed = p.Completed
		st.RemainingRequired = p.RemainingRequired
		st.RemainingElectives = p.RemainingElectives
		st.Tracked = p.Tracked
	}
}

func toSet(courses []string) map[string]struct{} {
	s := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		s[c] = struct{}{}
	}
	return s
}

func sortedKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
