package engine

import (
	"sort"
	"time"

	"github.com/stemsi/exstem-progress/internal/model"
)

// Snapshot flattens the registries into sorted report rows.
func (r *Result) Snapshot(runID, dataDir string, at time.Time) *model.Report {
	rep := &model.Report{
		RunID:       runID,
		DataDir:     dataDir,
		GeneratedAt: at.UTC(),
		Majors:      make([]model.MajorRow, 0, len(r.Majors)),
		Students:    make([]model.StudentRow, 0, len(r.Students)),
		Instructors: []model.InstructorRow{},
		Faculty:     make([]model.FacultyRow, 0, len(r.Instructors)),
		Grades:      make([]model.GradeRow, 0, len(r.Grades)),
		Diagnostics: append([]model.Diagnostic{}, r.Diagnostics...),
	}

	for _, m := range r.Majors.Sorted() {
		rep.Majors = append(rep.Majors, model.MajorRow{
			Major:     m.Name,
			Required:  sortedCopy(m.Required),
			Electives: sortedCopy(m.Electives),
		})
	}

	for _, s := range r.Students.Sorted() {
		rep.Students = append(rep.Students, model.StudentRow{
			CWID:               s.CWID,
			Name:               s.Name,
			Major:              s.Major,
			Completed:          s.Completed,
			RemainingRequired:  s.RemainingRequired,
			RemainingElectives: s.RemainingElectives,
			Tracked:            s.Tracked,
		})
	}

	for _, in := range r.Instructors.Sorted() {
		rep.Faculty = append(rep.Faculty, model.FacultyRow{CWID: in.CWID, Name: in.Name, Department: in.Department})

		courses := make([]string, 0, len(in.Enrollment))
		for c := range in.Enrollment {
			courses = append(courses, c)
		}
		sort.Strings(courses)
		for _, c := range courses {
			rep.Instructors = append(rep.Instructors, model.InstructorRow{
				CWID:       in.CWID,
				Name:       in.Name,
				Department: in.Department,
				Course:     c,
				Students:   in.Enrollment[c],
			})
		}
	}

	for _, g := range r.Grades {
		rep.Grades = append(rep.Grades, model.GradeRow{
			StudentCWID:    g.StudentID,
			Course:         g.CourseID,
			Grade:          g.Grade,
			InstructorCWID: g.InstructorID,
		})
	}

	return rep
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
