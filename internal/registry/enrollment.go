package registry

import (
	"fmt"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
)

// RecordGrades folds grade records into each student's grade book. A later
// grade for the same course replaces the earlier one. Records naming an
// unknown student are reported and skipped.
func RecordGrades(students Students, source string, grades []loader.GradeRecord, r Reporter) {
	for _, g := range grades {
		st, ok := students[g.StudentID]
		if !ok {
			r.Report(model.Diagnostic{
				Kind:    model.DiagUnknownStudent,
				Source:  source,
				Line:    g.Line,
				Subject: g.StudentID,
				Message: fmt.Sprintf("no student found matching identifier %s", g.StudentID),
			})
			continue
		}
		st.Grades[g.CourseID] = g.Grade
	}
}

// AggregateEnrollment counts grade records per instructor and course. Records
// naming an unknown instructor are reported and not counted.
func AggregateEnrollment(instructors Instructors, source string, grades []loader.GradeRecord, r Reporter) {
	for _, g := range grades {
		in, ok := instructors[g.InstructorID]
		if !ok {
			r.Report(model.Diagnostic{
				Kind:    model.DiagUnknownInstructor,
				Source:  source,
				Line:    g.Line,
				Subject: g.InstructorID,
				Message: fmt.Sprintf("no instructor found matching identifier %s", g.InstructorID),
			})
			continue
		}
		in.Enrollment[g.CourseID]++
	}
}
