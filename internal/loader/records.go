package loader

import "iter"

// Field counts of the three record shapes.
const (
	PersonArity    = 3
	CourseTagArity = 3
	GradeArity     = 4
)

// PersonRecord is a people line: id, name, affiliation. Affiliation is the
// major for a student and the department for an instructor.
type PersonRecord struct {
	Line        int
	ID          string
	Name        string
	Affiliation string
}

// CourseTagRecord is a major line: major, flag, course.
type CourseTagRecord struct {
	Line   int
	Major  string
	Flag   string
	Course string
}

// GradeRecord is a grade line: student, course, grade, instructor.
type GradeRecord struct {
	Line         int
	StudentID    string
	CourseID     string
	Grade        string
	InstructorID string
}

// People decodes a 3-field people source.
func People(src Source) iter.Seq2[PersonRecord, error] {
	return decode(src, PersonArity, func(r Record) PersonRecord {
		return PersonRecord{Line: r.Line, ID: r.Fields[0], Name: r.Fields[1], Affiliation: r.Fields[2]}
	})
}

// CourseTags decodes a 3-field course-tag source.
func CourseTags(src Source) iter.Seq2[CourseTagRecord, error] {
	return decode(src, CourseTagArity, func(r Record) CourseTagRecord {
		return CourseTagRecord{Line: r.Line, Major: r.Fields[0], Flag: r.Fields[1], Course: r.Fields[2]}
	})
}

// Grades decodes a 4-field grade source.
func Grades(src Source) iter.Seq2[GradeRecord, error] {
	return decode(src, GradeArity, func(r Record) GradeRecord {
		return GradeRecord{
			Line:         r.Line,
			StudentID:    r.Fields[0],
			CourseID:     r.Fields[1],
			Grade:        r.Fields[2],
			InstructorID: r.Fields[3],
		}
	})
}

// CollectGrades materializes a grade source. The grade stream is consumed by
// both the grade book and the enrollment aggregator.
func CollectGrades(src Source) ([]GradeRecord, error) {
	var out []GradeRecord
	for g, err := range Grades(src) {
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func decode[T any](src Source, arity int, conv func(Record) T) iter.Seq2[T, error] {
	l := New(arity)
	return func(yield func(T, error) bool) {
		for rec, err := range l.Records(src) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(conv(rec), nil) {
				return
			}
		}
	}
}
