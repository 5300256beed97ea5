package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
)

type recorder struct {
	diags []model.Diagnostic
}

func (r *recorder) Report(d model.Diagnostic) { r.diags = append(r.diags, d) }

func src(name, body string) loader.Source {
	return loader.Source{Name: name, Reader: strings.NewReader(body)}
}

func TestLoadStudents(t *testing.T) {
	students, err := LoadStudents(loader.People(src("students.txt",
		"10103\tBaldwin, C\tSFEN\n10172\tForbes, I\tSFEN\n11399\tCordova, I\tSYEN\n")))
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.Equal(t, "Forbes, I", students["10172"].Name)
	require.Equal(t, "SYEN", students["11399"].Major)
	require.NotNil(t, students["10103"].Grades)
}

func TestLoadStudents_DuplicateOverwrites(t *testing.T) {
	students, err := LoadStudents(loader.People(src("students.txt",
		"10103\tBaldwin, C\tSFEN\n10103\tBaldwin, Chris\tSYEN\n")))
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Baldwin, Chris", students["10103"].Name)
	require.Equal(t, "SYEN", students["10103"].Major)
}

func TestLoadStudents_FormatError(t *testing.T) {
	_, err := LoadStudents(loader.People(src("students.txt", "10103\tBaldwin, C\tSFEN\n10115\tWyatt, X\n")))

	var fe *loader.FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "students.txt", fe.Source)
	require.Equal(t, 2, fe.Line)
	require.Equal(t, 2, fe.Got)
	require.Equal(t, 3, fe.Want)
}

func TestLoadInstructors(t *testing.T) {
	instructors, err := LoadInstructors(loader.People(src("instructors.txt",
		"98765\tEinstein, A\tSFEN\n98762\tHawking, S\tSYEN\n98760\tDarwin, C\tSYEN\n")))
	require.NoError(t, err)
	require.Equal(t, "98765", instructors["98765"].CWID)
	require.Equal(t, "Hawking, S", instructors["98762"].Name)
	require.Equal(t, "SYEN", instructors["98760"].Department)
	require.Empty(t, instructors["98760"].Enrollment)

	sorted := instructors.Sorted()
	require.Equal(t, "98760", sorted[0].CWID)
	require.Equal(t, "98765", sorted[2].CWID)
}

func TestLoadMajors(t *testing.T) {
	rec := &recorder{}
	majors, err := LoadMajors("majors.txt", loader.CourseTags(src("majors.txt", strings.Join([]string{
		"SFEN\tR\tSSW 540",
		"SFEN\tR\tSSW 564",
		"SFEN\tE\tCS 501",
		"SYEN\tR\tSYS 671",
		"SYEN\tE\tSSW 810",
		"SYEN\tE\tSSW 540",
		"SFEN\tR\tSSW 540",
	}, "\n"))), rec)
	require.NoError(t, err)
	require.Empty(t, rec.diags)

	require.Equal(t, []string{"SSW 540", "SSW 564"}, majors["SFEN"].Required)
	require.Equal(t, []string{"CS 501"}, majors["SFEN"].Electives)
	require.Equal(t, []string{"SYS 671"}, majors["SYEN"].Required)
	require.Equal(t, []string{"SSW 810", "SSW 540"}, majors["SYEN"].Electives)

	names := []string{}
	for _, m := range majors.Sorted() {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"SFEN", "SYEN"}, names)
}

func TestLoadMajors_UnknownFlag(t *testing.T) {
	rec := &recorder{}
	majors, err := LoadMajors("majors.txt", loader.CourseTags(src("majors.txt",
		"BIOL\tX\tBIO 101\nSFEN\tR\tSSW 540\nSFEN\tr\tSSW 555\n")), rec)
	require.NoError(t, err)

	// First sighting still creates the major, without courses.
	require.Contains(t, majors, "BIOL")
	require.Empty(t, majors["BIOL"].Required)
	require.Empty(t, majors["BIOL"].Electives)
	require.Equal(t, []string{"SSW 540"}, majors["SFEN"].Required)

	require.Len(t, rec.diags, 2)
	require.Equal(t, model.DiagUnknownTag, rec.diags[0].Kind)
	require.Equal(t, 1, rec.diags[0].Line)
	require.Contains(t, rec.diags[0].Message, "BIO 101")
	require.Contains(t, rec.diags[0].Message, "BIOL")
	require.Equal(t, 3, rec.diags[1].Line)
}

func TestLoadMajors_BothFlags(t *testing.T) {
	majors, err := LoadMajors("majors.txt", loader.CourseTags(src("majors.txt",
		"SYEN\tR\tSSW 540\nSYEN\tE\tSSW 540\n")), Discard)
	require.NoError(t, err)
	require.Equal(t, []string{"SSW 540"}, majors["SYEN"].Required)
	require.Equal(t, []string{"SSW 540"}, majors["SYEN"].Electives)
}

func TestRecordGrades(t *testing.T) {
	students := Students{
		"10172": model.NewStudent("10172", "Forbes, I", "SFEN"),
		"11399": model.NewStudent("11399", "Cordova, I", "SYEN"),
	}
	grades := []loader.GradeRecord{
		{Line: 1, StudentID: "10172", CourseID: "SSW 555", Grade: "A", InstructorID: "98763"},
		{Line: 2, StudentID: "10172", CourseID: "SSW 567", Grade: "F", InstructorID: "98765"},
		{Line: 3, StudentID: "11399", CourseID: "SSW 540", Grade: "B", InstructorID: "98765"},
		{Line: 4, StudentID: "10172", CourseID: "SSW 567", Grade: "A-", InstructorID: "98765"},
		{Line: 5, StudentID: "55555", CourseID: "SSW 540", Grade: "B", InstructorID: "98765"},
	}

	rec := &recorder{}
	RecordGrades(students, "grades.txt", grades, rec)

	require.Equal(t, map[string]string{"SSW 555": "A", "SSW 567": "A-"}, students["10172"].Grades)
	require.Equal(t, map[string]string{"SSW 540": "B"}, students["11399"].Grades)
	require.Len(t, rec.diags, 1)
	require.Equal(t, model.DiagUnknownStudent, rec.diags[0].Kind)
	require.Equal(t, "55555", rec.diags[0].Subject)
	require.Equal(t, "no student found matching identifier 55555", rec.diags[0].Message)
}

func TestAggregateEnrollment(t *testing.T) {
	instructors := Instructors{
		"98765": model.NewInstructor("98765", "Einstein, A", "SFEN"),
		"98762": model.NewInstructor("98762", "Hawking, S", "SYEN"),
	}
	grades := []loader.GradeRecord{
		{Line: 1, StudentID: "10103", CourseID: "SSW 567", Grade: "A", InstructorID: "98765"},
		{Line: 2, StudentID: "10115", CourseID: "SSW 567", Grade: "A", InstructorID: "98765"},
		{Line: 3, StudentID: "11399", CourseID: "SSW 540", Grade: "B", InstructorID: "98765"},
		{Line: 4, StudentID: "10103", CourseID: "SSW 567", Grade: "C", InstructorID: "99999"},
	}

	rec := &recorder{}
	AggregateEnrollment(instructors, "grades.txt", grades, rec)

	require.Equal(t, map[string]int{"SSW 567": 2, "SSW 540": 1}, instructors["98765"].Enrollment)
	require.Empty(t, instructors["98762"].Enrollment)
	require.NotContains(t, instructors, "99999")
	require.Len(t, rec.diags, 1)
	require.Equal(t, model.DiagUnknownInstructor, rec.diags[0].Kind)
	require.Equal(t, "no instructor found matching identifier 99999", rec.diags[0].Message)
	require.Equal(t, 4, rec.diags[0].Line)
}

func TestAggregateEnrollment_CountsEveryKnownRecord(t *testing.T) {
	ids := []string{"98760", "98763", "98764", "00000"}
	courses := []string{"SSW 540", "SSW 564", "SYS 800"}

	rapid.Check(t, func(t *rapid.T) {
		instructors := Instructors{
			"98760": model.NewInstructor("98760", "Darwin, C", "SYEN"),
			"98763": model.NewInstructor("98763", "Newton, I", "SFEN"),
			"98764": model.NewInstructor("98764", "Feynman, R", "SFEN"),
		}
		grades := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) loader.GradeRecord {
			return loader.GradeRecord{
				StudentID:    "10103",
				CourseID:     rapid.SampledFrom(courses).Draw(t, "course"),
				Grade:        "A",
				InstructorID: rapid.SampledFrom(ids).Draw(t, "instructor"),
			}
		}), 0, 40).Draw(t, "grades")

		rec := &recorder{}
		AggregateEnrollment(instructors, "grades.txt", grades, rec)

		counted := 0
		for _, in := range instructors {
			for _, n := range in.Enrollment {
				counted += n
			}
		}
		if counted+len(rec.diags) != len(grades) {
			t.Fatalf("counted %d + %d warnings != %d records", counted, len(rec.diags), len(grades))
		}
		for _, d := range rec.diags {
			if d.Kind != model.DiagUnknownInstructor || d.Subject != "00000" {
				t.Fatalf("unexpected diagnostic %+v", d)
			}
		}
	})
}
