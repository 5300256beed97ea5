package model

import "time"

// Report is the flattened result of one pipeline run. It is what gets cached,
// persisted and served.
type Report struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	DataDir     string          `json:"data_dir" yaml:"data_dir"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	Majors      []MajorRow      `json:"majors" yaml:"majors"`
	Students    []StudentRow    `json:"students" yaml:"students"`
	Instructors []InstructorRow `json:"instructors" yaml:"instructors"`
	Faculty     []FacultyRow    `json:"faculty" yaml:"faculty"`
	Grades      []GradeRow      `json:"grades" yaml:"grades"`
	Diagnostics []Diagnostic    `json:"diagnostics" yaml:"diagnostics"`
}

// MajorRow lists a major's required and elective courses, sorted.
type MajorRow struct {
	Major     string   `json:"major" yaml:"major"`
	Required  []string `json:"required" yaml:"required"`
	Electives []string `json:"electives" yaml:"electives"`
}

// StudentRow is one student's progress, course lists sorted.
type StudentRow struct {
	CWID               string   `json:"cwid" yaml:"cwid"`
	Name               string   `json:"name" yaml:"name"`
	Major              string   `json:"major" yaml:"major"`
	Completed          []string `json:"completed" yaml:"completed"`
	RemainingRequired  []string `json:"remaining_required" yaml:"remaining_required"`
	RemainingElectives []string `json:"remaining_electives" yaml:"remaining_electives"`
	Tracked            bool     `json:"tracked" yaml:"tracked"`
}

// InstructorRow is the enrollment of one course taught by one instructor.
type InstructorRow struct {
	CWID       string `json:"cwid" yaml:"cwid"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	Course     string `json:"course" yaml:"course"`
	Students   int    `json:"students" yaml:"students"`
}

// FacultyRow is an instructor as read from the people source, whether or
// not any grade references them.
type FacultyRow struct {
	CWID       string `json:"cwid" yaml:"cwid"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
}

// GradeRow is a well-formed grade line as read from the grade source,
// including lines that reference unknown people.
type GradeRow struct {
	StudentCWID    string `json:"student_cwid" yaml:"student_cwid"`
	Course         string `json:"course" yaml:"course"`
	Grade          string `json:"grade" yaml:"grade"`
	InstructorCWID string `json:"instructor_cwid" yaml:"instructor_cwid"`
}

// InstructorSummary is a row of the persisted instructor/course summary query.
type InstructorSummary struct {
	CWID       string `json:"cwid" yaml:"cwid"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	Course     string `json:"course" yaml:"course"`
	Students   int    `json:"students" yaml:"students"`
}

// RunRequest is the payload for triggering a pipeline run.
type RunRequest struct {
	DataDir    string `json:"data_dir" binding:"omitempty,max=4096"`
	SkipHeader bool   `json:"skip_header"`
}

// FindStudent returns the row for cwid, or nil.
func (r *Report) FindStudent(cwid string) *StudentRow {
	for i := range r.Students {
		if r.Students[i].CWID == cwid {
			return &r.Students[i]
		}
	}
	return nil
}
