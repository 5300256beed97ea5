package model

// Student is a student record keyed by CWID, with the grades folded in from the
// grade stream and the progress fields derived from the student's major.
type Student struct {
	CWID   string            `json:"cwid" yaml:"cwid"`
	Name   string            `json:"name" yaml:"name"`
	Major  string            `json:"major" yaml:"major"`
	Grades map[string]string `json:"grades" yaml:"grades"`

	// Derived by the progress calculator.
	Completed          []string `json:"completed" yaml:"completed"`
	RemainingRequired  []string `json:"remaining_required" yaml:"remaining_required"`
	RemainingElectives []string `json:"remaining_electives" yaml:"remaining_electives"`
	// Tracked is false when the student's major is unknown to the major registry.
	Tracked bool `json:"tracked" yaml:"tracked"`
}

// NewStudent creates a student with an empty grade book.
func NewStudent(cwid, name, major string) *Student {
	return &Student{
		CWID:   cwid,
		Name:   name,
		Major:  major,
		Grades: make(map[string]string),
	}
}
