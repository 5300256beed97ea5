package model

// Instructor is an instructor record keyed by CWID.
type Instructor struct {
	CWID       string `json:"cwid" yaml:"cwid"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	// Enrollment counts grade records per course attributed to this instructor.
	Enrollment map[string]int `json:"enrollment" yaml:"enrollment"`
}

// NewInstructor creates an instructor with no enrollment.
func NewInstructor(cwid, name, department string) *Instructor {
	return &Instructor{
		CWID:       cwid,
		Name:       name,
		Department: department,
		Enrollment: make(map[string]int),
	}
}
