package model

// Requirement flags used by the course-tag source.
const (
	FlagRequired = "R"
	FlagElective = "E"
)

// ElectivesSatisfied is the single entry left in a student's remaining
// electives once any one elective of the major has been passed.
const ElectivesSatisfied = "None"

// Major represents a major and the courses it requires or offers as electives.
// Courses keep the order in which they were first tagged.
type Major struct {
	Name      string   `json:"name" yaml:"name"`
	Required  []string `json:"required" yaml:"required"`
	Electives []string `json:"electives" yaml:"electives"`
}

// NewMajor creates an empty major.
func NewMajor(name string) *Major {
	return &Major{Name: name, Required: []string{}, Electives: []string{}}
}

// AddRequired tags a course as required. Repeated tags are ignored.
func (m *Major) AddRequired(course string) {
	if !contains(m.Required, course) {
		m.Required = append(m.Required, course)
	}
}

// AddElective tags a course as an elective. Repeated tags are ignored.
func (m *Major) AddElective(course string) {
	if !contains(m.Electives, course) {
		m.Electives = append(m.Electives, course)
	}
}

func contains(courses []string, course string) bool {
	for _, c := range courses {
		if c == course {
			return true
		}
	}
	return false
}
