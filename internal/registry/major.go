package registry

import (
	"fmt"
	"iter"
	"sort"

	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
)

// Majors is the major registry keyed by major name.
type Majors map[string]*model.Major

// LoadMajors groups course-tag records into each major's required and elective
// courses. A line with a flag other than R or E is reported and dropped, but
// the major it names is still created.
func LoadMajors(source string, tags iter.Seq2[loader.CourseTagRecord, error], r Reporter) (Majors, error) {
	majors := make(Majors)
	for tag, err := range tags {
		if err != nil {
			return nil, err
		}

		m, ok := majors[tag.Major]
		if !ok {
			m = model.NewMajor(tag.Major)
			majors[tag.Major] = m
		}

		switch tag.Flag {
		case model.FlagRequired:
			m.AddRequired(tag.Course)
		case model.FlagElective:
			m.AddElective(tag.Course)
		default:
			r.Report(model.Diagnostic{
				Kind:    model.DiagUnknownTag,
				Source:  source,
				Line:    tag.Line,
				Subject: tag.Flag,
				Message: fmt.Sprintf("%s is not a required or elective course in %s (flag %q)", tag.Course, tag.Major, tag.Flag),
			})
		}
	}
	return majors, nil
}

// Sorted returns the majors ordered by name.
func (m Majors) Sorted() []*model.Major {
	out := make([]*model.Major, 0, len(m))
	for _, mj := range m {
		out = append(out, mj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
