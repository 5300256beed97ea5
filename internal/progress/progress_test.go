package progress

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/registry"
)

func sfen() *model.Major {
	return &model.Major{
		Name:      "SFEN",
		Required:  []string{"SSW 540", "SSW 564", "SSW 555", "SSW 567"},
		Electives: []string{"CS 501", "CS 513", "CS 545"},
	}
}

func syen() *model.Major {
	return &model.Major{
		Name:      "SYEN",
		Required:  []string{"SYS 671", "SYS 612", "SYS 800"},
		Electives: []string{"SSW 810", "SSW 565", "SSW 540"},
	}
}

func TestIsPassing(t *testing.T) {
	for _, g := range []string{"A", "A-", "B+", "B", "B-", "C+", "C"} {
		require.True(t, IsPassing(g), g)
	}
	for _, g := range []string{"C-", "D", "F", "I", "W", "a", "A+", "", " A"} {
		require.False(t, IsPassing(g), g)
	}
}

func TestEvaluate_RemainingRequired(t *testing.T) {
	p := Evaluate(map[string]string{"SSW 567": "A", "SSW 564": "A-", "SSW 687": "B", "CS 501": "B"}, sfen())

	require.True(t, p.Tracked)
	require.Equal(t, []string{"CS 501", "SSW 564", "SSW 567", "SSW 687"}, p.Completed)
	require.Equal(t, []string{"SSW 540", "SSW 555"}, p.RemainingRequired)
	require.Equal(t, []string{model.ElectivesSatisfied}, p.RemainingElectives)
}

func TestEvaluate_NoElectiveCompleted(t *testing.T) {
	p := Evaluate(map[string]string{"SYS 800": "A", "SYS 750": "A-", "SYS 611": "A"}, syen())

	require.Equal(t, []string{"SYS 611", "SYS 750", "SYS 800"}, p.Completed)
	require.Equal(t, []string{"SYS 612", "SYS 671"}, p.RemainingRequired)
	require.Equal(t, []string{"SSW 540", "SSW 565", "SSW 810"}, p.RemainingElectives)
}

func TestEvaluate_OneElectiveSatisfies(t *testing.T) {
	p := Evaluate(map[string]string{"SSW 540": "A"}, syen())
	require.Equal(t, []string{model.ElectivesSatisfied}, p.RemainingElectives)
}

func TestEvaluate_FailingGradesDoNotCount(t *testing.T) {
	p := Evaluate(map[string]string{"SSW 540": "F", "SYS 671": "C-", "SYS 612": "W"}, syen())

	require.Empty(t, p.Completed)
	require.Equal(t, []string{"SYS 612", "SYS 671", "SYS 800"}, p.RemainingRequired)
	require.Equal(t, []string{"SSW 540", "SSW 565", "SSW 810"}, p.RemainingElectives)
}

func TestEvaluate_UnknownMajor(t *testing.T) {
	p := Evaluate(map[string]string{"SSW 540": "A", "SSW 555": "D"}, nil)

	require.False(t, p.Tracked)
	require.Equal(t, []string{"SSW 540"}, p.Completed)
	require.Empty(t, p.RemainingRequired)
	require.Empty(t, p.RemainingElectives)
}

func TestEvaluate_MajorWithoutElectives(t *testing.T) {
	p := Evaluate(map[string]string{"MA 121": "B"}, &model.Major{Name: "MATH", Required: []string{"MA 121", "MA 122"}})
	require.Equal(t, []string{"MA 122"}, p.RemainingRequired)
	require.Empty(t, p.RemainingElectives)
}

func TestEvaluate_CourseInBothSets(t *testing.T) {
	m := &model.Major{Name: "SYEN", Required: []string{"SSW 540", "SYS 800"}, Electives: []string{"SSW 540", "SSW 810"}}
	p := Evaluate(map[string]string{"SSW 540": "B+"}, m)
	require.Equal(t, []string{"SYS 800"}, p.RemainingRequired)
	require.Equal(t, []string{model.ElectivesSatisfied}, p.RemainingElectives)
}

type collect struct{ diags []model.Diagnostic }

func (c *collect) Report(d model.Diagnostic) { c.diags = append(c.diags, d) }

func TestCalculator_Apply(t *testing.T) {
	students := registry.Students{
		"10103": model.NewStudent("10103", "Baldwin, C", "SFEN"),
		"11788": model.NewStudent("11788", "Fuller, E", "SYEN"),
		"12000": model.NewStudent("12000", "Nobody, N", "ARTS"),
	}
	students["10103"].Grades["SSW 567"] = "A"
	students["10103"].Grades["SSW 564"] = "A-"
	students["11788"].Grades["SSW 540"] = "A"
	students["12000"].Grades["SSW 540"] = "B"

	c := &Calculator{Majors: registry.Majors{"SFEN": sfen(), "SYEN": syen()}}
	c.Apply(students)

	require.Equal(t, []string{"SSW 540", "SSW 555"}, students["10103"].RemainingRequired)
	require.Equal(t, []string{"CS 501", "CS 513", "CS 545"}, students["10103"].RemainingElectives)
	require.Equal(t, []string{model.ElectivesSatisfied}, students["11788"].RemainingElectives)
	require.False(t, students["12000"].Tracked)
	require.Equal(t, []string{"SSW 540"}, students["12000"].Completed)
}

func TestCalculator_UnknownMajorSilentByDefault(t *testing.T) {
	rec := &collect{}
	students := registry.Students{"12000": model.NewStudent("12000", "Nobody, N", "ARTS")}

	(&Calculator{Majors: registry.Majors{}, Reporter: rec}).Apply(students)
	require.Empty(t, rec.diags)

	(&Calculator{Majors: registry.Majors{}, Reporter: rec, WarnUnknownMajor: true, Source: "students.txt"}).Apply(students)
	require.Len(t, rec.diags, 1)
	require.Equal(t, model.DiagUnknownMajor, rec.diags[0].Kind)
	require.Equal(t, "ARTS", rec.diags[0].Subject)
}

var (
	courseIDs = []string{"SSW 540", "SSW 555", "SSW 564", "SSW 567", "SSW 810", "CS 501", "CS 513", "SYS 612"}
	symbols   = []string{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F", "I", "W"}
)

func drawMajor(t *rapid.T) *model.Major {
	courses := rapid.SampledFrom(courseIDs)
	return &model.Major{
		Name:      "GEN",
		Required:  rapid.SliceOfDistinct(courses, rapid.ID[string]).Draw(t, "required"),
		Electives: rapid.SliceOfDistinct(courses, rapid.ID[string]).Draw(t, "electives"),
	}
}

func drawGrades(t *rapid.T) map[string]string {
	return rapid.MapOf(rapid.SampledFrom(courseIDs), rapid.SampledFrom(symbols)).Draw(t, "grades")
}

func TestEvaluate_CompletedIsExactlyPassingCourses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		grades := drawGrades(t)
		p := Evaluate(grades, drawMajor(t))

		want := []string{}
		for c, g := range grades {
			if IsPassing(g) {
				want = append(want, c)
			}
		}
		sort.Strings(want)
		require.Equal(t, want, p.Completed)
	})
}

func TestEvaluate_ElectiveSentinelLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := drawMajor(t)
		grades := drawGrades(t)
		p := Evaluate(grades, major)

		passedElective := false
		for _, e := range major.Electives {
			if IsPassing(grades[e]) {
				passedElective = true
			}
		}

		if passedElective {
			require.Equal(t, []string{model.ElectivesSatisfied}, p.RemainingElectives)
			return
		}
		want := append([]string{}, major.Electives...)
		sort.Strings(want)
		require.Equal(t, want, p.RemainingElectives)
	})
}

func TestEvaluate_RemainingRequiredIsRequiredMinusCompleted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := drawMajor(t)
		grades := drawGrades(t)
		p := Evaluate(grades, major)

		want := []string{}
		for _, r := range major.Required {
			if !IsPassing(grades[r]) {
				want = append(want, r)
			}
		}
		sort.Strings(want)
		require.Equal(t, want, p.RemainingRequired)
	})
}

func TestCalculator_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := drawMajor(t)
		st := model.NewStudent("1", "Test, T", major.Name)
		st.Grades = drawGrades(t)
		students := registry.Students{"1": st}
		c := &Calculator{Majors: registry.Majors{major.Name: major}}

		c.Apply(students)
		first := *st
		c.Apply(students)

		require.Equal(t, first.Completed, st.Completed)
		require.Equal(t, first.RemainingRequired, st.RemainingRequired)
		require.Equal(t, first.RemainingElectives, st.RemainingElectives)
	})
}
