package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-progress/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		RunID: "run-1",
		Majors: []model.MajorRow{
			{Major: "SFEN", Required: []string{"SSW 540", "SSW 564"}, Electives: []string{"CS 501"}},
		},
		Students: []model.StudentRow{
			{CWID: "10103", Name: "Baldwin, C", Major: "SFEN", Completed: []string{"SSW 564"},
				RemainingRequired: []string{"SSW 540"}, RemainingElectives: []string{model.ElectivesSatisfied}, Tracked: true},
			{CWID: "10999", Name: "Nobody, N", Major: "MATH", Tracked: false},
		},
		Instructors: []model.InstructorRow{
			{CWID: "98765", Name: "Einstein, A", Department: "SFEN", Course: "SSW 567", Students: 4},
		},
		Diagnostics: []model.Diagnostic{
			{Kind: model.DiagUnknownInstructor, Source: "grades.txt", Line: 7, Subject: "99999", Message: "no instructor found matching identifier 99999"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Report(sampleReport(), FormatTable))

	out := buf.String()
	for _, want := range []string{
		"Majors Summary", "SSW 540, SSW 564", "CS 501",
		"Student Summary", "Baldwin, C", "None",
		"Instructor Summary", "Einstein, A", "SSW 567",
		"Warnings", "unknown_instructor", "grades.txt",
	} {
		require.Contains(t, out, want)
	}
}

func TestPrinter_TableOmitsEmptyWarnings(t *testing.T) {
	report := sampleReport()
	report.Diagnostics = nil

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Report(report, FormatTable))
	require.NotContains(t, buf.String(), "Warnings")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Report(sampleReport(), FormatJSON))

	var got model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Students, 2)
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).Report(sampleReport(), FormatYAML))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "run-1", got["run_id"])
	require.Contains(t, buf.String(), "remaining_required:")
}
