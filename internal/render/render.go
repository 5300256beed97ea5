// Package render prints reports as terminal tables, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-progress/internal/model"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
	}
}

// Printer writes reports to one writer.
type Printer struct {
	w      io.Writer
	header lipgloss.Style
	title  lipgloss.Style
	border lipgloss.Style
	cell   lipgloss.Style
}

// NewPrinter styles tables for w; colors are dropped when w is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1),
		title:  r.NewStyle().Bold(true).MarginTop(1),
		border: r.NewStyle().Foreground(lipgloss.Color("8")),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

// Report writes the whole report in the given format.
func (p *Printer) Report(report *model.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	p.Majors(report.Majors)
	p.Students(report.Students)
	p.Instructors(report.Instructors)
	if len(report.Diagnostics) > 0 {
		p.Diagnostics(report.Diagnostics)
	}
	return nil
}

func (p *Printer) table(title string, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		})

	fmt.Fprintln(p.w, p.title.Render(title))
	fmt.Fprintln(p.w, t.Render())
}

// list formats a course list the way the summary tables show it.
func list(courses []string) string {
	if len(courses) == 0 {
		return "-"
	}
	return strings.Join(courses, ", ")
}

func (p *Printer) Majors(rows []model.MajorRow) {
	out := make([][]string, 0, len(rows))
	for _, m := range rows {
		out = append(out, []string{m.Major, list(m.Required), list(m.Electives)})
	}
	p.table("Majors Summary", []string{"Major", "Required Courses", "Electives"}, out)
}

func (p *Printer) Students(rows []model.StudentRow) {
	out := make([][]string, 0, len(rows))
	for _, s := range rows {
		out = append(out, []string{s.CWID, s.Name, s.Major, list(s.Completed), list(s.RemainingRequired), list(s.RemainingElectives)})
	}
	p.table("Student Summary", []string{"CWID", "Name", "Major", "Completed Courses", "Remaining Required", "Remaining Electives"}, out)
}

func (p *Printer) Instructors(rows []model.InstructorRow) {
	out := make([][]string, 0, len(rows))
	for _, i := range rows {
		out = append(out, []string{i.CWID, i.Name, i.Department, i.Course, strconv.Itoa(i.Students)})
	}
	p.table("Instructor Summary", []string{"CWID", "Name", "Dept", "Course", "Students"}, out)
}

// InstructorSummary prints the rows of the persisted summary query.
func (p *Printer) InstructorSummary(rows []model.InstructorSummary) {
	out := make([][]string, 0, len(rows))
	for _, i := range rows {
		out = append(out, []string{i.CWID, i.Name, i.Department, i.Course, strconv.Itoa(i.Students)})
	}
	p.table("Instructor Summary (stored)", []string{"CWID", "Name", "Dept", "Course", "Students"}, out)
}

func (p *Printer) Diagnostics(diags []model.Diagnostic) {
	out := make([][]string, 0, len(diags))
	for _, d := range diags {
		line := ""
		if d.Line > 0 {
			line = strconv.Itoa(d.Line)
		}
		out = append(out, []string{string(d.Kind), d.Source, line, d.Message})
	}
	p.table("Warnings", []string{"Kind", "Source", "Line", "Message"}, out)
}
