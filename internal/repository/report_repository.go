package repository

import (
	"context"
	"errors"

	"github.com/stemsi/exstem-progress/internal/model"
)

// ErrRunNotFound is returned when no persisted run matches.
var ErrRunNotFound = errors.New("run not found")

// ReportRepository persists pipeline reports and answers the SQL summaries
// built on them.
type ReportRepository interface {
	Save(ctx context.Context, report *model.Report) error
	LatestRunID(ctx context.Context) (string, error)
	// InstructorSummary counts grade records per instructor and course for a run.
	InstructorSummary(ctx context.Context, runID string) ([]model.InstructorSummary, error)
}

// courseTag is one persisted majors row.
type courseTag struct {
	major, flag, course string
}

func courseTags(report *model.Report) []courseTag {
	var tags []courseTag
	for _, m := range report.Majors {
		for _, c := range m.Required {
			tags = append(tags, courseTag{m.Major, model.FlagRequired, c})
		}
		for _, c := range m.Electives {
			tags = append(tags, courseTag{m.Major, model.FlagElective, c})
		}
	}
	return tags
}
