package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-progress/internal/model"
)

type postgresReportRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReportRepository returns a ReportRepository over a pgx pool.
// The schema comes from the embedded migrations.
func NewPostgresReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &postgresReportRepository{pool: pool}
}

func (r *postgresReportRepository) Save(ctx context.Context, report *model.Report) error {
	runID, err := uuid.Parse(report.RunID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, data_dir, generated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		runID, report.DataDir, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range courseTags(report) {
		batch.Queue(
			`INSERT INTO majors (run_id, major, flag, course) VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			runID, t.major, t.flag, t.course,
		)
	}
	for _, s := range report.Students {
		batch.Queue(
			`INSERT INTO students (run_id, cwid, name, major, completed, remaining_required, remaining_electives, tracked)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (run_id, cwid) DO NOTHING`,
			runID, s.CWID, s.Name, s.Major, s.Completed, s.RemainingRequired, s.RemainingElectives, s.Tracked,
		)
	}
	for _, f := range report.Faculty {
		batch.Queue(
			`INSERT INTO instructors (run_id, cwid, name, department) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id, cwid) DO NOTHING`,
			runID, f.CWID, f.Name, f.Department,
		)
	}
	for _, d := range report.Diagnostics {
		batch.Queue(
			`INSERT INTO diagnostics (run_id, kind, source, line, subject, message) VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, string(d.Kind), d.Source, d.Line, d.Subject, d.Message,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	// Grades are append-only and usually the largest source: COPY them.
	rows := make([][]any, 0, len(report.Grades))
	for _, g := range report.Grades {
		rows = append(rows, []any{runID, g.StudentCWID, g.Course, g.Grade, g.InstructorCWID})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"grades"},
		[]string{"run_id", "student_cwid", "course", "grade", "instructor_cwid"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy grades: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *postgresReportRepository) LatestRunID(ctx context.Context) (string, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM runs ORDER BY generated_at DESC LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRunNotFound
		}
		return "", err
	}
	return id.String(), nil
}

func (r *postgresReportRepository) InstructorSummary(ctx context.Context, runID string) ([]model.InstructorSummary, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, ErrRunNotFound
	}

	query := `
		SELECT i.cwid, i.name, i.department, g.course, COUNT(*) AS students
		FROM instructors i
		JOIN grades g ON g.run_id = i.run_id AND g.instructor_cwid = i.cwid
		WHERE i.run_id = $1
		GROUP BY i.cwid, i.name, i.department, g.course
		ORDER BY i.cwid, g.course
	`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := []model.InstructorSummary{}
	for rows.Next() {
		var s model.InstructorSummary
		if err := rows.Scan(&s.CWID, &s.Name, &s.Department, &s.Course, &s.Students); err != nil {
			return nil, err
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}
