package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stemsi/exstem-progress/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    data_dir     TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS majors (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    major  TEXT NOT NULL,
    flag   TEXT NOT NULL CHECK (flag IN ('R', 'E')),
    course TEXT NOT NULL,
    PRIMARY KEY (run_id, major, flag, course)
);
CREATE TABLE IF NOT EXISTS students (
    run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    cwid                TEXT NOT NULL,
    name                TEXT NOT NULL,
    major               TEXT NOT NULL,
    completed           TEXT NOT NULL,
    remaining_required  TEXT NOT NULL,
    remaining_electives TEXT NOT NULL,
    tracked             INTEGER NOT NULL,
    PRIMARY KEY (run_id, cwid)
);
CREATE TABLE IF NOT EXISTS instructors (
    run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    cwid       TEXT NOT NULL,
    name       TEXT NOT NULL,
    department TEXT NOT NULL,
    PRIMARY KEY (run_id, cwid)
);
CREATE TABLE IF NOT EXISTS grades (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    student_cwid    TEXT NOT NULL,
    course          TEXT NOT NULL,
    grade           TEXT NOT NULL,
    instructor_cwid TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_grades_run_instructor ON grades (run_id, instructor_cwid);
CREATE TABLE IF NOT EXISTS diagnostics (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    kind    TEXT NOT NULL,
    source  TEXT NOT NULL,
    line    INTEGER NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL
);
`

// sqliteTimeLayout is fixed-width so generated_at sorts lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

type sqliteReportRepository struct {
	db *sql.DB
}

// NewSQLiteReportRepository returns a ReportRepository over a SQLite handle,
// creating the schema if it does not exist.
func NewSQLiteReportRepository(ctx context.Context, db *sql.DB) (ReportRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteReportRepository{db: db}, nil
}

func (r *sqliteReportRepository) Save(ctx context.Context, report *model.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id, data_dir, generated_at) VALUES (?, ?, ?)`,
		report.RunID, report.DataDir, report.GeneratedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range courseTags(report) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO majors (run_id, major, flag, course) VALUES (?, ?, ?, ?)`,
			report.RunID, t.major, t.flag, t.course,
		); err != nil {
			return fmt.Errorf("insert major: %w", err)
		}
	}

	for _, s := range report.Students {
		completed, _ := json.Marshal(s.Completed)
		required, _ := json.Marshal(s.RemainingRequired)
		electives, _ := json.Marshal(s.RemainingElectives)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO students (run_id, cwid, name, major, completed, remaining_required, remaining_electives, tracked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, s.CWID, s.Name, s.Major, string(completed), string(required), string(electives), s.Tracked,
		); err != nil {
			return fmt.Errorf("insert student: %w", err)
		}
	}

	for _, f := range report.Faculty {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO instructors (run_id, cwid, name, department) VALUES (?, ?, ?, ?)`,
			report.RunID, f.CWID, f.Name, f.Department,
		); err != nil {
			return fmt.Errorf("insert instructor: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO grades (run_id, student_cwid, course, grade, instructor_cwid) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare grades: %w", err)
	}
	defer stmt.Close()
	for _, g := range report.Grades {
		if _, err := stmt.ExecContext(ctx, report.RunID, g.StudentCWID, g.Course, g.Grade, g.InstructorCWID); err != nil {
			return fmt.Errorf("insert grade: %w", err)
		}
	}

	for _, d := range report.Diagnostics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (run_id, kind, source, line, subject, message) VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, string(d.Kind), d.Source, d.Line, d.Subject, d.Message,
		); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sqliteReportRepository) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY generated_at DESC LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRunNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *sqliteReportRepository) InstructorSummary(ctx context.Context, runID string) ([]model.InstructorSummary, error) {
	query := `
		SELECT i.cwid, i.name, i.department, g.course, COUNT(*) AS students
		FROM instructors i
		JOIN grades g ON g.run_id = i.run_id AND g.instructor_cwid = i.cwid
		WHERE i.run_id = ?
		GROUP BY i.cwid, i.name, i.department, g.course
		ORDER BY i.cwid, g.course
	`
	rows, err := r.db.QueryContext(ctx, query, runID)
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
