package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/database"
	"github.com/stemsi/exstem-progress/internal/engine"
	"github.com/stemsi/exstem-progress/internal/logger"
	"github.com/stemsi/exstem-progress/internal/repository"
	"github.com/stemsi/exstem-progress/internal/source"
)

// sync runs the pipeline once against DATA_DIR and writes the report
// straight to Postgres, for cron jobs that do not run the server.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	names := source.FileNames{
		Students:    cfg.StudentsFile,
		Instructors: cfg.InstructorsFile,
		Majors:      cfg.MajorsFile,
		Grades:      cfg.GradesFile,
	}
	bundle, err := source.OpenDir(cfg.DataDir, names, cfg.SkipHeader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}
	defer bundle.Close()

	started := time.Now()
	res, err := engine.Run(bundle.Sources, engine.Options{
		WarnUnknownMajor: cfg.WarnUnknownMajor,
		SkipMalformed:    cfg.SkipMalformed,
		Log:              log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}

	report := res.Snapshot(uuid.NewString(), cfg.DataDir, started.UTC())
	if err := repository.NewPostgresReportRepository(pool).Save(ctx, report); err != nil {
		log.Fatal().Err(err).Msg("Failed to save report")
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("students", len(report.Students)).
		Int("instructors", len(report.Faculty)).
		Int("grades", len(report.Grades)).
		Int("diagnostics", len(report.Diagnostics)).
		Dur("took", time.Since(started)).
		Msg("Sync complete")
}
