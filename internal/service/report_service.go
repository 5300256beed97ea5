package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/cache"
	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/engine"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/repository"
	"github.com/stemsi/exstem-progress/internal/source"
)

// Report service errors.
var (
	ErrNoReport           = errors.New("no report available")
	ErrStudentNotFound    = errors.New("student not found")
	ErrSummaryUnavailable = errors.New("report store not configured")
	ErrDataDirOutsideRoot = errors.New("data directory is outside the configured root")
)

// Persister schedules a cached run for durable storage.
type Persister interface {
	Enqueue(ctx context.Context, runID string) error
}

// ReportService runs the pipeline and serves its reports.
type ReportService struct {
	cfg       *config.Config
	reports   cache.ReportCache
	repo      repository.ReportRepository
	persister Persister
	log       zerolog.Logger

	// Runs are serialized so report:latest always names the newest run.
	mu  sync.Mutex
	now func() time.Time
}

// NewReportService creates a ReportService. repo and persister may be nil
// when no report store is configured.
func NewReportService(
	cfg *config.Config,
	reports cache.ReportCache,
	repo repository.ReportRepository,
	persister Persister,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		cfg:       cfg,
		reports:   reports,
		repo:      repo,
		persister: persister,
		log:       log.With().Str("component", "report_service").Logger(),
		now:       time.Now,
	}
}

func (s *ReportService) fileNames() source.FileNames {
	return source.FileNames{
		Students:    s.cfg.StudentsFile,
		Instructors: s.cfg.InstructorsFile,
		Majors:      s.cfg.MajorsFile,
		Grades:      s.cfg.GradesFile,
	}
}

// Run loads the record files, builds the report and caches it as the latest.
// onDiagnostic, if non-nil, sees every diagnostic as it is found.
func (s *ReportService) Run(ctx context.Context, req model.RunRequest, onDiagnostic func(model.Diagnostic)) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.resolveDataDir(req.DataDir)
	if err != nil {
		return nil, err
	}
	skipHeader := req.SkipHeader || s.cfg.SkipHeader

	bundle, err := source.OpenDir(dir, s.fileNames(), skipHeader)
	if err != nil {
		return nil, err
	}
	defer bundle.Close()

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("data_dir", dir).Logger()

	started := s.now()
	res, err := engine.Run(bundle.Sources, engine.Options{
		WarnUnknownMajor: s.cfg.WarnUnknownMajor,
		SkipMalformed:    s.cfg.SkipMalformed,
		Log:              log,
		OnDiagnostic:     onDiagnostic,
	})
	if err != nil {
		log.Error().Err(err).Msg("Run failed")
		return nil, err
	}

	report := res.Snapshot(runID, dir, started.UTC())

	if err := s.reports.Set(ctx, config.CacheKey.ReportKey(runID), report, s.cfg.ReportCacheTTL); err != nil {
		return nil, fmt.Errorf("cache report: %w", err)
	}
	if err := s.reports.Set(ctx, config.CacheKey.LatestReportKey(), report, 0); err != nil {
		return nil, fmt.Errorf("cache latest report: %w", err)
	}

	if s.persister != nil {
		if err := s.persister.Enqueue(ctx, runID); err != nil {
			log.Warn().Err(err).Msg("Failed to enqueue report for persistence")
		}
	}

	log.Info().
		Int("students", len(report.Students)).
		Int("instructors", len(report.Faculty)).
		Int("majors", len(report.Majors)).
		Int("diagnostics", len(report.Diagnostics)).
		Dur("took", time.Since(started)).
		Msg("Run completed")

	return report, nil
}

// resolveDataDir places a requested directory under the configured data
// root. Relative paths are joined to the root; absolute ones must lie within it.
func (s *ReportService) resolveDataDir(requested string) (string, error) {
	if requested == "" {
		return s.cfg.DataDir, nil
	}

	root, err := filepath.Abs(s.cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	dir := requested
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrDataDirOutsideRoot, requested)
	}
	return dir, nil
}

// Latest returns the most recent report.
func (s *ReportService) Latest(ctx context.Context) (*model.Report, error) {
	return s.get(ctx, config.CacheKey.LatestReportKey())
}

// ByID returns the cached report of a run.
func (s *ReportService) ByID(ctx context.Context, runID string) (*model.Report, error) {
	return s.get(ctx, config.CacheKey.ReportKey(runID))
}

func (s *ReportService) get(ctx context.Context, key string) (*model.Report, error) {
	report, ok, err := s.reports.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if !ok {
		return nil, ErrNoReport
	}
	return report, nil
}

// Student returns a student's progress from the latest report.
func (s *ReportService) Student(ctx context.Context, cwid string) (*model.StudentRow, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	row := report.FindStudent(cwid)
	if row == nil {
		return nil, ErrStudentNotFound
	}
	return row, nil
}

// InstructorSummary queries the persisted summary for runID, or for the
// latest persisted run when runID is empty.
func (s *ReportService) InstructorSummary(ctx context.Context, runID string) (string, []model.InstructorSummary, error) {
	if s.repo == nil {
		return "", nil, ErrSummaryUnavailable
	}

	if runID == "" {
		id, err := s.repo.LatestRunID(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrRunNotFound) {
				return "", nil, ErrNoReport
			}
			return "", nil, err
		}
		runID = id
	}

	summary, err := s.repo.InstructorSummary(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	return runID, summary, nil
}
