package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-progress/internal/cache"
	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/loader"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/repository"
	"github.com/stemsi/exstem-progress/internal/source"
)

type recordingPersister struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPersister) Enqueue(_ context.Context, runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, runID)
	return nil
}

type stubRepo struct {
	latest  string
	summary []model.InstructorSummary
	asked   string
}

func (r *stubRepo) Save(context.Context, *model.Report) error { return nil }

func (r *stubRepo) LatestRunID(context.Context) (string, error) {
	if r.latest == "" {
		return "", repository.ErrRunNotFound
	}
	return r.latest, nil
}

func (r *stubRepo) InstructorSummary(_ context.Context, runID string) ([]model.InstructorSummary, error) {
	r.asked = runID
	return r.summary, nil
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		DataDir:         dir,
		StudentsFile:    "students.txt",
		InstructorsFile: "instructors.txt",
		MajorsFile:      "majors.txt",
		GradesFile:      "grades.txt",
		ReportCacheTTL:  time.Minute,
	}
}

func newReportService(t *testing.T, cfg *config.Config, repo repository.ReportRepository, p Persister) *ReportService {
	t.Helper()
	reports := cache.NewMemoryCache(0, time.Minute, zerolog.Nop())
	return NewReportService(cfg, reports, repo, p, zerolog.Nop())
}

func TestReportService_NoReportBeforeRun(t *testing.T) {
	svc := newReportService(t, testConfig("../engine/testdata"), nil, nil)

	_, err := svc.Latest(context.Background())
	require.ErrorIs(t, err, ErrNoReport)
	_, err = svc.Student(context.Background(), "10103")
	require.ErrorIs(t, err, ErrNoReport)
}

func TestReportService_RunCachesAndEnqueues(t *testing.T) {
	p := &recordingPersister{}
	svc := newReportService(t, testConfig("../engine/testdata"), nil, p)
	ctx := context.Background()

	report, err := svc.Run(ctx, model.RunRequest{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Students, 10)
	require.Equal(t, []string{report.RunID}, p.ids)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, report.RunID, latest.RunID)

	byID, err := svc.ByID(ctx, report.RunID)
	require.NoError(t, err)
	require.Equal(t, report.RunID, byID.RunID)

	student, err := svc.Student(ctx, "10103")
	require.NoError(t, err)
	require.Equal(t, "Baldwin, C", student.Name)
	require.Equal(t, []string{"SSW 540", "SSW 555"}, student.RemainingRequired)

	_, err = svc.Student(ctx, "00000")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestReportService_RunStreamsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"students.txt":    "10103\tBaldwin, C\tSFEN\n",
		"instructors.txt": "98765\tEinstein, A\tSFEN\n",
		"majors.txt":      "SFEN\tR\tSSW 567\n",
		"grades.txt":      "10103\tSSW 567\tA\t98765\n99999\tSSW 567\tB\t98765\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	svc := newReportService(t, testConfig(dir), nil, nil)

	var seen []model.Diagnostic
	report, err := svc.Run(context.Background(), model.RunRequest{}, func(d model.Diagnostic) { seen = append(seen, d) })
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, model.DiagUnknownStudent, seen[0].Kind)
	require.Equal(t, seen, report.Diagnostics)
}

func TestReportService_RunErrors(t *testing.T) {
	root := t.TempDir()
	svc := newReportService(t, testConfig(root), nil, nil)

	_, err := svc.Run(context.Background(), model.RunRequest{DataDir: "missing"}, nil)
	require.ErrorIs(t, err, source.ErrSourceUnavailable)

	bad := filepath.Join(root, "bad")
	require.NoError(t, os.Mkdir(bad, 0o755))
	for _, name := range source.DefaultFileNames.List() {
		require.NoError(t, os.WriteFile(filepath.Join(bad, name), []byte("only-one-field\n"), 0o644))
	}
	_, err = svc.Run(context.Background(), model.RunRequest{DataDir: bad}, nil)
	require.ErrorIs(t, err, loader.ErrFormat)

	var ferr *loader.FormatError
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, 1, ferr.Line)

	_, err = svc.Latest(context.Background())
	require.ErrorIs(t, err, ErrNoReport)
}

func TestReportService_DataDirStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	svc := newReportService(t, testConfig(root), nil, nil)

	for _, dir := range []string{"..", "../elsewhere", "term/../../..", t.TempDir(), "/etc"} {
		_, err := svc.Run(context.Background(), model.RunRequest{DataDir: dir}, nil)
		require.ErrorIs(t, err, ErrDataDirOutsideRoot, dir)
	}

	for in, want := range map[string]string{
		"":                       root,
		"term1":                  filepath.Join(root, "term1"),
		"term1/../term2":         filepath.Join(root, "term2"),
		filepath.Join(root, "x"): filepath.Join(root, "x"),
		"..data":                 filepath.Join(root, "..data"),
	} {
		got, err := svc.resolveDataDir(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestReportService_InstructorSummary(t *testing.T) {
	ctx := context.Background()

	svc := newReportService(t, testConfig("../engine/testdata"), nil, nil)
	_, _, err := svc.InstructorSummary(ctx, "")
	require.ErrorIs(t, err, ErrSummaryUnavailable)

	empty := newReportService(t, testConfig("../engine/testdata"), &stubRepo{}, nil)
	_, _, err = empty.InstructorSummary(ctx, "")
	require.ErrorIs(t, err, ErrNoReport)

	repo := &stubRepo{latest: "run-9", summary: []model.InstructorSummary{{CWID: "98765", Course: "SSW 567", Students: 4}}}
	svc = newReportService(t, testConfig("../engine/testdata"), repo, nil)

	runID, rows, err := svc.InstructorSummary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "run-9", runID)
	require.Equal(t, "run-9", repo.asked)
	require.Len(t, rows, 1)

	runID, _, err = svc.InstructorSummary(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "run-1", runID)
	require.Equal(t, "run-1", repo.asked)
}
