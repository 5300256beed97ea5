package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stemsi/exstem-progress/internal/database"
	"github.com/stemsi/exstem-progress/internal/engine"
	"github.com/stemsi/exstem-progress/internal/logger"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/render"
	"github.com/stemsi/exstem-progress/internal/repository"
	"github.com/stemsi/exstem-progress/internal/source"
	"github.com/stemsi/exstem-progress/internal/watcher"
)

var version = "dev"

// options is the resolved CLI configuration: flags over env over config file.
type options struct {
	DataDir          string `mapstructure:"data_dir"`
	StudentsFile     string `mapstructure:"students_file"`
	InstructorsFile  string `mapstructure:"instructors_file"`
	MajorsFile       string `mapstructure:"majors_file"`
	GradesFile       string `mapstructure:"grades_file"`
	SkipHeader       bool   `mapstructure:"skip_header"`
	WarnUnknownMajor bool   `mapstructure:"warn_unknown_major"`
	SkipMalformed    bool   `mapstructure:"skip_malformed"`
	Format           string `mapstructure:"format"`
	Persist          bool   `mapstructure:"persist"`
	SQLitePath       string `mapstructure:"sqlite_path"`
	Watch            bool   `mapstructure:"watch"`
	LogLevel         string `mapstructure:"log_level"`
}

func (o options) fileNames() source.FileNames {
	return source.FileNames{
		Students:    o.StudentsFile,
		Instructors: o.InstructorsFile,
		Majors:      o.MajorsFile,
		Grades:      o.GradesFile,
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "progress-report",
		Short: "Summarize student degree progress from tab-separated record files",
		Long: `progress-report reads the students, instructors, majors and grades files of a
data directory, reports each student's completed and remaining courses and
each instructor's course enrollment, and prints any records it had to skip.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolve(v)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	pf.StringP("dir", "d", "./data", "data directory holding the record files")
	pf.String("sqlite", "progress.db", "SQLite report store path")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")

	f := cmd.Flags()
	f.StringP("format", "f", string(render.FormatTable), "output format: table, json or yaml")
	f.Bool("skip-header", false, "skip the first line of every record file")
	f.Bool("warn-unknown-major", false, "warn about students whose major has no course tags")
	f.Bool("skip-malformed", false, "skip a record file with a bad line instead of failing")
	f.Bool("persist", false, "save the report to the SQLite store")
	f.BoolP("watch", "w", false, "re-run whenever a record file changes")
	f.String("students", "students.txt", "students file name")
	f.String("instructors", "instructors.txt", "instructors file name")
	f.String("majors", "majors.txt", "majors file name")
	f.String("grades", "grades.txt", "grades file name")

	bind := map[string]string{
		"data_dir":           "dir",
		"sqlite_path":        "sqlite",
		"log_level":          "log-level",
		"format":             "format",
		"skip_header":        "skip-header",
		"warn_unknown_major": "warn-unknown-major",
		"skip_malformed":     "skip-malformed",
		"persist":            "persist",
		"watch":              "watch",
		"students_file":      "students",
		"instructors_file":   "instructors",
		"majors_file":        "majors",
		"grades_file":        "grades",
	}
	for key, flag := range bind {
		fl := f.Lookup(flag)
		if fl == nil {
			fl = pf.Lookup(flag)
		}
		_ = v.BindPFlag(key, fl)
	}

	cmd.AddCommand(newSummaryCmd(v))
	return cmd
}

// loadConfig layers an optional yaml file and the process environment under
// the flags. Env names match the server's (DATA_DIR, SKIP_HEADER, ...).
func loadConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func resolve(v *viper.Viper) (options, error) {
	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("decode config: %w", err)
	}
	if _, err := render.ParseFormat(opts.Format); err != nil {
		return opts, err
	}
	return opts, nil
}

func runReport(ctx context.Context, out, errOut io.Writer, opts options) error {
	log := logger.SetupWriter(opts.LogLevel, "pretty", errOut)
	format, _ := render.ParseFormat(opts.Format)
	printer := render.NewPrinter(out)

	var repo repository.ReportRepository
	if opts.Persist {
		db, err := database.NewSQLite(ctx, opts.SQLitePath, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if repo, err = repository.NewSQLiteReportRepository(ctx, db); err != nil {
			return err
		}
	}

	once := func() error {
		report, err := buildReport(opts, log)
		if err != nil {
			return err
		}
		if err := printer.Report(report, format); err != nil {
			return err
		}
		if repo == nil {
			return nil
		}
		if err := repo.Save(ctx, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		summary, err := repo.InstructorSummary(ctx, report.RunID)
		if err != nil {
			return fmt.Errorf("instructor summary: %w", err)
		}
		if format == render.FormatTable {
			printer.InstructorSummary(summary)
		}
		return nil
	}

	if err := once(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return watch(ctx, opts, log, once)
}

func watch(ctx context.Context, opts options, log zerolog.Logger, run func() error) error {
	w, err := watcher.New(watcher.Config{
		Dir:   opts.DataDir,
		Files: opts.fileNames().List(),
		Log:   log,
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-onChange:
			if err := run(); err != nil {
				log.Error().Err(err).Msg("Run failed")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func buildReport(opts options, log zerolog.Logger) (*model.Report, error) {
	bundle, err := source.OpenDir(opts.DataDir, opts.fileNames(), opts.SkipHeader)
	if err != nil {
		return nil, err
	}
	defer bundle.Close()

	started := time.Now()
	res, err := engine.Run(bundle.Sources, engine.Options{
		WarnUnknownMajor: opts.WarnUnknownMajor,
		SkipMalformed:    opts.SkipMalformed,
		Log:              log,
	})
	if err != nil {
		return nil, err
	}
	return res.Snapshot(uuid.NewString(), opts.DataDir, started.UTC()), nil
}
