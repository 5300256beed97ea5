package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/logger"
	"github.com/stemsi/exstem-progress/migrations"
)

func main() {
	dbURL := flag.String("database", "", "database URL (defaults to DATABASE_URL)")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if *dbURL == "" {
		*dbURL = cfg.DatabaseURL
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, *dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrations")
	}
	defer m.Close()

	if err := run(m, args, log); err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}
}

func run(m *migrate.Migrate, args []string, log zerolog.Logger) error {
	switch args[0] {
	case "up":
		return report(m, log, ignoreNoChange(m.Up()))
	case "down":
		return report(m, log, ignoreNoChange(m.Down()))
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return report(m, log, ignoreNoChange(m.Steps(n)))
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return report(m, log, m.Force(v))
	case "version":
		return report(m, log, nil)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// report logs the schema version after a successful command.
func report(m *migrate.Migrate, log zerolog.Logger, err error) error {
	if err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Msg("No migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", args[0], args[1])
	}
	return n, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-database URL] <up|down|steps N|force V|version>")
	flag.PrintDefaults()
}
