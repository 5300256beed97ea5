package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stemsi/exstem-progress/internal/database"
	"github.com/stemsi/exstem-progress/internal/logger"
	"github.com/stemsi/exstem-progress/internal/render"
	"github.com/stemsi/exstem-progress/internal/repository"
)

func newSummaryCmd(v *viper.Viper) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the stored instructor summary of a persisted run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.SetupWriter(v.GetString("log_level"), "pretty", cmd.ErrOrStderr())

			db, err := database.NewSQLite(ctx, v.GetString("sqlite_path"), log)
			if err != nil {
				return err
			}
			defer db.Close()

			repo, err := repository.NewSQLiteReportRepository(ctx, db)
			if err != nil {
				return err
			}

			if runID == "" {
				if runID, err = repo.LatestRunID(ctx); err != nil {
					if errors.Is(err, repository.ErrRunNotFound) {
						return errors.New("no persisted runs; run with --persist first")
					}
					return err
				}
			}

			rows, err := repo.InstructorSummary(ctx, runID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", runID)
			render.NewPrinter(cmd.OutOrStdout()).InstructorSummary(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run to summarize (default: latest)")
	return cmd
}
