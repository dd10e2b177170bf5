package commands

import (
	"log/slog"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/export"
	"anscrutins/internal/store"
	"anscrutins/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var exportDb *string

func init() {
	exportDb = exportCmd.Flags().String("db", "", "The sqlite database to export to, overrides export.file.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export --legislature <n> [--db <path/to/output.db>]",
	Short: "Loads the stored votes, analyses and amendments of a legislature into a database.",
	Run: func(cmd *cobra.Command, args []string) {
		leg := requireLegislature()

		database := cfg.Export
		if *exportDb != "" {
			database = export.Database{File: *exportDb}
		}
		db, err := database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		exporter := export.NewExporter(db, store.New(cfg.DataDir), telemetry.SlogAPI{})
		report, err := exporter.Export(cmd.Context(), leg)
		if err != nil {
			db.Close()
			serviceutil.Fatal("failed to export", err)
		}
		slog.Info(
			"export finished",
			"legislature", leg,
			"votes", report.Votes,
			"analyses", report.Analyses,
			"ballots", report.Ballots,
			"amendments", report.Amendments,
		)
	},
}
