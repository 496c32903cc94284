package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ttlearn/adapters/db"
	"ttlearn/adapters/excel"
	"ttlearn/app"
	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/run"
	"ttlearn/internal/config"
	"ttlearn/internal/settings"
	"ttlearn/ports"
)

func main() {
	// Values from .env participate in config.Load for commands that need it.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ttlearn",
		Short: "Learning effect analysis over trial data",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newHistoryCmd(),
		newShowCmd(),
		newExportCmd(),
		newReportCmd(),
		newSettingsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		mode        string
		dataRoot    string
		timelineDir string
		outcome     string
		nTrials     int
		exportPath  string
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the learning effect analysis over a trial data tree",
		Long: `Compare each variable's first and last trial blocks per condition and
report which differences are statistically significant.

Paths left unset fall back to the saved defaults (see "ttlearn settings").

Example: ttlearn analyze --mode timeline --data-root ./data --timeline-dir ./timelines --n 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			defaults, err := store.Load()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read saved defaults: %v\n", err)
			}
			if dataRoot == "" {
				dataRoot = defaults.DataRoot
			}
			if timelineDir == "" {
				timelineDir = defaults.TimelineDir
			}

			var repo ports.RunRepository
			if !noHistory {
				var conn *sqlx.DB
				repo, conn, err = openHistory(cmd.Context())
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
					repo = nil
				} else {
					defer conn.Close()
				}
			}

			svc := app.NewAnalysisService(excel.NewReader(), repo)
			rn, err := svc.Run(cmd.Context(), app.AnalysisRequest{
				Mode:        mode,
				DataRoot:    dataRoot,
				NTrials:     nTrials,
				TimelineDir: timelineDir,
				Outcome:     outcome,
				LogFn:       func(line string) { fmt.Println(line) },
			})
			if err != nil {
				return err
			}

			if repo != nil {
				fmt.Printf("\nRun recorded as %s\n", rn.ID)
			}
			if exportPath != "" {
				if len(rn.Rows) == 0 {
					return fmt.Errorf("there are no results to export")
				}
				if err := excel.ExportRows(exportPath, rn.Rows); err != nil {
					return err
				}
				fmt.Printf("Results exported to %s\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "timeline", "Analysis mode: timeline or outcome")
	cmd.Flags().StringVar(&dataRoot, "data-root", "", "Trial data root directory")
	cmd.Flags().StringVar(&timelineDir, "timeline-dir", "", "Directory containing timeline files (timeline mode)")
	cmd.Flags().StringVar(&outcome, "outcome", "Win", "Outcome folder to analyze: Win or Loss (outcome mode)")
	cmd.Flags().IntVar(&nTrials, "n", 10, "Number of trials in each block")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the result table to this file (.csv or .xlsx)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the run in history")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, conn, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			runs, err := repo.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			fmt.Printf("%-36s  %-19s  %-8s  %-9s  %s\n", "ID", "CREATED", "MODE", "STATUS", "PARTICIPANTS")
			for _, rn := range runs {
				fmt.Printf("%-36s  %-19s  %-8s  %-9s  %d processed, %d skipped\n",
					rn.ID, rn.CreatedAt.Time().Format("2006-01-02 15:04:05"),
					rn.Mode, rn.Status, rn.Processed, rn.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one recorded run with its result table",
		Long:  `Show a run by ID. Use "latest" for the most recent run.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, conn, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			rn, err := resolveRun(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			printRun(*rn)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run-id] [path]",
		Short: "Write a recorded run's result table to a .csv or .xlsx file",
		Long: `Export a run's result table. Use "latest" for the most recent run.

Example: ttlearn export latest results.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, conn, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			rn, err := resolveRun(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			if len(rn.Rows) == 0 {
				return fmt.Errorf("there are no results to export")
			}
			if err := excel.ExportRows(args[1], rn.Rows); err != nil {
				return err
			}
			fmt.Printf("Results exported to %s\n", args[1])
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print a recorded run's Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, conn, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			rn, err := resolveRun(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			fmt.Print(app.BuildMarkdownReport(*rn))
			return nil
		},
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved default paths",
	}
	cmd.AddCommand(newSettingsShowCmd(), newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved default paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			saved, err := store.Load()
			if err != nil {
				return err
			}

			fmt.Printf("Settings file: %s\n", store.Path())
			fmt.Printf("Data root:     %s\n", orUnset(saved.DataRoot))
			fmt.Printf("Timeline dir:  %s\n", orUnset(saved.TimelineDir))
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var dataRoot, timelineDir string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save default paths for future analyze runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			saved, err := store.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("data-root") {
				saved.DataRoot = dataRoot
			}
			if cmd.Flags().Changed("timeline-dir") {
				saved.TimelineDir = timelineDir
			}

			if saved.DataRoot != "" {
				if info, err := os.Stat(saved.DataRoot); err != nil || !info.IsDir() {
					return fmt.Errorf("cannot save: data root directory does not exist")
				}
			}

			if err := store.Save(saved); err != nil {
				return err
			}
			fmt.Println("Default paths have been set.")
			return nil
		},
	}

	cmd.Flags().StringVar(&dataRoot, "data-root", "", "Default trial data root directory")
	cmd.Flags().StringVar(&timelineDir, "timeline-dir", "", "Default timeline directory")
	return cmd
}

// openSettings builds the settings store, honoring a SETTINGS_PATH override
// from the environment.
func openSettings() (*settings.FileStore, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	return settings.NewFileStore(appConfig.Settings.Path)
}

// openHistory connects to the configured run history database and applies
// migrations.
func openHistory(ctx context.Context) (ports.RunRepository, *sqlx.DB, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Connect(appConfig.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.NewMigrationRunner().Run(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return db.NewRunRepository(conn), conn, nil
}

func resolveRun(ctx context.Context, repo ports.RunRepository, arg string) (*run.Run, error) {
	if arg == "latest" {
		return repo.LatestRun(ctx)
	}
	id, err := core.ParseRunID(arg)
	if err != nil {
		return nil, err
	}
	return repo.GetRun(ctx, id)
}

func printRun(rn run.Run) {
	fmt.Printf("Run %s (%s)\n", rn.ID, rn.Status)
	fmt.Printf("Created:      %s\n", rn.CreatedAt.Time().Format("2006-01-02 15:04:05"))
	fmt.Printf("Mode:         %s\n", rn.Mode)
	fmt.Printf("Data root:    %s\n", rn.DataRoot)
	if rn.TimelineDir != "" {
		fmt.Printf("Timeline dir: %s\n", rn.TimelineDir)
	}
	if rn.Outcome != "" {
		fmt.Printf("Outcome:      %s\n", rn.Outcome)
	}
	fmt.Printf("Block size:   %d trials\n", rn.NTrials)
	fmt.Printf("Participants: %d processed, %d skipped\n", rn.Processed, rn.Skipped)
	if rn.Error != "" {
		fmt.Printf("Error:        %s\n", rn.Error)
	}

	if len(rn.Rows) == 0 {
		fmt.Println("\nNo result rows.")
		return
	}

	fmt.Println()
	for _, row := range rn.Rows {
		fmt.Printf("Cond: %-20s | Var: %-30s | Test: %-15s | p=%.4f\n",
			row.Condition, row.Variable, row.Test, row.PValue)
	}
	fmt.Println()
	for _, line := range result.Findings(rn.Rows, rn.NTrials) {
		fmt.Println(line)
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
