package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/db"
	"github.com/quantmind-br/installer-intel/internal/fsops"
	"github.com/quantmind-br/installer-intel/internal/output"
	"github.com/quantmind-br/installer-intel/internal/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	var (
		outPath   string
		format    string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [installer]",
		Short: "Analyze an installer and write its install plan",
		Long: `Analyze a .msi or .exe installer without running it and write an install plan
with silent install/uninstall candidates and detection hints.`,
		Example: `  installer-intel analyze setup.exe
  installer-intel analyze product.msi -o plans/product.yaml`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationBanner: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			fs := deps.fs()
			out := cmd.OutOrStdout()
			installerPath := args[0]

			def, err := output.ParseFormat(firstNonEmpty(format, cfg.Output.Format))
			if err != nil {
				return &ExitError{Code: core.ExitInvalidArgs, Err: err}
			}
			planFormat := def
			planPath := outPath
			switch {
			case planPath == "":
				// default destination follows the chosen format
				planPath = output.PathForFormat(paths.NewResolver(cfg).DefaultPlanPath(), def)
			case format == "":
				planFormat = output.FormatForPath(planPath, def)
			}

			registry, err := deps.registry(cfg, log)
			if err != nil {
				return err
			}

			log.Info().
				Str("installer", installerPath).
				Str("out", planPath).
				Str("format", string(planFormat)).
				Msg("starting analysis")

			plan, err := registry.Analyze(ctx, installerPath)
			if err != nil {
				return analysisError(err)
			}

			if err := output.WritePlan(fs, plan, planPath, planFormat); err != nil {
				return fmt.Errorf("write plan: %w", err)
			}

			if !isQuiet(cmd) {
				printPlanSummary(out, plan)
				fmt.Fprintln(out)
			}

			if cfg.History.Enabled && !noHistory {
				if id, err := recordHistory(ctx, cfg, log, fs, plan, installerPath); err != nil {
					log.Warn().Err(err).Str("installer", installerPath).Msg("failed to record analysis history")
				} else {
					log.Debug().Str("analysis_id", id).Msg("analysis recorded")
				}
			}

			written := planPath
			if abs, err := filepath.Abs(planPath); err == nil {
				written = abs
			}
			fmt.Fprintf(out, "Wrote: %s\n", written)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "plan output path (default from config, installplan.json or installplan.yaml)")
	cmd.Flags().StringVar(&format, "format", "", "plan format: json or yaml (default from extension or config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this analysis in the history database")

	return cmd
}

// recordHistory stores plan in the history database and returns the new
// analysis ID
func recordHistory(ctx context.Context, cfg *config.Config, log *zerolog.Logger, fs afero.Fs, plan *core.InstallPlan, installerPath string) (string, error) {
	sum, err := fsops.SHA256File(fs, installerPath)
	if err != nil {
		return "", err
	}

	database, err := openDB(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer database.Close()

	if previous, err := database.FindBySHA256(ctx, sum); err == nil && len(previous) > 0 {
		log.Debug().
			Str("sha256", sum).
			Int("previous", len(previous)).
			Str("last_id", previous[0].AnalysisID).
			Msg("installer analyzed before")
	}

	record := db.NewAnalysis(plan, sum)
	if err := database.Create(ctx, record); err != nil {
		return "", err
	}
	log.Debug().Str("db", database.Path()).Str("analysis_id", record.AnalysisID).Msg("analysis stored")
	return record.AnalysisID, nil
}

// openDB opens the history database, creating its directory first
func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	dbPath := paths.NewResolver(cfg).DBFile()
	if err := fsops.EnsureDir(afero.NewOsFs(), filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	database, err := db.New(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
