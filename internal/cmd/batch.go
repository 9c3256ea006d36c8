package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/fsops"
	"github.com/quantmind-br/installer-intel/internal/output"
	"github.com/quantmind-br/installer-intel/internal/paths"
	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/quantmind-br/installer-intel/internal/transaction"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// batchResult is the outcome of one installer in a batch run
type batchResult struct {
	Installer string
	PlanPath  string
	Plan      *core.InstallPlan
	Err       error
}

// NewBatchCmd creates the batch command
func NewBatchCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	var (
		outDir    string
		format    string
		noHistory bool
		atomic    bool
	)

	cmd := &cobra.Command{
		Use:   "batch [directory]",
		Short: "Analyze every installer in a directory",
		Long: `Analyze every .msi and .exe file directly inside a directory and write one
plan per installer, named <installer>.installplan.<format>.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationBanner: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			fs := deps.fs()
			out := cmd.OutOrStdout()
			dir := args[0]

			planFormat, err := output.ParseFormat(firstNonEmpty(format, cfg.Output.Format))
			if err != nil {
				return &ExitError{Code: core.ExitInvalidArgs, Err: err}
			}
			if !fsops.IsDir(fs, dir) {
				return &ExitError{Code: core.ExitInvalidArgs, Err: fmt.Errorf("not a directory: %s", dir)}
			}
			if outDir == "" {
				outDir = dir
			}

			registry, err := deps.registry(cfg, log)
			if err != nil {
				return err
			}

			installers, err := fsops.ListFilesWithExt(fs, dir, registry.SupportedExtensions()...)
			if err != nil {
				return &ExitError{Code: core.ExitInvalidArgs, Err: err}
			}
			if len(installers) == 0 {
				ui.Warning.Fprintf(out, "No installers found in %s\n", dir)
				return nil
			}

			log.Info().
				Str("dir", dir).
				Str("out_dir", outDir).
				Int("count", len(installers)).
				Msg("starting batch analysis")

			resolver := paths.NewResolver(cfg)
			journal := transaction.NewJournal(fs, log)
			quiet := isQuiet(cmd)
			bar := ui.NewProgressBar(cmd.ErrOrStderr(), len(installers), "Analyzing", !quiet && ui.IsTerminal(cmd.ErrOrStderr()))

			results := make([]batchResult, 0, len(installers))
			for _, installer := range installers {
				if err := ctx.Err(); err != nil {
					_ = bar.Finish()
					if atomic {
						if rbErr := journal.Rollback(); rbErr != nil {
							log.Error().Err(rbErr).Msg("failed to roll back plan files")
						}
					}
					return err
				}
				bar.Describe(paths.BaseName(installer))

				res := batchResult{
					Installer: installer,
					PlanPath:  resolver.BatchPlanPath(outDir, installer, string(planFormat)),
				}
				res.Plan, res.Err = registry.Analyze(ctx, installer)
				if res.Err == nil {
					res.Err = checkPlanPath(res.PlanPath, outDir)
				}
				if res.Err == nil {
					res.Err = journal.Track(res.PlanPath)
				}
				if res.Err == nil {
					res.Err = output.WritePlan(fs, res.Plan, res.PlanPath, planFormat)
				}
				if res.Err != nil {
					log.Warn().Err(res.Err).Str("installer", installer).Msg("batch item failed")
				}
				results = append(results, res)
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			failed := printBatchResults(out, results, quiet)
			if failed > 0 && atomic {
				if err := journal.Rollback(); err != nil {
					return &ExitError{Code: core.ExitAnalysis, Err: fmt.Errorf("roll back plan files: %w", err)}
				}
				ui.Warning.Fprintln(out, "Rolled back plan files (--atomic)")
			}
			journal.Commit()

			if cfg.History.Enabled && !noHistory && (failed == 0 || !atomic) {
				for _, res := range results {
					if res.Err != nil {
						continue
					}
					if _, err := recordHistory(ctx, cfg, log, fs, res.Plan, res.Installer); err != nil {
						log.Warn().Err(err).Str("installer", res.Installer).Msg("failed to record analysis history")
					}
				}
			}

			if failed > 0 {
				return &ExitError{
					Code: core.ExitAnalysis,
					Err:  fmt.Errorf("%d of %d installers failed", failed, len(results)),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for plan files (default: the input directory)")
	cmd.Flags().StringVar(&format, "format", "", "plan format: json or yaml (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record these analyses in the history database")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "restore the output directory when any installer fails")

	return cmd
}

// printBatchResults renders the result table and returns the failure count
func printBatchResults(w io.Writer, results []batchResult, quiet bool) int {
	failed := 0
	table := newTable(w, "Installer", "Type", "Confidence", "Plan")
	for _, r := range results {
		if r.Err != nil {
			failed++
			table.Append(paths.BaseName(r.Installer), ui.CrossMark+" "+r.Err.Error(), "", "")
			continue
		}
		table.Append(paths.BaseName(r.Installer), r.Plan.InstallerType, ui.ColorizeConfidence(r.Plan.Confidence), r.PlanPath)
	}
	if !quiet {
		table.Render()
		fmt.Fprintln(w)
	}

	ok := len(results) - failed
	fmt.Fprintf(w, "Analyzed %d installers: %d ok, %d failed\n", len(results), ok, failed)
	return failed
}

// checkPlanPath refuses plan paths that resolve outside outDir
func checkPlanPath(planPath, outDir string) error {
	absPlan, err := filepath.Abs(planPath)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	within, err := security.IsPathWithinDirectory(absPlan, absOut)
	if err != nil {
		return err
	}
	if !within {
		return fmt.Errorf("plan path %s escapes output directory %s", planPath, outDir)
	}
	return nil
}
