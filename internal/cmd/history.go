package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/db"
	"github.com/quantmind-br/installer-intel/internal/paths"
	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// historyEntry is the JSON view of a recorded analysis
type historyEntry struct {
	AnalysisID    string            `json:"analysis_id"`
	InputPath     string            `json:"input_path"`
	SHA256        string            `json:"sha256"`
	FileType      core.FileType     `json:"file_type"`
	InstallerType string            `json:"installer_type"`
	Confidence    float64           `json:"confidence"`
	AnalyzedAt    time.Time         `json:"analyzed_at"`
	Plan          *core.InstallPlan `json:"plan,omitempty"`
}

func newHistoryEntry(a *db.Analysis, withPlan bool) historyEntry {
	e := historyEntry{
		AnalysisID:    a.AnalysisID,
		InputPath:     a.InputPath,
		SHA256:        a.SHA256,
		FileType:      a.FileType,
		InstallerType: a.InstallerType,
		Confidence:    a.Confidence,
		AnalyzedAt:    a.AnalyzedAt,
	}
	if withPlan {
		e.Plan = a.Plan
	}
	return e
}

// NewHistoryCmd creates the history command and its subcommands
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded analyses",
		Long:  `List, show, delete and clear the analyses recorded in the history database.`,
	}

	cmd.AddCommand(newHistoryListCmd(cfg, log))
	cmd.AddCommand(newHistoryShowCmd(cfg, log))
	cmd.AddCommand(newHistoryDeleteCmd(cfg, log))
	cmd.AddCommand(newHistoryClearCmd(cfg, log))

	return cmd
}

func newHistoryListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			database, err := openDB(ctx, cfg)
			if err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}
			defer database.Close()

			analyses, err := database.List(ctx, limit)
			if err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}
			log.Debug().Int("count", len(analyses)).Msg("listed analyses")

			if jsonOutput {
				entries := make([]historyEntry, 0, len(analyses))
				for i := range analyses {
					entries = append(entries, newHistoryEntry(&analyses[i], false))
				}
				return writeJSON(out, entries)
			}

			if len(analyses) == 0 {
				ui.Info.Fprintln(out, "No analyses recorded")
				return nil
			}

			table := newTable(out, "ID", "Installer", "Type", "Confidence", "Analyzed")
			for _, a := range analyses {
				table.Append(
					shortID(a.AnalysisID),
					paths.BaseName(a.InputPath),
					a.InstallerType,
					ui.ColorizeConfidence(a.Confidence),
					humanize.Time(a.AnalyzedAt),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of analyses to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func newHistoryShowCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [analysis-id]",
		Short: "Show a recorded analysis",
		Long:  `Show a recorded analysis by ID or unique ID prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			a, err := lookupAnalysis(ctx, cfg, args[0])
			if err != nil {
				return err
			}
			log.Debug().Str("analysis_id", a.AnalysisID).Msg("showing analysis")

			if jsonOutput {
				return writeJSON(out, newHistoryEntry(a, true))
			}

			ui.Bold.Fprint(out, "Analysis: ")
			fmt.Fprintln(out, a.AnalysisID)
			ui.Bold.Fprint(out, "Analyzed: ")
			fmt.Fprintf(out, "%s (%s)\n", a.AnalyzedAt.Local().Format(time.RFC3339), humanize.Time(a.AnalyzedAt))
			ui.Bold.Fprint(out, "SHA-256:  ")
			fmt.Fprintln(out, a.SHA256)
			fmt.Fprintln(out)
			printPlanSummary(out, a.Plan)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func newHistoryDeleteCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [analysis-id]",
		Short: "Delete a recorded analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := lookupAnalysis(ctx, cfg, args[0])
			if err != nil {
				return err
			}

			database, err := openDB(ctx, cfg)
			if err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}
			defer database.Close()

			if err := database.Delete(ctx, a.AnalysisID); err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}

			log.Info().Str("analysis_id", a.AnalysisID).Msg("analysis deleted")
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", ui.CheckMark, a.AnalysisID)
			return nil
		},
	}
}

func newHistoryClearCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			if !yes {
				confirmed, err := ui.ConfirmDangerousAction("clear", "all recorded analyses")
				if err != nil {
					return err
				}
				if !confirmed {
					ui.Info.Fprintln(out, "Nothing cleared")
					return nil
				}
			}

			database, err := openDB(ctx, cfg)
			if err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}
			defer database.Close()

			n, err := database.Clear(ctx)
			if err != nil {
				return &ExitError{Code: core.ExitDatabase, Err: err}
			}

			log.Info().Int64("removed", n).Msg("history cleared")
			fmt.Fprintf(out, "%s Removed %d analyses\n", ui.CheckMark, n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// lookupAnalysis resolves id (or a unique prefix) to a recorded analysis
func lookupAnalysis(ctx context.Context, cfg *config.Config, id string) (*db.Analysis, error) {
	if err := security.ValidateAnalysisID(id); err != nil {
		return nil, &ExitError{Code: core.ExitInvalidArgs, Err: err}
	}

	database, err := openDB(ctx, cfg)
	if err != nil {
		return nil, &ExitError{Code: core.ExitDatabase, Err: err}
	}
	defer database.Close()

	a, err := database.Get(ctx, id)
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrAmbiguousID):
		return nil, &ExitError{Code: core.ExitInvalidArgs, Err: err}
	case err != nil:
		return nil, &ExitError{Code: core.ExitDatabase, Err: err}
	}
	return a, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
