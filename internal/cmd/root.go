package cmd

import (
	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// annotationBanner marks commands that greet the user with the banner
const annotationBanner = "banner"

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	return NewRootCmdWithDeps(cfg, log, version, Deps{})
}

// NewRootCmdWithDeps creates the root command with injected dependencies (for tests)
func NewRootCmdWithDeps(cfg *config.Config, log *zerolog.Logger, version string, deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installer-intel",
		Short: "Static triage of Windows installers",
		Long: `installer-intel inspects .msi and .exe installers without running them and
writes an install plan: the likely installer technology, silent install and
uninstall command candidates, and detection hints, each with a confidence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Annotations[annotationBanner] == "" {
				return
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			ui.MaybePrintBanner(cmd.OutOrStdout(), version, quiet)
		},
	}
	cmd.SetVersionTemplate("installer-intel version {{.Version}}\n")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "suppress banner and summaries")

	cmd.AddCommand(NewAnalyzeCmd(cfg, log, deps))
	cmd.AddCommand(NewBatchCmd(cfg, log, deps))
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewSignaturesCmd())
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log, deps))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return quiet
}
