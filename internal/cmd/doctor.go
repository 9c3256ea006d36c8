package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/db"
	"github.com/quantmind-br/installer-intel/internal/fsops"
	"github.com/quantmind-br/installer-intel/internal/msi"
	"github.com/quantmind-br/installer-intel/internal/paths"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check MSI readers, directories and the history database",
		Long: `Check which MSI property readers work on this machine, that the data
directories are writable and that the history database opens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resolver := paths.NewResolver(cfg)

			ui.PrintHeader("System Diagnostics")
			fmt.Fprintln(ui.Stdout)

			var issues []string
			var warnings []string

			// 1. MSI property readers
			ui.PrintSubheader("MSI Property Readers")
			readers := doctorReaders(log, deps)
			anyAvailable := false
			for _, r := range readers {
				if r.Available() {
					anyAvailable = true
					ui.PrintSuccess("%s: available", r.Name())
				} else {
					ui.PrintWarning("%s: not available", r.Name())
				}
			}
			if !anyAvailable {
				warnings = append(warnings, "No MSI property reader available; MSI plans will lack ProductCode")
			}
			ui.PrintKeyValue("Configured reader", cfg.MSI.Reader)
			if registry, err := deps.registry(cfg, log); err != nil {
				issues = append(issues, err.Error())
			} else {
				ui.PrintKeyValue("Analyzers", strings.Join(registry.Names(), ", "))
				ui.PrintKeyValue("Extensions", strings.Join(registry.SupportedExtensions(), ", "))
			}

			fmt.Fprintln(ui.Stdout)

			// 2. Directories
			ui.PrintSubheader("Directory Structure")
			osFs := afero.NewOsFs()
			dirs := []struct {
				path string
				name string
			}{
				{resolver.DataDir(), "Data directory"},
				{filepath.Dir(resolver.DBFile()), "Database directory"},
				{filepath.Dir(resolver.LogFile()), "Log directory"},
			}

			for _, dir := range dirs {
				if err := checkDirectory(osFs, dir.path, fix); err != nil {
					ui.PrintError("%s: %v (%s)", dir.name, err, dir.path)
					issues = append(issues, fmt.Sprintf("Directory not usable: %s", dir.path))
				} else {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				}
			}

			fmt.Fprintln(ui.Stdout)

			// 3. Database
			ui.PrintSubheader("Database")
			if !cfg.History.Enabled {
				ui.PrintInfo("History disabled (history.enabled = false)")
			} else if !fsops.Exists(osFs, resolver.DBFile()) && !fix {
				ui.PrintInfo("Database not created yet (%s)", resolver.DBFile())
			} else if count, err := checkDatabase(ctx, resolver.DBFile()); err != nil {
				ui.PrintError("Database: NOT ACCESSIBLE")
				issues = append(issues, fmt.Sprintf("Cannot open database: %v", err))
			} else {
				ui.PrintSuccess("Database: accessible (%s)", resolver.DBFile())
				ui.PrintInfo("Recorded analyses: %d", count)
			}

			fmt.Fprintln(ui.Stdout)

			// 4. Environment
			ui.PrintSubheader("Environment")
			checkEnvironment(deps)

			fmt.Fprintln(ui.Stdout)

			// Summary
			ui.PrintHeader("Summary")
			fmt.Fprintln(ui.Stdout)

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
				fmt.Fprintln(ui.Stdout)
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			log.Debug().Int("issues", len(issues)).Int("warnings", len(warnings)).Msg("doctor finished")

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "create missing directories and the database")

	return cmd
}

// doctorReaders lists the readers to probe; a chain is probed link by link
func doctorReaders(log *zerolog.Logger, deps Deps) []msi.PropertyReader {
	reader := deps.Reader
	if reader == nil {
		var err error
		reader, err = msi.NewReader(msi.KindAuto, deps.runner(), log)
		if err != nil {
			return nil
		}
	}
	if chain, ok := reader.(*msi.Chain); ok {
		return chain.Readers()
	}
	return []msi.PropertyReader{reader}
}

// checkDirectory checks that path is a writable directory, creating it when fix is set
func checkDirectory(fs afero.Fs, path string, fix bool) error {
	if !fsops.Exists(fs, path) {
		if !fix {
			return fmt.Errorf("missing (run with --fix)")
		}
		if err := fsops.EnsureDir(fs, path, 0o755); err != nil {
			return err
		}
	}
	if !fsops.IsDir(fs, path) {
		return fmt.Errorf("not a directory")
	}
	return fsops.CheckWritable(fs, path)
}

// checkDatabase opens the history database and counts recorded analyses
func checkDatabase(ctx context.Context, dbPath string) (int, error) {
	database, err := db.New(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer database.Close()

	if err := database.Ping(ctx); err != nil {
		return 0, err
	}
	analyses, err := database.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(analyses), nil
}

// checkEnvironment reports the platform and the tools the readers rely on
func checkEnvironment(deps Deps) {
	ui.PrintKeyValue("Platform", runtime.GOOS+"/"+runtime.GOARCH)

	if shell := deps.runner().FirstAvailable("powershell", "pwsh"); shell != "" {
		ui.PrintSuccess("PowerShell: %s", shell)
	} else {
		ui.PrintInfo("PowerShell: not found")
	}

	for _, name := range []string{"NO_COLOR", "CI"} {
		if value := os.Getenv(name); value != "" {
			ui.PrintInfo("%s: %s", name, value)
		}
	}
}
