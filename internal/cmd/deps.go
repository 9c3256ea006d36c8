package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/installer-intel/internal/analyzers"
	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
	"github.com/quantmind-br/installer-intel/internal/msi"
	"github.com/quantmind-br/installer-intel/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Deps bundles the collaborators commands can have injected; zero values
// fall back to the operating system
type Deps struct {
	Fs     afero.Fs
	Runner helpers.CommandRunner
	Reader msi.PropertyReader
}

func (d Deps) fs() afero.Fs {
	if d.Fs != nil {
		return d.Fs
	}
	return afero.NewOsFs()
}

func (d Deps) runner() helpers.CommandRunner {
	if d.Runner != nil {
		return d.Runner
	}
	return helpers.NewOSCommandRunner()
}

func (d Deps) reader(cfg *config.Config, log *zerolog.Logger) (msi.PropertyReader, error) {
	if d.Reader != nil {
		return d.Reader, nil
	}
	return msi.NewReader(cfg.MSI.Reader, d.runner(), log)
}

// registry builds the analyzer registry for cfg
func (d Deps) registry(cfg *config.Config, log *zerolog.Logger) (*analyzers.Registry, error) {
	reader, err := d.reader(cfg, log)
	if err != nil {
		return nil, &ExitError{Code: core.ExitInvalidArgs, Err: err}
	}
	opts := heuristics.ExtractOptions{
		MinLen:   cfg.Analysis.MinStringLength,
		MaxCount: cfg.Analysis.MaxStrings,
	}
	if d.Fs == nil {
		return analyzers.NewRegistry(cfg, log, reader), nil
	}
	return analyzers.NewRegistryWithDeps(d.Fs, log, opts, reader), nil
}

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps a command error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return core.ExitSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ui.ErrCancelled) {
		return core.ExitInterrupted
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return core.ExitGeneral
}

// analysisError classifies an analyzer error: bad input or failed analysis
func analysisError(err error) error {
	switch {
	case errors.Is(err, analyzers.ErrInvalidPath),
		errors.Is(err, analyzers.ErrFileNotFound),
		errors.Is(err, analyzers.ErrUnsupportedType),
		errors.Is(err, analyzers.ErrIsDirectory):
		return &ExitError{Code: core.ExitInvalidArgs, Err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &ExitError{Code: core.ExitAnalysis, Err: fmt.Errorf("analysis failed: %w", err)}
	}
}
