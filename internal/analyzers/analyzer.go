// Package analyzers turns an installer file into an InstallPlan. Analyzers are
// selected by file extension only; content sniffing can add notes but never
// changes the choice.
package analyzers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
	"github.com/quantmind-br/installer-intel/internal/msi"
	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Input errors, returned before any plan exists
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrIsDirectory     = errors.New("path is a directory")
	ErrInvalidPath     = errors.New("invalid input path")
)

// Analyzer interface that all installer analyzers must implement
type Analyzer interface {
	// Name returns the analyzer name
	Name() string

	// Extensions lists the lower-case file extensions handled, with the dot
	Extensions() []string

	// Analyze builds a plan for the file at path
	Analyze(ctx context.Context, path string) (*core.InstallPlan, error)
}

// Base holds dependencies shared by the concrete analyzers
type Base struct {
	Fs  afero.Fs
	Log *zerolog.Logger
}

// Registry dispatches a path to the analyzer registered for its extension
type Registry struct {
	analyzers []Analyzer
	fs        afero.Fs
	logger    *zerolog.Logger
}

// NewRegistry creates a registry with the MSI and EXE analyzers on the OS
// filesystem
func NewRegistry(cfg *config.Config, log *zerolog.Logger, reader msi.PropertyReader) *Registry {
	opts := heuristics.DefaultExtractOptions()
	if cfg != nil {
		opts = heuristics.ExtractOptions{
			MinLen:   cfg.Analysis.MinStringLength,
			MaxCount: cfg.Analysis.MaxStrings,
		}
	}
	return NewRegistryWithDeps(afero.NewOsFs(), log, opts, reader)
}

// NewRegistryWithDeps creates a registry with injected dependencies (for tests)
func NewRegistryWithDeps(fs afero.Fs, log *zerolog.Logger, opts heuristics.ExtractOptions, reader msi.PropertyReader) *Registry {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	base := &Base{Fs: fs, Log: log}
	return &Registry{
		analyzers: []Analyzer{
			NewMsiAnalyzer(base, reader),
			NewExeAnalyzer(base, opts),
		},
		fs:     fs,
		logger: log,
	}
}

// AnalyzerFor returns the analyzer for path's extension (case-insensitive)
func (r *Registry) AnalyzerFor(path string) (Analyzer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range r.analyzers {
		for _, e := range a.Extensions() {
			if e == ext {
				return a, nil
			}
		}
	}
	return nil, fmt.Errorf("%w %q: provide one of %s", ErrUnsupportedType, ext, strings.Join(r.SupportedExtensions(), ", "))
}

// Analyze validates path and runs the matching analyzer
func (r *Registry) Analyze(ctx context.Context, path string) (*core.InstallPlan, error) {
	if err := security.ValidateInputPath(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	analyzer, err := r.AnalyzerFor(path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("analyzer", analyzer.Name()).
		Str("path", path).
		Int64("size", info.Size()).
		Msg("analyzing installer")

	plan, err := analyzer.Analyze(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s analysis failed: %w", analyzer.Name(), err)
	}

	r.logger.Info().
		Str("path", path).
		Str("installer_type", plan.InstallerType).
		Float64("confidence", plan.Confidence).
		Msg("analysis complete")

	return plan, nil
}

// SupportedExtensions returns every registered extension, sorted
func (r *Registry) SupportedExtensions() []string {
	var exts []string
	for _, a := range r.analyzers {
		exts = append(exts, a.Extensions()...)
	}
	sort.Strings(exts)
	return exts
}

// Names returns the registered analyzer names in dispatch order
func (r *Registry) Names() []string {
	names := make([]string, len(r.analyzers))
	for i, a := range r.analyzers {
		names[i] = a.Name()
	}
	return names
}
