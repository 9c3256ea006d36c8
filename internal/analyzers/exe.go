package analyzers

import (
	"context"
	"fmt"

	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
	"github.com/quantmind-br/installer-intel/internal/paths"
	"github.com/spf13/afero"
)

// ExeAnalyzer guesses the installer technology of a Windows executable from
// the strings embedded in it
type ExeAnalyzer struct {
	*Base
	opts heuristics.ExtractOptions
}

// NewExeAnalyzer creates an ExeAnalyzer
func NewExeAnalyzer(base *Base, opts heuristics.ExtractOptions) *ExeAnalyzer {
	return &ExeAnalyzer{Base: base, opts: opts}
}

// Name implements Analyzer
func (a *ExeAnalyzer) Name() string { return string(core.FileTypeEXE) }

// Extensions implements Analyzer
func (a *ExeAnalyzer) Extensions() []string { return []string{".exe"} }

// Analyze implements Analyzer
func (a *ExeAnalyzer) Analyze(ctx context.Context, path string) (*core.InstallPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(a.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("read installer: %w", err)
	}

	return a.planFor(path, data), nil
}

// planFor builds the plan for already loaded file content
func (a *ExeAnalyzer) planFor(path string, data []byte) *core.InstallPlan {
	det := heuristics.DetectWithOptions(data, a.opts)

	a.Log.Debug().
		Str("path", path).
		Str("technology", det.Name).
		Bool("recognized", det.Recognized()).
		Int("hits", len(det.Hits)).
		Msg("signature scan finished")

	plan := core.NewInstallPlan(path, core.FileTypeEXE, det.Name, det.Confidence)
	plan.Metadata["FileName"] = paths.BaseName(path)
	plan.Metadata["SizeBytes"] = len(data)

	for _, h := range det.Hits {
		plan.AddNotef("Hit: %s (%.2f) - %s", h.Name, h.Confidence, h.Evidence)
	}

	tmpl := unknownTemplate()
	if det.Recognized() {
		tmpl = templateFor(det.Technology)
	}
	for _, c := range tmpl.Install {
		plan.AddInstall(c.render(path), c.Confidence, core.Evidence{Kind: c.Kind, Detail: c.Detail})
	}
	for _, c := range tmpl.Uninstall {
		plan.AddUninstall(c.render(path), c.Confidence, core.Evidence{Kind: c.Kind, Detail: c.Detail})
	}
	for _, n := range tmpl.Notes {
		plan.AddNote(n)
	}

	if content := helpers.SniffContent(data); content != helpers.ContentEmpty && !helpers.ContentMatches(core.FileTypeEXE, content) {
		plan.AddNotef("File content looks like %s rather than a PE executable; analysis relied on the .exe extension.", content)
	}

	plan.AddDetectionRule(core.RuleManualFollowup, manualFollowupValue, 0.20,
		core.Evidence{Kind: core.EvidenceNote, Detail: "Static analysis does not execute installers"})

	return plan
}
