package analyzers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-version"
	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/quantmind-br/installer-intel/internal/msi"
)

const (
	msiInstallerType = "MSI"

	readerUnavailableNote  = "MSI property reader unavailable. Run on Windows (not WSL) with msi.dll or PowerShell to read MSI properties."
	productCodeMissingNote = "ProductCode not found (MSI may be unusual or property read failed)."
)

// MsiAnalyzer builds plans for Windows Installer packages from their
// Property table
type MsiAnalyzer struct {
	*Base
	reader msi.PropertyReader
}

// NewMsiAnalyzer creates an MsiAnalyzer; a nil reader behaves as unavailable
func NewMsiAnalyzer(base *Base, reader msi.PropertyReader) *MsiAnalyzer {
	if reader == nil {
		reader = msi.Unavailable{}
	}
	return &MsiAnalyzer{Base: base, reader: reader}
}

// Name implements Analyzer
func (a *MsiAnalyzer) Name() string { return string(core.FileTypeMSI) }

// Extensions implements Analyzer
func (a *MsiAnalyzer) Extensions() []string { return []string{".msi"} }

// Analyze implements Analyzer
func (a *MsiAnalyzer) Analyze(ctx context.Context, path string) (*core.InstallPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	available := a.reader.Available()
	props := make(map[string]any, len(msi.StandardProperties))
	for _, name := range msi.StandardProperties {
		props[name] = nil
		if !available {
			continue
		}
		v, err := a.reader.ReadProperty(path, name)
		switch {
		case err == nil:
			props[name] = v
		case !errors.Is(err, msi.ErrPropertyNotFound):
			a.Log.Debug().Err(err).Str("path", path).Str("property", name).Msg("msi property unreadable")
		}
	}

	productCode, _ := props[msi.PropProductCode].(string)

	confidence := 0.75
	if productCode != "" {
		confidence = 0.95
	}

	plan := core.NewInstallPlan(path, core.FileTypeMSI, msiInstallerType, confidence)
	for k, v := range props {
		plan.Metadata[k] = v
	}

	plan.AddInstall(fmt.Sprintf("msiexec /i %s /qn /norestart", quotePath(path)), 0.95,
		core.Evidence{Kind: core.EvidenceMSI, Detail: "Standard msiexec silent install"})

	if productCode != "" {
		plan.AddUninstall(fmt.Sprintf("msiexec /x %s /qn /norestart", productCode), 0.95,
			core.Evidence{Kind: core.EvidenceMSI, Detail: "ProductCode found in Property table"})
		plan.AddDetectionRule(core.RuleMSIProductCode, productCode, 0.95,
			core.Evidence{Kind: core.EvidenceMSI, Detail: "ProductCode suggests reliable MSI detection"})
	} else {
		plan.AddNote(productCodeMissingNote)
		plan.AddUninstall(fmt.Sprintf("msiexec /x %s /qn /norestart", quotePath(path)), 0.40,
			core.Evidence{Kind: core.EvidenceMSI, Detail: "Fallback uninstall by package path (less reliable)"})
	}

	if v, ok := props[msi.PropProductVersion].(string); ok {
		if note := productVersionNote(v); note != "" {
			plan.AddNote(note)
		}
	}

	if !available {
		plan.AddNote(readerUnavailableNote)
	}

	if note := a.sniffNote(path); note != "" {
		plan.AddNote(note)
	}

	a.Log.Debug().
		Str("path", path).
		Str("reader", a.reader.Name()).
		Bool("reader_available", available).
		Bool("product_code", productCode != "").
		Msg("msi properties read")

	return plan, nil
}

// productVersionNote flags versions that Windows Installer compares in a
// surprising way
func productVersionNote(raw string) string {
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Sprintf("ProductVersion %q is not a dotted numeric version; upgrade comparisons may not behave as expected.", raw)
	}
	if len(v.Segments()) > 3 && v.Segments()[3] != 0 {
		return fmt.Sprintf("ProductVersion %s has a fourth field; Windows Installer ignores it when comparing versions.", raw)
	}
	return ""
}

// sniffNote reports content that does not look like an OLE compound file
func (a *MsiAnalyzer) sniffNote(path string) string {
	f, err := a.Fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return ""
	}

	content := helpers.SniffContent(head[:n])
	if content == helpers.ContentEmpty || helpers.ContentMatches(core.FileTypeMSI, content) {
		return ""
	}
	return fmt.Sprintf("File content looks like %s rather than an OLE compound file; analysis relied on the .msi extension.", content)
}
