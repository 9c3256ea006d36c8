package analyzers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/heuristics"
	"github.com/quantmind-br/installer-intel/internal/msi"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oleHeader = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// stubReader serves MSI properties from a map
type stubReader struct {
	available bool
	props     map[string]string
}

func (s stubReader) Name() string    { return "stub" }
func (s stubReader) Available() bool { return s.available }
func (s stubReader) ReadProperty(_, name string) (string, error) {
	if !s.available {
		return "", msi.ErrReaderUnavailable
	}
	v, ok := s.props[name]
	if !ok {
		return "", msi.ErrPropertyNotFound
	}
	return v, nil
}

func newTestRegistry(t *testing.T, reader msi.PropertyReader) (*Registry, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	log := zerolog.Nop()
	return NewRegistryWithDeps(fs, &log, heuristics.DefaultExtractOptions(), reader), fs
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestRegistry_InputErrors(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	require.NoError(t, fs.MkdirAll("/pkgs/dir.exe", 0o755))
	writeFile(t, fs, "/pkgs/readme.txt", []byte("hello"))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", "/pkgs/missing.exe", ErrFileNotFound},
		{"directory", "/pkgs/dir.exe", ErrIsDirectory},
		{"unsupported extension", "/pkgs/readme.txt", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := reg.Analyze(context.Background(), tt.path)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}

	_, err := reg.Analyze(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRegistry_AnalyzerForIsCaseInsensitive(t *testing.T) {
	reg, _ := newTestRegistry(t, stubReader{})

	a, err := reg.AnalyzerFor(`C:\Downloads\SETUP.EXE`)
	require.NoError(t, err)
	assert.Equal(t, "exe", a.Name())

	a, err = reg.AnalyzerFor("Product.Msi")
	require.NoError(t, err)
	assert.Equal(t, "msi", a.Name())

	_, err = reg.AnalyzerFor("archive.zip")
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), ".exe, .msi")

	assert.Equal(t, []string{"msi", "exe"}, reg.Names())
}

func TestRegistry_CancelledContext(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	writeFile(t, fs, "/setup.exe", []byte("MZ"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Analyze(ctx, "/setup.exe")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExe_EmptyFileFallsBackToGuesses(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	writeFile(t, fs, "/in/empty.exe", nil)

	plan, err := reg.Analyze(context.Background(), "/in/empty.exe")
	require.NoError(t, err)

	assert.Equal(t, core.FileTypeEXE, plan.FileType)
	assert.Equal(t, "Unknown EXE installer", plan.InstallerType)
	assert.Equal(t, 0.20, plan.Confidence)
	assert.Equal(t, "empty.exe", plan.Metadata["FileName"])
	assert.Equal(t, 0, plan.Metadata["SizeBytes"])

	require.Len(t, plan.InstallCandidates, 2)
	assert.Equal(t, `"/in/empty.exe" /S`, plan.InstallCandidates[0].Command)
	assert.Equal(t, `"/in/empty.exe" /quiet /norestart`, plan.InstallCandidates[1].Command)
	for _, c := range plan.InstallCandidates {
		assert.Equal(t, 0.25, c.Confidence)
		require.Len(t, c.Evidence, 1)
		assert.Equal(t, core.EvidenceFallback, c.Evidence[0].Kind)
	}
	assert.Empty(t, plan.UninstallCandidates)

	require.Len(t, plan.DetectionRules, 1)
	assert.Equal(t, core.RuleManualFollowup, plan.DetectionRules[0].Kind)
	assert.Equal(t, 0.20, plan.DetectionRules[0].Confidence)

	assert.Equal(t, []string{"Unknown installer type; silent switches are guesses. Add more signatures to improve."}, plan.Notes)
}

func TestExe_InnoSetup(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	data := append([]byte("MZ\x90\x00\x03\x00"), []byte("\x00\x00Inno Setup Setup Data (6.2.0)\x00\x00")...)
	writeFile(t, fs, `/dl/app-setup.exe`, data)

	plan, err := reg.Analyze(context.Background(), "/dl/app-setup.exe")
	require.NoError(t, err)

	assert.Equal(t, "Inno Setup", plan.InstallerType)
	assert.Equal(t, 0.92, plan.Confidence)
	assert.Equal(t, len(data), plan.Metadata["SizeBytes"])

	require.Len(t, plan.InstallCandidates, 2)
	assert.Equal(t, `"/dl/app-setup.exe" /VERYSILENT /SUPPRESSMSGBOXES /NORESTART /SP-`, plan.InstallCandidates[0].Command)
	assert.Equal(t, 0.88, plan.InstallCandidates[0].Confidence)
	assert.Equal(t, 0.62, plan.InstallCandidates[1].Confidence)

	require.Len(t, plan.UninstallCandidates, 1)
	assert.Equal(t, "unins000.exe /VERYSILENT /SUPPRESSMSGBOXES /NORESTART /SP-", plan.UninstallCandidates[0].Command)

	require.NotEmpty(t, plan.Notes)
	assert.Equal(t, "Hit: Inno Setup (0.92) - Matched 'Inno Setup' / 'unins000.exe' strings", plan.Notes[0])
}

func TestExe_TechnologyTemplates(t *testing.T) {
	tests := []struct {
		name          string
		marker        string
		installerType string
		installs      []string
		firstConf     float64
		wantNote      string
	}{
		{"nsis", "Nullsoft Install System", "NSIS", []string{`"/p/x.exe" /S`}, 0.85, ""},
		{"installshield", "InstallShield Wizard", "InstallShield", []string{`"/p/x.exe" /s /v"/qn /norestart"`}, 0.70, ""},
		{"burn", "WixBurn bundle engine", "WiX Burn / Bootstrapper", []string{`"/p/x.exe" /quiet /norestart`, `"/p/x.exe" /passive /norestart`}, 0.78, ""},
		{"squirrel", "Squirrel.Windows", "Squirrel", []string{`"/p/x.exe" --silent`}, 0.45, "Squirrel installers vary a lot"},
		{"msix", "AppxManifest.xml", "MSIX/AppX (hint)", []string{"Add-AppxPackage <path-to-msix-or-appx>"}, 0.35, "wrapper/bootstrapper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, fs := newTestRegistry(t, stubReader{})
			writeFile(t, fs, "/p/x.exe", []byte("MZ\x00"+tt.marker+"\x00"))

			plan, err := reg.Analyze(context.Background(), "/p/x.exe")
			require.NoError(t, err)

			assert.Equal(t, tt.installerType, plan.InstallerType)
			commands := make([]string, 0, len(plan.InstallCandidates))
			for _, c := range plan.InstallCandidates {
				commands = append(commands, c.Command)
			}
			assert.Equal(t, tt.installs, commands)
			assert.Equal(t, tt.firstConf, plan.InstallCandidates[0].Confidence)
			assert.Empty(t, plan.UninstallCandidates)

			if tt.wantNote != "" {
				assert.Contains(t, strings.Join(plan.Notes, "\n"), tt.wantNote)
			}
			require.Len(t, plan.DetectionRules, 1)
		})
	}
}

func TestExe_MSIXCandidateIsHint(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	writeFile(t, fs, "/p/wrap.exe", []byte("MZ\x00payload.msix\x00"))

	plan, err := reg.Analyze(context.Background(), "/p/wrap.exe")
	require.NoError(t, err)

	require.Len(t, plan.InstallCandidates, 1)
	assert.Equal(t, core.EvidenceHint, plan.InstallCandidates[0].Evidence[0].Kind)
	assert.NotContains(t, plan.InstallCandidates[0].Command, "/p/wrap.exe")
}

func TestExe_EveryHitBecomesANote(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	writeFile(t, fs, "/p/multi.exe", []byte("MZ\x00Nullsoft\x00Squirrel\x00"))

	plan, err := reg.Analyze(context.Background(), "/p/multi.exe")
	require.NoError(t, err)

	assert.Equal(t, "NSIS", plan.InstallerType)
	assert.Contains(t, plan.Notes, "Hit: NSIS (0.90) - Matched NSIS/Nullsoft strings")
	assert.Contains(t, plan.Notes, "Hit: Squirrel (0.70) - Matched Squirrel 'Update.exe' strings")
}

func TestExe_ContentMismatchNote(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{})
	writeFile(t, fs, "/p/fake.exe", []byte("PK\x03\x04 not really an exe"))

	plan, err := reg.Analyze(context.Background(), "/p/fake.exe")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(plan.Notes, "\n"), "ZIP archive rather than a PE executable")
}

func TestExe_WindowsPathFileName(t *testing.T) {
	log := zerolog.Nop()
	a := NewExeAnalyzer(&Base{Fs: afero.NewMemMapFs(), Log: &log}, heuristics.DefaultExtractOptions())

	plan := a.planFor(`C:\Users\me\Downloads\setup.exe`, []byte("MZ"))
	assert.Equal(t, "setup.exe", plan.Metadata["FileName"])
}

func TestMsi_WithProductCode(t *testing.T) {
	reader := stubReader{available: true, props: map[string]string{
		msi.PropProductCode:    "{1234-ABCD}",
		msi.PropProductName:    "Demo App",
		msi.PropProductVersion: "2.1.0",
	}}
	reg, fs := newTestRegistry(t, reader)
	writeFile(t, fs, "/p/demo.msi", oleHeader)

	plan, err := reg.Analyze(context.Background(), "/p/demo.msi")
	require.NoError(t, err)

	assert.Equal(t, core.FileTypeMSI, plan.FileType)
	assert.Equal(t, "MSI", plan.InstallerType)
	assert.Equal(t, 0.95, plan.Confidence)

	require.Len(t, plan.InstallCandidates, 1)
	assert.Equal(t, `msiexec /i "/p/demo.msi" /qn /norestart`, plan.InstallCandidates[0].Command)
	assert.Equal(t, 0.95, plan.InstallCandidates[0].Confidence)

	require.Len(t, plan.UninstallCandidates, 1)
	assert.Equal(t, "msiexec /x {1234-ABCD} /qn /norestart", plan.UninstallCandidates[0].Command)
	assert.Equal(t, 0.95, plan.UninstallCandidates[0].Confidence)

	require.Len(t, plan.DetectionRules, 1)
	assert.Equal(t, core.RuleMSIProductCode, plan.DetectionRules[0].Kind)
	assert.Equal(t, "{1234-ABCD}", plan.DetectionRules[0].Value)

	assert.Equal(t, "Demo App", plan.Metadata[msi.PropProductName])
	assert.Len(t, plan.Metadata, 5)
	assert.Nil(t, plan.Metadata[msi.PropUpgradeCode])
	assert.Nil(t, plan.Metadata[msi.PropManufacturer])
	assert.Empty(t, plan.Notes)
}

func TestMsi_OnlyProductCode(t *testing.T) {
	reader := stubReader{available: true, props: map[string]string{
		msi.PropProductCode: "{1234-ABCD}",
	}}
	reg, fs := newTestRegistry(t, reader)
	writeFile(t, fs, "/p/only.msi", oleHeader)

	plan, err := reg.Analyze(context.Background(), "/p/only.msi")
	require.NoError(t, err)

	assert.Equal(t, 0.95, plan.Confidence)
	require.Len(t, plan.UninstallCandidates, 1)
	assert.Equal(t, "msiexec /x {1234-ABCD} /qn /norestart", plan.UninstallCandidates[0].Command)

	require.Len(t, plan.DetectionRules, 1)
	assert.Equal(t, core.RuleMSIProductCode, plan.DetectionRules[0].Kind)
	assert.Equal(t, "{1234-ABCD}", plan.DetectionRules[0].Value)

	assert.Len(t, plan.Metadata, 5)
	assert.Equal(t, "{1234-ABCD}", plan.Metadata[msi.PropProductCode])
	for _, name := range []string{msi.PropUpgradeCode, msi.PropProductVersion, msi.PropManufacturer, msi.PropProductName} {
		v, ok := plan.Metadata[name]
		assert.True(t, ok, name)
		assert.Nil(t, v, name)
	}
	assert.Empty(t, plan.Notes)
}

// failingReader is available but cannot open any database
type failingReader struct{}

func (failingReader) Name() string    { return "failing" }
func (failingReader) Available() bool { return true }
func (failingReader) ReadProperty(_, _ string) (string, error) {
	return "", errors.New("MsiOpenDatabase: error 1610")
}

func TestMsi_UnreadableDatabaseIsAbsent(t *testing.T) {
	reg, fs := newTestRegistry(t, failingReader{})
	writeFile(t, fs, "/p/corrupt.msi", oleHeader)

	plan, err := reg.Analyze(context.Background(), "/p/corrupt.msi")
	require.NoError(t, err)

	assert.Equal(t, 0.75, plan.Confidence)
	assert.Nil(t, plan.Metadata[msi.PropProductCode])
	assert.Empty(t, plan.DetectionRules)
	assert.Equal(t, []string{"ProductCode not found (MSI may be unusual or property read failed)."}, plan.Notes)
}

func TestMsi_WithoutProductCode(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{available: true, props: map[string]string{}})
	writeFile(t, fs, "/p/odd.msi", oleHeader)

	plan, err := reg.Analyze(context.Background(), "/p/odd.msi")
	require.NoError(t, err)

	assert.Equal(t, 0.75, plan.Confidence)
	require.Len(t, plan.UninstallCandidates, 1)
	assert.Equal(t, `msiexec /x "/p/odd.msi" /qn /norestart`, plan.UninstallCandidates[0].Command)
	assert.Equal(t, 0.40, plan.UninstallCandidates[0].Confidence)
	assert.Empty(t, plan.DetectionRules)
	assert.Equal(t, []string{"ProductCode not found (MSI may be unusual or property read failed)."}, plan.Notes)
}

func TestMsi_ReaderUnavailable(t *testing.T) {
	reader := stubReader{available: false, props: map[string]string{msi.PropProductCode: "{IGNORED}"}}
	reg, fs := newTestRegistry(t, reader)
	writeFile(t, fs, "/p/any.msi", oleHeader)

	plan, err := reg.Analyze(context.Background(), "/p/any.msi")
	require.NoError(t, err)

	assert.Equal(t, 0.75, plan.Confidence)
	for _, name := range msi.StandardProperties {
		v, ok := plan.Metadata[name]
		assert.True(t, ok, name)
		assert.Nil(t, v, name)
	}
	assert.Contains(t, plan.Notes, productCodeMissingNote)
	assert.Contains(t, plan.Notes, readerUnavailableNote)

	out, err := json.Marshal(plan.Metadata)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ProductCode":null`)
}

func TestMsi_NilReaderIsUnavailable(t *testing.T) {
	log := zerolog.Nop()
	a := NewMsiAnalyzer(&Base{Fs: afero.NewMemMapFs(), Log: &log}, nil)

	plan, err := a.Analyze(context.Background(), "/nowhere.msi")
	require.NoError(t, err)
	assert.Contains(t, plan.Notes, readerUnavailableNote)
}

func TestMsi_ContentMismatchNote(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{available: true, props: map[string]string{msi.PropProductCode: "{X}"}})
	writeFile(t, fs, "/p/renamed.msi", []byte("MZ\x90\x00"))

	plan, err := reg.Analyze(context.Background(), "/p/renamed.msi")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(plan.Notes, "\n"), "PE executable rather than an OLE compound file")
}

func TestProductVersionNote(t *testing.T) {
	assert.Empty(t, productVersionNote("1.2.3"))
	assert.Empty(t, productVersionNote("10.0.19041.0"))
	assert.Contains(t, productVersionNote("1.2.3.4"), "fourth field")
	assert.Contains(t, productVersionNote("build-abc"), "not a dotted numeric version")
}

func TestAnalyze_JSONIsDeterministic(t *testing.T) {
	reg, fs := newTestRegistry(t, stubReader{available: true, props: map[string]string{msi.PropProductCode: "{1234-ABCD}"}})
	writeFile(t, fs, "/p/a.msi", oleHeader)
	writeFile(t, fs, "/p/b.exe", []byte("MZ\x00Inno Setup\x00"))

	for _, path := range []string{"/p/a.msi", "/p/b.exe"} {
		first, err := reg.Analyze(context.Background(), path)
		require.NoError(t, err)
		second, err := reg.Analyze(context.Background(), path)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
		require.NoError(t, first.Validate())
	}
}

func TestTemplateFor_EveryTechnologyHasCandidates(t *testing.T) {
	techs := []heuristics.Technology{
		heuristics.TechUnknown,
		heuristics.TechInnoSetup,
		heuristics.TechNSIS,
		heuristics.TechInstallShield,
		heuristics.TechWixBurn,
		heuristics.TechSquirrel,
		heuristics.TechMSIX,
		heuristics.Technology(42),
	}
	for _, tech := range techs {
		tmpl := templateFor(tech)
		assert.NotEmpty(t, tmpl.Install, tech.String())
		for _, c := range tmpl.Install {
			assert.True(t, core.ValidConfidence(c.Confidence))
		}
	}
}
