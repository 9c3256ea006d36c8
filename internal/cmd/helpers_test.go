package cmd

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/installer-intel/internal/config"
	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/quantmind-br/installer-intel/internal/msi"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

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

// testConfig returns a config whose data lives in a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	return &config.Config{
		Paths: config.PathsConfig{
			DataDir: dataDir,
			DBFile:  filepath.Join(dataDir, "history.db"),
			LogFile: filepath.Join(dataDir, "installer-intel.log"),
		},
		Logging:  config.LoggingConfig{Level: "disabled", Color: "never"},
		Analysis: config.AnalysisConfig{MinStringLength: 6, MaxStrings: 4000},
		MSI:      config.MSIConfig{Reader: "none"},
		Output:   config.OutputConfig{DefaultPath: "/out/installplan.json", Format: "json"},
		History:  config.HistoryConfig{Enabled: true},
	}
}

func testDeps(reader stubReader) (Deps, afero.Fs) {
	fs := afero.NewMemMapFs()
	return Deps{Fs: fs, Runner: &helpers.MockCommandRunner{}, Reader: reader}, fs
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// execute runs the root command with args and returns stdout
func execute(t *testing.T, cfg *config.Config, deps Deps, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmdWithDeps(cfg, testLogger(), "1.2.3", deps)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
