package msi

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/quantmind-br/installer-intel/internal/helpers"
	"github.com/quantmind-br/installer-intel/internal/security"
	"github.com/rs/zerolog"
)

const powerShellTimeout = 60 * time.Second

// propertyTableScript dumps the whole Property table as a JSON object
const propertyTableScript = `
$msi = %s
$WindowsInstaller = New-Object -ComObject WindowsInstaller.Installer
$db = $WindowsInstaller.OpenDatabase($msi, 0)
$view = $db.OpenView('SELECT * FROM Property')
$view.Execute()

$pairs = @{}
while ($rec = $view.Fetch()) {
    $pairs[$rec.StringData(1)] = $rec.StringData(2)
}
$view.Close()
$pairs | ConvertTo-Json -Compress
`

// PowerShellReader reads properties through the WindowsInstaller COM object
// driven by a PowerShell subprocess. The Property table of each package is
// fetched once and cached.
type PowerShellReader struct {
	runner  helpers.CommandRunner
	log     *zerolog.Logger
	goos    string
	timeout time.Duration
	cache   map[string]propertyTable
}

// propertyTable is a loaded Property table, or the error that prevented it
type propertyTable struct {
	props map[string]string
	err   error
}

// NewPowerShellReader creates a reader that runs PowerShell through runner
func NewPowerShellReader(runner helpers.CommandRunner, log *zerolog.Logger) *PowerShellReader {
	return &PowerShellReader{
		runner:  runner,
		log:     log,
		goos:    runtime.GOOS,
		timeout: powerShellTimeout,
		cache:   make(map[string]propertyTable),
	}
}

// Name implements PropertyReader
func (r *PowerShellReader) Name() string { return KindPowerShell }

// Available implements PropertyReader
func (r *PowerShellReader) Available() bool {
	return r.goos == "windows" && r.shell() != ""
}

func (r *PowerShellReader) shell() string {
	if r.runner == nil {
		return ""
	}
	return r.runner.FirstAvailable("powershell", "pwsh")
}

// ReadProperty implements PropertyReader
func (r *PowerShellReader) ReadProperty(path, name string) (string, error) {
	if !r.Available() {
		return "", ErrReaderUnavailable
	}
	if err := security.ValidatePropertyName(name); err != nil {
		return "", err
	}

	table := r.table(path)
	if table.err != nil {
		return "", table.err
	}

	v, ok := table.props[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrPropertyNotFound
	}
	return v, nil
}

func (r *PowerShellReader) table(path string) propertyTable {
	if table, ok := r.cache[path]; ok {
		return table
	}

	props, err := r.load(path)
	if err != nil && r.log != nil {
		r.log.Debug().
			Err(err).
			Str("msi", path).
			Msg("powershell property read failed")
	}

	table := propertyTable{props: props, err: err}
	r.cache[path] = table
	return table
}

func (r *PowerShellReader) load(path string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	script := fmt.Sprintf(propertyTableScript, security.QuotePowerShell(path))
	out, err := r.runner.RunCommand(ctx, r.shell(), "-NoProfile", "-NonInteractive", "-Command", script)
	if err != nil {
		return nil, fmt.Errorf("run powershell: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return map[string]string{}, nil
	}

	var props map[string]string
	if err := json.Unmarshal([]byte(out), &props); err != nil {
		return nil, fmt.Errorf("decode property table: %w", err)
	}

	return props, nil
}
