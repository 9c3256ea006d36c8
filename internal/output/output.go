// Package output serializes install plans to JSON or YAML files
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/installer-intel/internal/core"
	"github.com/quantmind-br/installer-intel/internal/fsops"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is a plan serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml in any case; empty means JSON
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want json or yaml)", s)
	}
}

// FormatForPath picks the format from the output file extension, falling
// back to def for anything but .yaml/.yml/.json
func FormatForPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return def
	}
}

// PathForFormat swaps a .json, .yaml or .yml extension on path for the one
// matching format. Other extensions are left alone.
func PathForFormat(path string, format Format) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".json", ".yaml", ".yml":
		if FormatForPath(path, "") == format {
			return path
		}
		return strings.TrimSuffix(path, ext) + "." + string(format)
	default:
		return path
	}
}

// Marshal validates plan and renders it. JSON is indented with two spaces and
// ends with a newline; identical plans always render to identical bytes.
func Marshal(plan *core.InstallPlan, format Format) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: nil plan", core.ErrInvalidPlan)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(plan); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// WritePlan renders plan and writes it to path, creating parent directories
func WritePlan(fs afero.Fs, plan *core.InstallPlan, path string, format Format) error {
	data, err := Marshal(plan, format)
	if err != nil {
		return err
	}
	if err := fsops.WriteFileAtomic(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write plan %s: %w", path, err)
	}
	return nil
}

// ReadPlan loads a plan previously written as JSON or YAML
func ReadPlan(fs afero.Fs, path string) (*core.InstallPlan, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Unmarshal(data, FormatForPath(path, FormatJSON))
}

// Unmarshal decodes a rendered plan
func Unmarshal(data []byte, format Format) (*core.InstallPlan, error) {
	var plan core.InstallPlan
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	return &plan, nil
}
