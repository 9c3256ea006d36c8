package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ValidPropertyNameRegex matches MSI property identifiers
	ValidPropertyNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

	// ValidAnalysisIDRegex matches history record identifiers
	ValidAnalysisIDRegex = regexp.MustCompile(`^[a-f0-9-]+$`)
)

// ValidatePropertyName validates an MSI property name before it is placed in a
// Property table query
func ValidatePropertyName(name string) error {
	if name == "" {
		return fmt.Errorf("property name cannot be empty")
	}

	if len(name) > 72 {
		return fmt.Errorf("property name too long (max 72 characters)")
	}

	if !ValidPropertyNameRegex.MatchString(name) {
		return fmt.Errorf("invalid property name: %q", name)
	}

	return nil
}

// ValidateInputPath performs general validation of an installer path
func ValidateInputPath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("file path contains null byte")
	}

	// Check for excessive length
	if len(path) >= 4096 {
		return fmt.Errorf("file path too long (max 4096 characters)")
	}

	return nil
}

// ValidateAnalysisID validates a history record identifier
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}

	if len(id) > 100 {
		return fmt.Errorf("analysis ID too long")
	}

	if !ValidAnalysisIDRegex.MatchString(id) {
		return fmt.Errorf("invalid analysis ID format")
	}

	return nil
}

// powerShellQuotes are the code points PowerShell accepts as a single quote
const powerShellQuotes = "'\u2018\u2019\u201A\u201B"

// QuotePowerShell returns s as a single-quoted PowerShell string literal.
// Every quote character PowerShell recognizes is doubled.
func QuotePowerShell(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		if strings.ContainsRune(powerShellQuotes, r) {
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

// IsPathWithinDirectory checks if a target path is within a given base directory
// Both paths must be absolute.
func IsPathWithinDirectory(targetPath, basePath string) (bool, error) {
	if !filepath.IsAbs(targetPath) {
		return false, fmt.Errorf("target path must be absolute, got relative path: %s", targetPath)
	}
	if !filepath.IsAbs(basePath) {
		return false, fmt.Errorf("base path must be absolute, got relative path: %s", basePath)
	}

	rel, err := filepath.Rel(filepath.Clean(basePath), filepath.Clean(targetPath))
	if err != nil {
		return false, fmt.Errorf("failed to compute relative path: %w", err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}

	return true, nil
}
