package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureOutput redirects Stdout and Stderr for the duration of fn
func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	defer func() { Stdout, Stderr = oldOut, oldErr }()

	fn()
	return out.String(), errOut.String()
}

func TestInitColors(t *testing.T) {
	t.Run("with NO_COLOR", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")

		color.NoColor = false
		InitColors("auto")

		assert.True(t, color.NoColor)
	})

	t.Run("with TERM=dumb", func(t *testing.T) {
		t.Setenv("TERM", "dumb")

		color.NoColor = false
		InitColors("auto")

		assert.True(t, color.NoColor)
	})

	t.Run("never", func(t *testing.T) {
		color.NoColor = false
		InitColors("never")
		assert.True(t, color.NoColor)
	})

	t.Run("always wins over NO_COLOR", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		InitColors("always")
		assert.False(t, color.NoColor)
	})

	DisableColors()
}

func TestPrintFunctions(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := []struct {
		name       string
		print      func()
		wantStdout string
		wantStderr string
	}{
		{"PrintSuccess", func() { PrintSuccess("wrote %s", "plan.json") }, "wrote plan.json", ""},
		{"PrintError", func() { PrintError("bad %s", "input") }, "", "Error: bad input"},
		{"PrintWarning", func() { PrintWarning("careful") }, "", "Warning: careful"},
		{"PrintInfo", func() { PrintInfo("analyzing %d files", 3) }, "analyzing 3 files", ""},
		{"PrintKeyValue", func() { PrintKeyValue("Type", "Inno Setup") }, "Type: Inno Setup", ""},
		{"PrintHeader", func() { PrintHeader("Install candidates") }, "Install candidates", ""},
		{"PrintSubheader", func() { PrintSubheader("Notes") }, "Notes", ""},
		{"PrintList", func() { PrintList([]string{"one", "two"}) }, "two", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr := captureOutput(t, tt.print)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			} else {
				assert.Empty(t, stderr)
			}
		})
	}
}

func TestColorizeFileType(t *testing.T) {
	DisableColors()
	defer EnableColors()

	assert.Equal(t, "msi", ColorizeFileType("msi"))
	assert.Equal(t, "exe", ColorizeFileType("exe"))
	assert.Equal(t, "zip", ColorizeFileType("zip"))
}

func TestColorizeConfidence(t *testing.T) {
	DisableColors()
	defer EnableColors()

	assert.Equal(t, "0.95", ColorizeConfidence(0.95))
	assert.Equal(t, "0.55", ColorizeConfidence(0.55))
	assert.Equal(t, "0.20", ColorizeConfidence(0.2))
}

func TestColorsToggle(t *testing.T) {
	DisableColors()
	assert.False(t, AreColorsEnabled())
	EnableColors()
	assert.True(t, AreColorsEnabled())
	DisableColors()
}
