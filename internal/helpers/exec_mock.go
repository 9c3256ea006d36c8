package helpers

import (
	"context"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing
type MockCommandRunner struct {
	CommandExistsFunc func(name string) bool
	RunCommandFunc    func(ctx context.Context, name string, args ...string) (string, error)

	// Calls records every RunCommand invocation as name followed by args
	Calls [][]string
}

// CommandExists implements CommandRunner.CommandExists
func (m *MockCommandRunner) CommandExists(name string) bool {
	if m.CommandExistsFunc != nil {
		return m.CommandExistsFunc(name)
	}
	return false
}

// FirstAvailable implements CommandRunner.FirstAvailable
func (m *MockCommandRunner) FirstAvailable(names ...string) string {
	for _, name := range names {
		if m.CommandExists(name) {
			return name
		}
	}
	return ""
}

// RunCommand implements CommandRunner.RunCommand
func (m *MockCommandRunner) RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunCommandFunc != nil {
		return m.RunCommandFunc(ctx, name, args...)
	}
	return "", nil
}
