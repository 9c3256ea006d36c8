package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("operation cancelled by user")

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	return confirmResult(result, err)
}

// confirmResult maps promptui's confirm outcome: a "no" answer is reported as
// ErrAbort, which is not a failure
func confirmResult(result string, err error) (bool, error) {
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, ErrCancelled
		}
		return false, err
	}

	return result == "y" || result == "Y", nil
}

// ConfirmDangerousAction asks for confirmation with a warning
func ConfirmDangerousAction(action string, target string) (bool, error) {
	PrintWarning("You are about to %s: %s", action, target)
	PrintWarning("This action cannot be undone!")
	fmt.Fprintln(Stderr)

	return ConfirmPrompt(fmt.Sprintf("Are you sure you want to %s", action))
}
