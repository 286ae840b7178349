// Package main provides the entry point for the walkcli tool.
package main

import (
	"errors"
	"os"

	"walkcli/cmd/walkcli/commands"
	apperrors "walkcli/internal/errors"
)

func main() {
	rootCmd := commands.NewRootCommand(os.Stdout, os.Stderr)

	err := rootCmd.Execute()
	if !errors.Is(err, apperrors.ErrNoResult) {
		apperrors.WriteError(os.Stderr, err)
	}
	os.Exit(apperrors.ExitCode(err))
}
