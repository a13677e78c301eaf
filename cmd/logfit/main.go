package main

import (
	"context"
	"os"

	"github.com/agbru/logfit/internal/app"
	"github.com/agbru/logfit/internal/cli"
	apperrors "github.com/agbru/logfit/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.HandleError(err, os.Stderr, cli.CLIColorProvider{}))
	}

	exitCode := application.Run(context.Background(), os.Stdout)
	os.Exit(exitCode)
}
