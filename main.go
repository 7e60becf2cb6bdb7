package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jdutton/vibe-validate/cmd"
	"github.com/jdutton/vibe-validate/internal/apperrors"
	"github.com/jdutton/vibe-validate/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer telemetry.RecoverAndReport()
	cleanup := telemetry.Init(cmd.Version)
	defer cleanup()

	err := cmd.Execute()
	if err == nil {
		return int(apperrors.ExitPassed)
	}

	telemetry.CaptureError(err)
	fmt.Fprintln(os.Stderr, err.Error())

	var kinded apperrors.Kinded
	if errors.As(err, &kinded) {
		return int(kinded.ExitCode())
	}
	return int(apperrors.ExitFailed)
}
