package gitport

import (
	"errors"
	"strings"

	"github.com/jdutton/vibe-validate/internal/apperrors"
)

// execErrStderrContains reports whether err is a *apperrors.GitExecError
// whose stderr contains needle, used to distinguish "not found" from
// real failures without parsing exit codes that differ across git
// versions and platforms.
func execErrStderrContains(err error, needle string) bool {
	var execErr *apperrors.GitExecError
	if !errors.As(err, &execErr) {
		return false
	}
	return strings.Contains(strings.ToLower(execErr.Stderr), strings.ToLower(needle))
}
