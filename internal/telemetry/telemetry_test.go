package telemetry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_NoopWhenDSNUnset(t *testing.T) {
	os.Unsetenv("VV_SENTRY_DSN")
	cleanup := Init("test")
	assert.NotPanics(t, cleanup)
}

func TestCaptureError_NilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { CaptureError(nil) })
}
