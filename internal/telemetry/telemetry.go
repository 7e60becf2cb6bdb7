// Package telemetry wraps getsentry/sentry-go to capture panics and
// fatal errors at the CLI boundary. No internal/ package outside
// cmd/ and main.go imports this — core packages return errors instead.
package telemetry

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// Init initializes the Sentry SDK with the given version if VV_SENTRY_DSN
// is set; otherwise telemetry stays a no-op for the whole process.
// Returns a cleanup func to defer from main.
func Init(version string) func() {
	dsn := os.Getenv("VV_SENTRY_DSN")
	if dsn == "" {
		return func() {}
	}

	env := os.Getenv("VV_SENTRY_ENVIRONMENT")
	if env == "" {
		env = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          "vibe-validate@" + version,
		Environment:      env,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return func() {}
	}

	return func() {
		sentry.Flush(flushTimeout)
	}
}

// CaptureError reports err to Sentry if initialized. Safe to call
// unconditionally even when telemetry is disabled.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// RecoverAndReport recovers a panic, reports it, then re-panics so the
// process still exits non-zero. Deferred once, first thing in main.go's run.
func RecoverAndReport() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(flushTimeout)
		panic(r)
	}
}

// SetTag attaches a tag to subsequently captured events, used for
// things like the active subcommand name.
func SetTag(key, value string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag(key, value)
	})
}
