// Package obslog builds the single process-wide zap.Logger. cmd's
// PersistentPreRunE constructs it once per invocation and attaches it to
// the command's context with WithContext; code holding that context
// retrieves it with FromContext. The core packages (GitPort, CacheEngine,
// PipelineOrchestrator) do not call FromContext and write no log lines.
package obslog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// New builds the process-wide logger. debug lowers the level to Debug
// and attaches a per-invocation UUID (ephemeral, never persisted to
// notes — unrelated to the ULIDs minted for stored run records).
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
		logger = logger.With(zap.String("invocation_id", uuid.NewString()))
	}
	return logger, nil
}

// WithContext returns a new context carrying logger, retrievable with
// FromContext.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or zap.NewNop() if
// none was attached (so callers never need a nil check).
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
