package logging

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalLogger adapts a zap logger to go.temporal.io/sdk/log.Logger so
// workers and clients log through the same sink as the rest of the process.
type TemporalLogger struct {
	s *zap.SugaredLogger
}

var (
	_ log.Logger     = (*TemporalLogger)(nil)
	_ log.WithLogger = (*TemporalLogger)(nil)
)

// NewTemporalLogger wraps l. The extra caller skip points file:line at the
// SDK call site instead of this adapter.
func NewTemporalLogger(l *zap.Logger) *TemporalLogger {
	return &TemporalLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (t *TemporalLogger) Debug(msg string, keyvals ...interface{}) { t.s.Debugw(msg, keyvals...) }
func (t *TemporalLogger) Info(msg string, keyvals ...interface{})  { t.s.Infow(msg, keyvals...) }
func (t *TemporalLogger) Warn(msg string, keyvals ...interface{})  { t.s.Warnw(msg, keyvals...) }
func (t *TemporalLogger) Error(msg string, keyvals ...interface{}) { t.s.Errorw(msg, keyvals...) }

// With returns a logger that adds keyvals to every entry.
func (t *TemporalLogger) With(keyvals ...interface{}) log.Logger {
	return &TemporalLogger{s: t.s.With(keyvals...)}
}
