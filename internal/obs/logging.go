// Package obs carries the ambient observability stack: structured logging
// and Prometheus metrics, shared by every other package.
package obs

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	keyRoomID ctxKey = iota
	keyConnID
	keyMode
)

// WithRoom attaches a room id to the context for downstream logging.
func WithRoom(ctx context.Context, roomID string) context.Context {
	return context.WithValue(ctx, keyRoomID, roomID)
}

// WithConn attaches a connection id to the context for downstream logging.
func WithConn(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, keyConnID, connID)
}

// WithMode attaches a mode name to the context for downstream logging.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, keyMode, mode)
}

// Logger wraps a *zap.Logger and pulls scoping fields out of a context.Context
// automatically, the way RoseWright's logging package attaches
// correlation/user/room ids.
type Logger struct {
	base *zap.Logger
}

var global *Logger

// Init builds the process-wide logger. Call once from cmd/server/main.go.
func Init(development bool) (*Logger, error) {
	var zl *zap.Logger
	var err error
	if development {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	global = &Logger{base: zl}
	return global, nil
}

// L returns the process-wide logger. Falls back to a no-op logger if Init
// was never called, as zap.L() does for its own global.
func L() *Logger {
	if global == nil {
		global = &Logger{base: zap.NewNop()}
	}
	return global
}

// Ctx returns a logger enriched with any room/conn/mode fields found in ctx.
func (l *Logger) Ctx(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 3)
	if v, ok := ctx.Value(keyRoomID).(string); ok && v != "" {
		fields = append(fields, zap.String("room_id", v))
	}
	if v, ok := ctx.Value(keyConnID).(string); ok && v != "" {
		fields = append(fields, zap.String("conn_id", v))
	}
	if v, ok := ctx.Value(keyMode).(string); ok && v != "" {
		fields = append(fields, zap.String("mode", v))
	}
	return l.base.With(fields...)
}

// Raw returns the underlying *zap.Logger with no context enrichment, for call
// sites without a natural context (e.g. background cleanup loops).
func (l *Logger) Raw() *zap.Logger {
	return l.base
}

// Sync flushes buffered log entries. Call before process exit.
func (l *Logger) Sync() {
	_ = l.base.Sync()
}
