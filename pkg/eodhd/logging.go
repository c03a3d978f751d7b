package eodhd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stockparfait/logging"
)

// ContextLogger implements Logger on top of the context logger of
// github.com/stockparfait/logging.
type ContextLogger struct {
	ctx context.Context
}

// NewContextLogger logs through the logger already installed in ctx.
func NewContextLogger(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx}
}

// NewLevelLogger installs a Go logger at level on ctx and logs through it.
func NewLevelLogger(ctx context.Context, level logging.Level) *ContextLogger {
	return NewContextLogger(logging.Use(ctx, logging.DefaultGoLogger(level)))
}

// Context returns the context carrying the logger.
func (l *ContextLogger) Context() context.Context {
	return l.ctx
}

// Debug implements Logger.
func (l *ContextLogger) Debug(msg string, fields map[string]interface{}) {
	logging.Debugf(l.ctx, "%s", formatFields(msg, fields))
}

// Info implements Logger.
func (l *ContextLogger) Info(msg string, fields map[string]interface{}) {
	logging.Infof(l.ctx, "%s", formatFields(msg, fields))
}

// Warn implements Logger.
func (l *ContextLogger) Warn(msg string, fields map[string]interface{}) {
	logging.Warningf(l.ctx, "%s", formatFields(msg, fields))
}

// Error implements Logger.
func (l *ContextLogger) Error(msg string, fields map[string]interface{}) {
	logging.Errorf(l.ctx, "%s", formatFields(msg, fields))
}

// formatFields renders msg followed by key=value pairs in key order.
func formatFields(msg string, fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var builder strings.Builder

	builder.WriteString(msg)

	for _, key := range keys {
		fmt.Fprintf(&builder, " %s=%v", key, fields[key])
	}

	return builder.String()
}
