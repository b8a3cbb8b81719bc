// Package context carries run-scoped tracing values through a build
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context keys. Unexported struct pointers prevent collisions.
var (
	runIDKey     = &struct{}{}
	stepKey      = &struct{}{}
	startTimeKey = &struct{}{}
)

// WithRunID adds a run ID to the context, generating one when empty
func WithRunID(parent context.Context, runID string) context.Context {
	if runID == "" {
		runID = GenerateRunID()
	}
	return context.WithValue(parent, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		return id
	}
	return ""
}

// WithStep records the pipeline step currently being planned or executed
func WithStep(parent context.Context, step string) context.Context {
	return context.WithValue(parent, stepKey, step)
}

// GetStep retrieves the step name from context
func GetStep(ctx context.Context) string {
	if s, ok := ctx.Value(stepKey).(string); ok {
		return s
	}
	return ""
}

// WithStartTime adds the run start time to the context
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// GetDuration returns the time elapsed since the start time in context,
// or zero when none was recorded
func GetDuration(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// GenerateRunID creates a new unique run ID
func GenerateRunID() string {
	return "run_" + uuid.New().String()
}

// NewRun returns a context carrying a fresh run ID and start time
func NewRun(parent context.Context) context.Context {
	ctx := parent
	if GetRunID(ctx) == "" {
		ctx = WithRunID(ctx, "")
	}
	return WithStartTime(ctx, time.Now())
}
