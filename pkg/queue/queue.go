// Package queue provides the ordered, fail-fast command queue that executes a
// planned build
package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/appbuilder/appbuilder/pkg/interfaces"
	"github.com/appbuilder/appbuilder/pkg/logger"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// ErrAborted is returned when a queue that already failed is used again
var ErrAborted = errors.New("command queue aborted by an earlier failure")

// ActionFunc is an in-process host action run in queue order
type ActionFunc func(ctx context.Context) error

// OperationKind distinguishes the three shapes of queued work
type OperationKind string

const (
	KindLabel   OperationKind = "label"
	KindCommand OperationKind = "command"
	KindAction  OperationKind = "action"
)

// Operation is one annotated unit of queued work
type Operation struct {
	Label   string
	Command *types.Command
	Action  ActionFunc
	// Detail describes an action for plans and logs
	Detail string
}

// Kind reports which shape the operation has
func (o Operation) Kind() OperationKind {
	switch {
	case o.Command != nil:
		return KindCommand
	case o.Action != nil:
		return KindAction
	default:
		return KindLabel
	}
}

// CommandQueue is an append-only list of operations executed strictly in
// insertion order. It is owned by a single run and is not safe for concurrent use.
type CommandQueue struct {
	ops     []Operation
	runner  interfaces.CommandRunner
	output  io.Writer
	logger  logger.Logger
	aborted bool
}

// Option configures a CommandQueue
type Option func(*CommandQueue)

// WithOutput sets where external tool output is streamed
func WithOutput(w io.Writer) Option {
	return func(q *CommandQueue) {
		q.output = w
	}
}

// WithLogger sets the logger used for progress and failures
func WithLogger(log logger.Logger) Option {
	return func(q *CommandQueue) {
		q.logger = log
	}
}

// New creates an empty queue that runs commands through runner
func New(runner interfaces.CommandRunner, opts ...Option) *CommandQueue {
	q := &CommandQueue{
		runner: runner,
		output: os.Stdout,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Announce appends a progress label
func (q *CommandQueue) Announce(label string) {
	q.ops = append(q.ops, Operation{Label: label})
}

// Enqueue appends an external command annotated with label. Nothing runs
// until ExecuteAll.
func (q *CommandQueue) Enqueue(label string, cmd types.Command) {
	c := cmd
	c.Args = append([]string(nil), cmd.Args...)
	q.ops = append(q.ops, Operation{Label: label, Command: &c})
}

// EnqueueAction appends an in-process action annotated with label
func (q *CommandQueue) EnqueueAction(label, detail string, fn ActionFunc) {
	q.ops = append(q.ops, Operation{Label: label, Action: fn, Detail: detail})
}

// Len returns the number of pending operations
func (q *CommandQueue) Len() int {
	return len(q.ops)
}

// Operations returns a copy of the pending operations
func (q *CommandQueue) Operations() []Operation {
	return append([]Operation(nil), q.ops...)
}

// ExecuteAll runs every pending operation in FIFO order. The first failure
// stops the run: later operations are not started, side effects of earlier
// ones are kept, and the queue refuses further use. On full success the queue
// is cleared and may be filled again.
func (q *CommandQueue) ExecuteAll(ctx context.Context) error {
	if q.aborted {
		return ErrAborted
	}

	for i, op := range q.ops {
		if err := ctx.Err(); err != nil {
			q.aborted = true
			return err
		}
		if err := q.execute(ctx, op); err != nil {
			q.aborted = true
			q.logger.Debug("Skipping remaining operations",
				logger.WithField("skipped", len(q.ops)-i-1))
			return err
		}
	}

	q.ops = nil
	return nil
}

func (q *CommandQueue) execute(ctx context.Context, op Operation) error {
	switch op.Kind() {
	case KindLabel:
		q.logger.Info(op.Label)
		return nil

	case KindAction:
		q.logger.Debug("Running action", logger.WithField("action", op.Detail))
		if err := op.Action(ctx); err != nil {
			q.logger.Error(fmt.Sprintf("Action %q failed", op.Detail), logger.WithField("error", err))
			return fmt.Errorf("%s: %w", op.Label, err)
		}
		return nil
	}

	line := op.Command.String()
	q.logger.Debug("Executing", logger.WithField("command", line))

	tail := newTailBuffer(tailSize)
	code, err := q.runner.Run(ctx, *op.Command, io.MultiWriter(q.output, tail))
	if err != nil || code != 0 {
		failure := &ToolFailure{
			Label:    op.Label,
			Command:  line,
			ExitCode: code,
			Output:   tail.String(),
			Cause:    err,
		}
		q.logger.Error(fmt.Sprintf("Command %q returned a non-zero exit code", line),
			logger.WithField("exit_code", code))
		return failure
	}
	return nil
}
