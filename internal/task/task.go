// Package task defines the units of work the TUI and CLI share: named
// operations with a uniform result shape.
package task

import "context"

// Status classifies how a task run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusNoOp      Status = "no-op"
)

// Info describes a task for menus and logs.
type Info struct {
	ID          string
	Name        string
	Description string
}

// Result is the outcome of one task run.
type Result struct {
	Status  Status
	Message string
}

// Task couples a description with its runner. Run returns an error only for
// failures the caller should surface; expected conditions go in the Result.
type Task struct {
	Info Info
	Run  func(ctx context.Context) (Result, error)
}

// Completed builds a successful result.
func Completed(message string) Result {
	return Result{Status: StatusCompleted, Message: message}
}

// Failed builds a failure result.
func Failed(message string) Result {
	return Result{Status: StatusFailed, Message: message}
}

// NoOp builds a nothing-to-do result.
func NoOp(message string) Result {
	return Result{Status: StatusNoOp, Message: message}
}
