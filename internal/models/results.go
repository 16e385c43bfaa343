package models

import "time"

// ConflictPolicy controls what happens when a restore destination already
// exists. It applies uniformly to every item in a run.
type ConflictPolicy int

const (
	// Overwrite replaces existing destinations in place (default).
	Overwrite ConflictPolicy = iota
	// SkipExisting leaves existing destinations untouched.
	SkipExisting
	// Force clears read-only attributes and deletes the destination before
	// copying.
	Force
)

func (p ConflictPolicy) String() string {
	switch p {
	case SkipExisting:
		return "skip-existing"
	case Force:
		return "force"
	default:
		return "overwrite"
	}
}

// ItemStatus is the outcome of one item copy.
type ItemStatus int

const (
	StatusCopied ItemStatus = iota
	StatusSkipped
	StatusMissing
	StatusFailed
)

func (s ItemStatus) String() string {
	switch s {
	case StatusCopied:
		return "ok"
	case StatusSkipped:
		return "skip"
	case StatusMissing:
		return "missing"
	default:
		return "error"
	}
}

// ItemResult records the outcome of one item within a run.
type ItemResult struct {
	Category string
	Item     string
	Status   ItemStatus
	Err      error
}

// RunReport aggregates the outcome of a single backup or restore invocation.
// It is returned by the engine and owned by the caller; nothing persists
// across runs.
type RunReport struct {
	Root     string // resolved backup root for this run
	Copied   int
	Skipped  int
	Missing  int
	Errors   int
	Items    []ItemResult
	Duration time.Duration
}

// Add records one item outcome and bumps the matching counter.
func (r *RunReport) Add(res ItemResult) {
	r.Items = append(r.Items, res)
	switch res.Status {
	case StatusCopied:
		r.Copied++
	case StatusSkipped:
		r.Skipped++
	case StatusMissing:
		r.Missing++
	case StatusFailed:
		r.Errors++
	}
}

// MirrorResult holds the outcome of one directory mirror operation.
type MirrorResult struct {
	ExitCode int
	Output   string
	Duration time.Duration
	Error    error
}

// Process describes one running process matched by the process guard.
type Process struct {
	PID  int
	Name string
}
