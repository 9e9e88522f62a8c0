// Package tactile is the process boundary of the judge. It spawns a candidate
// program, exposes line-oriented send and receive-with-timeout over its pipes, and
// guarantees the process and its listeners are torn down when the session ends.
//
// The interactor only sees the Channel port; Process is the os/exec adapter.
package tactile

import (
	"errors"
	"strings"
	"time"
)

// ErrClosed is returned by Send once the channel has been torn down.
var ErrClosed = errors.New("tactile: channel closed")

// Command describes how to launch a candidate.
type Command struct {
	// Binary is the executable to run (e.g., "java").
	Binary string `json:"binary" yaml:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments,omitempty" yaml:"args,omitempty"`

	// WorkingDirectory is the directory to execute in. Empty means the current one.
	WorkingDirectory string `json:"working_directory,omitempty" yaml:"working_directory,omitempty"`

	// Environment variables to add (KEY=VALUE) on top of the judge's environment.
	Environment []string `json:"environment,omitempty" yaml:"env,omitempty"`

	// RequestID links the process to a run for logging.
	RequestID string `json:"request_id,omitempty" yaml:"-"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// Teardown bounds each step of process shutdown and the diagnostic capture.
type Teardown struct {
	// GracePeriod is how long to wait for a voluntary exit after stdin is closed.
	GracePeriod time.Duration `json:"grace_period"`

	// KillWait is how long to wait for the process to be reaped after a kill.
	KillWait time.Duration `json:"kill_wait"`

	// JoinWait bounds the wait for each listener goroutine to finish.
	JoinWait time.Duration `json:"join_wait"`

	// MaxDiagnosticBytes caps how much stderr is retained.
	MaxDiagnosticBytes int64 `json:"max_diagnostic_bytes"`

	// QueueSize is the capacity of the primary output line queue.
	QueueSize int `json:"queue_size"`
}

// DefaultTeardown returns the shutdown bounds used by the judge.
func DefaultTeardown() Teardown {
	return Teardown{
		GracePeriod:        500 * time.Millisecond,
		KillWait:           2 * time.Second,
		JoinWait:           500 * time.Millisecond,
		MaxDiagnosticBytes: 1 << 20, // 1MB
		QueueSize:          1024,
	}
}

func (t Teardown) withDefaults() Teardown {
	d := DefaultTeardown()
	if t.GracePeriod <= 0 {
		t.GracePeriod = d.GracePeriod
	}
	if t.KillWait <= 0 {
		t.KillWait = d.KillWait
	}
	if t.JoinWait <= 0 {
		t.JoinWait = d.JoinWait
	}
	if t.MaxDiagnosticBytes <= 0 {
		t.MaxDiagnosticBytes = d.MaxDiagnosticBytes
	}
	if t.QueueSize <= 0 {
		t.QueueSize = d.QueueSize
	}
	return t
}

// Status classifies the result of a Receive.
type Status int

const (
	// StatusLine means a line was read from the primary output.
	StatusLine Status = iota
	// StatusTimeout means nothing arrived within the wait.
	StatusTimeout
	// StatusClosed means the primary output ended and the process has exited.
	StatusClosed
	// StatusCanceled means the caller's context was done.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusLine:
		return "line"
	case StatusTimeout:
		return "timeout"
	case StatusClosed:
		return "closed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ResourceUsage contains metrics about resource consumption of an exited process.
type ResourceUsage struct {
	// UserTimeMs is user-mode CPU time in milliseconds.
	UserTimeMs int64 `json:"user_time_ms"`

	// SystemTimeMs is kernel-mode CPU time in milliseconds.
	SystemTimeMs int64 `json:"system_time_ms"`

	// MaxRSSBytes is peak resident set size in bytes (0 where unavailable).
	MaxRSSBytes int64 `json:"max_rss_bytes"`
}

// TotalCPUTimeMs returns total CPU time (user + system).
func (r *ResourceUsage) TotalCPUTimeMs() int64 {
	return r.UserTimeMs + r.SystemTimeMs
}
