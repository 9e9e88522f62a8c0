package tactile

import (
	"context"
	"time"
)

// Channel is the line-oriented port the interactor drives. Implementations must
// deliver primary output lines in the order the candidate wrote them.
type Channel interface {
	// Send writes one line (without the trailing newline) to the candidate.
	Send(line string) error

	// Receive waits up to timeout for the next primary output line.
	// StatusClosed is reported only once the output has ended and the
	// candidate has actually exited; until then a drained stream keeps waiting.
	Receive(ctx context.Context, timeout time.Duration) (string, Status)

	// Kill forcibly terminates the candidate. Safe to call repeatedly.
	Kill()

	// Exited reports whether the candidate has terminated.
	Exited() bool

	// Diagnostics returns the captured diagnostic output so far.
	Diagnostics() string

	// Close tears the candidate down. Idempotent.
	Close() error
}
