package moqtail

import "fmt"

// Sentinel errors returned by Session operations and the wire/protocol
// layers beneath them. Callers should compare with errors.Is, since
// most are wrapped on their way up (e.g. InternalError below).
var (
	ErrProtocolViolation = fmt.Errorf("moqtail: protocol violation")
	ErrSessionClosed     = fmt.Errorf("moqtail: session closed")
	ErrUnknownTrack      = fmt.Errorf("moqtail: unknown track")
	ErrNotSubscribed     = fmt.Errorf("moqtail: not subscribed")
)

// InternalError wraps an unexpected failure surfaced from the
// transport (a dial error, a stream read/write error, …) with the
// operation that triggered it.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("moqtail: %s: %v", e.Op, e.Err) }
func (e *InternalError) Unwrap() error { return e.Err }

func internalErrorf(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
