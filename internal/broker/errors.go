package broker

import "fmt"

// ConnectError reports a failure to establish the broker transport.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("broker connect %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// JoinError reports a rejected or timed-out room join. A failed join does not
// roll back a successful start; the connection stays in the started state.
type JoinError struct {
	Room   string
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join room %s: %s", e.Room, e.Reason)
}
