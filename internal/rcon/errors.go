package rcon

import "errors"

// Error taxonomy for the remote command subsystem. Callers match with
// errors.Is; lower layers wrap these with fmt.Errorf("%w") to add
// context.
var (
	// ErrConnectTimeout means the TCP dial did not complete within the
	// configured connect timeout.
	ErrConnectTimeout = errors.New("rcon: connect timed out")

	// ErrAuthentication means the server rejected the shared secret.
	ErrAuthentication = errors.New("rcon: authentication failed")

	// ErrCommandTimeout means no response arrived for a command within
	// the configured command timeout.
	ErrCommandTimeout = errors.New("rcon: command timed out")

	// ErrNotConnected means a command was issued against a session
	// that is not in the Ready state.
	ErrNotConnected = errors.New("rcon: not connected")

	// ErrSessionClosed is the cancellation error delivered to every
	// pending waiter when the session is torn down.
	ErrSessionClosed = errors.New("rcon: session closed")

	// ErrBatchTooLarge means a raw command batch exceeded MaxBatchSize.
	ErrBatchTooLarge = errors.New("rcon: batch exceeds maximum size")

	// ErrEmptyBatch means a batch contained no commands.
	ErrEmptyBatch = errors.New("rcon: empty batch")
)
