package cryptoauth

import "time"

// State is the position of a verify or secure boot transaction.
type State int

const (
	// StateIdle is the state before any device command
	StateIdle State = iota

	// StateMessageLoaded means the message (or encrypted digest) is in place
	StateMessageLoaded

	// StateCommandExecuted means the Verify or SecureBoot command returned
	StateCommandExecuted

	// StateCompared means the result is final
	StateCompared
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMessageLoaded:
		return "message-loaded"
	case StateCommandExecuted:
		return "command-executed"
	case StateCompared:
		return "compared"
	default:
		return "unknown"
	}
}

// Step is passed to StepCallback on every state change.
type Step struct {
	// Operation is the public method that is running, e.g. "verify-extern-mac"
	Operation string

	// State is the state just entered
	State State

	// Verified is the outcome; meaningful only in StateCompared
	Verified bool

	// ElapsedTime is the time since the operation started
	ElapsedTime time.Duration
}

// StepCallback is called as a transaction advances. A failing step does
// not produce a callback; the error is returned to the caller instead.
// Implementations should return quickly.
type StepCallback func(Step)

// Logger is an optional logging interface that can be provided to the client.
// This allows integration with any logging framework.
//
// Secrets (IO key, TempKey, hashed key) are never passed to the logger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
