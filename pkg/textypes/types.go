// Package textypes defines the shared types for the TexEdit orchestration engine.
// This file contains the connectivity and execution state enums, the command
// descriptor model, and the normalized command result shape passed between
// the dispatcher and its subscribers.
package textypes

// ConnectionState represents the reachability of the remote text-processing
// backend as tracked by the connectivity monitor.
type ConnectionState int

const (
	// StateDisconnected is the initial state before monitoring starts.
	StateDisconnected ConnectionState = iota
	// StateConnecting means probing is underway but the backend has not
	// answered a health check yet (or answered one and then failed).
	StateConnecting
	// StateConnected means the most recent health probe succeeded.
	StateConnected
	// StateError means the retry ceiling was reached; automatic probing
	// has given up until an explicit retry.
	StateError
)

// String returns a human-readable name for the connection state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ExecutionState gates command execution: at most one command may be in
// flight at any time.
type ExecutionState int

const (
	// ExecutionIdle means no command is currently running.
	ExecutionIdle ExecutionState = iota
	// ExecutionBusy means a command is in flight; further executions are
	// rejected, never queued.
	ExecutionBusy
)

// Outcome classifies the result of a command execution attempt.
type Outcome int

const (
	// OutcomeSuccess means the command completed and produced output.
	OutcomeSuccess Outcome = iota
	// OutcomeUnknownCommand means the base command is not registered.
	OutcomeUnknownCommand
	// OutcomeValidation means arguments were malformed or out of range,
	// or required input text was missing.
	OutcomeValidation
	// OutcomeRemoteUnavailable means the command needs the backend but
	// connectivity is not ready.
	OutcomeRemoteUnavailable
	// OutcomeAlreadyExecuting means another command was still in flight.
	OutcomeAlreadyExecuting
	// OutcomeRemoteError means the backend responded with an application
	// error or an unparsable payload.
	OutcomeRemoteError
	// OutcomeNetworkError means the exchange failed at the transport
	// level before any response was received.
	OutcomeNetworkError
)

// String returns a stable identifier for the outcome, suitable for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnknownCommand:
		return "unknown_command"
	case OutcomeValidation:
		return "validation_error"
	case OutcomeRemoteUnavailable:
		return "remote_unavailable"
	case OutcomeAlreadyExecuting:
		return "already_executing"
	case OutcomeRemoteError:
		return "remote_error"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// ArgumentKind describes the shape of a command's argument slot.
type ArgumentKind int

const (
	// ArgNone means the command takes no argument.
	ArgNone ArgumentKind = iota
	// ArgEnumerated means the argument must be one of a closed set of
	// literal values.
	ArgEnumerated
	// ArgPercentage means the argument is an optional integer percentage
	// in the open range 1..99.
	ArgPercentage
)

// CommandDescriptor describes a registered command. Descriptors are built
// once from the embedded catalog and never mutated afterwards.
type CommandDescriptor struct {
	Name           string
	Description    string
	Usage          string
	ArgumentKind   ArgumentKind
	ArgumentValues []string
	RequiresRemote bool
	RequiresInput  bool
}

// ParsedCommand is the validated form of one raw input line. It is created
// fresh per parse attempt and discarded after execution completes.
type ParsedCommand struct {
	Base       string
	RawArgs    []string
	Structured map[string]any
}

// Result is the normalized outcome of one command execution, delivered to
// completion subscribers regardless of which error branch produced it.
type Result struct {
	Command string
	Outcome Outcome
	Message string
}
