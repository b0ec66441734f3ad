package textypes

import "errors"

// Sentinel errors forming the engine's error taxonomy. Components wrap these
// with context via fmt.Errorf("...: %w", ...); callers classify with
// errors.Is and OutcomeForError.
var (
	// ErrUnknownCommand marks an unregistered base command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrValidation marks malformed or out-of-range arguments, or missing
	// required input text.
	ErrValidation = errors.New("validation error")
	// ErrRemoteUnavailable marks a backend-dependent command attempted
	// while connectivity is not ready.
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	// ErrAlreadyExecuting marks a rejected concurrent execution.
	ErrAlreadyExecuting = errors.New("another command is already running")
	// ErrRemote marks a backend response carrying an application-level
	// error or an unparsable payload.
	ErrRemote = errors.New("remote error")
	// ErrNetwork marks a transport-level failure or timeout, before any
	// response was received.
	ErrNetwork = errors.New("network error")
)

// OutcomeForError maps a taxonomy error to its outcome classification.
// Errors outside the taxonomy map to OutcomeRemoteError as the most
// conservative "something answered wrongly" bucket.
func OutcomeForError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnknownCommand):
		return OutcomeUnknownCommand
	case errors.Is(err, ErrValidation):
		return OutcomeValidation
	case errors.Is(err, ErrRemoteUnavailable):
		return OutcomeRemoteUnavailable
	case errors.Is(err, ErrAlreadyExecuting):
		return OutcomeAlreadyExecuting
	case errors.Is(err, ErrNetwork):
		return OutcomeNetworkError
	default:
		return OutcomeRemoteError
	}
}
