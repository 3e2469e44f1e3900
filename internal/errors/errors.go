package errors

import "errors"

// Engine error taxonomy. Decoding failures are fatal for the quiz being
// loaded; rejected submissions require a quiz reload before retrying; network
// failures are retried only by an explicit user action.
var (
	// Malformed payloads (fatal for the affected quiz or grading call).
	ErrMalformedQuestion      = errors.New("malformed question payload")
	ErrMalformedGradingResult = errors.New("unrecognized grading result shape")

	// Programming/UI errors.
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrWrongAnswerKind   = errors.New("answer kind does not match question type")
	ErrInvalidTransition = errors.New("event not valid in current session state")

	// Recoverable service errors.
	ErrSubmissionRejected    = errors.New("submission rejected: quiz or question unknown to grading service")
	ErrNetworkFailure        = errors.New("grading service unreachable")
	ErrValidationUnavailable = errors.New("detailed validation unavailable for this attempt")

	// Lookup errors.
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")

	// Session lifecycle.
	ErrSessionActive = errors.New("an attempt is already in progress for this session")
	ErrSessionClosed = errors.New("session was closed before the result arrived")
)

// IsMalformed reports decoding-class failures: a bad quiz payload or a
// grading response matching neither known shape.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedQuestion) ||
		errors.Is(err, ErrMalformedGradingResult)
}

// IsRecoverable reports failures the user may retry (after a reload, for
// rejected submissions) without the session being torn down.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSubmissionRejected) ||
		errors.Is(err, ErrNetworkFailure) ||
		errors.Is(err, ErrValidationUnavailable)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}
