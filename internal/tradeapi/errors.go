package tradeapi

import "errors"

// ErrorKind classifies a failed submission by what is known about the
// outcome on the server side.
type ErrorKind int

const (
	// KindTransport means no response was received. The outcome is
	// ambiguous: the order may or may not have been accepted. Retrying
	// with the same request id is safe because the server deduplicates.
	KindTransport ErrorKind = iota

	// KindRejected means the service returned a definite failure, e.g.
	// insufficient balance. Safe to retry with corrected input, unsafe to
	// blindly resubmit unchanged.
	KindRejected

	// KindMalformed means a success code arrived without a usable receipt
	// payload. Treated as a failure even though a trade may have occurred.
	KindMalformed
)

// SubmissionError is an error from the trade service boundary.
type SubmissionError struct {
	Kind    ErrorKind
	Code    string // service code, e.g. "INSUFFICIENT_BALANCE"
	Message string
	cause   error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindTransport:
		return "trade service unreachable"
	case KindMalformed:
		return "trade service returned a malformed response"
	default:
		return "order rejected"
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.cause
}

// Ambiguous reports whether the outcome on the server is unknown, i.e.
// whether a retry with the same request id is the appropriate recovery.
func (e *SubmissionError) Ambiguous() bool {
	return e.Kind == KindTransport
}

// AsSubmissionError extracts a *SubmissionError from an error chain.
func AsSubmissionError(err error) (*SubmissionError, bool) {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
