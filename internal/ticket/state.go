package ticket

import (
	"github.com/ismaiel54/trade-ticket/internal/order"
)

// Phase is the position of a form's submission in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseSubmitting:
		return "SUBMITTING"
	case PhaseSucceeded:
		return "SUCCEEDED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// State is a tagged union over the submission lifecycle. Which fields are
// set depends on the phase:
//
//	Idle        — nothing
//	Submitting  — RequestID
//	Succeeded   — Receipt (RequestID echoed inside it)
//	Failed      — Err, RequestID
//
// Holding all of receipt, error, and in-flight flag in one value rules out
// impossible combinations like a receipt alongside an in-flight request.
type State struct {
	Phase     Phase
	RequestID string
	Receipt   *order.TradeReceipt
	Err       error
}

// CanSubmit reports whether a new submission would be accepted.
func (s State) CanSubmit() bool {
	return s.Phase == PhaseIdle || s.Phase == PhaseFailed
}

// ErrorMessage returns the user-facing message for a failed submission,
// falling back to a generic one.
func (s State) ErrorMessage() string {
	if s.Phase != PhaseFailed || s.Err == nil {
		return ""
	}
	if msg := s.Err.Error(); msg != "" {
		return msg
	}
	return "Order failed, please try again"
}
