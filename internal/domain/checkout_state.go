package domain

type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "IDLE"
	CheckoutStateSubmitting           CheckoutState = "SUBMITTING"
	CheckoutStateAwaitingConfirmation CheckoutState = "AWAITING_CONFIRMATION"
	CheckoutStatePersisting           CheckoutState = "PERSISTING"
	CheckoutStateComplete             CheckoutState = "COMPLETE"
	CheckoutStateFailed               CheckoutState = "FAILED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateComplete || s == CheckoutStateFailed
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// CanTransitionTo reports whether a checkout attempt may move from one state
// to another. Failure is reachable from any non-terminal state; forward
// progress is strictly sequential.
func CanTransitionTo(from, to CheckoutState) bool {
	if to == CheckoutStateFailed {
		return !from.IsTerminal()
	}

	switch from {
	case CheckoutStateIdle:
		return to == CheckoutStateSubmitting
	case CheckoutStateSubmitting:
		return to == CheckoutStateAwaitingConfirmation
	case CheckoutStateAwaitingConfirmation:
		return to == CheckoutStatePersisting
	case CheckoutStatePersisting:
		return to == CheckoutStateComplete
	default:
		return false
	}
}
