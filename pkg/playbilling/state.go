package playbilling

// State is a subscriptionsv2 lifecycle state.
type State string

const (
	StateActive        State = "SUBSCRIPTION_STATE_ACTIVE"
	StateExpired       State = "SUBSCRIPTION_STATE_EXPIRED"
	StateCanceled      State = "SUBSCRIPTION_STATE_CANCELED"
	StateInGracePeriod State = "SUBSCRIPTION_STATE_IN_GRACE_PERIOD"
	StateOnHold        State = "SUBSCRIPTION_STATE_ON_HOLD"
	StatePaused        State = "SUBSCRIPTION_STATE_PAUSED"
)

var statusMessages = map[State]string{
	StateActive:        "Active subscription",
	StateExpired:       "Expired subscription",
	StateCanceled:      "Canceled subscription",
	StateInGracePeriod: "Subscription in grace period",
	StateOnHold:        "Subscription on hold",
	StatePaused:        "Paused subscription",
}

// Known reports whether s is one of the six handled states.
func (s State) Known() bool {
	_, ok := statusMessages[s]
	return ok
}

// Entitling reports whether the state still grants premium access when the
// expiry lies in the future. Grace period and account hold keep access.
func (s State) Entitling() bool {
	switch s {
	case StateActive, StateInGracePeriod, StateOnHold:
		return true
	default:
		return false
	}
}

// StatusMessage returns a user facing description of s.
func StatusMessage(s State) string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return "Unknown status"
}

// AcknowledgementState is the purchase acknowledgement state. Empty when the
// provider omitted it.
type AcknowledgementState string

const (
	AcknowledgementAcknowledged AcknowledgementState = "ACKNOWLEDGEMENT_STATE_ACKNOWLEDGED"
	AcknowledgementPending      AcknowledgementState = "ACKNOWLEDGEMENT_STATE_PENDING"
)

func parseAcknowledgement(v string) AcknowledgementState {
	switch s := AcknowledgementState(v); s {
	case AcknowledgementAcknowledged, AcknowledgementPending:
		return s
	default:
		return ""
	}
}
