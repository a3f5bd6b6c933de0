package enums

import (
	"fmt"
	"strings"
)

// HandshakeStatus tracks a two-party request through its single decision.
type HandshakeStatus string

const (
	HandshakeStatusPending  HandshakeStatus = "pending"
	HandshakeStatusAccepted HandshakeStatus = "accepted"
	HandshakeStatusRejected HandshakeStatus = "rejected"
)

var validHandshakeStatuses = []HandshakeStatus{
	HandshakeStatusPending,
	HandshakeStatusAccepted,
	HandshakeStatusRejected,
}

// String implements fmt.Stringer.
func (s HandshakeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known HandshakeStatus.
func (s HandshakeStatus) IsValid() bool {
	for _, candidate := range validHandshakeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseHandshakeStatus converts raw input into a HandshakeStatus.
func ParseHandshakeStatus(value string) (HandshakeStatus, error) {
	for _, candidate := range validHandshakeStatuses {
		if string(candidate) == strings.ToLower(strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid handshake status %q", value)
}

// Decision is the responder's answer to a pending handshake.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Decision.
func (d Decision) IsValid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// ParseDecision converts raw input into a Decision.
func ParseDecision(value string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(value)))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid decision %q", value)
	}
	return d, nil
}

// Status returns the handshake status the decision resolves to.
func (d Decision) Status() HandshakeStatus {
	if d == DecisionAccept {
		return HandshakeStatusAccepted
	}
	return HandshakeStatusRejected
}
