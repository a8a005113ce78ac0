package castle

import (
	"fmt"
)

// Event identifies which lifecycle event an attempt is reporting.
type Event int

const (
	EventLogin Event = iota
	EventRegistration
	EventProfileUpdate
	EventTransaction
	EventPasswordResetRequest
)

// eventWire maps events onto their wire values. Serialization is an explicit
// two-way mapping so it stays independent of any display concern.
var eventWire = map[Event]string{
	EventLogin:                "$login",
	EventRegistration:         "$registration",
	EventProfileUpdate:        "$profile_update",
	EventTransaction:          "$transaction",
	EventPasswordResetRequest: "$password_reset_request",
}

// WireValue returns the event name sent to the risk service.
func (e Event) WireValue() string {
	return eventWire[e]
}

// ParseEvent maps a wire value back onto an Event.
func ParseEvent(raw string) (Event, error) {
	for ev, wire := range eventWire {
		if wire == raw {
			return ev, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", raw)
}

// Status reports how the event concluded.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusAttempted
)

var statusWire = map[Status]string{
	StatusSucceeded: "$succeeded",
	StatusFailed:    "$failed",
	StatusAttempted: "$attempted",
}

// WireValue returns the status value sent to the risk service.
func (s Status) WireValue() string {
	return statusWire[s]
}

// ParseStatus maps a wire value back onto a Status.
func ParseStatus(raw string) (Status, error) {
	for st, wire := range statusWire {
		if wire == raw {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

// RequestContext carries the client-side facts about the request being
// assessed: originating IP and the filtered header set.
type RequestContext struct {
	IP      string            `json:"ip"`
	Headers map[string]string `json:"headers"`
}

// User identifies the subject of the attempt. Email and ID are optional;
// username is always present.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Payload is the request body for the risk, filter, and log operations.
// Built fresh per call and immutable once built.
type Payload struct {
	Event        string         `json:"event"`
	Status       string         `json:"status"`
	Context      RequestContext `json:"context"`
	User         User           `json:"user"`
	RequestToken string         `json:"request_token"`
}
