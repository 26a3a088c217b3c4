package core

import "strings"

// TelephonyPrefix marks connection identities that originate from the
// telephony bridge rather than the companion app. The remainder of the
// identity is the caller's phone number.
const TelephonyPrefix = "sip_"

// UnknownCallerName is the placeholder display name used when identity
// resolution degrades and no directory record is available.
const UnknownCallerName = "Unknown Caller"

// IsTelephonyIdentity reports whether a connection-level identity came in
// through the telephony bridge.
func IsTelephonyIdentity(identity string) bool {
	return strings.HasPrefix(identity, TelephonyPrefix)
}

// PhoneFromIdentity strips the telephony prefix, returning the embedded
// phone number. Returns the identity unchanged when it is not
// telephony-prefixed.
func PhoneFromIdentity(identity string) string {
	return strings.TrimPrefix(identity, TelephonyPrefix)
}

// Subject is the primary person a conversation is about. For a delegate
// call the subject is still the person being cared for, not the caller.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Caller is the resolved identity of a connected participant. It is
// created once at connection time and never mutated afterwards.
type Caller struct {
	// RawIdentity is the connection-level identifier as delivered by the
	// room transport (possibly telephony-prefixed).
	RawIdentity string

	// Subject anchors memory and context for the whole call.
	Subject Subject

	// IsDelegate is true when the caller is a family contact acting on the
	// subject's behalf rather than the subject themselves.
	IsDelegate bool

	// Degraded is true when directory lookup failed and Subject holds
	// synthetic placeholder data.
	Degraded bool
}

// DisplayName returns the subject's name, falling back to the unknown
// caller placeholder when the directory gave us nothing.
func (c *Caller) DisplayName() string {
	if c.Subject.Name == "" {
		return UnknownCallerName
	}
	return c.Subject.Name
}

// Language returns the subject's preferred language code, defaulting to
// Dutch which is the product's home market.
func (c *Caller) Language() string {
	if c.Subject.Language == "" {
		return "nl"
	}
	return c.Subject.Language
}

// Connection carries the raw facts the room transport hands us when a
// participant joins: their identity, the room label and free-form
// attributes (e.g. an explicit discussion topic set by the app).
type Connection struct {
	ParticipantID string
	RoomName      string
	Attributes    map[string]string
}

// Topic returns the caller-supplied discussion topic, if any.
func (c Connection) Topic() string {
	return c.Attributes["initialRequest"]
}
