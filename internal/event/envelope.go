// Package event parses the messaging gateway's webhook envelopes into
// typed, variant-specific records. The gateway delivers events at least
// once and in no particular order; parsing here is lenient by contract —
// an unrecognized shape degrades to the Unknown kind and is acked, never
// rejected.
package event

import (
	"encoding/json"
)

// Envelope is the outer webhook body: a discriminant event name plus an
// event-specific data object.
type Envelope struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Data    json.RawMessage `json:"data"`
}

// Kind is the closed set of event variants the processor understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindMessageInsert
	KindMessageUpdate
	KindMessageDelete
	KindReaction
	KindPresence
)

func (k Kind) String() string {
	switch k {
	case KindMessageInsert:
		return "message.insert"
	case KindMessageUpdate:
		return "message.update"
	case KindMessageDelete:
		return "message.delete"
	case KindReaction:
		return "reaction"
	case KindPresence:
		return "presence"
	default:
		return "unknown"
	}
}

// Classify maps the provider's event discriminant onto Kind. The
// discriminant is an opaque string; anything outside the known set is
// KindUnknown and must be acked without processing.
func Classify(event string) Kind {
	switch event {
	case "messages.upsert", "onmessage":
		return KindMessageInsert
	case "messages.update", "onack":
		return KindMessageUpdate
	case "messages.delete", "onrevokedmessage":
		return KindMessageDelete
	case "messages.reaction", "onreactionmessage":
		return KindReaction
	case "presence.update", "onpresencechanged":
		return KindPresence
	default:
		return KindUnknown
	}
}
