package event

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MessageRef is the dual identity of a gateway message: the numeric id
// used for replies and the provider-internal key (stanza) id. Either may
// be absent depending on which event shape carried it, so every lookup
// must try both.
type MessageRef struct {
	MessageID int64
	KeyID     string
}

// Empty reports whether the ref carries no usable identifier at all.
func (r MessageRef) Empty() bool {
	return r.MessageID == 0 && r.KeyID == ""
}

type rawRef struct {
	ID        json.RawMessage `json:"id"`
	MessageID json.RawMessage `json:"messageId"`
	KeyID     string          `json:"keyId"`
	Key       struct {
		ID string `json:"id"`
	} `json:"key"`
}

// ResolveMessageRef extracts both possible message identifiers from an
// event payload. Different gateway versions put the numeric id under
// "id" or "messageId" (as a number or a numeric string) and the key id
// under "keyId", "key.id" or a non-numeric "id"; this is the single
// place that knows all of those spellings.
func ResolveMessageRef(data json.RawMessage) MessageRef {
	var raw rawRef
	if err := json.Unmarshal(data, &raw); err != nil {
		return MessageRef{}
	}

	ref := MessageRef{KeyID: raw.KeyID}
	if ref.KeyID == "" {
		ref.KeyID = raw.Key.ID
	}

	if n, ok := coerceInt64(raw.MessageID); ok {
		ref.MessageID = n
	} else if n, ok := coerceInt64(raw.ID); ok {
		ref.MessageID = n
	} else if ref.KeyID == "" {
		// A non-numeric "id" is the key id in older delete payloads.
		var s string
		if json.Unmarshal(raw.ID, &s) == nil {
			ref.KeyID = s
		}
	}
	return ref
}

func coerceInt64(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n != 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, n != 0
		}
	}
	return 0, false
}
