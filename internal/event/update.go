package event

import (
	"encoding/json"
)

// StatusUpdate is a parsed messages.update event. Exactly one of the
// three sub-shapes is meaningful per delivery: an ack code, an edited
// message body, or a group read receipt.
type StatusUpdate struct {
	Ref        MessageRef
	Ack        int
	EditedText string
	HasEdit    bool
	HasReceipt bool
}

type rawUpdate struct {
	Ack     *int            `json:"ack"`
	Status  *int            `json:"status"`
	Receipt json.RawMessage `json:"receipt"`
	Edited  json.RawMessage `json:"editedMessage"`
}

// ParseStatusUpdate decodes a messages.update payload. The ack code may
// live under "ack" or "status" depending on the gateway version.
func ParseStatusUpdate(data json.RawMessage) StatusUpdate {
	upd := StatusUpdate{Ref: ResolveMessageRef(data)}

	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return upd
	}
	if raw.Ack != nil {
		upd.Ack = *raw.Ack
	} else if raw.Status != nil {
		upd.Ack = *raw.Status
	}
	upd.HasReceipt = len(raw.Receipt) > 0 && string(raw.Receipt) != "null"
	if len(raw.Edited) > 0 && string(raw.Edited) != "null" {
		if text, ok := extractEditedText(raw.Edited); ok {
			upd.EditedText = text
			upd.HasEdit = true
		}
	}
	return upd
}

// extractEditedText pulls the new text out of an edited-message payload,
// which nests it differently per original message type: plain text,
// extended text, or a media caption.
func extractEditedText(edited json.RawMessage) (string, bool) {
	var raw struct {
		Message *rawMessageBody `json:"message"`
	}
	if err := json.Unmarshal(edited, &raw); err != nil {
		return "", false
	}
	body := raw.Message
	if body == nil {
		// Some gateway versions skip the "message" wrapper.
		body = new(rawMessageBody)
		if err := json.Unmarshal(edited, body); err != nil {
			return "", false
		}
	}
	switch {
	case body.Conversation != "":
		return body.Conversation, true
	case body.ExtendedText != nil && body.ExtendedText.Text != "":
		return body.ExtendedText.Text, true
	case body.Image != nil && body.Image.Caption != "":
		return body.Image.Caption, true
	case body.Video != nil && body.Video.Caption != "":
		return body.Video.Caption, true
	}
	return "", false
}

// Reaction is a parsed messages.reaction event. An empty Emoji means the
// reaction was removed and the stored value must be cleared.
type Reaction struct {
	Ref   MessageRef
	Emoji string
}

func ParseReaction(data json.RawMessage) Reaction {
	var raw struct {
		Reaction struct {
			Text string `json:"text"`
		} `json:"reaction"`
		Text string `json:"text"`
	}
	_ = json.Unmarshal(data, &raw)
	emoji := raw.Reaction.Text
	if emoji == "" {
		emoji = raw.Text
	}
	return Reaction{Ref: ResolveMessageRef(data), Emoji: emoji}
}

// Presence is a typing/recording indicator. It is never persisted, only
// rebroadcast to the UI.
type Presence struct {
	Phone string
	State string
}

func ParsePresence(data json.RawMessage) Presence {
	var raw struct {
		ID       string `json:"id"`
		Presence string `json:"presence"`
		State    string `json:"state"`
	}
	_ = json.Unmarshal(data, &raw)
	state := raw.Presence
	if state == "" {
		state = raw.State
	}
	phone, _ := PhoneFromJID(raw.ID)
	return Presence{Phone: phone, State: state}
}
