package event

import (
	"encoding/json"
	"strings"
	"time"
)

// SkipReason says why an insert event was ignored. Skipped events are
// still acked with 200; the reason only feeds logs.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipFromMe     SkipReason = "from_me"
	SkipGroup      SkipReason = "group_or_broadcast"
	SkipLID        SkipReason = "unresolvable_lid"
	SkipEmptyPhone SkipReason = "empty_phone"
)

// Insert is a parsed new-message event.
type Insert struct {
	Ref            MessageRef
	Phone          string
	PushName       string
	ProfilePicURL  string
	FromMe         bool
	Timestamp      time.Time
	Text           string
	Media          *MediaPayload
	QuotedStanzaID string
	Skip           SkipReason
}

// MediaPayload describes one attachment found on an insert event. Raw is
// the original event data, which the gateway's decrypt endpoint wants
// echoed back verbatim.
type MediaPayload struct {
	Type     string
	URL      string
	MediaKey string
	Mimetype string
	Caption  string
	Raw      json.RawMessage
}

type rawMediaBody struct {
	URL      string          `json:"url"`
	MediaKey json.RawMessage `json:"mediaKey"`
	Mimetype string          `json:"mimetype"`
	Caption  string          `json:"caption"`
	FileName string          `json:"fileName"`
	PTT      bool            `json:"ptt"`
}

type rawTextBody struct {
	Text        string `json:"text"`
	ContextInfo struct {
		StanzaID string `json:"stanzaId"`
	} `json:"contextInfo"`
}

type rawContactBody struct {
	DisplayName string `json:"displayName"`
}

type rawLocationBody struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type rawMessageBody struct {
	Conversation string           `json:"conversation"`
	ExtendedText *rawTextBody     `json:"extendedTextMessage"`
	Image        *rawMediaBody    `json:"imageMessage"`
	Audio        *rawMediaBody    `json:"audioMessage"`
	Video        *rawMediaBody    `json:"videoMessage"`
	Document     *rawMediaBody    `json:"documentMessage"`
	Sticker      *rawMediaBody    `json:"stickerMessage"`
	Contact      *rawContactBody  `json:"contactMessage"`
	Location     *rawLocationBody `json:"locationMessage"`
	ContextInfo  struct {
		StanzaID string `json:"stanzaId"`
	} `json:"contextInfo"`
}

type rawInsert struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	From             string          `json:"from"`
	PushName         string          `json:"pushName"`
	ProfilePicURL    string          `json:"profilePicUrl"`
	MessageTimestamp int64           `json:"messageTimestamp"`
	Message          *rawMessageBody `json:"message"`
}

// ParseInsert decodes a new-message payload and applies the skip rules:
// own messages, group/broadcast/newsletter remotes, LID senders that
// cannot be mapped to a phone number, and degenerate phones.
func ParseInsert(data json.RawMessage) Insert {
	ins := Insert{Ref: ResolveMessageRef(data)}

	var raw rawInsert
	if err := json.Unmarshal(data, &raw); err != nil {
		ins.Skip = SkipEmptyPhone
		return ins
	}

	ins.FromMe = raw.Key.FromMe
	ins.PushName = raw.PushName
	ins.ProfilePicURL = raw.ProfilePicURL
	if raw.MessageTimestamp > 0 {
		ins.Timestamp = time.Unix(raw.MessageTimestamp, 0).UTC()
	} else {
		ins.Timestamp = time.Now().UTC()
	}

	if ins.FromMe {
		ins.Skip = SkipFromMe
		return ins
	}

	jid := raw.Key.RemoteJid
	if jid == "" {
		jid = raw.From
	}
	if isGroupJID(jid) {
		ins.Skip = SkipGroup
		return ins
	}
	phone, ok := PhoneFromJID(jid)
	if !ok {
		ins.Skip = SkipLID
		return ins
	}
	if len(phone) < 8 {
		ins.Skip = SkipEmptyPhone
		return ins
	}
	ins.Phone = phone

	if raw.Message != nil {
		ins.Text = extractText(raw.Message)
		ins.QuotedStanzaID = extractStanzaID(raw.Message)
		ins.Media = extractMedia(raw.Message, data)
	}
	return ins
}

func extractText(body *rawMessageBody) string {
	switch {
	case body.Conversation != "":
		return body.Conversation
	case body.ExtendedText != nil:
		return body.ExtendedText.Text
	case body.Contact != nil:
		return body.Contact.DisplayName
	case body.Location != nil:
		if body.Location.Name != "" {
			return body.Location.Name
		}
		return body.Location.Address
	}
	return ""
}

func extractStanzaID(body *rawMessageBody) string {
	if body.ExtendedText != nil && body.ExtendedText.ContextInfo.StanzaID != "" {
		return body.ExtendedText.ContextInfo.StanzaID
	}
	return body.ContextInfo.StanzaID
}

// extractMedia picks the first media payload present, in the fixed
// precedence order image, audio, video, document, sticker, contact,
// location. Each type has its own caption rule.
func extractMedia(body *rawMessageBody, data json.RawMessage) *MediaPayload {
	build := func(typ string, m *rawMediaBody, caption string) *MediaPayload {
		return &MediaPayload{
			Type:     typ,
			URL:      m.URL,
			MediaKey: NormalizeMediaKey(m.MediaKey),
			Mimetype: m.Mimetype,
			Caption:  caption,
			Raw:      data,
		}
	}
	switch {
	case body.Image != nil:
		return build("image", body.Image, body.Image.Caption)
	case body.Audio != nil:
		typ := "audio"
		if body.Audio.PTT {
			typ = "ptt"
		}
		return build(typ, body.Audio, "")
	case body.Video != nil:
		return build("video", body.Video, body.Video.Caption)
	case body.Document != nil:
		return build("document", body.Document, body.Document.FileName)
	case body.Sticker != nil:
		return build("sticker", body.Sticker, "")
	case body.Contact != nil:
		return &MediaPayload{Type: "contact", Caption: body.Contact.DisplayName, Raw: data}
	case body.Location != nil:
		return &MediaPayload{Type: "location", Caption: body.Location.Name, Raw: data}
	}
	return nil
}

// PhoneFromJID extracts the phone number from a gateway jid such as
// "5511999998888@s.whatsapp.net" or "5511999998888:21@s.whatsapp.net".
// It returns ok=false for LID jids — internal identifiers the gateway
// substitutes for real numbers — detected by the @lid host or by a
// digit run too long to be an E.164 number.
func PhoneFromJID(jid string) (string, bool) {
	if jid == "" {
		return "", false
	}
	user, host, found := strings.Cut(jid, "@")
	if found && host == "lid" {
		return "", false
	}
	if device := strings.IndexByte(user, ':'); device >= 0 {
		user = user[:device]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, user)
	if digits == "" || len(digits) > 15 || strings.HasPrefix(digits, "0") {
		return "", false
	}
	return digits, true
}

func isGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us") ||
		strings.Contains(jid, "@broadcast") ||
		strings.Contains(jid, "@newsletter")
}
