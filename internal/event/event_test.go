package event

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		event string
		want  Kind
	}{
		{"messages.upsert", KindMessageInsert},
		{"onmessage", KindMessageInsert},
		{"messages.update", KindMessageUpdate},
		{"onack", KindMessageUpdate},
		{"messages.delete", KindMessageDelete},
		{"messages.reaction", KindReaction},
		{"presence.update", KindPresence},
		{"chats.update", KindUnknown},
		{"", KindUnknown},
		{"something.new", KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.event); got != tt.want {
			t.Fatalf("Classify(%q) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestResolveMessageRef(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantID  int64
		wantKey string
	}{
		{"numeric id", `{"id": 12345}`, 12345, ""},
		{"numeric string id", `{"id": "12345"}`, 12345, ""},
		{"messageId field", `{"messageId": 999}`, 999, ""},
		{"keyId field", `{"keyId": "ABCDEF"}`, 0, "ABCDEF"},
		{"key object", `{"key": {"id": "3EB0AAAA"}}`, 0, "3EB0AAAA"},
		{"both ids", `{"id": 7, "keyId": "K1"}`, 7, "K1"},
		{"non-numeric id is a key id", `{"id": "3EB0BBBB"}`, 0, "3EB0BBBB"},
		{"messageId wins over id", `{"id": 1, "messageId": 2}`, 2, ""},
		{"empty payload", `{}`, 0, ""},
		{"garbage", `[1,2]`, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ResolveMessageRef(json.RawMessage(tt.data))
			if ref.MessageID != tt.wantID || ref.KeyID != tt.wantKey {
				t.Fatalf("ResolveMessageRef(%s) = {%d %q}, want {%d %q}",
					tt.data, ref.MessageID, ref.KeyID, tt.wantID, tt.wantKey)
			}
		})
	}
}

func TestPhoneFromJID(t *testing.T) {
	tests := []struct {
		jid   string
		phone string
		ok    bool
	}{
		{"5511999998888@s.whatsapp.net", "5511999998888", true},
		{"5511999998888:21@s.whatsapp.net", "5511999998888", true},
		{"5511999998888", "5511999998888", true},
		{"123456789012345678@lid", "", false},
		{"123456789012345678@s.whatsapp.net", "", false}, // too long for E.164
		{"0123456789@s.whatsapp.net", "", false},
		{"@s.whatsapp.net", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		phone, ok := PhoneFromJID(tt.jid)
		if phone != tt.phone || ok != tt.ok {
			t.Fatalf("PhoneFromJID(%q) = (%q, %v), want (%q, %v)", tt.jid, phone, ok, tt.phone, tt.ok)
		}
	}
}

func TestParseInsertSkips(t *testing.T) {
	tests := []struct {
		name string
		data string
		want SkipReason
	}{
		{"from me", `{"id":1,"key":{"id":"K","remoteJid":"5511988887777@s.whatsapp.net","fromMe":true}}`, SkipFromMe},
		{"group", `{"id":1,"key":{"id":"K","remoteJid":"1234-5678@g.us"}}`, SkipGroup},
		{"broadcast", `{"id":1,"key":{"id":"K","remoteJid":"status@broadcast"}}`, SkipGroup},
		{"newsletter", `{"id":1,"key":{"id":"K","remoteJid":"12345@newsletter"}}`, SkipGroup},
		{"lid sender", `{"id":1,"key":{"id":"K","remoteJid":"99887766554433221100@lid"}}`, SkipLID},
		{"short phone", `{"id":1,"key":{"id":"K","remoteJid":"1234@s.whatsapp.net"}}`, SkipEmptyPhone},
		{"accepted", `{"id":1,"key":{"id":"K","remoteJid":"5511988887777@s.whatsapp.net"},"message":{"conversation":"oi"}}`, SkipNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := ParseInsert(json.RawMessage(tt.data))
			if ins.Skip != tt.want {
				t.Fatalf("skip = %q, want %q", ins.Skip, tt.want)
			}
		})
	}
}

func TestParseInsertTextAndQuote(t *testing.T) {
	data := `{
		"id": 555,
		"key": {"id": "3EB0CCCC", "remoteJid": "5511988887777@s.whatsapp.net"},
		"pushName": "Maria",
		"messageTimestamp": 1735689600,
		"message": {
			"extendedTextMessage": {
				"text": "respondendo",
				"contextInfo": {"stanzaId": "3EB0QUOTED"}
			}
		}
	}`
	ins := ParseInsert(json.RawMessage(data))
	if ins.Skip != SkipNone {
		t.Fatalf("unexpected skip %q", ins.Skip)
	}
	if ins.Ref.MessageID != 555 || ins.Ref.KeyID != "3EB0CCCC" {
		t.Fatalf("ref = %+v", ins.Ref)
	}
	if ins.Text != "respondendo" {
		t.Fatalf("text = %q", ins.Text)
	}
	if ins.QuotedStanzaID != "3EB0QUOTED" {
		t.Fatalf("quoted stanza = %q", ins.QuotedStanzaID)
	}
	if ins.PushName != "Maria" || ins.Phone != "5511988887777" {
		t.Fatalf("sender = %q %q", ins.PushName, ins.Phone)
	}
}

func TestParseInsertMediaPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantType    string
		wantCaption string
	}{
		{"image with caption", `{"imageMessage": {"url": "https://x/enc", "caption": "look"}}`, "image", "look"},
		{"ptt audio", `{"audioMessage": {"url": "https://x/a", "ptt": true}}`, "ptt", ""},
		{"plain audio", `{"audioMessage": {"url": "https://x/a"}}`, "audio", ""},
		{"video caption", `{"videoMessage": {"url": "https://x/v", "caption": "clip"}}`, "video", "clip"},
		{"document file name", `{"documentMessage": {"url": "https://x/d", "fileName": "doc.pdf"}}`, "document", "doc.pdf"},
		{"sticker", `{"stickerMessage": {"url": "https://x/s"}}`, "sticker", ""},
		{"contact", `{"contactMessage": {"displayName": "Jo"}}`, "contact", "Jo"},
		{"location", `{"locationMessage": {"name": "Office"}}`, "location", "Office"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"id": 1, "key": {"id": "K", "remoteJid": "5511988887777@s.whatsapp.net"}, "message": ` + tt.message + `}`
			ins := ParseInsert(json.RawMessage(data))
			if ins.Media == nil {
				t.Fatalf("no media extracted")
			}
			if ins.Media.Type != tt.wantType || ins.Media.Caption != tt.wantCaption {
				t.Fatalf("media = {%q %q}, want {%q %q}",
					ins.Media.Type, ins.Media.Caption, tt.wantType, tt.wantCaption)
			}
		})
	}
}

func TestParseStatusUpdate(t *testing.T) {
	t.Run("ack code", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "ack": 3}`))
		if upd.Ack != 3 || upd.HasEdit || upd.HasReceipt {
			t.Fatalf("upd = %+v", upd)
		}
	})
	t.Run("status field fallback", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "status": 2}`))
		if upd.Ack != 2 {
			t.Fatalf("ack = %d, want 2", upd.Ack)
		}
	})
	t.Run("receipt", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"keyId": "K", "receipt": {"readTimestamp": 1}}`))
		if !upd.HasReceipt {
			t.Fatalf("receipt not detected")
		}
	})
	t.Run("edited plain text", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "editedMessage": {"message": {"conversation": "new text"}}}`))
		if !upd.HasEdit || upd.EditedText != "new text" {
			t.Fatalf("upd = %+v", upd)
		}
	})
	t.Run("edited extended text", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "editedMessage": {"message": {"extendedTextMessage": {"text": "edited"}}}}`))
		if !upd.HasEdit || upd.EditedText != "edited" {
			t.Fatalf("upd = %+v", upd)
		}
	})
	t.Run("edited image caption", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "editedMessage": {"message": {"imageMessage": {"caption": "new caption"}}}}`))
		if !upd.HasEdit || upd.EditedText != "new caption" {
			t.Fatalf("upd = %+v", upd)
		}
	})
	t.Run("edited without wrapper", func(t *testing.T) {
		upd := ParseStatusUpdate(json.RawMessage(`{"id": 9, "editedMessage": {"conversation": "bare"}}`))
		if !upd.HasEdit || upd.EditedText != "bare" {
			t.Fatalf("upd = %+v", upd)
		}
	})
}

func TestParseReaction(t *testing.T) {
	r := ParseReaction(json.RawMessage(`{"id": 4, "reaction": {"text": "👍"}}`))
	if r.Ref.MessageID != 4 || r.Emoji != "👍" {
		t.Fatalf("reaction = %+v", r)
	}
	removed := ParseReaction(json.RawMessage(`{"id": 4, "reaction": {"text": ""}}`))
	if removed.Emoji != "" {
		t.Fatalf("removed reaction emoji = %q, want empty", removed.Emoji)
	}
}

func TestParsePresence(t *testing.T) {
	p := ParsePresence(json.RawMessage(`{"id": "5511988887777@s.whatsapp.net", "presence": "composing"}`))
	if p.Phone != "5511988887777" || p.State != "composing" {
		t.Fatalf("presence = %+v", p)
	}
}

func TestNormalizeMediaKey(t *testing.T) {
	wantBytes := []byte{1, 2, 255, 0, 128}
	wantB64 := base64.StdEncoding.EncodeToString(wantBytes)

	t.Run("already a string", func(t *testing.T) {
		if got := NormalizeMediaKey(json.RawMessage(`"abc123=="`)); got != "abc123==" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("byte array", func(t *testing.T) {
		if got := NormalizeMediaKey(json.RawMessage(`[1,2,255,0,128]`)); got != wantB64 {
			t.Fatalf("got %q, want %q", got, wantB64)
		}
	})
	t.Run("byte-array-like object", func(t *testing.T) {
		raw := `{"0":1,"1":2,"2":255,"3":0,"4":128}`
		if got := NormalizeMediaKey(json.RawMessage(raw)); got != wantB64 {
			t.Fatalf("got %q, want %q", got, wantB64)
		}
	})
	t.Run("object with ten-plus indexes keeps numeric order", func(t *testing.T) {
		// Index "10" sorts before "2" lexically; the reassembly must
		// order numerically.
		buf := make([]byte, 12)
		obj := map[string]int{}
		for i := range buf {
			buf[i] = byte(i * 3)
			obj[strconv.Itoa(i)] = int(buf[i])
		}
		raw, err := json.Marshal(obj)
		if err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		want := base64.StdEncoding.EncodeToString(buf)
		if got := NormalizeMediaKey(raw); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})
	t.Run("null", func(t *testing.T) {
		if got := NormalizeMediaKey(json.RawMessage(`null`)); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
	t.Run("absent", func(t *testing.T) {
		if got := NormalizeMediaKey(nil); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
}
