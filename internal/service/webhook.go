package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/cache"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/event"
	chatRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/chat"
)

// ProcessResult is the in-band outcome of one webhook event. Transport
// level is always 200; errors ride the body to suppress provider retry
// storms.
type ProcessResult struct {
	OK        bool   `json:"ok"`
	MessageID int64  `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Processor applies gateway events to the chat/message aggregate. It is
// stateless per request; idempotency under at-least-once delivery comes
// entirely from the store's upsert and rank-gate primitives.
type Processor struct {
	chats   chatRepo.Repository
	media   *MediaPipeline
	cache   cache.Cache
	logger  *slog.Logger
	session string
}

func NewProcessor(chats chatRepo.Repository, media *MediaPipeline, c cache.Cache, logger *slog.Logger, session string) *Processor {
	if session == "" {
		session = "default"
	}
	return &Processor{chats: chats, media: media, cache: c, logger: logger, session: session}
}

// Process classifies and applies one event envelope.
func (p *Processor) Process(ctx context.Context, env event.Envelope) ProcessResult {
	kind := event.Classify(env.Event)
	eventLogger := p.logger.With(slog.String("event", env.Event), slog.String("kind", kind.String()))

	switch kind {
	case event.KindMessageInsert:
		return p.handleInsert(ctx, env, eventLogger)
	case event.KindMessageUpdate:
		return p.handleUpdate(ctx, env, eventLogger)
	case event.KindMessageDelete:
		return p.handleDelete(ctx, env, eventLogger)
	case event.KindReaction:
		return p.handleReaction(ctx, env, eventLogger)
	case event.KindPresence:
		return p.handlePresence(ctx, env, eventLogger)
	default:
		// Unknown events are acked untouched; the discriminant set is
		// open on the provider side.
		eventLogger.Info("ignoring unknown event")
		return ProcessResult{OK: true}
	}
}

func (p *Processor) handleInsert(ctx context.Context, env event.Envelope, logger *slog.Logger) ProcessResult {
	ins := event.ParseInsert(env.Data)
	if ins.Skip != event.SkipNone {
		logger.Info("skipping message", "reason", string(ins.Skip))
		return ProcessResult{OK: true}
	}
	if ins.Ref.MessageID == 0 {
		logger.Info("skipping message without numeric id")
		return ProcessResult{OK: true}
	}

	session := p.sessionOf(env)
	preview := previewText(ins.Text, ins.Media)
	sentAt := ins.Timestamp

	// Chat first: if the request dies mid-pipeline the thread still
	// exists and a later redelivery completes the message.
	chat := &domain.Chat{
		Phone:       ins.Phone,
		Session:     session,
		Name:        ins.PushName,
		PhotoURL:    ins.ProfilePicURL,
		LastMessage: preview,
		LastAt:      &sentAt,
		LastStatus:  domain.StatusDelivered,
	}
	if err := p.chats.UpsertChat(ctx, chat); err != nil {
		logger.Error("chat upsert failed", "error", err.Error())
		return ProcessResult{Error: err.Error()}
	}

	mediaType, mediaURL := "", ""
	if ins.Media != nil {
		mediaType = ins.Media.Type
		if ins.Media.URL != "" {
			mediaURL = p.media.Process(ctx, ins.Media)
			if mediaURL == "" {
				// No fetchable blob; keep the text, drop the media.
				mediaType = ""
			}
		}
	}

	msg := &domain.Message{
		MessageID: ins.Ref.MessageID,
		KeyID:     ins.Ref.KeyID,
		ChatID:    chat.ID,
		Text:      ins.Text,
		Status:    domain.StatusDelivered,
		FromMe:    false,
		MediaType: mediaType,
		MediaURL:  mediaURL,
		QuotedID:  p.resolveQuoted(ctx, ins.QuotedStanzaID),
		SentAt:    sentAt,
	}
	inserted, err := p.chats.InsertMessage(ctx, msg)
	if err != nil {
		logger.Error("message insert failed", "error", err.Error())
		return ProcessResult{Error: err.Error()}
	}
	if inserted {
		if err := p.chats.IncrementUnread(ctx, chat.ID); err != nil {
			logger.Error("unread increment failed", "chatId", chat.ID, "error", err.Error())
		}
		p.publish(ctx, session, "message.new", msg)
	}
	return ProcessResult{OK: true, MessageID: msg.MessageID}
}

func (p *Processor) handleUpdate(ctx context.Context, env event.Envelope, logger *slog.Logger) ProcessResult {
	upd := event.ParseStatusUpdate(env.Data)
	if upd.Ref.Empty() {
		logger.Info("update event without message ids")
		return ProcessResult{OK: true}
	}

	if upd.HasEdit {
		// Edits are user-authoritative: always the latest, no gating.
		msg, err := p.chats.SetText(ctx, upd.Ref.MessageID, upd.Ref.KeyID, upd.EditedText)
		if err != nil {
			logger.Error("edit apply failed", "error", err.Error())
			return ProcessResult{Error: err.Error()}
		}
		if msg != nil {
			p.publish(ctx, p.sessionOf(env), "message.edit", msg)
			return ProcessResult{OK: true, MessageID: msg.MessageID}
		}
		return ProcessResult{OK: true}
	}

	status, ok := domain.StatusFromAck(upd.Ack)
	if upd.HasReceipt {
		// A group read receipt is equivalent to READ.
		status, ok = domain.StatusRead, true
	}
	if !ok {
		logger.Info("ignoring unknown ack code", "ack", upd.Ack)
		return ProcessResult{OK: true}
	}
	return p.applyStatus(ctx, env, upd.Ref, status, logger)
}

func (p *Processor) handleDelete(ctx context.Context, env event.Envelope, logger *slog.Logger) ProcessResult {
	ref := event.ResolveMessageRef(env.Data)
	if ref.Empty() {
		logger.Info("delete event without message ids")
		return ProcessResult{OK: true}
	}
	// DELETED is rank-maximal, so the same monotonic write makes it
	// absorbing: no later status event can overwrite it.
	return p.applyStatus(ctx, env, ref, domain.StatusDeleted, logger)
}

func (p *Processor) applyStatus(ctx context.Context, env event.Envelope, ref event.MessageRef, status domain.MessageStatus, logger *slog.Logger) ProcessResult {
	msg, applied, err := p.chats.ApplyStatus(ctx, ref.MessageID, ref.KeyID, status)
	if err != nil {
		logger.Error("status apply failed", "error", err.Error())
		return ProcessResult{Error: err.Error()}
	}
	if msg == nil {
		logger.Info("status event for unknown message",
			"messageId", ref.MessageID, "keyId", ref.KeyID)
		return ProcessResult{OK: true}
	}
	if applied {
		p.propagateChatStatus(ctx, msg, status, logger)
		p.publish(ctx, p.sessionOf(env), "message.status", map[string]any{
			"messageId": msg.MessageID,
			"status":    status,
		})
	}
	return ProcessResult{OK: true, MessageID: msg.MessageID}
}

// propagateChatStatus mirrors a status change onto the chat's
// denormalized last-status column when the message is the chat's most
// recent one.
func (p *Processor) propagateChatStatus(ctx context.Context, msg *domain.Message, status domain.MessageStatus, logger *slog.Logger) {
	latest, err := p.chats.LatestMessage(ctx, msg.ChatID)
	if err != nil {
		logger.Error("latest message lookup failed", "chatId", msg.ChatID, "error", err.Error())
		return
	}
	if latest == nil || latest.ID != msg.ID {
		return
	}
	if err := p.chats.UpdateChatStatus(ctx, msg.ChatID, status); err != nil {
		logger.Error("chat status propagate failed", "chatId", msg.ChatID, "error", err.Error())
	}
}

func (p *Processor) handleReaction(ctx context.Context, env event.Envelope, logger *slog.Logger) ProcessResult {
	react := event.ParseReaction(env.Data)
	if react.Ref.Empty() {
		logger.Info("reaction event without message ids")
		return ProcessResult{OK: true}
	}
	// Empty emoji means removed; store NULL, not an empty sentinel.
	var reaction *string
	if react.Emoji != "" {
		reaction = &react.Emoji
	}
	if err := p.chats.SetReaction(ctx, react.Ref.MessageID, react.Ref.KeyID, reaction); err != nil {
		logger.Error("reaction apply failed", "error", err.Error())
		return ProcessResult{Error: err.Error()}
	}
	p.publish(ctx, p.sessionOf(env), "message.reaction", map[string]any{
		"messageId": react.Ref.MessageID,
		"keyId":     react.Ref.KeyID,
		"reaction":  react.Emoji,
	})
	return ProcessResult{OK: true, MessageID: react.Ref.MessageID}
}

// handlePresence rebroadcasts typing/recording indicators; they are
// never persisted.
func (p *Processor) handlePresence(ctx context.Context, env event.Envelope, logger *slog.Logger) ProcessResult {
	presence := event.ParsePresence(env.Data)
	if presence.Phone == "" {
		return ProcessResult{OK: true}
	}
	p.publish(ctx, p.sessionOf(env), "presence", presence)
	return ProcessResult{OK: true}
}

// resolveQuoted translates the provider's stanza id into a local message
// id. Unresolved references keep the foreign id verbatim as a
// best-effort placeholder.
func (p *Processor) resolveQuoted(ctx context.Context, stanzaID string) string {
	if stanzaID == "" {
		return ""
	}
	quoted, err := p.chats.FindByStanza(ctx, stanzaID)
	if err != nil {
		p.logger.Error("quoted message lookup failed", "stanzaId", stanzaID, "error", err.Error())
		return stanzaID
	}
	if quoted == nil {
		return stanzaID
	}
	return fmt.Sprintf("%d", quoted.ID)
}

func (p *Processor) sessionOf(env event.Envelope) string {
	if env.Session != "" {
		return env.Session
	}
	return p.session
}

func (p *Processor) publish(ctx context.Context, session, eventName string, payload any) {
	body, _ := json.Marshal(map[string]any{
		"event": eventName,
		"data":  payload,
		"at":    time.Now().UTC(),
	})
	if err := p.cache.Publish(ctx, "realtime:"+session, string(body)); err != nil {
		p.logger.Error("realtime publish failed", "event", eventName, "error", err.Error())
	}
}

// previewText is the denormalized one-line preview shown in the chat
// list when the message itself has no text.
func previewText(text string, media *event.MediaPayload) string {
	if text != "" {
		return text
	}
	if media == nil {
		return ""
	}
	switch media.Type {
	case "image":
		return "📷 Photo"
	case "audio", "ptt":
		return "🎵 Audio"
	case "video":
		return "🎬 Video"
	case "document":
		if media.Caption != "" {
			return "📄 " + media.Caption
		}
		return "📄 Document"
	case "sticker":
		return "Sticker"
	case "contact":
		if media.Caption != "" {
			return "👤 " + media.Caption
		}
		return "👤 Contact"
	case "location":
		return "📍 Location"
	default:
		return ""
	}
}
