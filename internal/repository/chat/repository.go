package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	UpsertChat(ctx context.Context, chat *domain.Chat) error
	IncrementUnread(ctx context.Context, chatID int64) error
	UpdateChatLast(ctx context.Context, chatID int64, preview string, at time.Time, status domain.MessageStatus) error
	UpdateChatStatus(ctx context.Context, chatID int64, status domain.MessageStatus) error

	InsertMessage(ctx context.Context, msg *domain.Message) (inserted bool, err error)
	FindMessage(ctx context.Context, messageID int64, keyID string) (*domain.Message, error)
	FindByStanza(ctx context.Context, stanzaID string) (*domain.Message, error)
	LatestMessage(ctx context.Context, chatID int64) (*domain.Message, error)

	ApplyStatus(ctx context.Context, messageID int64, keyID string, status domain.MessageStatus) (*domain.Message, bool, error)
	SetText(ctx context.Context, messageID int64, keyID string, text string) (*domain.Message, error)
	SetReaction(ctx context.Context, messageID int64, keyID string, reaction *string) error
}

type repo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

// UpsertChat creates the chat for (phone, session) or refreshes its
// denormalized columns. The row id is populated on the way out either
// way, so the caller can hang messages off it.
func (r *repo) UpsertChat(ctx context.Context, chat *domain.Chat) error {
	now := time.Now().UTC()
	chat.UpdatedAt = &now
	assignments := map[string]any{
		"last_message": chat.LastMessage,
		"last_at":      chat.LastAt,
		"last_status":  chat.LastStatus,
		"updated_at":   now,
	}
	// Only overwrite profile data when the event actually carried it.
	if chat.Name != "" {
		assignments["name"] = chat.Name
	}
	if chat.PhotoURL != "" {
		assignments["photo_url"] = chat.PhotoURL
	}
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "phone"}, {Name: "session"}},
				DoUpdates: clause.Assignments(assignments),
			},
			clause.Returning{},
		).
		Create(chat).Error
}

// IncrementUnread bumps the unread counter atomically in SQL. Callers
// invoke it only when InsertMessage reported a new row, which keeps the
// counter exact under duplicate webhook delivery.
func (r *repo) IncrementUnread(ctx context.Context, chatID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("unread_count", gorm.Expr("unread_count + 1")).Error
}

func (r *repo) UpdateChatLast(ctx context.Context, chatID int64, preview string, at time.Time, status domain.MessageStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]any{
			"last_message": preview,
			"last_at":      at,
			"last_status":  status,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateChatStatus(ctx context.Context, chatID int64, status domain.MessageStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("last_status", status).Error
}

// InsertMessage writes the message once, keyed on the numeric provider
// id. A duplicate delivery hits the conflict clause and reports
// inserted=false so the caller skips the unread increment.
func (r *repo) InsertMessage(ctx context.Context, msg *domain.Message) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(msg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindMessage locates a message by either of its two identifiers.
// Different event shapes carry different ids, so both are tried in one
// query.
func (r *repo) FindMessage(ctx context.Context, messageID int64, keyID string) (*domain.Message, error) {
	q := r.db.WithContext(ctx)
	switch {
	case messageID != 0 && keyID != "":
		q = q.Where("message_id = ? OR key_id = ?", messageID, keyID)
	case messageID != 0:
		q = q.Where("message_id = ?", messageID)
	case keyID != "":
		q = q.Where("key_id = ?", keyID)
	default:
		return nil, nil
	}
	var msg domain.Message
	err := q.First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByStanza resolves a quoted-message reference. The stanza id
// usually matches key_id, but some gateway versions quote by the
// numeric id rendered as a string, so that column is checked too.
func (r *repo) FindByStanza(ctx context.Context, stanzaID string) (*domain.Message, error) {
	if stanzaID == "" {
		return nil, nil
	}
	q := r.db.WithContext(ctx)
	if n, err := strconv.ParseInt(stanzaID, 10, 64); err == nil {
		q = q.Where("key_id = ? OR message_id = ?", stanzaID, n)
	} else {
		q = q.Where("key_id = ?", stanzaID)
	}
	var msg domain.Message
	err := q.First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *repo) LatestMessage(ctx context.Context, chatID int64) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("sent_at DESC, message_id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ApplyStatus performs the rank-gated status write. The UPDATE carries
// the full set of lower-ranked statuses as its guard, so the check holds
// even when two status webhooks for the same message race: whichever
// commits second sees the new status and matches zero rows.
func (r *repo) ApplyStatus(ctx context.Context, messageID int64, keyID string, status domain.MessageStatus) (*domain.Message, bool, error) {
	msg, err := r.FindMessage(ctx, messageID, keyID)
	if err != nil || msg == nil {
		return nil, false, err
	}
	if !domain.ShouldApply(msg.Status, status) {
		return msg, false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND status IN ?", msg.ID, domain.StatusesBelow(status)).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a higher-ranked status.
		return msg, false, nil
	}
	msg.Status = status
	return msg, true, nil
}

// SetText overwrites the message text unconditionally. Edits are
// user-authoritative: the latest edit always wins, no rank gating.
func (r *repo) SetText(ctx context.Context, messageID int64, keyID string, text string) (*domain.Message, error) {
	msg, err := r.FindMessage(ctx, messageID, keyID)
	if err != nil || msg == nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", msg.ID).
		Updates(map[string]any{
			"text":       text,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	msg.Text = text
	return msg, nil
}

// SetReaction upserts the reaction on a message. A nil reaction clears
// the column; an empty incoming reaction string means "removed" and must
// be stored as NULL, not as an empty sentinel.
func (r *repo) SetReaction(ctx context.Context, messageID int64, keyID string, reaction *string) error {
	msg, err := r.FindMessage(ctx, messageID, keyID)
	if err != nil || msg == nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", msg.ID).
		Updates(map[string]any{
			"reaction":   reaction,
			"updated_at": time.Now().UTC(),
		}).Error
}
