package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Lead, error)
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	UpsertCustomField(ctx context.Context, leadID, fieldID int64, value string) error
	CreateIntakeLog(ctx context.Context, entry *domain.IntakeLog) error
}

type repo struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

// FindByEmail returns the lead owning the email, or nil when none exists.
func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a lead. Email carries a unique index; a concurrent
// duplicate delivery falls into the conflict branch and is merged
// instead of erroring, so at-least-once webhook delivery converges.
func (r *repo) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			UpdateAll: true,
		}).
		Create(lead).Error
}

// Update overwrites all lead fields in place (last write wins, no
// field-level merge).
func (r *repo) Update(ctx context.Context, lead *domain.Lead) error {
	now := time.Now().UTC()
	lead.UpdatedAt = &now
	return r.db.WithContext(ctx).Save(lead).Error
}

// UpsertCustomField writes one custom-field value keyed on
// (lead_id, field_id).
func (r *repo) UpsertCustomField(ctx context.Context, leadID, fieldID int64, value string) error {
	now := time.Now().UTC()
	cf := domain.LeadCustomField{
		LeadID:    leadID,
		FieldID:   fieldID,
		Value:     value,
		UpdatedAt: &now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lead_id"}, {Name: "field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&cf).Error
}

func (r *repo) CreateIntakeLog(ctx context.Context, entry *domain.IntakeLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
