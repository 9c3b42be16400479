package repository

import (
	"context"
	"errors"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"gorm.io/gorm"
)

// Repository reads the routing configuration (origins, sub-origin
// queues, pipelines). All lookups return nil on not-found: an
// unresolvable routing target degrades to the caller's default, it never
// fails a request.
type Repository interface {
	SubOrigin(ctx context.Context, id int64) (*domain.SubOrigin, error)
	FirstSubOrigin(ctx context.Context, originID int64) (*domain.SubOrigin, error)
	FirstPipeline(ctx context.Context, subOriginID int64) (*domain.Pipeline, error)
}

type repo struct {
	db *gorm.DB
}

func NewRoutingRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) SubOrigin(ctx context.Context, id int64) (*domain.SubOrigin, error) {
	var so domain.SubOrigin
	err := r.db.WithContext(ctx).First(&so, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &so, nil
}

// FirstSubOrigin returns the origin's first queue by display order.
func (r *repo) FirstSubOrigin(ctx context.Context, originID int64) (*domain.SubOrigin, error) {
	var so domain.SubOrigin
	err := r.db.WithContext(ctx).
		Where("origin_id = ?", originID).
		Order("display_order ASC, id ASC").
		First(&so).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &so, nil
}

// FirstPipeline returns the queue's first pipeline by display order.
func (r *repo) FirstPipeline(ctx context.Context, subOriginID int64) (*domain.Pipeline, error) {
	var p domain.Pipeline
	err := r.db.WithContext(ctx).
		Where("sub_origin_id = ?", subOriginID).
		Order("display_order ASC, id ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
