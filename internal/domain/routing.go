package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Origin is a parent acquisition category (a funnel, a campaign, a site).
type Origin struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SubOrigin is a queue of leads under an origin. DisplayOrder drives the
// routing fallback: when only an origin is supplied, its first sub-origin
// by display order receives the lead. CustomFields maps a payload key to
// the numeric custom-field id it should be stored under.
type SubOrigin struct {
	ID           int64             `gorm:"primaryKey" json:"id"`
	OriginID     int64             `gorm:"index;not null" json:"origin_id"`
	Name         string            `gorm:"type:varchar(255);not null" json:"name"`
	Type         string            `gorm:"type:varchar(30)" json:"type"` // "task" or "calendar"
	DisplayOrder int               `gorm:"not null;default:0" json:"display_order"`
	CustomFields datatypes.JSONMap `json:"custom_fields"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Pipeline is an ordered stage sequence inside a sub-origin.
type Pipeline struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	SubOriginID  int64     `gorm:"index;not null" json:"sub_origin_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
