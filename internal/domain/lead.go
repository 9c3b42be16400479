package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Lead is a business contact captured from a form submission. Email is
// the natural dedup key: a second submission with the same email updates
// the existing row instead of creating a new one.
type Lead struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Email       string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Whatsapp    string `gorm:"type:varchar(30)" json:"whatsapp"`
	CountryCode string `gorm:"type:varchar(8)" json:"country_code"`
	Instagram   string `gorm:"type:varchar(120)" json:"instagram"`

	ServiceArea      string   `gorm:"type:varchar(255)" json:"service_area"`
	MonthlyBilling   *float64 `json:"monthly_billing"`
	WeeklyAttendance *float64 `json:"weekly_attendance"`
	WorkspaceType    string   `gorm:"type:varchar(120)" json:"workspace_type"`
	YearsExperience  *float64 `json:"years_experience"`
	AverageTicket    *float64 `json:"average_ticket"`

	UtmSource   string `gorm:"type:varchar(255)" json:"utm_source"`
	UtmMedium   string `gorm:"type:varchar(255)" json:"utm_medium"`
	UtmCampaign string `gorm:"type:varchar(255)" json:"utm_campaign"`
	UtmTerm     string `gorm:"type:varchar(255)" json:"utm_term"`
	UtmContent  string `gorm:"type:varchar(255)" json:"utm_content"`

	OriginID    *int64 `gorm:"index" json:"origin_id"`
	SubOriginID *int64 `gorm:"index" json:"sub_origin_id"`
	PipelineID  *int64 `gorm:"index" json:"pipeline_id"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// LeadCustomField holds one queue-defined custom field value for a lead,
// upserted on (lead_id, field_id).
type LeadCustomField struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	LeadID  int64  `gorm:"not null;uniqueIndex:ux_lead_field,priority:1" json:"lead_id"`
	FieldID int64  `gorm:"not null;uniqueIndex:ux_lead_field,priority:2" json:"field_id"`
	Value   string `gorm:"type:text" json:"value"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// IntakeLog is the audit trail row written when a lead is first created.
type IntakeLog struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	LeadID         int64          `gorm:"index;not null" json:"lead_id"`
	Source         string         `gorm:"type:varchar(60);not null" json:"source"`
	RawPayload     datatypes.JSON `json:"raw_payload"`
	ReceivedKeys   datatypes.JSON `json:"received_keys"`
	NormalizedKeys datatypes.JSON `json:"normalized_keys"`
	CreatedAt      time.Time      `json:"created_at"`
}
