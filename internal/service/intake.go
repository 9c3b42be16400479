package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/cache"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/fieldmap"
	leadRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/lead"
	routingRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/routing"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoutingParams are the optional query parameters an integration call
// site may supply. Different call sites supply different levels of
// specificity, hence the two-level fallback in resolveRouting.
type RoutingParams struct {
	OriginID    *int64
	SubOriginID *int64
	PipelineID  *int64
}

// RoutingDefaults are the hardcoded fallback queue and pipeline used
// when nothing else resolves.
type RoutingDefaults struct {
	SubOriginID int64
	PipelineID  int64
}

// IntakeResult is the success-shaped response envelope. Even rejections
// ride an HTTP 200: the calling form builders treat any non-2xx as a
// hard submission failure and block the visitor.
type IntakeResult struct {
	Success          bool     `json:"success"`
	LeadID           int64    `json:"lead_id,omitempty"`
	Message          string   `json:"message,omitempty"`
	Error            string   `json:"error,omitempty"`
	ReceivedFields   []string `json:"received_fields,omitempty"`
	NormalizedFields []string `json:"normalized_fields,omitempty"`
}

// Intake implements the lead intake normalizer: parse, map, rescue,
// validate, route and idempotently persist one form submission.
type Intake struct {
	leads      leadRepo.Repository
	routing    routingRepo.Repository
	dispatcher Dispatcher
	cache      cache.Cache
	logger     *slog.Logger
	defaults   RoutingDefaults
}

func NewIntake(leads leadRepo.Repository, routing routingRepo.Repository, dispatcher Dispatcher, c cache.Cache, logger *slog.Logger, defaults RoutingDefaults) *Intake {
	return &Intake{
		leads:      leads,
		routing:    routing,
		dispatcher: dispatcher,
		cache:      c,
		logger:     logger,
		defaults:   defaults,
	}
}

// Process runs the full normalization pipeline over one raw payload.
// It never returns an error: every failure mode is folded into the
// response envelope.
func (s *Intake) Process(ctx context.Context, payload map[string]any, params RoutingParams) IntakeResult {
	received := sortedKeys(payload)

	normalized := fieldmap.Unwrap(payload)
	fields := fieldmap.Apply(normalized)
	fieldmap.Rescue(&fields, payload)

	if fields.Name == "" || fields.Email == "" {
		return IntakeResult{
			Success:          false,
			Message:          "missing required fields: name and email",
			ReceivedFields:   received,
			NormalizedFields: sortedKeys(normalized),
		}
	}

	subOrigin, originID, pipelineID := s.resolveRouting(ctx, params)

	lead := &domain.Lead{
		Name:             fields.Name,
		Email:            fields.Email,
		Whatsapp:         fields.Whatsapp,
		CountryCode:      fields.CountryCode,
		Instagram:        fields.Instagram,
		ServiceArea:      fields.ServiceArea,
		WorkspaceType:    fields.WorkspaceType,
		MonthlyBilling:   fields.MonthlyBilling,
		WeeklyAttendance: fields.WeeklyAttendance,
		YearsExperience:  fields.YearsExperience,
		AverageTicket:    fields.AverageTicket,
		UtmSource:        fields.UtmSource,
		UtmMedium:        fields.UtmMedium,
		UtmCampaign:      fields.UtmCampaign,
		UtmTerm:          fields.UtmTerm,
		UtmContent:       fields.UtmContent,
		OriginID:         originID,
		SubOriginID:      idPtr(subOriginIDOf(subOrigin, s.defaults.SubOriginID)),
		PipelineID:       idPtr(pipelineID),
	}

	existing, err := s.leads.FindByEmail(ctx, fields.Email)
	if err != nil {
		return s.storageFailure(err, "lead lookup failed")
	}

	created := existing == nil
	if created {
		if err := s.leads.Create(ctx, lead); err != nil {
			return s.storageFailure(err, "lead create failed")
		}
	} else {
		lead.ID = existing.ID
		lead.CreatedAt = existing.CreatedAt
		if err := s.leads.Update(ctx, lead); err != nil {
			return s.storageFailure(err, "lead update failed")
		}
	}

	s.captureCustomFields(ctx, lead.ID, subOrigin, payload, normalized)

	if created {
		s.writeIntakeLog(ctx, lead.ID, payload, received, sortedKeys(normalized))
		s.dispatcher.LeadCreated(lead)
		s.publishLead(ctx, lead)
	}

	msg := "lead updated"
	if created {
		msg = "lead created"
	}
	return IntakeResult{Success: true, LeadID: lead.ID, Message: msg}
}

// resolveRouting applies the two-level fallback chain: explicit queue >
// origin's first queue > hardcoded default queue; explicit pipeline >
// queue's first pipeline > hardcoded default pipeline.
func (s *Intake) resolveRouting(ctx context.Context, params RoutingParams) (*domain.SubOrigin, *int64, int64) {
	var subOrigin *domain.SubOrigin
	var err error

	if params.SubOriginID != nil {
		subOrigin, err = s.routing.SubOrigin(ctx, *params.SubOriginID)
		if err != nil {
			s.logger.Error("sub-origin lookup failed", "error", err.Error())
		}
	}
	if subOrigin == nil && params.OriginID != nil {
		subOrigin, err = s.routing.FirstSubOrigin(ctx, *params.OriginID)
		if err != nil {
			s.logger.Error("origin fallback lookup failed", "error", err.Error())
		}
	}

	var originID *int64
	if subOrigin != nil {
		originID = &subOrigin.OriginID
	} else if params.OriginID != nil {
		originID = params.OriginID
	}

	if params.PipelineID != nil {
		return subOrigin, originID, *params.PipelineID
	}
	if subOrigin != nil {
		p, err := s.routing.FirstPipeline(ctx, subOrigin.ID)
		if err != nil {
			s.logger.Error("pipeline lookup failed", "error", err.Error())
		}
		if p != nil {
			return subOrigin, originID, p.ID
		}
	}
	return subOrigin, originID, s.defaults.PipelineID
}

// captureCustomFields persists queue-defined custom fields. Values are
// looked up in the "custom_fields" sub-object keyed by field id, falling
// back to the legacy convention of the field key as a top-level payload
// key. Failures are logged only; the submission already succeeded.
func (s *Intake) captureCustomFields(ctx context.Context, leadID int64, subOrigin *domain.SubOrigin, payload map[string]any, normalized map[string]string) {
	if subOrigin == nil || len(subOrigin.CustomFields) == 0 {
		return
	}

	byID := map[string]string{}
	if sub, ok := payload["custom_fields"].(map[string]any); ok {
		for id, v := range sub {
			byID[id] = fieldmap.Stringify(v)
		}
	}

	for key, rawID := range subOrigin.CustomFields {
		fieldID, ok := customFieldID(rawID)
		if !ok {
			continue
		}
		value := byID[strconv.FormatInt(fieldID, 10)]
		if value == "" {
			value = normalized[fieldmap.NormalizeKey(key)]
		}
		if value == "" {
			continue
		}
		if err := s.leads.UpsertCustomField(ctx, leadID, fieldID, value); err != nil {
			s.logger.Error("custom field upsert failed",
				"leadId", leadID, "fieldId", fieldID, "error", err.Error())
		}
	}
}

func (s *Intake) writeIntakeLog(ctx context.Context, leadID int64, payload map[string]any, received, normalized []string) {
	raw, _ := json.Marshal(payload)
	rk, _ := json.Marshal(received)
	nk, _ := json.Marshal(normalized)
	entry := &domain.IntakeLog{
		ID:             uuid.NewString(),
		LeadID:         leadID,
		Source:         "form",
		RawPayload:     datatypes.JSON(raw),
		ReceivedKeys:   datatypes.JSON(rk),
		NormalizedKeys: datatypes.JSON(nk),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.leads.CreateIntakeLog(ctx, entry); err != nil {
		s.logger.Error("intake log write failed", "leadId", leadID, "error", err.Error())
	}
}

func (s *Intake) publishLead(ctx context.Context, lead *domain.Lead) {
	payload, _ := json.Marshal(map[string]any{
		"event": "lead.new",
		"lead":  lead,
	})
	if err := s.cache.Publish(ctx, "realtime:crm", string(payload)); err != nil {
		s.logger.Error("lead realtime publish failed", "error", err.Error())
	}
}

// storageFailure logs and folds a dependency error into the 200-shaped
// envelope; the error text is echoed for operator visibility.
func (s *Intake) storageFailure(err error, msg string) IntakeResult {
	s.logger.Error(msg, "error", err.Error())
	return IntakeResult{Success: false, Message: msg, Error: err.Error()}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// customFieldID coerces a custom-field id out of the queue's JSON
// configuration, where it may be stored as a number or a numeric string.
func customFieldID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func subOriginIDOf(so *domain.SubOrigin, fallback int64) int64 {
	if so != nil {
		return so.ID
	}
	return fallback
}

func idPtr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
