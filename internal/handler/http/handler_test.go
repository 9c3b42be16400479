package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// Minimal in-memory stand-ins for the storage and side-effect layers;
// the handler tests only assert transport behavior, the service tests
// own the semantics.

type memLeads struct {
	leads  map[string]*domain.Lead
	nextID int64
}

func (m *memLeads) FindByEmail(_ context.Context, email string) (*domain.Lead, error) {
	return m.leads[email], nil
}

func (m *memLeads) Create(_ context.Context, lead *domain.Lead) error {
	m.nextID++
	lead.ID = m.nextID
	m.leads[lead.Email] = lead
	return nil
}

func (m *memLeads) Update(_ context.Context, lead *domain.Lead) error {
	m.leads[lead.Email] = lead
	return nil
}

func (m *memLeads) UpsertCustomField(context.Context, int64, int64, string) error { return nil }
func (m *memLeads) CreateIntakeLog(context.Context, *domain.IntakeLog) error      { return nil }

type memRouting struct{}

func (memRouting) SubOrigin(context.Context, int64) (*domain.SubOrigin, error)      { return nil, nil }
func (memRouting) FirstSubOrigin(context.Context, int64) (*domain.SubOrigin, error) { return nil, nil }
func (memRouting) FirstPipeline(context.Context, int64) (*domain.Pipeline, error)   { return nil, nil }

type memChats struct {
	chats    map[string]*domain.Chat
	messages map[int64]*domain.Message
	nextID   int64
}

func newMemChats() *memChats {
	return &memChats{chats: map[string]*domain.Chat{}, messages: map[int64]*domain.Message{}}
}

func (m *memChats) UpsertChat(_ context.Context, chat *domain.Chat) error {
	key := chat.Phone + "|" + chat.Session
	if existing, ok := m.chats[key]; ok {
		chat.ID = existing.ID
		return nil
	}
	m.nextID++
	chat.ID = m.nextID
	m.chats[key] = chat
	return nil
}

func (m *memChats) IncrementUnread(context.Context, int64) error { return nil }
func (m *memChats) UpdateChatLast(context.Context, int64, string, time.Time, domain.MessageStatus) error {
	return nil
}
func (m *memChats) UpdateChatStatus(context.Context, int64, domain.MessageStatus) error { return nil }

func (m *memChats) InsertMessage(_ context.Context, msg *domain.Message) (bool, error) {
	if _, ok := m.messages[msg.MessageID]; ok {
		return false, nil
	}
	m.messages[msg.MessageID] = msg
	return true, nil
}

func (m *memChats) FindMessage(_ context.Context, messageID int64, keyID string) (*domain.Message, error) {
	if msg, ok := m.messages[messageID]; ok {
		return msg, nil
	}
	for _, msg := range m.messages {
		if keyID != "" && msg.KeyID == keyID {
			return msg, nil
		}
	}
	return nil, nil
}

func (m *memChats) FindByStanza(context.Context, string) (*domain.Message, error) { return nil, nil }
func (m *memChats) LatestMessage(context.Context, int64) (*domain.Message, error) { return nil, nil }

func (m *memChats) ApplyStatus(ctx context.Context, messageID int64, keyID string, status domain.MessageStatus) (*domain.Message, bool, error) {
	msg, _ := m.FindMessage(ctx, messageID, keyID)
	if msg == nil {
		return nil, false, nil
	}
	if !domain.ShouldApply(msg.Status, status) {
		return msg, false, nil
	}
	msg.Status = status
	return msg, true, nil
}

func (m *memChats) SetText(ctx context.Context, messageID int64, keyID string, text string) (*domain.Message, error) {
	msg, _ := m.FindMessage(ctx, messageID, keyID)
	if msg != nil {
		msg.Text = text
	}
	return msg, nil
}

func (m *memChats) SetReaction(context.Context, int64, string, *string) error { return nil }

type memCache struct{}

func (memCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (memCache) Get(context.Context, string) (string, error)              { return "", nil }
func (memCache) Publish(context.Context, string, string) error            { return nil }

type memDispatcher struct{}

func (memDispatcher) LeadCreated(*domain.Lead) {}

func newTestRouter(t *testing.T) (http.Handler, *memLeads, *memChats) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	leads := &memLeads{leads: map[string]*domain.Lead{}}
	chats := newMemChats()

	intake := service.NewIntake(leads, memRouting{}, memDispatcher{}, memCache{}, logger, service.RoutingDefaults{SubOriginID: 1, PipelineID: 1})
	processor := service.NewProcessor(chats, service.NewMediaPipeline(nil, nil, logger), memCache{}, logger, "main")

	h := NewHttpHandler(":0", intake, processor)
	return h.server.Handler, leads, chats
}

func doRequest(router http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doRequest(router, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLeadIntakeJSON(t *testing.T) {
	router, leads, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/webhooks/leads", "application/json",
		`{"nome": "Maria Silva", "email": "maria@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var res service.IntakeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !res.Success {
		t.Fatalf("intake rejected: %+v", res)
	}
	if leads.leads["maria@example.com"] == nil {
		t.Fatal("lead not stored")
	}
}

func TestLeadIntakeURLEncoded(t *testing.T) {
	router, leads, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/webhooks/leads", "application/x-www-form-urlencoded",
		"nome=Maria+Silva&e-mail=maria%40example.com&telefone=11988887777")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	lead := leads.leads["maria@example.com"]
	if lead == nil {
		t.Fatal("form-encoded lead not stored")
	}
	if lead.Whatsapp != "11988887777" {
		t.Errorf("whatsapp = %q", lead.Whatsapp)
	}
}

func TestLeadIntakeMultipart(t *testing.T) {
	router, leads, _ := newTestRouter(t)

	var body strings.Builder
	mw := multipart.NewWriter(&body)
	mw.WriteField("nome", "Maria Silva")
	mw.WriteField("email", "maria@example.com")
	mw.Close()

	w := doRequest(router, http.MethodPost, "/webhooks/leads", mw.FormDataContentType(), body.String())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if leads.leads["maria@example.com"] == nil {
		t.Fatal("multipart lead not stored")
	}
}

func TestLeadIntakeUnknownContentTypeFallback(t *testing.T) {
	router, leads, _ := newTestRouter(t)

	// JSON body posted as text/plain: the fallback branch must still
	// recognize it.
	w := doRequest(router, http.MethodPost, "/webhooks/leads", "text/plain",
		`{"nome": "Maria Silva", "email": "maria@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if leads.leads["maria@example.com"] == nil {
		t.Fatal("fallback JSON lead not stored")
	}

	// And a querystring body, same content type.
	w = doRequest(router, http.MethodPost, "/webhooks/leads", "text/plain",
		"nome=Joana+Souza&email=joana%40example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if leads.leads["joana@example.com"] == nil {
		t.Fatal("fallback querystring lead not stored")
	}
}

func TestLeadIntakeRejectionIsStill200(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/webhooks/leads", "application/json", `{"telefone": "11"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rejection must ride a 200, got %d", w.Code)
	}
	var res service.IntakeResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Success {
		t.Fatal("invalid submission accepted")
	}
}

func TestLeadIntakeGarbageBodyIsStill200(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doRequest(router, http.MethodPost, "/webhooks/leads", "application/json", "{{{not json")
	if w.Code != http.StatusOK {
		t.Fatalf("garbage body must ride a 200, got %d", w.Code)
	}
}

func TestLeadPing(t *testing.T) {
	router, _, _ := newTestRouter(t)
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		w := doRequest(router, method, "/webhooks/leads", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s ping status = %d", method, w.Code)
		}
	}
}

func TestLeadIntakeRoutingQueryParams(t *testing.T) {
	router, leads, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost,
		"/webhooks/leads?pipeline_id=42&sub_origin_id=junk", "application/json",
		`{"nome": "Maria Silva", "email": "maria@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	lead := leads.leads["maria@example.com"]
	if lead.PipelineID == nil || *lead.PipelineID != 42 {
		t.Errorf("pipeline = %v, want explicit 42", lead.PipelineID)
	}
	// Non-numeric sub_origin_id degrades to absent, so the default applies.
	if lead.SubOriginID == nil || *lead.SubOriginID != 1 {
		t.Errorf("sub origin = %v, want default", lead.SubOriginID)
	}
}

func TestWhatsappEvent(t *testing.T) {
	router, _, chats := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/webhooks/whatsapp", "application/json", `{
		"event": "messages.upsert",
		"session": "main",
		"data": {
			"id": 123,
			"key": {"id": "K123", "remoteJid": "5511988887777@s.whatsapp.net"},
			"message": {"conversation": "oi"}
		}
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var res service.ProcessResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !res.OK || res.MessageID != 123 {
		t.Fatalf("result = %+v", res)
	}
	if len(chats.messages) != 1 {
		t.Fatalf("messages stored = %d", len(chats.messages))
	}
}

func TestWhatsappMalformedEnvelopeIsStill200(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/webhooks/whatsapp", "application/json", "not json at all")
	if w.Code != http.StatusOK {
		t.Fatalf("malformed envelope must ride a 200, got %d", w.Code)
	}
	var res service.ProcessResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.OK || res.Error == "" {
		t.Fatalf("malformed envelope not reported in-band: %+v", res)
	}
}
