package handler

import (
	"context"
	"net/http"

	_ "github.com/MentoraPower/beauty-growth-form-sub002/docs"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/event"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handler struct {
	intake    *service.Intake
	processor *service.Processor
	server    *http.Server
}

// @title CRM Webhook Ingestion API
// @version 1.0
// @description Inbound webhook handlers for lead capture and WhatsApp gateway events
// @host localhost:6060
// @BasePath /
func NewHttpHandler(addr string, intake *service.Intake, processor *service.Processor) *Handler {
	h := &Handler{
		intake:    intake,
		processor: processor,
	}

	// create router
	router := gin.Default()

	// register routes
	router.GET("/health", h.health)
	router.POST("/webhooks/leads", h.leadIntake)
	router.GET("/webhooks/leads", h.leadPing)
	router.HEAD("/webhooks/leads", h.leadPing)
	router.POST("/webhooks/whatsapp", h.whatsappEvent)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// create http server
	h.server = &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Health godoc
// @Summary Service health probe
// @Tags Health
// @Success 200
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LeadPing answers form-builder reachability checks on the intake URL.
func (h *Handler) leadPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// LeadIntake godoc
// @Summary Receive one form submission
// @Description Normalizes an arbitrary form payload into a Lead. Always answers 200; rejections are reported in the body because form builders treat non-2xx as a hard failure.
// @Tags Webhooks
// @Accept json
// @Param origin_id query int false "parent origin for routing"
// @Param sub_origin_id query int false "destination queue"
// @Param pipeline_id query int false "destination pipeline"
// @Success 200 {object} service.IntakeResult
// @Router /webhooks/leads [post]
func (h *Handler) leadIntake(c *gin.Context) {
	payload := parseLeadBody(c)
	params := service.RoutingParams{
		OriginID:    queryID(c, "origin_id"),
		SubOriginID: queryID(c, "sub_origin_id"),
		PipelineID:  queryID(c, "pipeline_id"),
	}
	c.JSON(http.StatusOK, h.intake.Process(c.Request.Context(), payload, params))
}

// WhatsappEvent godoc
// @Summary Receive one gateway event
// @Description Applies a message/status/reaction/presence event to the chat aggregate. Always answers 200 to suppress provider retries; idempotency is enforced by the store.
// @Tags Webhooks
// @Accept json
// @Success 200 {object} service.ProcessResult
// @Router /webhooks/whatsapp [post]
func (h *Handler) whatsappEvent(c *gin.Context) {
	var env event.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		// Malformed envelopes are acked too; a non-2xx would only
		// trigger a provider retry storm of the same bad payload.
		c.JSON(http.StatusOK, service.ProcessResult{Error: "invalid envelope: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.processor.Process(c.Request.Context(), env))
}
