package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/cache"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/gateway/email"
	"github.com/aniladanir/retry"
)

// Dispatcher is the explicit background-task boundary for side effects.
// Dispatch enqueues and returns immediately: handler latency and
// correctness never depend on the outcome, and failures are only logged.
type Dispatcher interface {
	LeadCreated(lead *domain.Lead)
}

type dispatcher struct {
	sender   email.Sender
	cache    cache.Cache
	retrier  *retry.Retrier
	logger   *slog.Logger
	notifyTo string
	timeout  time.Duration
}

func NewDispatcher(sender email.Sender, c cache.Cache, logger *slog.Logger, notifyTo string, maxRetryOnFail *int) (Dispatcher, error) {
	retrierOpts := make([]retry.Option, 0)
	if maxRetryOnFail != nil {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(*maxRetryOnFail))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	return &dispatcher{
		sender:   sender,
		cache:    c,
		retrier:  retrier,
		logger:   logger,
		notifyTo: notifyTo,
		timeout:  time.Second * 30,
	}, nil
}

// LeadCreated fires the new-lead side effects in the background: the
// notification email and the insights counter warm-up. The context is
// detached from the request on purpose: the webhook response must not
// wait for, nor fail on, this work.
func (d *dispatcher) LeadCreated(lead *domain.Lead) {
	go d.warmInsights(lead)

	if d.sender == nil || d.notifyTo == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		dispatchLogger := d.logger.With(slog.Int64("leadId", lead.ID))

		subject := fmt.Sprintf("New lead: %s", lead.Name)
		html := fmt.Sprintf("<p><b>%s</b> (%s)</p><p>WhatsApp: %s</p>",
			lead.Name, lead.Email, lead.Whatsapp)

		retryFunc := func(attempt int) (terminate bool) {
			if err := d.sender.Send(ctx, d.notifyTo, subject, html); err != nil {
				dispatchLogger.Error("failed to send automation email",
					"attempt", attempt, "error", err.Error())
				return false
			}
			return true
		}

		if ok := <-d.retrier.Retry(ctx, retryFunc, true); !ok {
			dispatchLogger.Error("automation email dispatch gave up")
			return
		}
		dispatchLogger.Info("automation email dispatched")
	}()
}

// warmInsights keeps the dashboard's daily lead counter hot so the first
// insights request of the day does not fall back to a table scan.
func (d *dispatcher) warmInsights(lead *domain.Lead) {
	if d.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	day := time.Now().UTC().Format("2006-01-02")
	key := "insights:leads:" + day

	count := 0
	if v, err := d.cache.Get(ctx, key); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			count = n
		}
	}
	if err := d.cache.Set(ctx, key, strconv.Itoa(count+1), 48*time.Hour); err != nil {
		d.logger.Error("insights warm-up failed", "leadId", lead.ID, "error", err.Error())
	}
}
