package service

import (
	"context"
	"testing"
	"time"

	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
)

type kvCache struct {
	values map[string]string
}

func (k *kvCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	k.values[key] = val
	return nil
}

func (k *kvCache) Get(_ context.Context, key string) (string, error) {
	return k.values[key], nil
}

func (k *kvCache) Publish(context.Context, string, string) error { return nil }

func TestWarmInsightsCountsLeads(t *testing.T) {
	cache := &kvCache{values: map[string]string{}}
	d, err := NewDispatcher(nil, cache, testLogger(), "", nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	disp := d.(*dispatcher)
	disp.warmInsights(&domain.Lead{ID: 1})
	disp.warmInsights(&domain.Lead{ID: 2})

	key := "insights:leads:" + time.Now().UTC().Format("2006-01-02")
	if cache.values[key] != "2" {
		t.Fatalf("counter = %q, want 2", cache.values[key])
	}
}

func TestDispatcherWithoutSenderOrCache(t *testing.T) {
	d, err := NewDispatcher(nil, nil, testLogger(), "", nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	// Must not panic with nothing configured.
	d.LeadCreated(&domain.Lead{ID: 1})
}
