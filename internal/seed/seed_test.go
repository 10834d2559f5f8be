package seed

import (
	"testing"
	"time"

	"storefront-catalog/internal/domain"
)

func TestInteractions_AreValidDemoEvents(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := Interactions(now)
	if len(events) == 0 {
		t.Fatalf("expected demo interactions")
	}
	for _, e := range events {
		if len(e.UserID) <= len(demoUserPrefix) || e.UserID[:len(demoUserPrefix)] != demoUserPrefix {
			t.Fatalf("expected demo user prefix, got %q", e.UserID)
		}
		if !domain.ValidInteractionType(e.InteractionType) || e.ProductID <= 0 || e.Category == "" {
			t.Fatalf("invalid demo interaction %+v", e)
		}
		if !e.CreatedAt.Before(now) {
			t.Fatalf("expected history in the past, got %v", e.CreatedAt)
		}
	}
}
