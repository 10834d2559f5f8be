package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront-catalog/internal/domain"
)

type stubInteractionRepo struct {
	items []domain.Interaction
	err   error
}

func (s *stubInteractionRepo) RecordInteraction(_ context.Context, in domain.Interaction) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, in)
	return nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `user_id,product_id,interaction_type,category,created_at
alice,5,view,electronics,2026-03-01T10:00:00Z
,,,,
bob,1002,Purchase,beauty,
carol,3,cart_add,,2026-03-01T12:30:00+02:00,
`
	repo := &stubInteractionRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 || len(repo.items) != 3 {
		t.Fatalf("expected 3 interactions, got count=%d items=%d", count, len(repo.items))
	}

	first := repo.items[0]
	if first.UserID != "alice" || first.ProductID != 5 || first.InteractionType != domain.InteractionView || first.Category != "electronics" {
		t.Fatalf("unexpected first interaction %+v", first)
	}
	if !first.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_at %v", first.CreatedAt)
	}
	if repo.items[1].InteractionType != domain.InteractionPurchase || !repo.items[1].CreatedAt.IsZero() {
		t.Fatalf("expected normalized type and zero time, got %+v", repo.items[1])
	}
	if !repo.items[2].CreatedAt.Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected offset converted to UTC, got %v", repo.items[2].CreatedAt)
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	imp := NewCSVImporter(strings.NewReader("user_id,product_id\nalice,1\n"), &stubInteractionRepo{})
	if _, err := imp.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "interaction_type") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestCSVImporter_InvalidRowStops(t *testing.T) {
	csvData := `user_id,product_id,interaction_type
alice,1,view
alice,abc,view
alice,2,view
`
	repo := &stubInteractionRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("expected error on row 3, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one imported row before failure, got %d", count)
	}

	_, err = NewCSVImporter(strings.NewReader("user_id,product_id,interaction_type\nalice,1,like\n"), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "like") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestCSVImporter_WriterError(t *testing.T) {
	boom := errors.New("db down")
	csvData := "user_id,product_id,interaction_type\nalice,1,view\n"
	_, err := NewCSVImporter(strings.NewReader(csvData), &stubInteractionRepo{err: boom}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}
