package interaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront-catalog/internal/domain"
)

var (
	// ErrAnonymous is returned when an interaction has no user behind it.
	ErrAnonymous = errors.New("user identity required")
	// ErrInvalidInteraction covers bad product ids and unknown interaction types.
	ErrInvalidInteraction = errors.New("invalid interaction")
)

type store interface {
	RecordInteraction(ctx context.Context, in domain.Interaction) error
	Analytics(ctx context.Context) (*domain.Analytics, error)
}

type productLookup interface {
	FetchProductByID(ctx context.Context, id int) *domain.Product
}

// Service records storefront behaviour that feeds personalized recommendations.
type Service struct {
	store    store
	products productLookup
	logger   *log.Logger
	now      func() time.Time
}

// New builds a Service writing to store and resolving categories through products.
func New(store store, products productLookup, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, products: products, logger: logger, now: time.Now}
}

// RecordInput is the client payload for one interaction.
type RecordInput struct {
	ProductID       int    `json:"product_id"`
	InteractionType string `json:"interaction_type"`
	Category        string `json:"category"`
}

// Record validates and stores one interaction for userID and returns the
// stored event, timestamp included.
func (s *Service) Record(ctx context.Context, userID string, in RecordInput) (*domain.Interaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrAnonymous
	}
	if in.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product_id must be positive", ErrInvalidInteraction)
	}
	kind := strings.ToLower(strings.TrimSpace(in.InteractionType))
	if !domain.ValidInteractionType(kind) {
		return nil, fmt.Errorf("%w: unknown interaction_type %q", ErrInvalidInteraction, in.InteractionType)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		p := s.products.FetchProductByID(ctx, in.ProductID)
		if p == nil {
			return nil, fmt.Errorf("product %d: %w", in.ProductID, domain.ErrNotFound)
		}
		category = p.Category
	}

	event := domain.Interaction{
		UserID:          userID,
		ProductID:       in.ProductID,
		InteractionType: kind,
		Category:        category,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.RecordInteraction(ctx, event); err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	s.logger.Printf("interaction: user_id=%s product_id=%d type=%s", userID, in.ProductID, kind)
	return &event, nil
}

// Analytics returns the aggregate interaction report.
func (s *Service) Analytics(ctx context.Context) (*domain.Analytics, error) {
	return s.store.Analytics(ctx)
}
