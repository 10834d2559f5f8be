package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-catalog/internal/domain"
)

const (
	// SecondaryOffset is added to secondary-source ids so they never collide with primary ids.
	SecondaryOffset = 1000

	secondaryMinLimit    = 20
	secondaryDefaultPage = 30
)

// Source describes one external catalog: where it lives, which id range it
// owns and how its payloads map onto domain.Product.
type Source struct {
	Name    string
	BaseURL string
	Offset  int

	// Include reports whether the source takes part in a listing of the given limit (0 = unlimited).
	Include func(limit int) bool
	// PageSize is the limit query parameter sent for a listing; 0 omits it.
	PageSize func(limit int) int

	Transform    func(raw []byte) ([]domain.Product, error)
	TransformOne func(raw []byte) (*domain.Product, error)
	Categories   func(raw []byte) ([]string, error)
}

// DefaultSources returns the primary (FakeStore-shaped) and secondary
// (DummyJSON-shaped) sources in declaration order.
func DefaultSources(primaryURL, secondaryURL string) []Source {
	return []Source{
		FakeStoreSource(primaryURL),
		DummyJSONSource(secondaryURL, SecondaryOffset),
	}
}

// FakeStoreSource builds the primary source. Its records already have the
// domain shape and its ids are used unmodified.
func FakeStoreSource(baseURL string) Source {
	return Source{
		Name:      "fakestore",
		BaseURL:   baseURL,
		Offset:    0,
		Include:   func(int) bool { return true },
		PageSize:  func(limit int) int { return limit },
		Transform: decodeFakeStore,
		TransformOne: func(raw []byte) (*domain.Product, error) {
			items, err := decodeFakeStore(raw)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return &items[0], nil
		},
		Categories: decodeStringCategories,
	}
}

// DummyJSONSource builds the secondary source. It joins unlimited listings
// and listings above 20 items only.
func DummyJSONSource(baseURL string, offset int) Source {
	transform := func(raw []byte) ([]domain.Product, error) {
		return decodeDummyJSON(raw, offset)
	}
	return Source{
		Name:    "dummyjson",
		BaseURL: baseURL,
		Offset:  offset,
		Include: func(limit int) bool { return limit <= 0 || limit > secondaryMinLimit },
		PageSize: func(limit int) int {
			if limit <= 0 {
				return secondaryDefaultPage
			}
			return limit
		},
		Transform: transform,
		TransformOne: func(raw []byte) (*domain.Product, error) {
			if isNullBody(raw) {
				return nil, nil
			}
			batch, err := json.Marshal(dummyJSONPage{Products: []json.RawMessage{raw}})
			if err != nil {
				return nil, err
			}
			items, err := transform(batch)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return &items[0], nil
		},
		Categories: decodeDummyJSONCategories,
	}
}

func validateSources(sources []Source) error {
	if len(sources) == 0 {
		return errors.New("catalog: at least one source required")
	}
	if sources[0].Offset != 0 {
		return fmt.Errorf("catalog: primary source %q must have offset 0", sources[0].Name)
	}
	for i, s := range sources {
		if s.Transform == nil || s.TransformOne == nil || s.Categories == nil || s.Include == nil || s.PageSize == nil {
			return fmt.Errorf("catalog: source %q is incomplete", s.Name)
		}
		if i > 0 && s.Offset <= sources[i-1].Offset {
			return fmt.Errorf("catalog: source %q offset %d overlaps %q", s.Name, s.Offset, sources[i-1].Name)
		}
	}
	return nil
}

func decodeFakeStore(raw []byte) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNullBody(trimmed) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []domain.Product
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode fakestore list: %w", err)
		}
		return items, nil
	}
	var item domain.Product
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("decode fakestore item: %w", err)
	}
	return []domain.Product{item}, nil
}

type dummyJSONPage struct {
	Products []json.RawMessage `json:"products"`
}

type dummyJSONProduct struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	Rating      float64  `json:"rating"`
	Stock       int      `json:"stock"`
}

func decodeDummyJSON(raw []byte, offset int) ([]domain.Product, error) {
	var page dummyJSONPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode dummyjson page: %w", err)
	}
	out := make([]domain.Product, 0, len(page.Products))
	for _, item := range page.Products {
		var p dummyJSONProduct
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("decode dummyjson item: %w", err)
		}
		out = append(out, p.toDomain(offset))
	}
	return out, nil
}

func (p dummyJSONProduct) toDomain(offset int) domain.Product {
	image := p.Thumbnail
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0]
	}
	// Zero rating and zero stock read as "unknown" upstream.
	rate := p.Rating
	if rate == 0 {
		rate = 4.0
	}
	count := p.Stock
	if count == 0 {
		count = 100
	}
	return domain.Product{
		ID:          p.ID + offset,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Image:       image,
		Rating:      domain.Rating{Rate: rate, Count: count},
	}
}

func decodeStringCategories(raw []byte) ([]string, error) {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func decodeDummyJSONCategories(raw []byte) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode dummyjson categories: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			out = append(out, name)
			continue
		}
		var obj struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("decode dummyjson category: %w", err)
		}
		if obj.Slug != "" {
			out = append(out, obj.Slug)
		} else {
			out = append(out, obj.Name)
		}
	}
	return out, nil
}

func isNullBody(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
