package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"storefront-catalog/internal/domain"
)

// Options tunes the upstream transport shared by all sources.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// RPS and Burst bound requests per source; RPS <= 0 disables limiting.
	RPS   float64
	Burst int
}

// Aggregator merges products and categories from several catalog sources.
type Aggregator struct {
	sources []*upstream
	logger  *log.Logger
}

// New validates the source table and builds an Aggregator.
func New(sources []Source, opts Options, logger *log.Logger) (*Aggregator, error) {
	if err := validateSources(sources); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	ups := make([]*upstream, 0, len(sources))
	for _, s := range sources {
		u := &upstream{source: s, client: client}
		if opts.RPS > 0 {
			burst := opts.Burst
			if burst <= 0 {
				burst = 1
			}
			u.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
		}
		ups = append(ups, u)
	}
	return &Aggregator{sources: ups, logger: logger}, nil
}

// FetchAllProducts returns products from every source that takes part in a
// listing of the given limit (0 = unlimited), primary first. When the
// combined fetch fails it falls back to the primary source alone; only a
// failure of that fallback is returned as an error.
func (a *Aggregator) FetchAllProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := a.fetchCombined(ctx, limit)
	if err == nil {
		return products, nil
	}
	primary := a.sources[0]
	a.logger.Printf("catalog: combined fetch limit=%d failed: %v; falling back to %s", limit, err, primary.source.Name)

	products, err = a.fetchListing(ctx, primary, limit)
	if err != nil {
		a.logger.Printf("catalog: fallback fetch from %s failed: %v", primary.source.Name, err)
		return nil, err
	}
	return products, nil
}

func (a *Aggregator) fetchCombined(ctx context.Context, limit int) ([]domain.Product, error) {
	results := make([][]domain.Product, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range a.sources {
		i, u := i, u
		if !u.source.Include(limit) {
			continue
		}
		g.Go(func() error {
			products, err := a.fetchListing(gctx, u, limit)
			if errors.Is(err, domain.ErrUpstreamStatus) {
				a.logger.Printf("catalog: skipping %s: %v", u.source.Name, err)
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Product
	for _, products := range results {
		out = append(out, products...)
	}
	a.logger.Printf("catalog: fetched limit=%d count=%d", limit, len(out))
	return out, nil
}

func (a *Aggregator) fetchListing(ctx context.Context, u *upstream, limit int) ([]domain.Product, error) {
	body, err := u.get(ctx, "", listQuery(u.source.PageSize(limit)))
	if err != nil {
		return nil, err
	}
	products, err := u.source.Transform(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.source.Name, err)
	}
	return products, nil
}

// FetchProductByID resolves a global id to the owning source and fetches
// the product. It returns nil when the id is unknown or the call fails.
func (a *Aggregator) FetchProductByID(ctx context.Context, id int) *domain.Product {
	if id <= 0 {
		return nil
	}
	u := a.sourceFor(id)
	nativeID := id - u.source.Offset

	body, err := u.get(ctx, strconv.Itoa(nativeID), nil)
	if err != nil {
		a.logger.Printf("catalog: get id=%d from %s: %v", id, u.source.Name, err)
		return nil
	}
	p, err := u.source.TransformOne(body)
	if err != nil {
		a.logger.Printf("catalog: decode id=%d from %s: %v", id, u.source.Name, err)
		return nil
	}
	if p == nil {
		a.logger.Printf("catalog: id=%d not found in %s", id, u.source.Name)
	}
	return p
}

// sourceFor returns the source with the highest offset not above id.
func (a *Aggregator) sourceFor(id int) *upstream {
	owner := a.sources[0]
	for _, u := range a.sources[1:] {
		if id >= u.source.Offset {
			owner = u
		}
	}
	return owner
}

// FetchAllCategories unions category names across sources (exact string
// dedup) and sorts them. On failure it falls back to the primary source's
// list as returned.
func (a *Aggregator) FetchAllCategories(ctx context.Context) ([]string, error) {
	categories, err := a.fetchCategoriesCombined(ctx)
	if err == nil {
		return categories, nil
	}
	primary := a.sources[0]
	a.logger.Printf("catalog: combined categories failed: %v; falling back to %s", err, primary.source.Name)

	body, err := primary.get(ctx, "categories", nil)
	if err != nil {
		return nil, err
	}
	return primary.source.Categories(body)
}

func (a *Aggregator) fetchCategoriesCombined(ctx context.Context) ([]string, error) {
	results := make([][]string, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range a.sources {
		i, u := i, u
		g.Go(func() error {
			body, err := u.get(gctx, "categories", nil)
			if errors.Is(err, domain.ErrUpstreamStatus) {
				a.logger.Printf("catalog: skipping %s categories: %v", u.source.Name, err)
				return nil
			}
			if err != nil {
				return err
			}
			names, err := u.source.Categories(body)
			if err != nil {
				return fmt.Errorf("%s: %w", u.source.Name, err)
			}
			results[i] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, names := range results {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SearchProducts filters the merged catalog by a case-insensitive substring
// of title, category or description.
func (a *Aggregator) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	all, err := a.FetchAllProducts(ctx, 0)
	if err != nil {
		return nil, err
	}
	return FilterByText(all, query), nil
}

// FilterByText keeps products whose title, category or description contain term, ignoring case.
func FilterByText(products []domain.Product, term string) []domain.Product {
	folder := cases.Fold()
	needle := folder.String(term)
	out := []domain.Product{}
	for _, p := range products {
		if strings.Contains(folder.String(p.Title), needle) ||
			strings.Contains(folder.String(p.Category), needle) ||
			(p.Description != "" && strings.Contains(folder.String(p.Description), needle)) {
			out = append(out, p)
		}
	}
	return out
}

const (
	SortDefault   = "default"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ListOptions narrows a catalog listing.
type ListOptions struct {
	Limit    int
	Category string
	Sort     string
}

// ListProducts fetches the merged catalog and applies category filter and sort.
func (a *Aggregator) ListProducts(ctx context.Context, opts ListOptions) ([]domain.Product, error) {
	products, err := a.FetchAllProducts(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}
	return ApplyListOptions(products, opts), nil
}

// ApplyListOptions filters by exact category ("" or "all" keeps everything)
// and sorts stably. The input slice is not modified.
func ApplyListOptions(products []domain.Product, opts ListOptions) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if opts.Category != "" && opts.Category != "all" && p.Category != opts.Category {
			continue
		}
		out = append(out, p)
	}
	switch opts.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating.Rate > out[j].Rating.Rate })
	}
	return out
}
