package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/domain"
	interactionsvc "storefront-catalog/internal/service/interaction"
)

type stubCatalog struct {
	products   []domain.Product
	byID       map[int]domain.Product
	categories []string
	err        error
	lastOpts   catalog.ListOptions
	lastQuery  string
}

func (s *stubCatalog) ListProducts(_ context.Context, opts catalog.ListOptions) ([]domain.Product, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return catalog.ApplyListOptions(s.products, opts), nil
}

func (s *stubCatalog) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return catalog.FilterByText(s.products, query), nil
}

func (s *stubCatalog) FetchProductByID(_ context.Context, id int) *domain.Product {
	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	return &p
}

func (s *stubCatalog) FetchAllCategories(context.Context) ([]string, error) {
	return s.categories, s.err
}

type similarCall struct {
	productID int
	category  string
	price     float64
	limit     int
}

type stubRecommendations struct {
	products    []domain.Product
	gotUser     string
	gotLimit    int
	similarCall similarCall
}

func (s *stubRecommendations) GetRecommendationsWithFallback(_ context.Context, userID string, limit int) []domain.Product {
	s.gotUser = userID
	s.gotLimit = limit
	return s.products
}

func (s *stubRecommendations) GetSimilarProducts(_ context.Context, productID int, category string, price float64, limit int) []domain.Product {
	s.similarCall = similarCall{productID: productID, category: category, price: price, limit: limit}
	return s.products
}

type stubInteractions struct {
	gotUser   string
	gotInput  interactionsvc.RecordInput
	err       error
	analytics *domain.Analytics
}

func (s *stubInteractions) Record(_ context.Context, userID string, in interactionsvc.RecordInput) (*domain.Interaction, error) {
	if userID == "" {
		return nil, interactionsvc.ErrAnonymous
	}
	s.gotUser = userID
	s.gotInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Interaction{UserID: userID, ProductID: in.ProductID, InteractionType: in.InteractionType, Category: in.Category}, nil
}

func (s *stubInteractions) Analytics(context.Context) (*domain.Analytics, error) {
	return s.analytics, s.err
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Title: "Backpack", Price: 109.95, Category: "men's clothing", Rating: domain.Rating{Rate: 3.9}},
		{ID: 5, Title: "Monitor", Price: 100, Category: "electronics", Rating: domain.Rating{Rate: 4.5}},
		{ID: 1001, Title: "Mascara", Price: 9.99, Category: "beauty", Rating: domain.Rating{Rate: 4}},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.Catalog == nil {
		products := sampleProducts()
		byID := map[int]domain.Product{}
		for _, p := range products {
			byID[p.ID] = p
		}
		deps.Catalog = &stubCatalog{products: products, byID: byID, categories: []string{"beauty", "electronics"}}
	}
	if deps.Recommendations == nil {
		deps.Recommendations = &stubRecommendations{}
	}
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func serve(router *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) productList {
	t.Helper()
	var resp productList
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v body=%s", err, rec.Body.String())
	}
	return resp
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error without services")
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, Deps{})

	if rec := serve(router, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from readyz without db, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestReady_ReportsRecommendationStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := Deps{Catalog: &stubCatalog{}, Recommendations: &stubRecommendations{}}

	cases := []struct {
		name   string
		check  storeCheck
		code   int
		status string
	}{
		{name: "disabled", check: nil, code: http.StatusServiceUnavailable, status: "disabled"},
		{name: "reachable", check: func(context.Context) error { return nil }, code: http.StatusOK, status: "ok"},
		{name: "unreachable", check: func(context.Context) error { return errors.New("connection refused") }, code: http.StatusServiceUnavailable, status: "unreachable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, err := buildRouter(logDiscard(), tc.check, deps)
			if err != nil {
				t.Fatalf("build router: %v", err)
			}
			rec := serve(router, http.MethodGet, "/readyz", "", nil)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d body=%s", tc.code, rec.Code, rec.Body.String())
			}
			var body readiness
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.RecommendationStore != tc.status || body.Catalog != "ok" {
				t.Fatalf("unexpected readiness %+v", body)
			}
		})
	}
}

func TestListProducts_TruncatesAndReportsTotal(t *testing.T) {
	router := newTestRouter(t, Deps{})

	rec := serve(router, http.MethodGet, "/products?limit=2&sort=price_asc", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeList(t, rec)
	if resp.Limit != 2 || resp.Count != 2 || resp.Total != 3 {
		t.Fatalf("unexpected list meta %+v", resp)
	}
	if resp.Results[0].ID != 1001 || resp.Results[1].ID != 5 {
		t.Fatalf("expected price ascending order, got %+v", resp.Results)
	}
}

func TestListProducts_CategoryFilter(t *testing.T) {
	router := newTestRouter(t, Deps{})

	resp := decodeList(t, serve(router, http.MethodGet, "/products?category=electronics", "", nil))
	if resp.Count != 1 || resp.Results[0].ID != 5 {
		t.Fatalf("expected electronics only, got %+v", resp)
	}
}

func TestListProducts_RejectsBadParams(t *testing.T) {
	router := newTestRouter(t, Deps{})

	for _, target := range []string{"/products?limit=-1", "/products?limit=abc", "/products?sort=name"} {
		rec := serve(router, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Fatalf("%s: expected error body, got %s", target, rec.Body.String())
		}
	}
}

func TestListProducts_UpstreamFailureIsEmpty(t *testing.T) {
	router := newTestRouter(t, Deps{Catalog: &stubCatalog{err: errors.New("upstream down")}})

	rec := serve(router, http.MethodGet, "/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty results, got %s", rec.Body.String())
	}
}

func TestSearchProducts(t *testing.T) {
	cat := &stubCatalog{products: sampleProducts()}
	router := newTestRouter(t, Deps{Catalog: cat})

	if rec := serve(router, http.MethodGet, "/products/search", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}

	resp := decodeList(t, serve(router, http.MethodGet, "/products/search?q=MONITOR", "", nil))
	if resp.Count != 1 || resp.Results[0].ID != 5 {
		t.Fatalf("unexpected search result %+v", resp)
	}
	if cat.lastQuery != "MONITOR" {
		t.Fatalf("expected query passed through, got %q", cat.lastQuery)
	}
}

func TestGetProduct(t *testing.T) {
	router := newTestRouter(t, Deps{})

	rec := serve(router, http.MethodGet, "/products/1001", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"title":"Mascara"`) {
		t.Fatalf("expected product 1001, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodGet, "/products/77", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/products/abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSimilarProducts_UsesResolvedProduct(t *testing.T) {
	recs := &stubRecommendations{products: []domain.Product{{ID: 8, Category: "electronics"}}}
	router := newTestRouter(t, Deps{Recommendations: recs})

	resp := decodeList(t, serve(router, http.MethodGet, "/products/5/similar", "", nil))
	if resp.Count != 1 || resp.Results[0].ID != 8 {
		t.Fatalf("unexpected similar response %+v", resp)
	}
	want := similarCall{productID: 5, category: "electronics", price: 100, limit: defaultSimilarLimit}
	if recs.similarCall != want {
		t.Fatalf("expected %+v, got %+v", want, recs.similarCall)
	}

	if rec := serve(router, http.MethodGet, "/products/404/similar", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}
}

func TestSimilarProducts_ZeroLimitUsesDefault(t *testing.T) {
	recs := &stubRecommendations{}
	router := newTestRouter(t, Deps{Recommendations: recs})

	resp := decodeList(t, serve(router, http.MethodGet, "/products/5/similar?limit=0", "", nil))
	if resp.Limit != defaultSimilarLimit {
		t.Fatalf("expected envelope limit %d, got %d", defaultSimilarLimit, resp.Limit)
	}
	if recs.similarCall.limit != defaultSimilarLimit {
		t.Fatalf("expected service asked for %d, got %d", defaultSimilarLimit, recs.similarCall.limit)
	}
}

func TestListCategories(t *testing.T) {
	router := newTestRouter(t, Deps{})

	rec := serve(router, http.MethodGet, "/categories", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp categoryList
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || resp.Results[0] != "beauty" {
		t.Fatalf("unexpected categories %+v", resp)
	}
}

func TestRecommendations_Anonymous(t *testing.T) {
	recs := &stubRecommendations{products: []domain.Product{{ID: 1}, {ID: 5}}}
	router := newTestRouter(t, Deps{Recommendations: recs, JWTSecret: "secret"})

	rec := serve(router, http.MethodGet, "/recommendations?limit=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if recs.gotUser != "" || recs.gotLimit != 2 {
		t.Fatalf("expected anonymous call with limit 2, got user=%q limit=%d", recs.gotUser, recs.gotLimit)
	}
	if !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRecordInteraction(t *testing.T) {
	interactions := &stubInteractions{}
	router := newTestRouter(t, Deps{Interactions: interactions, JWTSecret: "secret"})
	body := `{"product_id":5,"interaction_type":"view","category":"electronics"}`

	rec := serve(router, http.MethodPost, "/interactions", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous user, got %d", rec.Code)
	}

	auth := map[string]string{"Authorization": "Bearer " + signedToken(t, "secret", "alice")}
	rec = serve(router, http.MethodPost, "/interactions", body, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if interactions.gotUser != "alice" || interactions.gotInput.ProductID != 5 {
		t.Fatalf("unexpected recorded call user=%q input=%+v", interactions.gotUser, interactions.gotInput)
	}

	if rec := serve(router, http.MethodPost, "/interactions", `{"product_id":`, auth); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	interactions.err = interactionsvc.ErrInvalidInteraction
	if rec := serve(router, http.MethodPost, "/interactions", body, auth); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid interaction, got %d", rec.Code)
	}

	interactions.err = domain.ErrNotFound
	if rec := serve(router, http.MethodPost, "/interactions", body, auth); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}
}

type memoryStore struct {
	recorded []domain.Interaction
}

func (m *memoryStore) RecordInteraction(_ context.Context, in domain.Interaction) error {
	m.recorded = append(m.recorded, in)
	return nil
}

func (m *memoryStore) Analytics(context.Context) (*domain.Analytics, error) {
	return &domain.Analytics{}, nil
}

func TestRecordInteraction_ReportsCreatedAt(t *testing.T) {
	store := &memoryStore{}
	cat := &stubCatalog{byID: map[int]domain.Product{}}
	router := newTestRouter(t, Deps{
		Catalog:      cat,
		Interactions: interactionsvc.New(store, cat, nil),
		JWTSecret:    "secret",
	})

	auth := map[string]string{"Authorization": "Bearer " + signedToken(t, "secret", "alice")}
	rec := serve(router, http.MethodPost, "/interactions", `{"product_id":3,"interaction_type":"view","category":"x"}`, auth)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var got domain.Interaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set, got body=%s", rec.Body.String())
	}
	if len(store.recorded) != 1 || !store.recorded[0].CreatedAt.Equal(got.CreatedAt) {
		t.Fatalf("expected stored created_at to match response, got %+v", store.recorded)
	}
}

func TestAnalytics(t *testing.T) {
	router := newTestRouter(t, Deps{})
	if rec := serve(router, http.MethodGet, "/analytics", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without interaction store, got %d", rec.Code)
	}

	interactions := &stubInteractions{analytics: &domain.Analytics{TotalUsers: 4, TotalInteractions: 9}}
	router = newTestRouter(t, Deps{Interactions: interactions})
	rec := serve(router, http.MethodGet, "/analytics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_users":4`) {
		t.Fatalf("unexpected analytics response %d body=%s", rec.Code, rec.Body.String())
	}
}
