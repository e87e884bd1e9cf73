package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/Seedline-Foundation/Coindailynow-sub003/docs"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, domain.ErrTokenInvalid
}

// tokenAuth accepts "reader-<id>" and "admin-<id>" tokens
func tokenAuth() *mockAuthService {
	return &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			switch {
			case strings.HasPrefix(token, "reader-"):
				return &domain.AuthContext{UserID: strings.TrimPrefix(token, "reader-"), Role: domain.RoleReader}, nil
			case strings.HasPrefix(token, "admin-"):
				return &domain.AuthContext{UserID: strings.TrimPrefix(token, "admin-"), Role: domain.RoleAdmin}, nil
			case token == "expired":
				return nil, domain.ErrTokenExpired
			}
			return nil, domain.ErrTokenInvalid
		},
	}
}

type mockSearchService struct {
	searchFn       func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
	personalizedFn func(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResult, error)
	suggestFn      func(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, opts)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSearchService) PersonalizedSearch(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if m.personalizedFn != nil {
		return m.personalizedFn(ctx, query, userID, opts)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSearchService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, prefix, limit)
	}
	return nil, errors.New("not implemented")
}

type mockRecommendationService struct {
	recommendFn  func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error)
	trendingFn   func(ctx context.Context, limit int) ([]domain.TrendingArticle, error)
	invalidateFn func(ctx context.Context, userID string) error
}

func (m *mockRecommendationService) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRecommendationService) Trending(ctx context.Context, limit int) ([]domain.TrendingArticle, error) {
	if m.trendingFn != nil {
		return m.trendingFn(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRecommendationService) InvalidateUser(ctx context.Context, userID string) error {
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx, userID)
	}
	return nil
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type mockMetrics struct {
	requests []recordedRequest
	inFlight int
}

func (m *mockMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.requests = append(m.requests, recordedRequest{method: method, route: route, status: status})
}

func (m *mockMetrics) TrackInFlight() func() {
	m.inFlight++
	return func() { m.inFlight-- }
}

func (m *mockMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}

type testServer struct {
	search  *mockSearchService
	recs    *mockRecommendationService
	metrics *mockMetrics
	checks  map[string]ReadinessCheck
}

func newTestServer() *testServer {
	return &testServer{
		search:  &mockSearchService{},
		recs:    &mockRecommendationService{},
		metrics: &mockMetrics{},
		checks:  map[string]ReadinessCheck{},
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	srv := NewServer(cfg, tokenAuth(), ts.search, ts.recs, ts.metrics, ts.checks, nil)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleHealthAndVersion(t *testing.T) {
	ts := newTestServer()

	rr := ts.do(t, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if resp := decode[StatusResponse](t, rr); resp.Status != "ok" {
		t.Errorf("expected ok, got %q", resp.Status)
	}

	rr = ts.do(t, http.MethodGet, "/version", "", nil)
	if resp := decode[VersionResponse](t, rr); resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", resp.Version)
	}
}

func TestHandleReady(t *testing.T) {
	ts := newTestServer()
	ts.checks["postgres"] = func(ctx context.Context) error { return nil }

	rr := ts.do(t, http.MethodGet, "/ready", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	ts.checks["vespa"] = func(ctx context.Context) error { return errors.New("connection refused") }
	rr = ts.do(t, http.MethodGet, "/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	resp := decode[ReadyResponse](t, rr)
	if resp.Status != "not_ready" || resp.Checks["postgres"] != "ok" || resp.Checks["vespa"] != "connection refused" {
		t.Errorf("unexpected readiness %+v", resp)
	}
}

func TestHandleSearch_AppliesDefaults(t *testing.T) {
	ts := newTestServer()
	var gotQuery string
	var gotOpts domain.SearchOptions
	ts.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		gotQuery, gotOpts = query, opts
		return &domain.SearchResult{Query: query, SearchMethod: domain.SearchMethodHybrid, Hits: []domain.FusedResult{{ID: "a1"}}}, nil
	}

	rr := ts.do(t, http.MethodPost, "/api/v1/search", "", `{"query":"bitcoin naira","limit":5,"boost_regional_terms":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if gotQuery != "bitcoin naira" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if gotOpts.Limit != 5 || gotOpts.BoostRegionalTerms {
		t.Errorf("body options not applied: %+v", gotOpts)
	}
	if !gotOpts.IncludeSemanticRanking || gotOpts.Type != domain.ResultTypeArticles {
		t.Errorf("defaults not kept: %+v", gotOpts)
	}

	result := decode[domain.SearchResult](t, rr)
	if result.SearchMethod != domain.SearchMethodHybrid || len(result.Hits) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestHandleSearch_Personalize(t *testing.T) {
	ts := newTestServer()
	ts.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		return &domain.SearchResult{Query: query}, nil
	}
	var gotUser string
	ts.search.personalizedFn = func(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		gotUser = userID
		return &domain.SearchResult{Query: query}, nil
	}

	// Anonymous callers cannot personalize
	rr := ts.do(t, http.MethodPost, "/api/v1/search", "", `{"query":"btc","personalize":true}`)
	if rr.Code != http.StatusOK || gotUser != "" {
		t.Fatalf("expected anonymous search, got %d and user %q", rr.Code, gotUser)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/search", "reader-u1", `{"query":"btc","personalize":true}`)
	if rr.Code != http.StatusOK || gotUser != "u1" {
		t.Fatalf("expected personalized search for u1, got %d and user %q", rr.Code, gotUser)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/search", "bogus", `{"query":"btc"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", rr.Code)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		result   *domain.SearchResult
		err      error
		expected int
	}{
		{"malformed body", `{"query":`, nil, nil, http.StatusBadRequest},
		{"invalid query", `{"query":""}`, nil, domain.ErrInvalidQuery, http.StatusBadRequest},
		{"all sources failed", `{"query":"btc"}`, &domain.SearchResult{SearchMethod: domain.SearchMethodFailed, Error: "all sources failed"}, domain.ErrAllSourcesFailed, http.StatusServiceUnavailable},
		{"unexpected", `{"query":"btc"}`, nil, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
				return tt.result, tt.err
			}

			rr := ts.do(t, http.MethodPost, "/api/v1/search", "", tt.body)
			if rr.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rr.Code)
			}
		})
	}

	// The failed envelope is returned as the body
	ts := newTestServer()
	ts.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		return &domain.SearchResult{SearchMethod: domain.SearchMethodFailed, Hits: []domain.FusedResult{}}, domain.ErrAllSourcesFailed
	}
	rr := ts.do(t, http.MethodPost, "/api/v1/search", "", `{"query":"btc"}`)
	if result := decode[domain.SearchResult](t, rr); result.SearchMethod != domain.SearchMethodFailed {
		t.Errorf("expected failed envelope, got %+v", result)
	}
}

func TestHandlePersonalizedSearch(t *testing.T) {
	ts := newTestServer()
	ts.search.personalizedFn = func(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		return &domain.SearchResult{Query: query + "/" + userID}, nil
	}

	rr := ts.do(t, http.MethodPost, "/api/v1/search/personalized", "", `{"query":"btc"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/search/personalized", "reader-u7", `{"query":"btc"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if result := decode[domain.SearchResult](t, rr); result.Query != "btc/u7" {
		t.Errorf("unexpected query %q", result.Query)
	}
}

func TestHandleSuggestions(t *testing.T) {
	ts := newTestServer()
	var gotLimit int
	ts.search.suggestFn = func(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
		gotLimit = limit
		if prefix == "none" {
			return nil, nil
		}
		return []domain.SearchSuggestion{{Text: prefix + " naira", Score: 1, Regional: true}}, nil
	}

	rr := ts.do(t, http.MethodGet, "/api/v1/search/suggestions?q=bitcoin", "", nil)
	if rr.Code != http.StatusOK || gotLimit != 10 {
		t.Fatalf("expected 200 with default limit, got %d and %d", rr.Code, gotLimit)
	}
	suggestions := decode[[]domain.SearchSuggestion](t, rr)
	if len(suggestions) != 1 || suggestions[0].Text != "bitcoin naira" {
		t.Errorf("unexpected suggestions %+v", suggestions)
	}

	rr = ts.do(t, http.MethodGet, "/api/v1/search/suggestions?q=none", "", nil)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/api/v1/search/suggestions?q=btc&limit=abc", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestHandleRecommendations(t *testing.T) {
	ts := newTestServer()
	var got domain.RecommendationRequest
	ts.recs.recommendFn = func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
		got = req
		if req.TimeRange == "1y" {
			return nil, domain.ErrInvalidInput
		}
		return &domain.RecommendationResult{UserID: req.UserID, Items: []domain.Recommendation{}, Personalized: true}, nil
	}

	rr := ts.do(t, http.MethodPost, "/api/v1/recommendations", "", `{}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/recommendations", "reader-u1", `{"limit":5,"exclude_read":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got.UserID != "u1" || got.Limit != 5 || !got.ExcludeRead {
		t.Errorf("unexpected request %+v", got)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/recommendations", "reader-u1", `{"user_id":"u2"}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reader acting as another user, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/recommendations", "admin-root", `{"user_id":"u2"}`)
	if rr.Code != http.StatusOK || got.UserID != "u2" {
		t.Errorf("expected admin override to u2, got %d and %q", rr.Code, got.UserID)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/recommendations", "reader-u1", `{"time_range":"1y"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestHandleTrending(t *testing.T) {
	ts := newTestServer()
	ts.recs.trendingFn = func(ctx context.Context, limit int) ([]domain.TrendingArticle, error) {
		if limit == 3 {
			return nil, domain.ErrServiceUnavailable
		}
		return []domain.TrendingArticle{{ID: "t1", Score: 0.8, Reason: domain.ReasonTrending}}, nil
	}

	rr := ts.do(t, http.MethodGet, "/api/v1/recommendations/trending", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if trending := decode[[]domain.TrendingArticle](t, rr); len(trending) != 1 || trending[0].ID != "t1" {
		t.Errorf("unexpected trending %+v", trending)
	}

	rr = ts.do(t, http.MethodGet, "/api/v1/recommendations/trending?limit=3", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodGet, "/api/v1/recommendations/trending?limit=500", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestHandleEngagement(t *testing.T) {
	ts := newTestServer()
	var invalidated []string
	ts.recs.invalidateFn = func(ctx context.Context, userID string) error {
		invalidated = append(invalidated, userID)
		return nil
	}

	rr := ts.do(t, http.MethodPost, "/api/v1/engagements", "reader-u1", `{"article_id":"a1","action_type":"like"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/engagements", "reader-u1", `{"user_id":"u2","action_type":"view"}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/engagements", "admin-root", `{"user_id":"u2","action_type":"view"}`)
	if rr.Code != http.StatusAccepted {
		t.Errorf("expected 202 for admin, got %d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/v1/engagements", "reader-u1", `{"action_type":"teleport"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", rr.Code)
	}

	if len(invalidated) != 2 || invalidated[0] != "u1" || invalidated[1] != "u2" {
		t.Errorf("unexpected invalidations %v", invalidated)
	}

	ts.recs.invalidateFn = func(ctx context.Context, userID string) error {
		return domain.ErrServiceUnavailable
	}
	rr = ts.do(t, http.MethodPost, "/api/v1/engagements", "reader-u1", `{}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestHandleSwagger(t *testing.T) {
	ts := newTestServer()

	rr := ts.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var doc struct {
		BasePath string         `json:"basePath"`
		Paths    map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	if doc.BasePath != "/api/v1" {
		t.Errorf("unexpected base path %q", doc.BasePath)
	}
	for _, path := range []string{"/search", "/recommendations", "/recommendations/trending"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("doc missing %s", path)
		}
	}
}

func TestMetricsRecordedPerRoute(t *testing.T) {
	ts := newTestServer()

	ts.do(t, http.MethodGet, "/health", "", nil)
	ts.do(t, http.MethodGet, "/nowhere", "", nil)

	if len(ts.metrics.requests) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(ts.metrics.requests))
	}
	if got := ts.metrics.requests[0]; got.route != "GET /health" || got.status != http.StatusOK {
		t.Errorf("unexpected observation %+v", got)
	}
	if got := ts.metrics.requests[1]; got.route != "unmatched" || got.status != http.StatusNotFound {
		t.Errorf("unexpected observation %+v", got)
	}
	if ts.metrics.inFlight != 0 {
		t.Errorf("in-flight gauge not released: %d", ts.metrics.inFlight)
	}

	rr := ts.do(t, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rr.Body.String(), "# metrics") {
		t.Errorf("metrics endpoint not mounted: %q", rr.Body.String())
	}
}
