package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
	readyTimeout     = 2 * time.Second
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse lists the state of every readiness check
// @Description Readiness status with per-dependency detail
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Runs every registered dependency check (database, indexes, cache)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready"}
	status := http.StatusOK
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Search endpoints

// searchRequest is the body of the search endpoints. Options not present in
// the body keep their defaults.
type searchRequest struct {
	Query       string `json:"query" example:"bitcoin naira"`
	Personalize bool   `json:"personalize"`
	domain.SearchOptions
}

func decodeSearchRequest(r *http.Request) (searchRequest, error) {
	req := searchRequest{SearchOptions: domain.DefaultSearchOptions()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// handleSearch godoc
// @Summary      Search articles
// @Description  Ranks articles with lexical and semantic retrieval, regional boosts and diversity. Authenticated callers may set personalize to apply their reading profile.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query and options"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid request or query"
// @Failure      401      {object}  ErrorResponse  "Invalid token"
// @Failure      503      {object}  domain.SearchResult  "Every source failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var result *domain.SearchResult
	if authCtx := GetAuthContext(r.Context()); authCtx != nil && req.Personalize {
		result, err = s.searchService.PersonalizedSearch(r.Context(), req.Query, authCtx.UserID, req.SearchOptions)
	} else {
		result, err = s.searchService.Search(r.Context(), req.Query, req.SearchOptions)
	}
	s.writeSearchResult(w, result, err)
}

// handlePersonalizedSearch godoc
// @Summary      Personalized search
// @Description  Search with the caller's reading profile applied during fusion
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      searchRequest  true  "Search query and options"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid request or query"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      503      {object}  domain.SearchResult  "Every source failed"
// @Router       /search/personalized [post]
func (s *Server) handlePersonalizedSearch(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decodeSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.searchService.PersonalizedSearch(r.Context(), req.Query, authCtx.UserID, req.SearchOptions)
	s.writeSearchResult(w, result, err)
}

func (s *Server) writeSearchResult(w http.ResponseWriter, result *domain.SearchResult, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrAllSourcesFailed) && result != nil {
			writeJSON(w, http.StatusServiceUnavailable, result)
			return
		}
		s.writeServiceError(w, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSuggestions godoc
// @Summary      Search suggestions
// @Description  Autocomplete for a query prefix, favoring regional terms
// @Tags         Search
// @Produce      json
// @Param        q      query     string  true   "Query prefix"
// @Param        limit  query     int     false  "Maximum suggestions"  default(10)
// @Success      200    {array}   domain.SearchSuggestion
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Router       /search/suggestions [get]
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := s.searchService.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, err, "suggestions failed")
		return
	}
	if suggestions == nil {
		suggestions = []domain.SearchSuggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// Recommendation endpoints

// handleRecommendations godoc
// @Summary      Get recommendations
// @Description  Personalized recommendations for the caller. Admins may request them for another user via user_id.
// @Tags         Recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.RecommendationRequest  true  "Recommendation options"
// @Success      200      {object}  domain.RecommendationResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Admin access required"
// @Router       /recommendations [post]
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, ok := resolveUser(authCtx, req.UserID)
	if !ok {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}
	req.UserID = userID

	result, err := s.recommendationService.GetRecommendations(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, "recommendations failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTrending godoc
// @Summary      Trending articles
// @Description  Regionally relevant articles with the highest recent engagement
// @Tags         Recommendations
// @Produce      json
// @Param        limit  query     int  false  "Maximum articles"  default(10)
// @Success      200    {array}   domain.TrendingArticle
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Failure      503    {object}  ErrorResponse  "Content store unavailable"
// @Router       /recommendations/trending [get]
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trending, err := s.recommendationService.Trending(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err, "trending failed")
		return
	}
	if trending == nil {
		trending = []domain.TrendingArticle{}
	}
	writeJSON(w, http.StatusOK, trending)
}

// Engagement endpoints

// handleEngagement godoc
// @Summary      Record engagement notice
// @Description  Drops the cached profile and recommendations of the engaging user. Readers may only notify for themselves.
// @Tags         Recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.EngagementEvent  true  "Engagement"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Invalid engagement"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Admin access required"
// @Failure      503      {object}  ErrorResponse  "Cache unavailable"
// @Router       /engagements [post]
func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var event domain.EngagementEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if event.Action != "" && !event.Action.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown action_type")
		return
	}

	userID, ok := resolveUser(authCtx, event.UserID)
	if !ok {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	if err := s.recommendationService.InvalidateUser(r.Context(), userID); err != nil {
		s.writeServiceError(w, err, "invalidation failed")
		return
	}
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// Helper functions

// resolveUser returns the user a request acts for. Only admins may act for
// someone other than themselves.
func resolveUser(authCtx *domain.AuthContext, requested string) (string, bool) {
	if requested == "" || requested == authCtx.UserID {
		return authCtx.UserID, true
	}
	return requested, authCtx.IsAdmin()
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		return 0, errors.New("limit must be between 1 and 50")
	}
	return limit, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrAllSourcesFailed):
		s.logger.Warn(fallback, "error", err)
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
