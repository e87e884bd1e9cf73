package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.LexicalIndex  = (*LexicalIndex)(nil)
	_ driven.SemanticIndex = (*SemanticIndex)(nil)
)

// Rank profiles deployed with the article schema
const (
	ProfileBM25     = "bm25"
	ProfileSemantic = "semantic"
)

// Config holds Vespa connection configuration
type Config struct {
	// BaseURL is the Vespa query endpoint (e.g., http://localhost:8080)
	BaseURL string

	// Schema is the document type searched
	Schema string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Schema:  "article",
		Timeout: 2 * time.Second,
	}
}

// Client is the shared HTTP client of the Vespa indexes
type Client struct {
	baseURL    string
	schema     string
	httpClient *http.Client
}

// NewClient creates a Vespa query client
func NewClient(cfg Config) *Client {
	schema := cfg.Schema
	if schema == "" {
		schema = "article"
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		schema:  schema,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// vespaFields is the article document as stored in Vespa
type vespaFields struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	Language    string   `json:"language"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	PublishedAt int64    `json:"published_at"` // unix seconds
}

// vespaSearchResponse represents Vespa's search response format
type vespaSearchResponse struct {
	Root struct {
		Fields struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"fields"`
		Children []struct {
			Relevance float64     `json:"relevance"`
			Fields    vespaFields `json:"fields"`
		} `json:"children"`
	} `json:"root"`
}

func (c *Client) search(ctx context.Context, searchReq map[string]any) (*vespaSearchResponse, error) {
	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/search/", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vespa search failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp vespaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode vespa response: %w", err)
	}
	return &searchResp, nil
}

// HealthCheck verifies the query endpoint is available
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/state/v1/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vespa health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vespa unhealthy: %s", resp.Status)
	}

	return nil
}

// LexicalIndex implements driven.LexicalIndex with the bm25 rank profile
type LexicalIndex struct {
	client *Client
}

// NewLexicalIndex creates a Vespa-backed LexicalIndex
func NewLexicalIndex(client *Client) *LexicalIndex {
	return &LexicalIndex{client: client}
}

// Search runs the query through Vespa's user query grammar.
// Fuzziness has no Vespa equivalent for free text and is ignored.
func (l *LexicalIndex) Search(ctx context.Context, query string, opts driven.LexicalOptions) (*driven.LexicalResult, error) {
	started := time.Now()

	conditions := []string{"userInput(@query)"}
	conditions = append(conditions, filterConditions(opts.Language, opts.Categories, opts.Tags, opts.Type)...)

	searchReq := map[string]any{
		"yql":             l.client.yql(conditions),
		"query":           query,
		"hits":            opts.Limit,
		"ranking.profile": ProfileBM25,
	}

	resp, err := l.client.search(ctx, searchReq)
	if err != nil {
		return nil, err
	}

	hits := make([]*domain.SourceHit, 0, len(resp.Root.Children))
	for _, child := range resp.Root.Children {
		hits = append(hits, toHit(child.Fields, child.Relevance, domain.SourceLexical))
	}

	return &driven.LexicalResult{
		Total: int(resp.Root.Fields.TotalCount),
		Hits:  hits,
		Took:  time.Since(started),
	}, nil
}

// HealthCheck verifies Vespa is reachable
func (l *LexicalIndex) HealthCheck(ctx context.Context) error {
	return l.client.HealthCheck(ctx)
}

// SemanticIndex implements driven.SemanticIndex with nearestNeighbor over the
// article embedding field
type SemanticIndex struct {
	client *Client
}

// NewSemanticIndex creates a Vespa-backed SemanticIndex
func NewSemanticIndex(client *Client) *SemanticIndex {
	return &SemanticIndex{client: client}
}

// Search returns the articles closest to embedding. The semantic profile
// ranks by closeness, which is already within [0, 1].
func (s *SemanticIndex) Search(ctx context.Context, embedding []float32, opts driven.SemanticOptions) ([]*domain.SourceHit, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	conditions := []string{fmt.Sprintf("({targetHits:%d}nearestNeighbor(embedding,q))", max(opts.Limit, 10))}
	conditions = append(conditions, filterConditions(opts.Language, nil, nil, "")...)

	searchReq := map[string]any{
		"yql":             s.client.yql(conditions),
		"hits":            opts.Limit,
		"input.query(q)":  embedding,
		"ranking.profile": ProfileSemantic,
	}

	resp, err := s.client.search(ctx, searchReq)
	if err != nil {
		return nil, err
	}

	hits := make([]*domain.SourceHit, 0, len(resp.Root.Children))
	for _, child := range resp.Root.Children {
		score := min(max(child.Relevance, 0), 1)
		if score < opts.MinSimilarity {
			continue
		}
		hits = append(hits, toHit(child.Fields, score, domain.SourceSemantic))
	}
	return hits, nil
}

// HealthCheck verifies Vespa is reachable
func (s *SemanticIndex) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (c *Client) yql(conditions []string) string {
	return fmt.Sprintf("select * from %s where %s", c.schema, strings.Join(conditions, " and "))
}

func filterConditions(language string, categories, tags []string, resultType domain.ResultType) []string {
	var conditions []string
	if language != "" {
		conditions = append(conditions, fmt.Sprintf("language contains \"%s\"", escape(language)))
	}
	if c := anyOf("category", categories); c != "" {
		conditions = append(conditions, c)
	}
	if c := anyOf("tags", tags); c != "" {
		conditions = append(conditions, c)
	}
	switch resultType {
	case domain.ResultTypeArticles:
		conditions = append(conditions, "content_type contains \"article\"")
	case domain.ResultTypeMarketData:
		conditions = append(conditions, "content_type contains \"market_data\"")
	}
	return conditions
}

func anyOf(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s contains \"%s\"", field, escape(v))
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// escape quotes a value for a YQL string literal
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func toHit(f vespaFields, score float64, origin domain.Source) *domain.SourceHit {
	hit := &domain.SourceHit{
		ID:       f.ID,
		Title:    f.Title,
		Content:  f.Content,
		Summary:  f.Excerpt,
		Language: f.Language,
		Category: f.Category,
		Tags:     f.Tags,
		Author:   f.Author,
		Score:    score,
		Origin:   origin,
	}
	if f.PublishedAt > 0 {
		t := time.Unix(f.PublishedAt, 0).UTC()
		hit.PublishedAt = &t
	}
	return hit
}
