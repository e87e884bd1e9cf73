package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.LexicalIndex = (*LexicalIndex)(nil)

const (
	contentTypeArticle = "article"
	titleBoost         = 2.0
)

var errClosed = errors.New("index is closed")

// storedFields are returned with every hit
var storedFields = []string{"title", "content", "excerpt", "language", "category", "tags", "author", "published_at"}

// articleDocument is the indexed form of an article
type articleDocument struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	Language    string   `json:"language"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	ContentType string   `json:"content_type"`
	PublishedAt float64  `json:"published_at"` // unix seconds
}

// LexicalIndex is an in-process BM25 index over articles backed by bleve.
// It serves deployments without Vespa.
type LexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// NewLexicalIndex opens or creates the index at path.
// If path is empty, creates an in-memory index.
func NewLexicalIndex(path string) (*LexicalIndex, error) {
	indexMapping := newIndexMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &LexicalIndex{index: idx}, nil
}

func newIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()

	article := bleve.NewDocumentMapping()
	article.AddFieldMappingsAt("title", text)
	article.AddFieldMappingsAt("content", text)
	article.AddFieldMappingsAt("excerpt", text)
	article.AddFieldMappingsAt("author", text)
	article.AddFieldMappingsAt("language", keyword)
	article.AddFieldMappingsAt("category", keyword)
	article.AddFieldMappingsAt("tags", keyword)
	article.AddFieldMappingsAt("content_type", keyword)
	article.AddFieldMappingsAt("published_at", numeric)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = article
	return indexMapping
}

// Index adds or replaces articles in one batch
func (l *LexicalIndex) Index(ctx context.Context, articles []*domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errClosed
	}

	batch := l.index.NewBatch()
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := articleDocument{
			Title:       a.Title,
			Content:     a.Content,
			Excerpt:     a.Excerpt,
			Language:    a.Language,
			Category:    a.Category,
			Tags:        a.Tags,
			Author:      a.Author,
			ContentType: contentTypeArticle,
		}
		if !a.PublishedAt.IsZero() {
			doc.PublishedAt = float64(a.PublishedAt.Unix())
		}
		if err := batch.Index(a.ID, doc); err != nil {
			return fmt.Errorf("failed to index article %s: %w", a.ID, err)
		}
	}

	if err := l.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search matches the query against title, excerpt and content with the
// requested filters. Titles weigh double.
func (l *LexicalIndex) Search(ctx context.Context, queryStr string, opts driven.LexicalOptions) (*driven.LexicalResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, errClosed
	}

	fuzziness := fuzzinessDistance(opts.Fuzziness)
	text := bleve.NewDisjunctionQuery(
		matchQuery(queryStr, "title", titleBoost, fuzziness),
		matchQuery(queryStr, "excerpt", 1, fuzziness),
		matchQuery(queryStr, "content", 1, fuzziness),
	)

	musts := []query.Query{text}
	if opts.Language != "" {
		musts = append(musts, termQuery("language", opts.Language))
	}
	if q := anyTerm("category", opts.Categories); q != nil {
		musts = append(musts, q)
	}
	if q := anyTerm("tags", opts.Tags); q != nil {
		musts = append(musts, q)
	}
	if opts.Type == domain.ResultTypeArticles || opts.Type == domain.ResultTypeMarketData {
		musts = append(musts, termQuery("content_type", contentTypeFor(opts.Type)))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(musts...), limit, 0, false)
	req.Fields = storedFields

	result, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*domain.SourceHit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hits = append(hits, toHit(match))
	}

	return &driven.LexicalResult{
		Total: int(result.Total),
		Hits:  hits,
		Took:  result.Took,
	}, nil
}

// HealthCheck fails once the index is closed
func (l *LexicalIndex) HealthCheck(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return errClosed
	}
	return nil
}

// Count returns the number of indexed articles
func (l *LexicalIndex) Count() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, errClosed
	}
	return l.index.DocCount()
}

// Close closes the index.
func (l *LexicalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}

func matchQuery(text, field string, boost float64, fuzziness int) query.Query {
	q := bleve.NewMatchQuery(text)
	q.SetField(field)
	q.SetBoost(boost)
	q.SetFuzziness(fuzziness)
	return q
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func anyTerm(field string, values []string) query.Query {
	if len(values) == 0 {
		return nil
	}
	qs := make([]query.Query, len(values))
	for i, v := range values {
		qs[i] = termQuery(field, v)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func contentTypeFor(t domain.ResultType) string {
	if t == domain.ResultTypeMarketData {
		return "market_data"
	}
	return contentTypeArticle
}

// fuzzinessDistance maps the edit distance option; AUTO allows one edit
func fuzzinessDistance(f string) int {
	switch f {
	case "1", "AUTO":
		return 1
	case "2":
		return 2
	default:
		return 0
	}
}

func toHit(match *search.DocumentMatch) *domain.SourceHit {
	hit := &domain.SourceHit{
		ID:       match.ID,
		Title:    stringField(match.Fields, "title"),
		Content:  stringField(match.Fields, "content"),
		Summary:  stringField(match.Fields, "excerpt"),
		Language: stringField(match.Fields, "language"),
		Category: stringField(match.Fields, "category"),
		Tags:     stringsField(match.Fields, "tags"),
		Author:   stringField(match.Fields, "author"),
		Score:    match.Score,
		Origin:   domain.SourceLexical,
	}
	if secs, ok := match.Fields["published_at"].(float64); ok && secs > 0 {
		t := time.Unix(int64(secs), 0).UTC()
		hit.PublishedAt = &t
	}
	return hit
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// stringsField reads a stored multi-value field; bleve returns a bare
// string when only one value was indexed
func stringsField(fields map[string]any, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
