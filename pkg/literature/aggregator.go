package literature

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultSemanticScholarURL = "https://api.semanticscholar.org/graph/v1/paper/search"
	DefaultCrossrefURL        = "https://api.crossref.org/works"
	DefaultUserAgent          = "lexgraph-mcp/1.0 (academic research)"

	// per-source cap on requested results
	perSourceLimit = 5
	cacheType      = "literature"
)

// Paper is one normalised search hit.
type Paper struct {
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Year      int    `json:"year,omitempty"`
	Venue     string `json:"venue,omitempty"`
	URL       string `json:"url,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	Citations int    `json:"citations"`
	Source    string `json:"source"`
}

// Results is the aggregated answer to one query.
type Results struct {
	Query   string  `json:"query"`
	Results []Paper `json:"results"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Aggregator) { a.client = c }
}

func WithEndpoints(semanticScholar, crossref string) Option {
	return func(a *Aggregator) {
		if semanticScholar != "" {
			a.semanticScholarURL = semanticScholar
		}
		if crossref != "" {
			a.crossrefURL = crossref
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(a *Aggregator) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator queries Semantic Scholar and Crossref and merges their hits.
// Successful responses are cached per query and limit.
type Aggregator struct {
	client             *http.Client
	semanticScholarURL string
	crossrefURL        string
	userAgent          string
	logger             *logrus.Logger

	mu    sync.RWMutex
	cache map[string]*Results
}

func NewAggregator(opts ...Option) *Aggregator {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	a := &Aggregator{
		client:             http.DefaultClient,
		semanticScholarURL: DefaultSemanticScholarURL,
		crossrefURL:        DefaultCrossrefURL,
		userAgent:          DefaultUserAgent,
		logger:             logger,
		cache:              make(map[string]*Results),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search asks both sources for min(5, limit) papers each, drops blank and
// repeated titles (compared case-insensitively), orders by citation count and
// keeps the first limit. A failing source contributes nothing, and a result
// with a failed source is not cached.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) (*Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if limit <= 0 {
		return &Results{Query: query, Results: []Paper{}}, nil
	}

	key := fmt.Sprintf("%d\x00%s", limit, query)
	a.mu.RLock()
	cached, ok := a.cache[key]
	a.mu.RUnlock()
	if ok {
		metrics.CacheHits.WithLabelValues(cacheType).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(cacheType).Inc()

	perSource := min(perSourceLimit, limit)
	var semantic, crossref []Paper
	var semanticOK, crossrefOK bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		semantic, semanticOK = a.searchSource(ctx, "semantic_scholar", a.semanticScholarRequest, parseSemanticScholar, query, perSource)
	}()
	go func() {
		defer wg.Done()
		crossref, crossrefOK = a.searchSource(ctx, "crossref", a.crossrefRequest, parseCrossref, query, perSource)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := &Results{Query: query, Results: merge(append(semantic, crossref...), limit)}

	if semanticOK && crossrefOK {
		a.mu.Lock()
		a.cache[key] = results
		a.mu.Unlock()
	}

	a.logger.WithFields(logrus.Fields{
		"query":            query,
		"semantic_scholar": len(semantic),
		"crossref":         len(crossref),
		"returned":         len(results.Results),
	}).Info("Literature search completed")
	return results, nil
}

func merge(papers []Paper, limit int) []Paper {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]Paper, 0, len(papers))
	for _, p := range papers {
		key := strings.ToLower(strings.TrimSpace(p.Title))
		if key == "" || !seen.Add(key) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Citations > out[j].Citations
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (a *Aggregator) searchSource(
	ctx context.Context,
	source string,
	build func(query string, limit int) string,
	parse func(body []byte) []Paper,
	query string,
	limit int,
) ([]Paper, bool) {
	body, err := a.get(ctx, build(query, limit))
	if err != nil {
		a.logger.WithError(err).WithField("source", source).Warn("Literature source failed")
		return nil, false
	}
	papers := parse(body)
	for i := range papers {
		papers[i].Source = source
	}
	return papers, true
}

func (a *Aggregator) semanticScholarRequest(query string, limit int) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprint(limit))
	params.Set("fields", "title,authors,year,venue,url,abstract,citationCount")
	return a.semanticScholarURL + "?" + params.Encode()
}

func (a *Aggregator) crossrefRequest(query string, limit int) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", fmt.Sprint(limit))
	return a.crossrefURL + "?" + params.Encode()
}

func (a *Aggregator) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func parseSemanticScholar(body []byte) []Paper {
	hits := gjson.GetBytes(body, "data").Array()
	papers := make([]Paper, 0, len(hits))
	for _, hit := range hits {
		authors := make([]string, 0)
		for _, author := range hit.Get("authors.#.name").Array() {
			authors = append(authors, author.String())
		}
		papers = append(papers, Paper{
			Title:     hit.Get("title").String(),
			Authors:   strings.Join(authors, ", "),
			Year:      int(hit.Get("year").Int()),
			Venue:     hit.Get("venue").String(),
			URL:       hit.Get("url").String(),
			Abstract:  hit.Get("abstract").String(),
			Citations: int(hit.Get("citationCount").Int()),
		})
	}
	return papers
}

func parseCrossref(body []byte) []Paper {
	items := gjson.GetBytes(body, "message.items").Array()
	papers := make([]Paper, 0, len(items))
	for _, item := range items {
		authors := make([]string, 0)
		for _, author := range item.Get("author").Array() {
			name := strings.TrimSpace(author.Get("given").String() + " " + author.Get("family").String())
			authors = append(authors, name)
		}
		papers = append(papers, Paper{
			Title:     item.Get("title.0").String(),
			Authors:   strings.Join(authors, ", "),
			Year:      int(item.Get("issued.date-parts.0.0").Int()),
			Venue:     item.Get("container-title.0").String(),
			URL:       item.Get("URL").String(),
			Abstract:  item.Get("abstract").String(),
			Citations: int(item.Get("is-referenced-by-count").Int()),
		})
	}
	return papers
}
