package processors

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Entity buckets produced by LegalProcessor. The first five are the ones
// relation inference reads.
const (
	BucketCases           = "cases"
	BucketStatutes        = "statutes"
	BucketCourts          = "courts"
	BucketParties         = "parties"
	BucketDates           = "dates"
	BucketOrganizations   = "organizations"
	BucketMonetaryAmounts = "monetary_amounts"
	BucketLocations       = "locations"
)

const (
	// a capitalised name, allowing short connectives: "State of Kerala", "Smith & Sons Ltd."
	namePattern  = `[A-Z][A-Za-z0-9.&'\-]*(?:\s+(?:(?:of(?:\s+the)?|and|&)\s+)?[A-Z][A-Za-z0-9.&'\-]*)*`
	monthPattern = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?`
)

type legalPattern struct {
	name   string
	bucket string
	re     *regexp.Regexp
}

var (
	caseCaptionRe = regexp.MustCompile(`\b(` + namePattern + `)\s+vs?\.?\s+(` + namePattern + `)`)

	legalPatterns = []legalPattern{
		{name: "case_number", bucket: BucketCases, re: regexp.MustCompile(`(?i)\b(?:Case|Appeal|Petition|Writ|Suit)\s+(?:No\.?|Number)\s*[:\-]?\s*[A-Za-z0-9/\-]*[0-9][A-Za-z0-9/\-]*`)},
		{name: "section", bucket: BucketStatutes, re: regexp.MustCompile(`\b(?:Section|Article|Chapter|Rule|Regulation)\s+\d+[A-Za-z]*(?:\(\d+\))?`)},
		{name: "act", bucket: BucketStatutes, re: regexp.MustCompile(`\b(?:[A-Z][a-z]+\s+)+(?:Act|Code)(?:,?\s+\d{4})?\b`)},
		{name: "court", bucket: BucketCourts, re: regexp.MustCompile(`\b(?:Supreme|High|District|Appellate|Circuit|Federal|Family|Sessions|Magistrate|Tax|Bankruptcy|County|Superior)\s+Court(?:\s+of\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)?`)},
		{name: "court_of_appeal", bucket: BucketCourts, re: regexp.MustCompile(`\bCourt\s+of\s+Appeals?(?:\s+for\s+the\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)?`)},
		{name: "organization", bucket: BucketOrganizations, re: regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:LLC|LLP|Inc|Corp|Ltd|Limited|Company|Organization|Institute|University|College)\b\.?`)},
		{name: "date_numeric", bucket: BucketDates, re: regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)},
		{name: "date_iso", bucket: BucketDates, re: regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)},
		{name: "date_month_first", bucket: BucketDates, re: regexp.MustCompile(`(?i)\b` + monthPattern + `\s+\d{1,2},?\s+\d{4}\b`)},
		{name: "date_day_first", bucket: BucketDates, re: regexp.MustCompile(`(?i)\b\d{1,2}\s+` + monthPattern + `,?\s+\d{4}\b`)},
		{name: "money", bucket: BucketMonetaryAmounts, re: regexp.MustCompile(`(?i)\$\d+(?:,\d{3})*(?:\.\d{2})?|\b\d+(?:,\d{3})*(?:\.\d{2})?\s*(?:dollars?|USD|EUR|GBP|INR|rupees)\b`)},
	}
)

var legalEntityCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "legal_entities_extracted_total",
		Help: "Number of legal entities extracted",
	},
	[]string{"entity_type"},
)

func init() {
	prometheus.MustRegister(legalEntityCount)
}

// LegalProcessor extracts case citations, statutes, courts, parties, dates,
// organizations and monetary amounts with regular expressions.
type LegalProcessor struct {
	logger *logrus.Logger
}

// NewLegalProcessor creates a new legal entity processor
func NewLegalProcessor() *LegalProcessor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &LegalProcessor{
		logger: logger,
	}
}

// Process implements the DocumentProcessor interface
func (p *LegalProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(processingDuration.WithLabelValues("legal"))
	defer timer.ObserveDuration()

	text := string(content)
	entities := p.Extract(text)

	p.logger.WithFields(logrus.Fields{
		"content_length": len(content),
		"entities_count": entities.Count(),
	}).Info("Legal entity extraction completed")

	return &graph.Document{
		ID:          documentID(metadata),
		Content:     text,
		Entities:    entities,
		Metadata:    metadata,
		ProcessedAt: time.Now(),
	}, nil
}

// Extract returns every bucket, empty ones included, so callers see the
// full shape. Records within a bucket are ordered by position and repeated
// texts keep their first occurrence.
func (p *LegalProcessor) Extract(text string) graph.Entities {
	found := map[string][]graph.EntityRecord{}
	add := func(bucket, pattern string, start, end int) {
		if start >= end {
			return
		}
		value := strings.TrimSpace(text[start:end])
		if value == "" {
			return
		}
		// the offsets follow the trimmed value
		start += strings.Index(text[start:end], value)
		found[bucket] = append(found[bucket], graph.EntityRecord{
			"text":    value,
			"start":   start,
			"end":     start + len(value),
			"pattern": pattern,
		})
	}

	for _, m := range caseCaptionRe.FindAllStringSubmatchIndex(text, -1) {
		skip := leadingArticle(text[m[0]:m[1]])
		add(BucketCases, "case_caption", m[0]+skip, m[1])
		add(BucketParties, "case_caption", m[2]+skip, m[3])
		add(BucketParties, "case_caption", m[4], m[5])
	}

	for _, lp := range legalPatterns {
		for _, m := range lp.re.FindAllStringIndex(text, -1) {
			start, end := m[0], m[1]
			if lp.name == "act" {
				start += leadingArticle(text[start:end])
			}
			add(lp.bucket, lp.name, start, end)
			if lp.bucket == BucketOrganizations {
				add(BucketParties, lp.name, start, end)
			}
		}
	}

	entities := graph.Entities{}
	for _, bucket := range []string{BucketCases, BucketStatutes, BucketCourts, BucketParties, BucketDates, BucketOrganizations, BucketMonetaryAmounts} {
		records := dedupeRecords(found[bucket])
		entities[bucket] = records
		legalEntityCount.WithLabelValues(bucket).Add(float64(len(records)))
	}
	return entities
}

// SupportedTypes implements the DocumentProcessor interface
func (p *LegalProcessor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

func leadingArticle(s string) int {
	for _, article := range []string{"The ", "This ", "That ", "Under ", "In "} {
		if strings.HasPrefix(s, article) {
			return len(article)
		}
	}
	return 0
}

func dedupeRecords(records []graph.EntityRecord) []graph.EntityRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i]["start"].(int) < records[j]["start"].(int)
	})

	seen := make(map[string]struct{}, len(records))
	out := make([]graph.EntityRecord, 0, len(records))
	for _, r := range records {
		text := r["text"].(string)
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, r)
	}
	return out
}

func documentID(metadata map[string]interface{}) string {
	if id, ok := metadata["id"].(string); ok {
		return id
	}
	return ""
}
