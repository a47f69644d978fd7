package processors

import (
	"context"
	"strings"
	"time"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlp_processing_duration_seconds",
			Help: "Time spent processing documents",
		},
		[]string{"processor_type"},
	)

	entityCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_entities_extracted_total",
			Help: "Number of entities extracted",
		},
		[]string{"entity_type"},
	)
)

// prose NER labels and the buckets they land in
var nerBuckets = map[string]string{
	"PERSON": BucketParties,
	"GPE":    BucketLocations,
}

func init() {
	prometheus.MustRegister(processingDuration)
	prometheus.MustRegister(entityCount)
}

// NLPProcessor tags people and places with prose's named-entity model.
// When a next processor is set its entities are merged with the NER results.
type NLPProcessor struct {
	logger *logrus.Logger
	next   graph.DocumentProcessor
}

// NewNLPProcessor creates a new NLP processor. next may be nil.
func NewNLPProcessor(next graph.DocumentProcessor) *NLPProcessor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &NLPProcessor{
		logger: logger,
		next:   next,
	}
}

// Process implements the DocumentProcessor interface
func (p *NLPProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	timer := prometheus.NewTimer(processingDuration.WithLabelValues("nlp"))
	defer timer.ObserveDuration()

	p.logger.WithField("content_length", len(content)).Info("Starting NLP processing")

	text := string(content)
	doc, err := prose.NewDocument(text)
	if err != nil {
		p.logger.WithError(err).Error("Failed to create prose document")
		return nil, err
	}

	entities := p.extractEntities(doc)

	processed := &graph.Document{
		ID:          documentID(metadata),
		Content:     text,
		Entities:    entities,
		Metadata:    metadata,
		ProcessedAt: time.Now(),
	}

	if p.next != nil {
		inner, err := p.next.Process(ctx, content, metadata)
		if err != nil {
			return nil, err
		}
		processed.Entities = graph.MergeEntities(inner.Entities, entities)
	}

	p.logger.WithField("entities_count", processed.Entities.Count()).Info("NLP processing completed")
	return processed, nil
}

func (p *NLPProcessor) extractEntities(doc *prose.Document) graph.Entities {
	entities := graph.Entities{}
	seen := mapset.NewSet[string]()
	cursor := 0

	for _, ent := range doc.Entities() {
		bucket, ok := nerBuckets[ent.Label]
		if !ok || p.isStopWord(ent.Text) {
			continue
		}

		// prose reports no offsets; search forward so repeated names map in order
		start := strings.Index(doc.Text[cursor:], ent.Text)
		if start >= 0 {
			start += cursor
			cursor = start + len(ent.Text)
		}

		if !seen.Add(bucket + "\x00" + ent.Text) {
			continue
		}

		record := graph.EntityRecord{
			"text":    ent.Text,
			"pattern": "ner_" + strings.ToLower(ent.Label),
		}
		if start >= 0 {
			record["start"] = start
			record["end"] = start + len(ent.Text)
		}
		entities[bucket] = append(entities[bucket], record)
		entityCount.WithLabelValues(bucket).Inc()
	}

	return entities
}

// SupportedTypes implements the DocumentProcessor interface
func (p *NLPProcessor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

func (p *NLPProcessor) isStopWord(word string) bool {
	stopWords := mapset.NewSet[string]("the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by")
	return stopWords.Contains(strings.ToLower(strings.TrimSpace(word)))
}
