package graph

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	pipelineProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_processing_duration_seconds",
			Help: "Time spent processing documents in pipeline",
		},
		[]string{"status"},
	)

	documentProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_documents_processed_total",
			Help: "Total number of documents processed",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(pipelineProcessingDuration)
	prometheus.MustRegister(documentProcessedTotal)
}

// DocumentGraph is the per-document result of a batch build.
type DocumentGraph struct {
	DocumentID string    `json:"document_id"`
	Graph      *Snapshot `json:"graph,omitempty"`
	Stats      Stats     `json:"stats"`
	Error      string    `json:"error,omitempty"`
}

// TextPipeline runs documents through a chain of processors and builds a
// graph from the entities they extract.
type TextPipeline struct {
	processors []DocumentProcessor
	mutex      sync.RWMutex
	logger     *logrus.Logger
	batchSize  int
	rules      InferenceRules
}

// NewPipeline creates a new text processing pipeline
func NewPipeline(processors ...DocumentProcessor) *TextPipeline {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &TextPipeline{
		processors: processors,
		batchSize:  10,
		logger:     logger,
		rules:      DefaultInferenceRules(),
	}
}

// WithLogger replaces the pipeline logger.
func (p *TextPipeline) WithLogger(logger *logrus.Logger) *TextPipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithInferenceRules sets the rules used by the engines BatchBuild creates.
func (p *TextPipeline) WithInferenceRules(rules InferenceRules) *TextPipeline {
	p.rules = rules
	return p
}

// WithBatchSize bounds how many documents BatchBuild handles at once.
func (p *TextPipeline) WithBatchSize(n int) *TextPipeline {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// AddProcessor adds a new processor to the pipeline
func (p *TextPipeline) AddProcessor(processor DocumentProcessor) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.processors = append(p.processors, processor)
}

// BatchBuild processes documents concurrently, giving each its own engine so
// builds never replace one another's graph. The result is aligned with docs;
// a failed document carries its error and the first failure is returned.
func (p *TextPipeline) BatchBuild(ctx context.Context, docs []*Document) ([]*DocumentGraph, error) {
	p.logger.WithField("document_count", len(docs)).Info("Starting batch build")

	results := make([]*DocumentGraph, len(docs))
	var firstErr error

	for i := 0; i < len(docs); i += p.batchSize {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := i + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		errs := make([]error, end-i)
		var wg sync.WaitGroup

		for j := i; j < end; j++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				timer := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("batch"))
				result, err := p.buildOne(ctx, docs[idx])
				timer.ObserveDuration()

				results[idx] = result
				if err != nil {
					p.logger.WithError(err).WithField("doc_id", result.DocumentID).Error("Failed to build document graph")
					documentProcessedTotal.WithLabelValues("error").Inc()
					result.Error = err.Error()
					errs[idx-i] = err
					return
				}

				documentProcessedTotal.WithLabelValues("success").Inc()
			}(j)
		}

		wg.Wait()

		for _, err := range errs {
			if err != nil && firstErr == nil {
				firstErr = errors.Wrap(err, "batch build failed")
			}
		}
	}

	p.logger.WithField("document_count", len(docs)).Info("Batch build completed")
	return results, firstErr
}

func (p *TextPipeline) buildOne(ctx context.Context, doc *Document) (*DocumentGraph, error) {
	result := &DocumentGraph{}
	if doc == nil {
		return result, errors.New("cannot process nil document")
	}
	result.DocumentID = doc.ID

	if err := p.Process(ctx, doc); err != nil {
		return result, err
	}

	engine := NewKnowledgeGraphEngine(WithLogger(p.logger), WithInferenceRules(p.rules))
	snapshot, err := engine.BuildFromDocument(doc.ID, doc.Entities)
	if err != nil {
		return result, err
	}

	result.Graph = snapshot
	result.Stats = engine.Stats()
	return result, nil
}

// Process runs the document through all processors in the pipeline. Each
// processor sees the previous one's content, and the entities of every
// step are merged into the document.
func (p *TextPipeline) Process(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("cannot process nil document")
	}

	p.logger.WithField("doc_id", doc.ID).Info("Processing document")

	p.mutex.RLock()
	processors := make([]DocumentProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mutex.RUnlock()

	if len(processors) == 0 {
		return errors.New("no processors configured in pipeline")
	}

	timer := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("single"))
	defer timer.ObserveDuration()

	content, metadata := doc.Content, doc.Metadata
	var entities Entities

	for i, processor := range processors {
		processed, err := processor.Process(ctx, []byte(content), metadata)
		if err != nil {
			return errors.Wrapf(err, "processor %d failed", i)
		}
		content, metadata = processed.Content, processed.Metadata
		entities = MergeEntities(entities, processed.Entities)
	}

	doc.Content = content
	doc.Metadata = metadata
	doc.Entities = MergeEntities(entities, doc.Entities)
	doc.ProcessedAt = time.Now()

	p.logger.WithFields(logrus.Fields{
		"doc_id":         doc.ID,
		"entities_count": doc.Entities.Count(),
	}).Info("Document processing completed")
	return nil
}
