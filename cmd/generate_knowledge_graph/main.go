package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/lexgraph-mcp/pkg/graph/processors"
	"github.com/athapong/lexgraph-mcp/pkg/graph/storage"
	"github.com/athapong/lexgraph-mcp/pkg/graph/visualizer"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	inputDir        = flag.String("input", "", "Directory containing input documents (.txt, .md, .html, .pdf)")
	outputFile      = flag.String("output", "knowledge_graph.json", "Output file path for the knowledge graph")
	visualize       = flag.Bool("visualize", false, "Generate a visualization of the knowledge graph")
	visualizeOutput = flag.String("viz-output", "knowledge_graph.html", "Output file for the visualization")
	logLevel        = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	inference       = flag.String("inference", "", "Relation inference rules: default or bucket")
	useNLP          = flag.Bool("nlp", false, "Add people and places found by the prose NER model")
	exportNeo4j     = flag.Bool("neo4j", false, "Also export the graph to Neo4j (NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD)")
	envFile         = flag.String("env", ".env", "Path to environment file")
	batchSize       = flag.Int("batch-size", 10, "Number of documents processed concurrently")
)

// document kinds, keyed by file extension
const (
	kindText = "text"
	kindHTML = "html"
	kindPDF  = "pdf"
)

var supportedExtensions = map[string]string{
	".txt":  kindText,
	".md":   kindText,
	".html": kindHTML,
	".htm":  kindHTML,
	".pdf":  kindPDF,
}

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(*envFile); err != nil {
		logger.Debugf("No env file loaded from %s: %v", *envFile, err)
	}

	if *inputDir == "" {
		logger.Fatal("Input directory must be specified")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := readInputFiles(*inputDir)
	if err != nil {
		logger.Fatalf("Failed to read input directory: %v", err)
	}
	if len(files) == 0 {
		logger.Fatal("No input files found")
	}

	logger.Infof("Processing %d input files...", len(files))

	rules := graph.InferenceRulesByName(*inference)
	docs := loadDocuments(files, logger)
	results := processDocuments(ctx, docs, rules, logger)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed == len(results) {
		logger.Fatal("Every document failed to process")
	}

	knowledgeGraph, err := buildCorpusGraph(docs, results, rules, logger)
	if err != nil {
		logger.Fatalf("Failed to build knowledge graph: %v", err)
	}
	metrics.RecordSnapshot(knowledgeGraph)

	graphStore := storage.NewJSONGraphStore(*outputFile)
	if err := graphStore.StoreGraph(ctx, knowledgeGraph); err != nil {
		logger.Fatalf("Failed to store knowledge graph: %v", err)
	}

	logger.Infof("Knowledge graph generated with %d nodes and %d edges from %d documents (%d failed)",
		len(knowledgeGraph.Nodes), len(knowledgeGraph.Links), len(results)-failed, failed)
	logger.Infof("Knowledge graph saved to %s", graphStore.Path())

	if *visualize {
		viz := visualizer.NewD3Visualizer(*visualizeOutput).WithTitle(filepath.Base(*inputDir))
		if err := viz.Visualize(knowledgeGraph); err != nil {
			logger.Errorf("Failed to visualize knowledge graph: %v", err)
		} else {
			logger.Infof("Visualization saved to %s", *visualizeOutput)
		}
	}

	if *exportNeo4j {
		exporter, err := services.Neo4jExporter()
		if err != nil {
			logger.Fatalf("Failed to connect to Neo4j: %v", err)
		}
		defer exporter.Close()

		if err := exporter.Export(ctx, knowledgeGraph); err != nil {
			logger.Errorf("Failed to export knowledge graph to Neo4j: %v", err)
		}
	}
}

// kindDocument is a document tagged with the processor chain it needs.
type kindDocument struct {
	kind string
	doc  *graph.Document
}

func loadDocuments(files []string, logger *logrus.Logger) []kindDocument {
	docs := make([]kindDocument, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Errorf("Failed to read file %s: %v", file, err)
			continue
		}

		id := uuid.NewString()
		docs = append(docs, kindDocument{
			kind: supportedExtensions[strings.ToLower(filepath.Ext(file))],
			doc: &graph.Document{
				ID:      id,
				Content: string(content),
				Metadata: map[string]interface{}{
					"id":       id,
					"filename": filepath.Base(file),
					"filepath": file,
				},
			},
		})
	}
	return docs
}

// newProcessor returns the chain for one document kind. Binary formats are
// decoded first and their text handed to the legal extractor.
func newProcessor(kind string) graph.DocumentProcessor {
	var legal graph.DocumentProcessor = processors.NewLegalProcessor()
	if *useNLP {
		legal = processors.NewNLPProcessor(legal)
	}

	switch kind {
	case kindHTML:
		return processors.NewHTMLProcessor(legal)
	case kindPDF:
		return processors.NewPDFProcessor(legal)
	default:
		return legal
	}
}

// processDocuments runs one batch per document kind and returns the
// per-document graphs in input order.
func processDocuments(ctx context.Context, docs []kindDocument, rules graph.InferenceRules, logger *logrus.Logger) []*graph.DocumentGraph {
	byKind := map[string][]int{}
	for i, d := range docs {
		byKind[d.kind] = append(byKind[d.kind], i)
	}

	results := make([]*graph.DocumentGraph, len(docs))
	metrics.PipelineQueueLength.Set(float64(len(docs)))

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		indexes := byKind[kind]
		batch := make([]*graph.Document, len(indexes))
		for j, i := range indexes {
			batch[j] = docs[i].doc
		}

		pipeline := graph.NewPipeline(newProcessor(kind)).
			WithLogger(logger).
			WithInferenceRules(rules).
			WithBatchSize(*batchSize)

		built, err := pipeline.BatchBuild(ctx, batch)
		if err != nil {
			logger.WithError(err).WithField("kind", kind).Warn("Some documents failed")
		}
		for j, i := range indexes {
			results[i] = built[j]
			if results[i] == nil {
				results[i] = &graph.DocumentGraph{DocumentID: docs[i].doc.ID, Error: "not processed"}
			}
		}
		metrics.PipelineQueueLength.Sub(float64(len(indexes)))
	}

	return results
}

// buildCorpusGraph merges the entities of every successfully processed
// document into one graph. Relations are inferred per document, so a case is
// only linked to the statutes, courts, parties and dates found alongside it.
func buildCorpusGraph(docs []kindDocument, results []*graph.DocumentGraph, rules graph.InferenceRules, logger *logrus.Logger) (*graph.Snapshot, error) {
	engine := graph.NewKnowledgeGraphEngine(graph.WithLogger(logger), graph.WithInferenceRules(rules))

	for i, d := range docs {
		if results[i] == nil || results[i].Error != "" {
			continue
		}
		if err := engine.AddEntities(d.doc.Entities); err != nil {
			return nil, err
		}
		if err := engine.InferRelationsFromEntities(d.doc.Entities); err != nil {
			return nil, err
		}
	}
	return engine.ToJSON(), nil
}

// readInputFiles lists the supported files under inputDir in lexical order.
func readInputFiles(inputDir string) ([]string, error) {
	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
				files = append(files, path)
			}
		}
		return nil
	})

	return files, err
}
