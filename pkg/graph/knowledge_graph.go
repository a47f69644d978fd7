package graph

import (
	"sync"

	"github.com/athapong/lexgraph-mcp/pkg/graph/algorithms"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultSubgraphDepth is the neighborhood radius used when callers omit one.
const DefaultSubgraphDepth = 2

const unknownNodeType = "unknown"

// adjacency indexes edges in both directions. Duplicate entries are kept so
// the index mirrors the multigraph exactly.
type adjacency struct {
	succ map[string][]string
	pred map[string][]string
}

func newAdjacency() adjacency {
	return adjacency{
		succ: make(map[string][]string),
		pred: make(map[string][]string),
	}
}

func (a adjacency) add(source, target string) {
	a.succ[source] = append(a.succ[source], target)
	a.pred[target] = append(a.pred[target], source)
}

// Neighbors ignores edge direction: predecessors first, then successors.
func (a adjacency) Neighbors(id string) []string {
	preds, succs := a.pred[id], a.succ[id]
	out := make([]string, 0, len(preds)+len(succs))
	out = append(out, preds...)
	return append(out, succs...)
}

// KnowledgeGraphEngine owns one mutable labeled multigraph. Nodes are keyed by
// "type:label"; edges are directed, typed and never deduplicated.
type KnowledgeGraphEngine struct {
	nodes     []Node
	nodeIndex map[string]int
	links     []Link
	adj       adjacency
	rules     InferenceRules
	mutex     sync.RWMutex
	logger    *logrus.Logger
}

// EngineOption configures a KnowledgeGraphEngine.
type EngineOption func(*KnowledgeGraphEngine)

// WithLogger replaces the engine's default JSON logger.
func WithLogger(logger *logrus.Logger) EngineOption {
	return func(e *KnowledgeGraphEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithInferenceRules selects the rule set used by InferRelationsFromEntities.
func WithInferenceRules(rules InferenceRules) EngineOption {
	return func(e *KnowledgeGraphEngine) {
		e.rules = rules
	}
}

// NewKnowledgeGraphEngine creates an engine holding an empty graph.
func NewKnowledgeGraphEngine(opts ...EngineOption) *KnowledgeGraphEngine {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	e := &KnowledgeGraphEngine{
		rules:  DefaultInferenceRules(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetLocked()
	return e
}

// Reset discards all nodes and edges.
func (e *KnowledgeGraphEngine) Reset() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.resetLocked()
}

func (e *KnowledgeGraphEngine) resetLocked() {
	e.nodes = make([]Node, 0)
	e.nodeIndex = make(map[string]int)
	e.links = make([]Link, 0)
	e.adj = newAdjacency()
}

// AddEntities inserts one node per record, bucket by bucket in lexical order of
// the bucket names and in slice order within a bucket. Existing ids are left
// untouched, so the first insertion's meta wins. Records without display text
// are skipped.
func (e *KnowledgeGraphEngine) AddEntities(entities Entities) error {
	if err := entities.Validate(); err != nil {
		return err
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.addEntitiesLocked(entities)
	return nil
}

func (e *KnowledgeGraphEngine) addEntitiesLocked(entities Entities) {
	for _, entityType := range entities.Buckets() {
		for _, record := range entities[entityType] {
			label, ok, _ := record.DisplayText()
			if !ok {
				e.logger.WithField("entity_type", entityType).Debug("Skipping entity without text or name")
				continue
			}

			id := NodeID(entityType, label)
			if _, exists := e.nodeIndex[id]; exists {
				continue
			}

			e.nodes = append(e.nodes, Node{
				ID:    id,
				Label: label,
				Type:  entityType,
				Meta:  record.Meta(),
			})
			e.nodeIndex[id] = len(e.nodes) - 1
		}
	}
}

// AddRelations appends one directed edge per relation. Endpoints are not
// checked against existing nodes.
func (e *KnowledgeGraphEngine) AddRelations(relations []Relation) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for _, rel := range relations {
		e.addLinkLocked(rel.Source, rel.Target, rel.Type)
	}
}

func (e *KnowledgeGraphEngine) addLinkLocked(source, target, relType string) {
	e.links = append(e.links, Link{Source: source, Target: target, Type: relType})
	e.adj.add(source, target)
}

// InferRelationsFromEntities links every case record to every record of each
// related bucket, following the engine's inference rules.
func (e *KnowledgeGraphEngine) InferRelationsFromEntities(entities Entities) error {
	if err := entities.Validate(e.rules.buckets()...); err != nil {
		return err
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.inferLocked(entities)
	return nil
}

func (e *KnowledgeGraphEngine) inferLocked(entities Entities) {
	before := len(e.links)

	for _, caseRecord := range entities[e.rules.CaseBucket] {
		caseID := NodeID(e.rules.CaseType, labelOrEmpty(caseRecord))

		for _, pair := range e.rules.Pairs {
			for _, record := range entities[pair.Bucket] {
				otherID := NodeID(pair.NodeType, labelOrEmpty(record))
				if pair.Inbound {
					e.addLinkLocked(otherID, caseID, pair.Relation)
				} else {
					e.addLinkLocked(caseID, otherID, pair.Relation)
				}
			}
		}
	}

	e.logger.WithField("inferred_edges", len(e.links)-before).Debug("Inferred relations from entities")
}

// labelOrEmpty keeps records without display text in inference; they yield
// degenerate ids such as "case:".
func labelOrEmpty(record EntityRecord) string {
	label, _, _ := record.DisplayText()
	return label
}

// BuildFromDocument replaces the graph with one built from entities and
// returns its snapshot. The whole sequence runs under the write lock. Input
// is validated first, so a rejected build leaves the previous graph intact.
// documentID is only used for logging.
func (e *KnowledgeGraphEngine) BuildFromDocument(documentID string, entities Entities) (*Snapshot, error) {
	if err := entities.Validate(); err != nil {
		return nil, errors.Wrapf(err, "build graph for document %s", documentID)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.resetLocked()
	e.addEntitiesLocked(entities)
	e.inferLocked(entities)

	e.logger.WithFields(logrus.Fields{
		"document_id": documentID,
		"nodes":       len(e.nodes),
		"edges":       len(e.links),
	}).Info("Knowledge graph rebuilt")

	return e.snapshotLocked(nil), nil
}

// GetSubgraph returns the induced subgraph on every node within depth hops of
// the first inserted node labelled centerLabel (and typed nodeType, when
// non-empty). Edge direction is ignored while expanding. No match yields an
// empty snapshot.
func (e *KnowledgeGraphEngine) GetSubgraph(centerLabel, nodeType string, depth int) (*Snapshot, error) {
	if depth < 0 {
		return nil, invalidArgumentf("subgraph depth must not be negative, got %d", depth)
	}

	e.mutex.RLock()
	defer e.mutex.RUnlock()

	center, found := e.findCenterLocked(centerLabel, nodeType)
	if !found {
		return NewSnapshot(), nil
	}

	members, err := algorithms.Neighborhood(e.adj, center.ID, depth)
	if err != nil {
		return nil, errors.Wrap(err, "expand neighborhood")
	}

	return e.snapshotLocked(members), nil
}

func (e *KnowledgeGraphEngine) findCenterLocked(label, nodeType string) (Node, bool) {
	for _, node := range e.nodes {
		if node.Label != label {
			continue
		}
		if nodeType != "" && node.Type != nodeType {
			continue
		}
		return node, true
	}
	return Node{}, false
}

// Walk lists the nodes reachable from the node with the given id within
// maxDepth hops, in BFS or DFS visit order. Dangling ids are not listed.
func (e *KnowledgeGraphEngine) Walk(startID string, maxDepth int, order algorithms.TraversalType) ([]Node, error) {
	if maxDepth < 0 {
		return nil, invalidArgumentf("walk depth must not be negative, got %d", maxDepth)
	}

	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if _, exists := e.nodeIndex[startID]; !exists {
		return []Node{}, nil
	}

	ids, err := algorithms.NewGraphTraversal(e.adj).Traverse(startID, maxDepth, order)
	if err != nil {
		return nil, invalidArgumentf("%v", err)
	}

	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		if idx, exists := e.nodeIndex[id]; exists {
			nodes = append(nodes, cloneNode(e.nodes[idx]))
		}
	}
	return nodes, nil
}

// Stats reports exact node and edge counts and the number of nodes per type.
func (e *KnowledgeGraphEngine) Stats() Stats {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	byType := make(map[string]int)
	for _, node := range e.nodes {
		t := node.Type
		if t == "" {
			t = unknownNodeType
		}
		byType[t]++
	}

	return Stats{
		Nodes:  len(e.nodes),
		Edges:  len(e.links),
		ByType: byType,
	}
}

// ToJSON serializes the full graph. Links keep endpoints that were never added
// as nodes, which the default inference rules produce for every inferred edge,
// so consumers that resolve link endpoints against nodes must tolerate
// unknown ids.
func (e *KnowledgeGraphEngine) ToJSON() *Snapshot {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.snapshotLocked(nil)
}

// snapshotLocked copies the graph, or the subgraph induced by members when
// members is non-nil. Links qualify when both endpoints are members, whether
// or not those endpoints are stored nodes.
func (e *KnowledgeGraphEngine) snapshotLocked(members map[string]struct{}) *Snapshot {
	snap := NewSnapshot()

	in := func(id string) bool {
		if members == nil {
			return true
		}
		_, ok := members[id]
		return ok
	}

	for _, node := range e.nodes {
		if in(node.ID) {
			snap.Nodes = append(snap.Nodes, cloneNode(node))
		}
	}
	for _, link := range e.links {
		if in(link.Source) && in(link.Target) {
			snap.Links = append(snap.Links, link)
		}
	}
	return snap
}

func cloneNode(node Node) Node {
	meta := make(map[string]interface{}, len(node.Meta))
	for k, v := range node.Meta {
		meta[k] = v
	}
	node.Meta = meta
	return node
}
