package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
)

// GraphStore persists graph snapshots outside the engine.
type GraphStore interface {
	// StoreGraph persists a snapshot
	StoreGraph(ctx context.Context, snapshot *graph.Snapshot) error

	// LoadGraph loads the last stored snapshot
	LoadGraph(ctx context.Context) (*graph.Snapshot, error)
}

// JSONGraphStore implements GraphStore using a single JSON file
type JSONGraphStore struct {
	filePath string
}

// NewJSONGraphStore creates a new JSON graph store
func NewJSONGraphStore(filePath string) *JSONGraphStore {
	return &JSONGraphStore{
		filePath: filePath,
	}
}

// Path returns the file the store writes to.
func (s *JSONGraphStore) Path() string {
	return s.filePath
}

// StoreGraph writes the snapshot as indented JSON. The file is replaced
// atomically so a reader never sees a partial document.
func (s *JSONGraphStore) StoreGraph(ctx context.Context, snapshot *graph.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = graph.NewSnapshot()
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "chmod snapshot")
	}

	return errors.Wrapf(os.Rename(tmp.Name(), s.filePath), "rename snapshot to %s", s.filePath)
}

// LoadGraph reads a snapshot back from the JSON file
func (s *JSONGraphStore) LoadGraph(ctx context.Context) (*graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.filePath)
	}

	snapshot := graph.NewSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.filePath)
	}
	if snapshot.Nodes == nil {
		snapshot.Nodes = []graph.Node{}
	}
	if snapshot.Links == nil {
		snapshot.Links = []graph.Link{}
	}

	return snapshot, nil
}
