package compare

import (
	"sort"
	"strings"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxMissing caps each missing-word list.
const maxMissing = 200

// DiffStats totals the characters a character-level diff inserts, deletes
// and keeps when turning left into right.
type DiffStats struct {
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
	Equal    int `json:"equal"`
}

// Comparison reports how two texts overlap.
type Comparison struct {
	LeftWords      int       `json:"left_words"`
	RightWords     int       `json:"right_words"`
	SharedWords    int       `json:"shared_words"`
	OverlapRatio   float64   `json:"overlap_ratio"`
	MissingInRight []string  `json:"missing_in_right"`
	MissingInLeft  []string  `json:"missing_in_left"`
	Diff           DiffStats `json:"diff"`
}

// Documents compares two texts by their whitespace-separated word sets and a
// character diff. Both texts must be non-blank.
func Documents(left, right string) (*Comparison, error) {
	if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
		return nil, errors.Wrap(graph.ErrInvalidArgument, "both documents are required")
	}

	l := mapset.NewThreadUnsafeSet(strings.Fields(left)...)
	r := mapset.NewThreadUnsafeSet(strings.Fields(right)...)

	shared := l.Intersect(r).Cardinality()
	union := max(1, l.Union(r).Cardinality())

	return &Comparison{
		LeftWords:      l.Cardinality(),
		RightWords:     r.Cardinality(),
		SharedWords:    shared,
		OverlapRatio:   float64(shared) / float64(union),
		MissingInRight: sortedCapped(l.Difference(r)),
		MissingInLeft:  sortedCapped(r.Difference(l)),
		Diff:           diffStats(left, right),
	}, nil
}

func sortedCapped(s mapset.Set[string]) []string {
	words := s.ToSlice()
	sort.Strings(words)
	if len(words) > maxMissing {
		words = words[:maxMissing]
	}
	return words
}

func diffStats(left, right string) DiffStats {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(left, right, false))

	var stats DiffStats
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Inserted += n
		case diffmatchpatch.DiffDelete:
			stats.Deleted += n
		case diffmatchpatch.DiffEqual:
			stats.Equal += n
		}
	}
	return stats
}
