package graph

import "strings"

// Relation types produced by relation inference.
const (
	RelationCites     = "cites"
	RelationHeardBy   = "heard_by"
	RelationPartyIn   = "party_in"
	RelationDecidedOn = "decided_on"
)

// PairRule links each case to every record of one bucket.
type PairRule struct {
	Bucket   string // entity bucket read from the input, e.g. "statutes"
	NodeType string // type prefix for the bucket's endpoint ids
	Relation string
	Inbound  bool // edge points from the bucket entity to the case
}

// InferenceRules describes the case-centred cross product built by
// InferRelationsFromEntities.
type InferenceRules struct {
	CaseBucket string
	CaseType   string
	Pairs      []PairRule
}

// DefaultInferenceRules reads the cases, statutes, courts, parties and dates
// buckets and types edge endpoints with the singular names case, statute,
// court, party and date.
func DefaultInferenceRules() InferenceRules {
	return InferenceRules{
		CaseBucket: "cases",
		CaseType:   "case",
		Pairs: []PairRule{
			{Bucket: "statutes", NodeType: "statute", Relation: RelationCites},
			{Bucket: "courts", NodeType: "court", Relation: RelationHeardBy},
			{Bucket: "parties", NodeType: "party", Relation: RelationPartyIn, Inbound: true},
			{Bucket: "dates", NodeType: "date", Relation: RelationDecidedOn},
		},
	}
}

// BucketInferenceRules is DefaultInferenceRules with endpoints typed by their
// bucket key, so inferred edges join the nodes AddEntities created.
func BucketInferenceRules() InferenceRules {
	rules := DefaultInferenceRules()
	rules.CaseType = rules.CaseBucket
	for i := range rules.Pairs {
		rules.Pairs[i].NodeType = rules.Pairs[i].Bucket
	}
	return rules
}

// InferenceRulesByName maps "bucket" to BucketInferenceRules and anything
// else to DefaultInferenceRules.
func InferenceRulesByName(name string) InferenceRules {
	if strings.EqualFold(strings.TrimSpace(name), "bucket") {
		return BucketInferenceRules()
	}
	return DefaultInferenceRules()
}

func (r InferenceRules) buckets() []string {
	out := make([]string, 0, len(r.Pairs)+1)
	out = append(out, r.CaseBucket)
	for _, pair := range r.Pairs {
		out = append(out, pair.Bucket)
	}
	return out
}
