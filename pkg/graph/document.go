package graph

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	fieldText = "text"
	fieldName = "name"
)

// NodeID derives the composite node identifier for an entity.
func NodeID(nodeType, label string) string {
	return strings.TrimSpace(nodeType + ":" + label)
}

// DisplayText resolves the record's label: "text" first, then "name".
// ok is false when neither field holds a non-empty string. A text or name
// holding anything other than a string is an invalid argument.
func (r EntityRecord) DisplayText() (label string, ok bool, err error) {
	for _, field := range []string{fieldText, fieldName} {
		raw, present := r[field]
		if !present || raw == nil {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			return "", false, invalidArgumentf("entity field %q has type %T, want string", field, raw)
		}
		if s != "" {
			return s, true, nil
		}
	}
	return "", false, nil
}

// Meta returns a copy of every field except text and name.
func (r EntityRecord) Meta() map[string]interface{} {
	meta := make(map[string]interface{}, len(r))
	for k, v := range r {
		if k == fieldText || k == fieldName {
			continue
		}
		meta[k] = v
	}
	return meta
}

// Validate checks every record in the given buckets (all buckets when none
// are named) for resolvable display-text field types.
func (e Entities) Validate(buckets ...string) error {
	if len(buckets) == 0 {
		buckets = e.Buckets()
	}
	for _, bucket := range buckets {
		for i, record := range e[bucket] {
			if _, _, err := record.DisplayText(); err != nil {
				return errors.Wrapf(err, "%s[%d]", bucket, i)
			}
		}
	}
	return nil
}

// Buckets returns the bucket names in lexical order.
func (e Entities) Buckets() []string {
	buckets := make([]string, 0, len(e))
	for bucket := range e {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	return buckets
}

// Count returns the total number of records across buckets.
func (e Entities) Count() int {
	n := 0
	for _, records := range e {
		n += len(records)
	}
	return n
}

// MergeEntities appends src into dst bucket by bucket, dropping records whose
// display text already appears in the destination bucket. Records without
// display text are kept as-is.
func MergeEntities(dst, src Entities) Entities {
	if dst == nil {
		dst = make(Entities, len(src))
	}
	for bucket, records := range src {
		seen := make(map[string]struct{}, len(dst[bucket]))
		for _, existing := range dst[bucket] {
			if label, ok, _ := existing.DisplayText(); ok {
				seen[label] = struct{}{}
			}
		}
		for _, record := range records {
			label, ok, _ := record.DisplayText()
			if ok {
				if _, dup := seen[label]; dup {
					continue
				}
				seen[label] = struct{}{}
			}
			dst[bucket] = append(dst[bucket], record)
		}
	}
	return dst
}
