package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// IDLookup reports which of the given ids exist in a collection.
type IDLookup interface {
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// Relation is the outcome of resolving an association field.
// Set is false when the field was not provided, meaning "leave unchanged".
type Relation struct {
	Set bool
	IDs []int64
}

// ResolveRelation validates a JSON list of ids against lookup. The resolved
// ids replace the current association set; an empty list clears it.
func ResolveRelation(ctx context.Context, lookup IDLookup, raw json.RawMessage, label string) (Relation, error) {
	if len(bytes.TrimSpace(raw)) == 0 || isNull(raw) {
		return Relation{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return Relation{}, InvalidRelation(label, fmt.Sprintf("%s must be a list of integer IDs.", label))
	}

	ids := make([]int64, 0, len(items))
	outOfRange := false
	for _, item := range items {
		id, ok, overflow := parseIntegerLiteral(item)
		if !ok {
			return Relation{}, InvalidRelation(label, fmt.Sprintf("%s must be a list of integer IDs.", label))
		}
		if overflow {
			outOfRange = true
			continue
		}
		ids = append(ids, id)
	}
	if outOfRange {
		return Relation{}, InvalidRelation(label, fmt.Sprintf("Invalid %s IDs.", label))
	}

	distinct := Dedupe(ids)
	if len(distinct) == 0 {
		return Relation{Set: true, IDs: []int64{}}, nil
	}

	existing, err := lookup.ExistingIDs(ctx, distinct)
	if err != nil {
		return Relation{}, fmt.Errorf("resolve %s: %w", label, err)
	}
	if len(Dedupe(existing)) != len(distinct) {
		return Relation{}, InvalidRelation(label, fmt.Sprintf("Invalid %s IDs.", label))
	}
	return Relation{Set: true, IDs: distinct}, nil
}

// Dedupe returns the distinct ids in ascending order.
func Dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// parseIntegerLiteral accepts JSON number literals without fraction or exponent.
func parseIntegerLiteral(raw json.RawMessage) (value int64, ok bool, overflow bool) {
	literal := bytes.TrimSpace(raw)
	if len(literal) == 0 {
		return 0, false, false
	}
	for i, c := range literal {
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, false, false
		}
	}
	var num json.Number
	if err := json.Unmarshal(literal, &num); err != nil {
		return 0, false, false
	}
	value, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return 0, true, true
	}
	return value, true, false
}
