package audit

import (
	"fmt"
	"sort"
)

// FieldChange records one field's movement between two entity snapshots
type FieldChange struct {
	Key string `json:"key" bson:"key"`
	Old any    `json:"old,omitempty" bson:"old,omitempty"`
	New any    `json:"new,omitempty" bson:"new,omitempty"`
}

// SnapshotKey names the fallback change emitted when no individual field
// differs but at least one snapshot is non-nil (pure creation or deletion).
const SnapshotKey = "snapshot"

// Diff computes the structured change-set between two entity snapshots.
// Keys are the union of both snapshots minus the ignored deny-list; a key is
// reported when its values differ under loose equality, so "5" and 5 compare
// equal and type drift between snapshots taken at different times does not
// produce false positives. A pure creation or deletion (exactly one nil
// snapshot) has no meaningful per-field diff and comes back as a single
// opaque snapshot change. Pure function; results are ordered by key.
func Diff(oldSnap, newSnap map[string]any, ignored []string) []FieldChange {
	if oldSnap == nil && newSnap == nil {
		return nil
	}
	if oldSnap == nil || newSnap == nil {
		return []FieldChange{{Key: SnapshotKey, Old: oldSnap, New: newSnap}}
	}

	deny := make(map[string]struct{}, len(ignored))
	for _, k := range ignored {
		deny[k] = struct{}{}
	}

	keys := make(map[string]struct{}, len(oldSnap)+len(newSnap))
	for k := range oldSnap {
		keys[k] = struct{}{}
	}
	for k := range newSnap {
		keys[k] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		if _, skip := deny[k]; skip {
			continue
		}
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var changes []FieldChange
	for _, k := range ordered {
		oldVal := oldSnap[k]
		newVal := newSnap[k]
		if looseEqual(oldVal, newVal) {
			continue
		}
		changes = append(changes, FieldChange{Key: k, Old: oldVal, New: newVal})
	}

	return changes
}

// looseEqual compares two values coercively via their string forms
func looseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
