// Package lifecycle classifies tracked items by comparing the previously
// persisted state with the current set of reported keys.
package lifecycle

import "github.com/iobroker-bot-orga/check-tasks/internal/finding"

// Classify returns one item for every key in the union of previous and current.
// previous maps a key to its checkbox state (true means marked resolved).
// Duplicate keys in current are collapsed. The result is ordered by severity, then key.
func Classify(previous map[string]bool, current []string) []finding.Item {
	present := make(map[string]struct{}, len(current))
	for _, key := range current {
		present[key] = struct{}{}
	}

	keys := make([]string, 0, len(previous)+len(present))
	for key := range present {
		keys = append(keys, key)
	}
	for key := range previous {
		if _, ok := present[key]; !ok {
			keys = append(keys, key)
		}
	}
	finding.SortKeys(keys)

	items := make([]finding.Item, 0, len(keys))
	for _, key := range keys {
		checked, known := previous[key]
		_, isPresent := present[key]
		items = append(items, finding.Item{
			Key:        key,
			State:      transition(known, checked, isPresent),
			WasChecked: checked,
		})
	}
	return items
}

func transition(known, checked, present bool) finding.State {
	switch {
	case !present:
		return finding.StateResolved
	case !known:
		return finding.StateNew
	case checked:
		return finding.StateReopened
	default:
		return finding.StateOpen
	}
}

// Count tallies items per state
func Count(items []finding.Item) map[finding.State]int {
	counts := make(map[finding.State]int)
	for _, item := range items {
		counts[item.State]++
	}
	return counts
}

// Keys returns the keys of all items in the given states, keeping order
func Keys(items []finding.Item, states ...finding.State) []string {
	var keys []string
	for _, item := range items {
		for _, s := range states {
			if item.State == s {
				keys = append(keys, item.Key)
				break
			}
		}
	}
	return keys
}
