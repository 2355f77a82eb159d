package calendar

import "strings"

// refreshHints are the reply fragments taken to mean "the schedule probably
// changed". Matching free-form model output is inherently approximate; the
// predicate is kept isolated here so it can be swapped for a structured
// status field without touching the orchestration logic.
var refreshHints = []string{"done", "schedule", "book"}

// TriggersRefresh reports whether an assistant reply should auto-open the
// calendar panel and arm a refresh. Case-insensitive substring containment;
// false positives cost one extra reload and are accepted.
func TriggersRefresh(reply string) bool {
	lower := strings.ToLower(reply)
	for _, hint := range refreshHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
