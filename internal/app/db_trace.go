package app

import "strings"

// maxTracedQueryLength bounds the statement attribute recorded on DB
// spans; bulk inserts can run to thousands of placeholders.
const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses a SQL statement onto one line and
// truncates it before it lands on a span.
func formatDBQueryForTrace(query string) string {
	flattened := strings.Join(strings.Fields(query), " ")
	if len(flattened) <= maxTracedQueryLength {
		return flattened
	}
	return flattened[:maxTracedQueryLength] + "..."
}
