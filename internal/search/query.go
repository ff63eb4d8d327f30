package search

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// pageSize caps every retrieval mode to a single result page.
const pageSize = 20

// selectedFields is the projection shared by every retrieval mode. The
// `from` field collides with a reserved word in the Cosmos SQL dialect and
// is escaped through escapeReservedFields together with any occurrence the
// translator put into the filter predicate.
const selectedFields = `c.id, c.from, c.subject, c.sent_time, c.body`

// escapeReservedFields rewrites reserved document field references into
// bracket syntax. Applied to the fully assembled query so the escaping is
// uniform across the SELECT list, WHERE clause and ORDER BY clause.
func escapeReservedFields(query string) string {
	return strings.ReplaceAll(query, "c.from", `c["from"]`)
}

// escapeSearchText escapes single quotes for embedding the text in a SQL
// string literal.
func escapeSearchText(text string) string {
	return strings.ReplaceAll(text, "'", `\'`)
}

// vectorLiteral renders an embedding as a Cosmos SQL array literal.
func vectorLiteral(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// hasFullTextTerms reports whether the search text carries anything the
// full-text index can score. Punctuation-only input would make
// FullTextScore meaningless, so ranking falls back to vector distance alone.
func hasFullTextTerms(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// buildFilterOnlyQuery builds the recency-ordered query used when no
// free-text signal is present: the structured filter narrows the set and
// results come back newest first.
func buildFilterOnlyQuery(filter string) string {
	query := fmt.Sprintf(
		"SELECT TOP %d %s FROM c WHERE %s ORDER BY c.sent_time DESC",
		pageSize, selectedFields, filter)
	return escapeReservedFields(query)
}

// buildHybridQuery builds the hybrid retrieval query: the filter (when
// present) pre-filters the candidate set, then ranking fuses vector distance
// on the body embedding with full-text relevance on the body through
// reciprocal-rank fusion. When the search text has no indexable terms the
// ordering degrades to pure vector distance.
func buildHybridQuery(searchText, filter string, vector []float32) string {
	whereClause := ""
	if filter != "" {
		whereClause = " WHERE " + filter
	}

	distance := fmt.Sprintf("VectorDistance(c.bodyVector, %s)", vectorLiteral(vector))

	var orderBy string
	if hasFullTextTerms(searchText) {
		orderBy = fmt.Sprintf("ORDER BY RANK RRF(%s, FullTextScore(c.body, '%s'))",
			distance, escapeSearchText(searchText))
	} else {
		orderBy = "ORDER BY RANK " + distance
	}

	query := fmt.Sprintf("SELECT TOP %d %s FROM c%s %s",
		pageSize, selectedFields, whereClause, orderBy)
	return escapeReservedFields(query)
}
