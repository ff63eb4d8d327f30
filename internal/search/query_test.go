package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterOnlyQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		expected string
	}{
		{
			name:   "category filter",
			filter: "c.category = 'Urgent'",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body ` +
				`FROM c WHERE c.category = 'Urgent' ORDER BY c.sent_time DESC`,
		},
		{
			name:   "date range filter",
			filter: "c.sent_time >= '2025-01-01T00:00:00Z' AND c.sent_time < '2025-02-01T00:00:00Z'",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body ` +
				`FROM c WHERE c.sent_time >= '2025-01-01T00:00:00Z' AND c.sent_time < '2025-02-01T00:00:00Z' ` +
				`ORDER BY c.sent_time DESC`,
		},
		{
			name:   "reserved field escaped inside the filter",
			filter: "c.from = 'alice@example.com'",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body ` +
				`FROM c WHERE c["from"] = 'alice@example.com' ORDER BY c.sent_time DESC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildFilterOnlyQuery(tt.filter))
		})
	}
}

func TestBuildHybridQuery(t *testing.T) {
	vector := []float32{0.5, -0.25, 1}

	tests := []struct {
		name       string
		searchText string
		filter     string
		expected   string
	}{
		{
			name:       "search text without filter",
			searchText: "project deadline",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body FROM c ` +
				`ORDER BY RANK RRF(VectorDistance(c.bodyVector, [0.5,-0.25,1]), FullTextScore(c.body, 'project deadline'))`,
		},
		{
			name:       "filter becomes a pre-filter before ranking",
			searchText: "deadline",
			filter:     "c.category = 'Projects'",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body FROM c ` +
				`WHERE c.category = 'Projects' ` +
				`ORDER BY RANK RRF(VectorDistance(c.bodyVector, [0.5,-0.25,1]), FullTextScore(c.body, 'deadline'))`,
		},
		{
			name:       "reserved field escaped in the filter clause",
			searchText: "invoice",
			filter:     "c.from = 'billing@example.com'",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body FROM c ` +
				`WHERE c["from"] = 'billing@example.com' ` +
				`ORDER BY RANK RRF(VectorDistance(c.bodyVector, [0.5,-0.25,1]), FullTextScore(c.body, 'invoice'))`,
		},
		{
			name:       "single quotes in search text are escaped",
			searchText: "alice's report",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body FROM c ` +
				`ORDER BY RANK RRF(VectorDistance(c.bodyVector, [0.5,-0.25,1]), FullTextScore(c.body, 'alice\'s report'))`,
		},
		{
			name:       "punctuation-only search text falls back to vector ranking",
			searchText: "!?! ---",
			filter:     "c.important = 2",
			expected: `SELECT TOP 20 c.id, c["from"], c.subject, c.sent_time, c.body FROM c ` +
				`WHERE c.important = 2 ` +
				`ORDER BY RANK VectorDistance(c.bodyVector, [0.5,-0.25,1])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildHybridQuery(tt.searchText, tt.filter, vector))
		})
	}
}

func TestHasFullTextTerms(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "plain words", text: "quarterly report", expected: true},
		{name: "digits only", text: "2025", expected: true},
		{name: "punctuation only", text: "!?.,;", expected: false},
		{name: "whitespace only", text: "   ", expected: false},
		{name: "empty", text: "", expected: false},
		{name: "non-latin letters", text: "דוח רבעוני", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasFullTextTerms(tt.text))
		})
	}
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[1,0,-1]", vectorLiteral([]float32{1, 0, -1}))
	assert.Equal(t, "[0.125]", vectorLiteral([]float32{0.125}))
}
