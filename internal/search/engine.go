// Package search implements hybrid retrieval over the email document store:
// strategy selection, Cosmos SQL query construction and result normalization.
package search

import (
	"context"

	"mailsearch/internal/models"

	"github.com/rs/zerolog"
)

// previewLength is the fixed character budget for body previews.
const previewLength = 200

// Embedder produces fixed-dimension embedding vectors for query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore executes a query in the backend's native SQL dialect and
// returns the raw field mappings of each ranked document.
type DocumentStore interface {
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

// Engine selects a retrieval strategy for a structured query, executes it
// and maps the raw documents into RankedResults. Backend failures never
// reach the caller; they degrade to an empty result set.
type Engine struct {
	embedder Embedder
	store    DocumentStore
	logger   zerolog.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(embedder Embedder, store DocumentStore, logger zerolog.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Retrieve executes the structured query and returns ranked results.
// Strategy selection, first match wins:
//  1. filter without search text: filter-only mode, newest first
//  2. nothing at all: no backend call, empty results
//  3. otherwise: hybrid vector + full-text ranking with the filter applied
//     as a pre-filter
func (e *Engine) Retrieve(ctx context.Context, query models.StructuredQuery) []models.RankedResult {
	var queryString string

	switch {
	case query.IsFilterOnly():
		queryString = buildFilterOnlyQuery(query.Filter)

	case query.IsEmpty():
		// Failure propagation path from the translator: nothing to search for.
		return []models.RankedResult{}

	default:
		vector, err := e.embedder.Embed(ctx, query.SearchText)
		if err != nil {
			e.logger.Error().Err(err).Msg("Query embedding failed")
			return []models.RankedResult{}
		}
		queryString = buildHybridQuery(query.SearchText, query.Filter, vector)
	}

	items, err := e.store.Query(ctx, queryString)
	if err != nil {
		e.logger.Error().Err(err).Str("query", queryString).Msg("Document store query failed")
		return []models.RankedResult{}
	}

	results := make([]models.RankedResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.RankedResult{
			ID:          stringField(item, "id"),
			Sender:      stringField(item, "from"),
			Subject:     stringField(item, "subject"),
			SentTime:    stringField(item, "sent_time"),
			BodyPreview: bodyPreview(stringField(item, "body")),
		})
	}

	return results
}

// bodyPreview truncates a body to the fixed character budget, marking the
// cut with an ellipsis. A body at or under the budget passes through as is.
func bodyPreview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "..."
}

func stringField(item map[string]any, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}
