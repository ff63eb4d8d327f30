// Package translator converts a natural language conversation into a
// structured Cosmos DB search query through a bounded self-correcting loop
// against the completion backend.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mailsearch/internal/models"

	"github.com/rs/zerolog"
)

// CompletionClient is the completion backend consumed by the translator.
// A deterministic call pins sampling temperature to 0.
type CompletionClient interface {
	Complete(ctx context.Context, messages []models.ConversationTurn, deterministic bool) (string, error)
}

const maxAttempts = 3

// systemPrompt builds the fixed translation instruction. The document schema
// and operator syntax target the Cosmos DB SQL dialect; dates are ISO-8601.
func systemPrompt(now time.Time) string {
	return fmt.Sprintf("Today is %s. You are an expert query translator for a Cosmos DB vector search engine. "+
		"Convert the conversation of natural language email search queries into a complete query JSON object. "+
		"The JSON object must contain exactly the following keys: 'search_text' and 'filter'.\n\n"+
		"Additional guidelines:\n"+
		"1. The 'search_text' key should include useful free-text search terms extracted from subject, body, and attachments.\n"+
		"2. The 'filter' key should include any structured filter expressions. When filtering on dates, use ISO 8601 format. "+
		"For example, if the user says 'before June 13 2025', output a filter like: c.sent_time < '2025-06-13T00:00:00Z'.\n"+
		"For sender emails or other string properties, use equality with proper quoting.\n"+
		"3. Output only the JSON object - do not include any additional text or commentary.\n\n"+
		"Document schema:\n"+
		" - id (string)\n"+
		" - from (string): Sender Email\n"+
		" - to_list (string): Recipient list\n"+
		" - cc_list (string): CC list\n"+
		" - subject (string)\n"+
		" - important (int)\n"+
		" - body (string)\n"+
		" - category (string)\n"+
		" - attachment_names (collection of string)\n"+
		" - received_time (DateTimeOffset) e.g., '2025-06-13T00:00:00Z'\n"+
		" - sent_time (DateTimeOffset) e.g., '2025-06-13T00:00:00Z'\n"+
		" - size (int)\n\n"+
		"Each user input may add additional constraints and should be combined with the previous inputs into one query.",
		now.UTC().Format("2006-01-02T15:04:05Z"))
}

// Translator turns conversation history into a StructuredQuery.
type Translator struct {
	client     CompletionClient
	logger     zerolog.Logger
	retryDelay time.Duration
	now        func() time.Time
}

// New creates a translator backed by the given completion client.
func New(client CompletionClient, logger zerolog.Logger) *Translator {
	return &Translator{
		client:     client,
		logger:     logger,
		retryDelay: time.Second,
		now:        time.Now,
	}
}

// Translate converts the conversation history into a structured query.
// It makes at most 3 completion attempts, feeding each validation failure
// back to the model as a corrective message. Exhausting all attempts yields
// the empty-query sentinel, never an error: callers must treat a query with
// both fields empty as "no usable query" for this turn.
func (t *Translator) Translate(ctx context.Context, history []models.ConversationTurn) models.StructuredQuery {
	messages := make([]models.ConversationTurn, 0, len(history)+1)
	messages = append(messages, models.ConversationTurn{Role: models.RoleSystem, Content: systemPrompt(t.now())})
	messages = append(messages, history...)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reply, err := t.client.Complete(ctx, messages, true)

		var errMsg string
		switch {
		case err != nil || reply == "":
			errMsg = "No response obtained from the completion backend."
		default:
			query, parseErr := parseQuery(reply)
			if parseErr == nil {
				t.logger.Debug().Int("attempt", attempt).
					Str("search_text", query.SearchText).
					Str("filter", query.Filter).
					Msg("Generated structured query")
				return query
			}
			errMsg = fmt.Sprintf("%v. Full response was: %s", parseErr, reply)
		}

		t.logger.Warn().Int("attempt", attempt).Str("error", errMsg).Msg("Query translation attempt failed")

		// Feed the failure back so the model can self-correct on the next pass.
		messages = append(messages,
			models.ConversationTurn{Role: models.RoleAssistant, Content: reply},
			models.ConversationTurn{Role: models.RoleUser, Content: fmt.Sprintf(
				"Error: %s Please provide a valid JSON object with only the keys 'search_text' and 'filter'.", errMsg)},
		)

		if attempt < maxAttempts {
			select {
			case <-time.After(t.retryDelay):
			case <-ctx.Done():
				return models.StructuredQuery{}
			}
		}
	}

	t.logger.Warn().Msg("Query translation exhausted all attempts, returning empty query")
	return models.StructuredQuery{}
}

// parseQuery validates a completion reply as a two-key query object. The
// parse fails closed: commentary around the JSON, missing keys, extra keys
// and non-string values are all rejected rather than partially extracted.
func parseQuery(reply string) (models.StructuredQuery, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return models.StructuredQuery{}, fmt.Errorf("JSON parse error: %v", err)
	}

	searchRaw, hasSearch := raw["search_text"]
	filterRaw, hasFilter := raw["filter"]
	if !hasSearch || !hasFilter {
		return models.StructuredQuery{}, fmt.Errorf("the JSON is missing required keys 'search_text' or 'filter'")
	}
	if len(raw) != 2 {
		return models.StructuredQuery{}, fmt.Errorf("the JSON contains keys other than 'search_text' and 'filter'")
	}

	var query models.StructuredQuery
	if err := json.Unmarshal(searchRaw, &query.SearchText); err != nil {
		return models.StructuredQuery{}, fmt.Errorf("'search_text' must be a string: %v", err)
	}
	if err := json.Unmarshal(filterRaw, &query.Filter); err != nil {
		return models.StructuredQuery{}, fmt.Errorf("'filter' must be a string: %v", err)
	}

	return query, nil
}
