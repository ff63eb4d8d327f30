// Package agent orchestrates a single conversational turn: restore the
// continuation handle, translate the conversation into a structured query,
// run retrieval and format the reply.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mailsearch/internal/models"

	"github.com/rs/zerolog"
)

// noResultsMessage is the user-visible degradation string: the front end
// always receives a response, even when translation or retrieval failed.
const noResultsMessage = "No results found."

// QueryTranslator converts conversation history into a structured query.
type QueryTranslator interface {
	Translate(ctx context.Context, history []models.ConversationTurn) models.StructuredQuery
}

// Retriever executes a structured query against the document store.
type Retriever interface {
	Retrieve(ctx context.Context, query models.StructuredQuery) []models.RankedResult
}

// snapshot is the serialized agent state carried inside the continuation
// handle. The session layer stores it opaquely; only the agent reads it. The
// last generated query is fed back into the next turn's translation so
// follow-up turns refine the accumulated constraints.
type snapshot struct {
	LastQuery models.StructuredQuery `json:"last_query"`
	Turns     int                    `json:"turns"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Agent runs the translate-retrieve-respond loop for one session turn.
type Agent struct {
	translator QueryTranslator
	retriever  Retriever
	logger     zerolog.Logger
}

// New creates an agent.
func New(translator QueryTranslator, retriever Retriever, logger zerolog.Logger) *Agent {
	return &Agent{
		translator: translator,
		retriever:  retriever,
		logger:     logger,
	}
}

// Chat processes one turn. The handle is the previous turn's continuation
// handle (nil on a fresh session); the returned handle replaces it wholesale.
// Chat never returns an error to the caller: every failure mode degrades to
// the no-results reply.
func (a *Agent) Chat(ctx context.Context, handle []byte, history []models.ConversationTurn) (string, []byte) {
	prior := restoreSnapshot(handle)

	translationHistory := history
	if prior != nil && !prior.LastQuery.IsEmpty() {
		// Surface the previously generated query so the model combines the
		// new constraints with it instead of starting over.
		lastQueryJSON, err := json.Marshal(prior.LastQuery)
		if err == nil {
			resumed := make([]models.ConversationTurn, 0, len(history)+1)
			resumed = append(resumed, models.ConversationTurn{
				Role:    models.RoleAssistant,
				Content: string(lastQueryJSON),
			})
			resumed = append(resumed, history...)
			translationHistory = resumed
		}
	}

	query := a.translator.Translate(ctx, translationHistory)

	var results []models.RankedResult
	if query.IsEmpty() {
		a.logger.Warn().Msg("Translator produced no usable query for this turn")
	} else {
		results = a.retriever.Retrieve(ctx, query)
	}

	turns := 1
	if prior != nil {
		turns = prior.Turns + 1
	}
	newHandle, err := json.Marshal(snapshot{
		LastQuery: query,
		Turns:     turns,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		newHandle = nil
	}

	return formatResults(results), newHandle
}

// restoreSnapshot decodes a continuation handle, tolerating absent or
// corrupt handles by starting fresh.
func restoreSnapshot(handle []byte) *snapshot {
	if len(handle) == 0 {
		return nil
	}
	var s snapshot
	if err := json.Unmarshal(handle, &s); err != nil {
		return nil
	}
	return &s
}

// formatResults renders ranked results the way the search front end displays
// them: sender, subject, sent time and a body preview per result.
func formatResults(results []models.RankedResult) string {
	if len(results) == 0 {
		return noResultsMessage
	}

	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "**Result %d:**\n", i+1)
		fmt.Fprintf(&b, "**From:** %s\n", res.Sender)
		fmt.Fprintf(&b, "**Subject:** %s\n", res.Subject)
		fmt.Fprintf(&b, "**Sent Time:** %s\n", res.SentTime)
		fmt.Fprintf(&b, "**Body Preview:** %s\n", res.BodyPreview)
		b.WriteString("---\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
