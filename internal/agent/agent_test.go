package agent

import (
	"context"
	"encoding/json"
	"testing"

	"mailsearch/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	query models.StructuredQuery
	calls [][]models.ConversationTurn
}

func (f *fakeTranslator) Translate(_ context.Context, history []models.ConversationTurn) models.StructuredQuery {
	recorded := make([]models.ConversationTurn, len(history))
	copy(recorded, history)
	f.calls = append(f.calls, recorded)
	return f.query
}

type fakeRetriever struct {
	results []models.RankedResult
	calls   []models.StructuredQuery
}

func (f *fakeRetriever) Retrieve(_ context.Context, query models.StructuredQuery) []models.RankedResult {
	f.calls = append(f.calls, query)
	return f.results
}

func userTurn(content string) models.ConversationTurn {
	return models.ConversationTurn{Role: models.RoleUser, Content: content}
}

func TestChatFormatsRankedResults(t *testing.T) {
	translator := &fakeTranslator{query: models.StructuredQuery{SearchText: "deadline"}}
	retriever := &fakeRetriever{results: []models.RankedResult{
		{
			Sender:      "alice@example.com",
			Subject:     "Project deadline",
			SentTime:    "2025-06-01T09:00:00Z",
			BodyPreview: "The deadline moved to Friday...",
		},
		{
			Sender:      "bob@example.com",
			Subject:     "Re: Project deadline",
			SentTime:    "2025-06-01T10:30:00Z",
			BodyPreview: "Acknowledged.",
		},
	}}
	a := New(translator, retriever, zerolog.Nop())

	reply, handle := a.Chat(context.Background(), nil, []models.ConversationTurn{userTurn("deadline emails")})

	assert.Contains(t, reply, "**Result 1:**")
	assert.Contains(t, reply, "**From:** alice@example.com")
	assert.Contains(t, reply, "**Subject:** Project deadline")
	assert.Contains(t, reply, "**Sent Time:** 2025-06-01T09:00:00Z")
	assert.Contains(t, reply, "**Body Preview:** The deadline moved to Friday...")
	assert.Contains(t, reply, "**Result 2:**")
	assert.Contains(t, reply, "**From:** bob@example.com")
	assert.NotEmpty(t, handle)

	require.Len(t, retriever.calls, 1)
	assert.Equal(t, models.StructuredQuery{SearchText: "deadline"}, retriever.calls[0])
}

func TestChatEmptyTranslationSkipsRetrieval(t *testing.T) {
	translator := &fakeTranslator{}
	retriever := &fakeRetriever{}
	a := New(translator, retriever, zerolog.Nop())

	reply, handle := a.Chat(context.Background(), nil, []models.ConversationTurn{userTurn("???")})

	assert.Equal(t, "No results found.", reply)
	assert.Empty(t, retriever.calls)
	assert.NotEmpty(t, handle)
}

func TestChatNoMatchesReturnsFallbackReply(t *testing.T) {
	translator := &fakeTranslator{query: models.StructuredQuery{SearchText: "nonexistent topic"}}
	retriever := &fakeRetriever{results: nil}
	a := New(translator, retriever, zerolog.Nop())

	reply, _ := a.Chat(context.Background(), nil, []models.ConversationTurn{userTurn("anything")})

	assert.Equal(t, "No results found.", reply)
}

func TestChatFeedsPreviousQueryIntoTranslation(t *testing.T) {
	translator := &fakeTranslator{query: models.StructuredQuery{SearchText: "deadline", Filter: "c.important = 2"}}
	retriever := &fakeRetriever{}
	a := New(translator, retriever, zerolog.Nop())

	// First turn establishes a query in the continuation handle.
	firstHistory := []models.ConversationTurn{userTurn("deadline emails")}
	_, handle := a.Chat(context.Background(), nil, firstHistory)
	require.NotEmpty(t, handle)

	// Second turn sees the previous query as an assistant message so new
	// constraints combine with it.
	secondHistory := []models.ConversationTurn{
		userTurn("deadline emails"),
		{Role: models.RoleAssistant, Content: "No results found."},
		userTurn("only the important ones"),
	}
	a.Chat(context.Background(), handle, secondHistory)

	require.Len(t, translator.calls, 2)
	second := translator.calls[1]
	require.Len(t, second, len(secondHistory)+1)

	assert.Equal(t, models.RoleAssistant, second[0].Role)
	var lastQuery models.StructuredQuery
	require.NoError(t, json.Unmarshal([]byte(second[0].Content), &lastQuery))
	assert.Equal(t, models.StructuredQuery{SearchText: "deadline", Filter: "c.important = 2"}, lastQuery)
	assert.Equal(t, secondHistory, second[1:])
}

func TestChatHandleCountsTurns(t *testing.T) {
	translator := &fakeTranslator{query: models.StructuredQuery{SearchText: "a"}}
	a := New(translator, &fakeRetriever{}, zerolog.Nop())

	_, handle := a.Chat(context.Background(), nil, []models.ConversationTurn{userTurn("first")})
	_, handle = a.Chat(context.Background(), handle, []models.ConversationTurn{userTurn("second")})

	var s snapshot
	require.NoError(t, json.Unmarshal(handle, &s))
	assert.Equal(t, 2, s.Turns)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestChatToleratesCorruptHandle(t *testing.T) {
	translator := &fakeTranslator{query: models.StructuredQuery{SearchText: "a"}}
	a := New(translator, &fakeRetriever{}, zerolog.Nop())

	history := []models.ConversationTurn{userTurn("find emails")}
	reply, handle := a.Chat(context.Background(), []byte("not json at all"), history)

	// A corrupt handle starts a fresh conversation instead of failing.
	assert.Equal(t, "No results found.", reply)
	assert.NotEmpty(t, handle)

	require.Len(t, translator.calls, 1)
	assert.Equal(t, history, translator.calls[0])
}

func TestFormatResults(t *testing.T) {
	t.Run("empty results", func(t *testing.T) {
		assert.Equal(t, "No results found.", formatResults(nil))
		assert.Equal(t, "No results found.", formatResults([]models.RankedResult{}))
	})

	t.Run("single result layout", func(t *testing.T) {
		out := formatResults([]models.RankedResult{{
			Sender:      "alice@example.com",
			Subject:     "Hello",
			SentTime:    "2025-06-01T09:00:00Z",
			BodyPreview: "Hi there",
		}})

		expected := "**Result 1:**\n" +
			"**From:** alice@example.com\n" +
			"**Subject:** Hello\n" +
			"**Sent Time:** 2025-06-01T09:00:00Z\n" +
			"**Body Preview:** Hi there\n" +
			"---"
		assert.Equal(t, expected, out)
	})
}
