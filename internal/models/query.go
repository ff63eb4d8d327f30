package models

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationTurn is a single message in a session's chat history.
// Turns are immutable once appended and their order is chronological.
type ConversationTurn struct {
	Role    string `json:"role" db:"role"`
	Content string `json:"content" db:"content"`
}

// StructuredQuery is the translator's output: free-text search terms plus a
// backend filter predicate. Either field may be empty; both empty means the
// translator could not produce a usable query for this turn.
type StructuredQuery struct {
	SearchText string `json:"search_text"`
	Filter     string `json:"filter"`
}

// IsEmpty reports whether the query carries no signal at all. Retrieval on an
// empty query returns no results without touching the backend.
func (q StructuredQuery) IsEmpty() bool {
	return q.SearchText == "" && q.Filter == ""
}

// IsFilterOnly reports whether the query has a filter predicate but no
// free-text terms, which selects recency-ordered filter-only retrieval.
func (q StructuredQuery) IsFilterOnly() bool {
	return q.SearchText == "" && q.Filter != ""
}
