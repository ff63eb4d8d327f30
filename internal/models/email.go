package models

// Email categories assigned during ingestion. The set is fixed; the
// categorization prompt enumerates exactly these values.
const (
	CategoryUrgent   = "Urgent"
	CategoryProjects = "Projects"
	CategoryMeetings = "Meetings"
	CategoryInternal = "Internal"
	CategoryExternal = "External"
	CategoryAdmin    = "Admin"
)

// Categories lists every valid email category.
var Categories = []string{
	CategoryUrgent,
	CategoryProjects,
	CategoryMeetings,
	CategoryInternal,
	CategoryExternal,
	CategoryAdmin,
}

// EmailRecord is the search document written at ingestion time. The JSON
// field names are the external document schema; `from` is a reserved word in
// the Cosmos SQL dialect and must be escaped as c["from"] in queries.
// Records are immutable after upsert; the vector fields are derived from
// subject and body and never mutated independently.
type EmailRecord struct {
	ID              string    `json:"id"`
	From            string    `json:"from"`
	ToList          string    `json:"to_list"`
	CcList          string    `json:"cc_list"`
	Subject         string    `json:"subject"`
	Important       int       `json:"important"`
	Body            string    `json:"body"` // LLM summary, not the raw body
	Category        string    `json:"category"`
	AttachmentNames string    `json:"attachment_names"`
	ReceivedTime    string    `json:"received_time"` // ISO-8601
	SentTime        string    `json:"sent_time"`     // ISO-8601
	Size            int64     `json:"size"`
	SubjectVector   []float32 `json:"subjectVector"`
	BodyVector      []float32 `json:"bodyVector"`
}

// RankedResult is the normalized result shape returned by the retrieval
// engine, ordered by backend-assigned rank.
type RankedResult struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	Subject     string `json:"subject"`
	SentTime    string `json:"sent_time"`
	BodyPreview string `json:"body_preview"`
}
