package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a sessions-database health check response
// @Description Sessions database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ChatRequest represents the request body for the chat endpoint
// @Description Chat request payload
type ChatRequest struct {
	SessionID string `json:"session_id" example:"3f6c1c2e-8a7b-4f1d-9c3e-2b1a0d9e8f7a"` // Opaque session identifier chosen by the caller
	Prompt    string `json:"prompt" example:"emails about project deadlines"`           // Natural language search request
}

// ChatResponse represents the response from the chat endpoint
// @Description Chat response payload
type ChatResponse struct {
	Response string `json:"response" example:"**Result 1:** ..."` // Assistant reply, "No results found." on failure
	Error    string `json:"error,omitempty" example:""`           // Error message if any
}

// HistoryResponse represents the full turn history of a session
// @Description Session history payload
type HistoryResponse struct {
	SessionID string             `json:"session_id"` // Session identifier
	History   []ConversationTurn `json:"history"`    // Ordered conversation turns
}

// ResetRequest represents a request to clear a session
// @Description Session reset payload
type ResetRequest struct {
	SessionID string `json:"session_id"` // Session identifier to clear
}

// ResetResponse represents the response from the reset endpoint
// @Description Session reset result
type ResetResponse struct {
	Success bool   `json:"success" example:"true"`     // Whether the session was cleared
	Error   string `json:"error,omitempty" example:""` // Error message if any
}
