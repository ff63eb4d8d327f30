package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mailsearch/internal/models"

	_ "github.com/go-sql-driver/mysql" // MySQL/MariaDB driver for durable sessions
	"github.com/jmoiron/sqlx"
)

// SQLStore is a durable Store backed by MySQL/MariaDB. It satisfies the same
// contract as MemoryStore so deployments can keep sessions across restarts.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens a connection to the sessions database and ensures the
// schema exists.
func NewSQLStore(databaseURL string) (*SQLStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("SESSIONS_DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Open("mysql", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sessions database: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session tables: %w", err)
	}

	return store, nil
}

// NewSQLStoreWithDB wraps an existing connection; used by tests.
func NewSQLStoreWithDB(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			session_id VARCHAR(64) PRIMARY KEY,
			continuation_handle BLOB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS session_turns (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			seq INT NOT NULL,
			role VARCHAR(20) NOT NULL,
			content TEXT NOT NULL,
			INDEX idx_session_turns_session (session_id, seq)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a session's handle and ordered turns, or nil when absent.
func (s *SQLStore) Get(ctx context.Context, sessionID string) (*State, error) {
	var handle []byte
	err := s.db.GetContext(ctx, &handle,
		`SELECT continuation_handle FROM chat_sessions WHERE session_id = ?`, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var turns []models.ConversationTurn
	err = s.db.SelectContext(ctx, &turns,
		`SELECT role, content FROM session_turns WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session turns: %w", err)
	}

	return &State{History: turns, Handle: handle}, nil
}

// Set replaces the session's state wholesale inside one transaction, so a
// reader never observes a half-written history.
func (s *SQLStore) Set(ctx context.Context, sessionID string, state State) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, continuation_handle)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE continuation_handle = VALUES(continuation_handle)`,
		sessionID, state.Handle)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session turns: %w", err)
	}

	for i, turn := range state.History {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO session_turns (session_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			sessionID, i, turn.Role, turn.Content)
		if err != nil {
			return fmt.Errorf("failed to save session turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Delete removes the session row and its turns together.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session delete: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for health checks.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}
