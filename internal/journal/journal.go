// Package journal provides SQLite-backed storage for routing decisions.
// Hosts use it to audit which model a prompt was routed to and why; the
// prompt itself is never stored, only a hash and its length.
package journal

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/normanking/switchyard/internal/engine"
)

// Entry records a single routing decision.
type Entry struct {
	ID              string    `json:"id"`
	PromptHash      string    `json:"prompt_hash"`
	PromptChars     int       `json:"prompt_chars"`
	Strategy        string    `json:"strategy"`
	TaskType        string    `json:"task_type"`
	BaseComplexity  string    `json:"base_complexity"`
	FinalComplexity string    `json:"final_complexity"`
	PrimaryModel    string    `json:"primary_model"`
	FallbackModels  []string  `json:"fallback_models,omitempty"`
	Reasoning       []string  `json:"reasoning,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ModelStats aggregates decision counts per primary model.
type ModelStats struct {
	Model string `json:"model"`
	Count int64  `json:"count"`
}

// Store provides SQLite-backed decision storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a journal store backed by the SQLite database at path,
// creating the schema on first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return s, nil
}

// initSchema creates the journal tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		prompt_hash TEXT NOT NULL,
		prompt_chars INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		task_type TEXT NOT NULL,
		base_complexity TEXT NOT NULL,
		final_complexity TEXT NOT NULL,
		primary_model TEXT NOT NULL,
		fallback_models TEXT,
		reasoning TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_primary_model ON decisions(primary_model);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores the decision made for the given request and returns the
// journal entry id.
func (s *Store) Record(req engine.Request, d engine.Decision) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	fallbacks := make([]string, 0, len(d.FallbackModels))
	for _, m := range d.FallbackModels {
		fallbacks = append(fallbacks, m.String())
	}

	_, err := s.db.Exec(`
		INSERT INTO decisions (id, prompt_hash, prompt_chars, strategy, task_type, base_complexity, final_complexity, primary_model, fallback_models, reasoning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, hashPrompt(req.Prompt), len(req.Prompt), d.Strategy, d.TaskType,
		string(d.BaseComplexity), string(d.FinalComplexity), d.PrimaryModel.String(),
		strings.Join(fallbacks, ","), strings.Join(d.Reasoning, "\n"))
	if err != nil {
		return "", fmt.Errorf("failed to record decision: %w", err)
	}
	return id, nil
}

// Recent returns the most recent decisions, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, prompt_hash, prompt_chars, strategy, task_type, base_complexity, final_complexity, primary_model, fallback_models, reasoning, created_at
		FROM decisions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var fallbacks, reasoning sql.NullString
		if err := rows.Scan(&e.ID, &e.PromptHash, &e.PromptChars, &e.Strategy,
			&e.TaskType, &e.BaseComplexity, &e.FinalComplexity, &e.PrimaryModel,
			&fallbacks, &reasoning, &e.CreatedAt); err != nil {
			return nil, err
		}
		if fallbacks.Valid && fallbacks.String != "" {
			e.FallbackModels = strings.Split(fallbacks.String, ",")
		}
		if reasoning.Valid && reasoning.String != "" {
			e.Reasoning = strings.Split(reasoning.String, "\n")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatsByModel returns decision counts grouped by primary model, most used
// first.
func (s *Store) StatsByModel() ([]ModelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT primary_model, COUNT(*) AS n
		FROM decisions
		GROUP BY primary_model
		ORDER BY n DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ModelStats
	for rows.Next() {
		var st ModelStats
		if err := rows.Scan(&st.Model, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
