package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// Table names.
const (
	tableQuestions   = "questions"
	tableChoices     = "choices"
	tablePassages    = "passages"
	tableRubrics     = "rubrics"
	tableUsers       = "users"
	tableResponses   = "responses"
	tableSessions    = "session_events"
	tableLLMRequests = "llm_request_events"
)

// schema is written in the subset of SQL shared by SQLite and Postgres.
// {{serial}} expands to the dialect's auto-increment primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL,
		answer_type TEXT NOT NULL,
		correct_answer TEXT NOT NULL DEFAULT '',
		min_word_count INTEGER NOT NULL DEFAULT 0,
		writing_type TEXT NOT NULL DEFAULT '',
		reading_id TEXT NOT NULL DEFAULT '',
		rubric_id TEXT NOT NULL DEFAULT '',
		audio TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS choices (
		id {{serial}},
		question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		choice_text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS choices_question_id ON choices (question_id)`,
	`CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rubrics (
		id TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS responses (
		id {{serial}},
		sequence BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		transcript TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		feedback TEXT NOT NULL DEFAULT '',
		submitted_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS responses_user_id ON responses (user_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id {{serial}},
		sequence BIGINT NOT NULL,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		answered INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		duration_secs INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id {{serial}},
		sequence BIGINT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB, d string) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == dialect.Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", serial)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
