package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type sqlRepo struct {
	db *sql.DB
}

// NewRepo returns a postgres-backed Repo.
func NewRepo(db *sql.DB) Repo {
	return &sqlRepo{db: db}
}

// EnsureSchema creates the conversation tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			identity TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			mentioned_entities JSONB NOT NULL DEFAULT '[]',
			last_message_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_conversations_identity
			ON conversations (identity, status);
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations (id),
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			entity_ids JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages (conversation_id, created_at);
	`)
	return err
}

func (r *sqlRepo) ActiveConversation(ctx context.Context, identity string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, identity, mentioned_entities, last_message_at
		FROM conversations
		WHERE identity = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`, identity)

	var rec Record
	var mentions []byte
	if err := row.Scan(&rec.ID, &rec.Identity, &mentions, &rec.LastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(mentions, &rec.Mentions); err != nil {
		return nil, err
	}
	rec.Active = true
	return &rec, nil
}

func (r *sqlRepo) CreateConversation(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, identity, status, last_message_at)
		VALUES ($1, $2, 'active', $3)
	`, rec.ID, rec.Identity, rec.LastActivity)
	return err
}

func (r *sqlRepo) SaveMessage(ctx context.Context, conversationID string, msg Message) error {
	entityIDs := msg.EntityIDs
	if entityIDs == nil {
		entityIDs = []string{}
	}
	b, err := json.Marshal(entityIDs)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, text, entity_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, conversationID, string(msg.Role), msg.Text, b, msg.Timestamp); err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_at = $2, status = 'active'
		WHERE id = $1
	`, conversationID, msg.Timestamp)
	return err
}

func (r *sqlRepo) History(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, role, text, entity_ids, created_at
		FROM (
			SELECT id, role, text, entity_ids, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var role string
		var entityIDs []byte
		if err := rows.Scan(&m.ID, &role, &m.Text, &entityIDs, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		if err := json.Unmarshal(entityIDs, &m.EntityIDs); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *sqlRepo) UpdateMentions(ctx context.Context, conversationID string, mentions []Mention) error {
	if mentions == nil {
		mentions = []Mention{}
	}
	b, err := json.Marshal(mentions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE conversations SET mentioned_entities = $2 WHERE id = $1
	`, conversationID, b)
	return err
}

func (r *sqlRepo) MarkInactive(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET status = 'inactive' WHERE id = $1
	`, conversationID)
	return err
}
