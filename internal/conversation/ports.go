package conversation

import (
	"context"
	"errors"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// Message is one turn of dialogue. Messages are never mutated after
// creation.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
	EntityIDs []string
}

// Mention links the text a customer used for a book to the catalog
// entity it resolved to. Mention slices are kept in recency order,
// most recent last.
type Mention struct {
	RefText  string `json:"ref_text"`
	EntityID string `json:"entity_id"`
}

// Record is a conversation row as the repo sees it.
type Record struct {
	ID           string
	Identity     string
	Mentions     []Mention
	LastActivity time.Time
	Active       bool
}

// ErrStorageUnavailable wraps every repo failure so callers can tell
// storage trouble apart from a normal empty result. The store never
// fabricates history when the backing store is down.
var ErrStorageUnavailable = errors.New("conversation storage unavailable")

// Repo is the durable backing for conversations and messages. Rows
// outlive the in-memory state so expired conversations stay auditable.
type Repo interface {
	ActiveConversation(ctx context.Context, identity string) (*Record, error)
	CreateConversation(ctx context.Context, rec *Record) error
	SaveMessage(ctx context.Context, conversationID string, msg Message) error
	History(ctx context.Context, conversationID string, limit int) ([]Message, error)
	UpdateMentions(ctx context.Context, conversationID string, mentions []Mention) error
	MarkInactive(ctx context.Context, conversationID string) error
}
