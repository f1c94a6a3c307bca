package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxHistory bounds how many messages a conversation keeps.
	DefaultMaxHistory = 10
	// DefaultTimeout is how long a conversation stays active with no
	// customer activity.
	DefaultTimeout = 3 * time.Hour
)

type state struct {
	id           string
	history      []Message
	mentions     []Mention
	lastActivity time.Time
	active       bool
}

// Store keeps the active conversation per identity in memory and
// writes through to the repo. Reads fall back to the repo when an
// identity is not cached, so a restarted process picks up where the
// dialogue left off.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*state

	repo       Repo
	maxHistory int
	timeout    time.Duration
	now        func() time.Time
}

// NewStore creates a store over repo. Zero values for maxHistory and
// timeout select the defaults.
func NewStore(repo Repo, maxHistory int, timeout time.Duration) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		conversations: make(map[string]*state),
		repo:          repo,
		maxHistory:    maxHistory,
		timeout:       timeout,
		now:           time.Now,
	}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// load returns the cached conversation for identity, reading through to
// the repo on a miss. The store mutex is never held across the repo
// round-trip. A nil state with nil error means no active conversation.
func (s *Store) load(ctx context.Context, identity string) (*state, error) {
	s.mu.Lock()
	st, ok := s.conversations[identity]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	rec, err := s.repo.ActiveConversation(ctx, identity)
	if err != nil {
		return nil, storageErr(err)
	}
	if rec == nil {
		return nil, nil
	}
	history, err := s.repo.History(ctx, rec.ID, s.maxHistory)
	if err != nil {
		return nil, storageErr(err)
	}

	st = &state{
		id:           rec.ID,
		history:      history,
		mentions:     rec.Mentions,
		lastActivity: rec.LastActivity,
		active:       true,
	}

	s.mu.Lock()
	if cached, ok := s.conversations[identity]; ok {
		st = cached
	} else {
		s.conversations[identity] = st
	}
	s.mu.Unlock()
	return st, nil
}

func (s *Store) create(ctx context.Context, identity string, now time.Time) (*state, error) {
	rec := &Record{
		ID:           uuid.NewString(),
		Identity:     identity,
		LastActivity: now,
		Active:       true,
	}
	if err := s.repo.CreateConversation(ctx, rec); err != nil {
		return nil, storageErr(err)
	}

	st := &state{id: rec.ID, lastActivity: now, active: true}
	s.mu.Lock()
	s.conversations[identity] = st
	s.mu.Unlock()
	return st, nil
}

func (s *Store) isExpired(st *state, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(st.lastActivity) >= s.timeout
}

// retire marks a conversation inactive and evicts it from the cache.
// The durable rows stay behind for audit.
func (s *Store) retire(ctx context.Context, identity string, st *state) {
	s.mu.Lock()
	st.active = false
	delete(s.conversations, identity)
	s.mu.Unlock()

	if err := s.repo.MarkInactive(ctx, st.id); err != nil {
		log.Printf("[store] mark inactive %s: %v", identity, err)
	}
}

// AppendMessage appends one message to the identity's active
// conversation, creating or replacing the conversation as needed.
// History is trimmed oldest-first past the configured bound. The
// durable write happens before the in-memory one, so a storage failure
// leaves nothing half-recorded.
func (s *Store) AppendMessage(ctx context.Context, identity string, role Role, text string, entityIDs ...string) (Message, error) {
	now := s.now()

	st, err := s.load(ctx, identity)
	if err != nil {
		return Message{}, err
	}
	if st != nil && s.isExpired(st, now) {
		s.retire(ctx, identity, st)
		st = nil
	}
	if st == nil {
		if st, err = s.create(ctx, identity, now); err != nil {
			return Message{}, err
		}
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: now,
		EntityIDs: entityIDs,
	}
	if err := s.repo.SaveMessage(ctx, st.id, msg); err != nil {
		return Message{}, storageErr(err)
	}

	s.mu.Lock()
	st.history = append(st.history, msg)
	if over := len(st.history) - s.maxHistory; over > 0 {
		st.history = append([]Message(nil), st.history[over:]...)
	}
	st.lastActivity = now
	st.active = true
	s.mu.Unlock()

	return msg, nil
}

// GetContext returns up to max recent messages, oldest first, so the
// caller can replay them in turn order. Unknown and expired identities
// yield an empty slice, never an error; only storage trouble does.
func (s *Store) GetContext(ctx context.Context, identity string, max int) ([]Message, error) {
	st, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	if s.isExpired(st, s.now()) {
		s.retire(ctx, identity, st)
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	history := st.history
	if max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out, nil
}

// RecordMentions merges entity references into the conversation's
// mention index. A repeated ref text takes the newest entity id and
// moves to the most-recent position, so "that book" resolves to the
// latest referent.
func (s *Store) RecordMentions(ctx context.Context, identity string, mentions []Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	st, err := s.load(ctx, identity)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}

	s.mu.Lock()
	for _, m := range mentions {
		kept := st.mentions[:0]
		for _, old := range st.mentions {
			if !strings.EqualFold(old.RefText, m.RefText) {
				kept = append(kept, old)
			}
		}
		st.mentions = append(kept, m)
	}
	snapshot := append([]Mention(nil), st.mentions...)
	id := st.id
	s.mu.Unlock()

	if err := s.repo.UpdateMentions(ctx, id, snapshot); err != nil {
		return storageErr(err)
	}
	return nil
}

// Mentions returns a copy of the mention index, most recent last.
func (s *Store) Mentions(ctx context.Context, identity string) []Mention {
	st, err := s.load(ctx, identity)
	if err != nil || st == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mention(nil), st.mentions...)
}

// ResolveReference finds the entity a customer phrase refers to,
// preferring the most recent mention on ambiguity. Matching is
// case-insensitive: exact first, then substring either way.
func (s *Store) ResolveReference(ctx context.Context, identity, ref string) (string, bool) {
	st, err := s.load(ctx, identity)
	if err != nil || st == nil {
		return "", false
	}
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(st.mentions) - 1; i >= 0; i-- {
		if strings.ToLower(st.mentions[i].RefText) == ref {
			return st.mentions[i].EntityID, true
		}
	}
	for i := len(st.mentions) - 1; i >= 0; i-- {
		known := strings.ToLower(st.mentions[i].RefText)
		if strings.Contains(known, ref) || strings.Contains(ref, known) {
			return st.mentions[i].EntityID, true
		}
	}
	return "", false
}

// Expire marks the identity's conversation inactive once the idle
// timeout has elapsed. It returns whether this call performed the
// transition; calling again is a no-op.
func (s *Store) Expire(ctx context.Context, identity string) bool {
	s.mu.Lock()
	st, ok := s.conversations[identity]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if !s.isExpired(st, s.now()) {
		return false
	}
	s.retire(ctx, identity, st)
	return true
}

// SweepExpired retires every cached conversation past the idle timeout
// and returns how many it retired.
func (s *Store) SweepExpired(ctx context.Context) int {
	now := s.now()

	type candidate struct {
		identity string
		st       *state
	}
	var stale []candidate
	s.mu.Lock()
	for identity, st := range s.conversations {
		if now.Sub(st.lastActivity) >= s.timeout {
			stale = append(stale, candidate{identity, st})
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		s.retire(ctx, c.identity, c.st)
	}
	return len(stale)
}
