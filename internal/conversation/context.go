package conversation

import (
	"context"
	"time"
)

// BoundedContext is everything the model needs for one turn, already
// trimmed to budget. It is a structured value; rendering it into prompt
// text is the AI layer's business.
type BoundedContext struct {
	Identity       string
	Messages       []Message
	Mentions       []Mention
	ProfileSummary string
	Timestamp      time.Time
	StoreOpen      bool
}

// ContextBuilder reduces stored history plus mention state into a
// BoundedContext. It does no I/O beyond the store read and is
// deterministic for a fixed store state and clock.
type ContextBuilder struct {
	store       *Store
	maxMessages int
	charBudget  int
}

// NewContextBuilder creates a builder that pulls at most maxMessages of
// history and trims it to charBudget characters of message text.
// charBudget <= 0 disables the character bound.
func NewContextBuilder(store *Store, maxMessages, charBudget int) *ContextBuilder {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxHistory
	}
	return &ContextBuilder{store: store, maxMessages: maxMessages, charBudget: charBudget}
}

// Build assembles the bounded context for one turn. profileSummary is
// opaque caller-supplied text; how profile data is fetched is not this
// layer's concern.
func (b *ContextBuilder) Build(ctx context.Context, identity, profileSummary string, now time.Time, storeOpen bool) (BoundedContext, error) {
	messages, err := b.store.GetContext(ctx, identity, b.maxMessages)
	if err != nil {
		return BoundedContext{}, err
	}

	return BoundedContext{
		Identity:       identity,
		Messages:       trimToBudget(messages, b.charBudget),
		Mentions:       b.store.Mentions(ctx, identity),
		ProfileSummary: profileSummary,
		Timestamp:      now,
		StoreOpen:      storeOpen,
	}, nil
}

// trimToBudget drops oldest messages until the combined text fits the
// budget. The most recent customer message is never dropped, even when
// it alone exceeds the budget.
func trimToBudget(messages []Message, budget int) []Message {
	if budget <= 0 {
		return messages
	}

	total := 0
	for _, m := range messages {
		total += len(m.Text)
	}

	keep := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleCustomer {
			keep = i
			break
		}
	}

	for total > budget && len(messages) > 1 && keep > 0 {
		total -= len(messages[0].Text)
		messages = messages[1:]
		keep--
	}
	return messages
}
