package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dungeonbooks/marty/internal/ai"
	"github.com/dungeonbooks/marty/internal/books"
	"github.com/dungeonbooks/marty/internal/conversation"
	"github.com/dungeonbooks/marty/internal/delivery"
	"github.com/dungeonbooks/marty/internal/profile"
	"github.com/dungeonbooks/marty/internal/ratelimit"
	"github.com/dungeonbooks/marty/internal/segment"
)

// Channel names known to the service.
const (
	ChannelSMS  = "sms"
	ChannelChat = "chat"
)

// ErrUnknownChannel means a webhook named a channel nothing was wired
// for.
var ErrUnknownChannel = errors.New("bot: unknown channel")

// Channel bundles everything specific to one delivery surface: its
// paced dispatcher, the raw transport for out-of-band fixed lines, and
// its segmentation parameters.
type Channel struct {
	Name       string
	Dispatcher *delivery.Dispatcher
	Transport  delivery.Transport
	MaxChunk   int
	Filter     segment.Filter
}

// Service orchestrates one inbound message end to end: admission,
// history, entity mentions, context, model call, segmentation and
// delivery.
type Service struct {
	limiter  *ratelimit.Limiter
	store    *conversation.Store
	builder  *conversation.ContextBuilder
	gen      ai.Generator
	finder   books.Finder
	profiles profile.Provider
	channels map[string]Channel
	hours    Hours
	turns    *turnLocks

	affiliateID string
	now         func() time.Time
}

// NewService wires the orchestrator. finder and profiles may be nil
// when the corresponding provider is not configured.
func NewService(
	limiter *ratelimit.Limiter,
	store *conversation.Store,
	builder *conversation.ContextBuilder,
	gen ai.Generator,
	finder books.Finder,
	profiles profile.Provider,
	hours Hours,
	affiliateID string,
	channels ...Channel,
) *Service {
	m := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		m[ch.Name] = ch
	}
	return &Service{
		limiter:     limiter,
		store:       store,
		builder:     builder,
		gen:         gen,
		finder:      finder,
		profiles:    profiles,
		channels:    m,
		hours:       hours,
		turns:       newTurnLocks(),
		affiliateID: affiliateID,
		now:         time.Now,
	}
}

// HandleIncoming processes one inbound customer message. Turns for the
// same identity are serialized; turns for different identities run
// independently. The returned error is for the operator, never the
// customer: every customer-visible outcome is an in-character text.
func (s *Service) HandleIncoming(ctx context.Context, channelName, identity, text string) error {
	ch, ok := s.channels[channelName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
	}

	unlock := s.turns.lock(identity)
	defer unlock()

	if d := s.limiter.Admit(identity); !d.Allowed {
		log.Printf("[ratelimit] %s denied, retry after %s", identity, d.RetryAfter)
		s.sendFixed(ctx, ch, identity, ai.ThrottleReply)
		return nil
	}

	if _, err := s.store.AppendMessage(ctx, identity, conversation.RoleCustomer, text); err != nil {
		// Without consistent history there is nothing safe to say, so
		// this turn sends no reply at all.
		log.Printf("[svc] append customer message for %s: %v", identity, err)
		return err
	}

	intent := DetectIntent(text)
	log.Printf("[svc] %s intent=%s text=%q", identity, intent, text)

	summary := s.profileSummary(ctx, identity)

	switch intent {
	case IntentBrowse, IntentPurchase:
		s.recordBookMentions(ctx, identity, text)
	}
	if intent == IntentPurchase {
		if note := s.purchaseNote(ctx, identity, text); note != "" {
			summary = joinContext(summary, note)
		}
	}

	now := s.now()
	bctx, err := s.builder.Build(ctx, identity, summary, now, s.hours.OpenAt(now))
	if err != nil {
		log.Printf("[svc] build context for %s: %v", identity, err)
		return err
	}

	replyText, err := s.gen.GetReply(ctx, bctx)
	if err != nil || strings.TrimSpace(replyText) == "" {
		log.Printf("[svc] model reply for %s failed: %v", identity, err)
		s.sendFixed(ctx, ch, identity, ai.FallbackReply)
		return nil
	}

	chunks := segment.Split(replyText, ch.MaxChunk, ch.Filter)
	results := ch.Dispatcher.Send(ctx, identity, chunks)

	sent := 0
	for _, r := range results {
		if r.Delivered {
			sent++
		}
	}
	log.Printf("[svc] sent %d/%d chunks to %s via %s", sent, len(chunks), identity, ch.Name)
	return nil
}

// sendFixed pushes a single fixed persona line straight through the
// transport. Fixed lines are deliberately kept out of history: they are
// not dialogue the model should build on.
func (s *Service) sendFixed(ctx context.Context, ch Channel, identity, text string) {
	if err := ch.Transport.Deliver(ctx, identity, text); err != nil {
		log.Printf("[svc] fixed reply to %s: %v", identity, err)
	}
}

func (s *Service) profileSummary(ctx context.Context, identity string) string {
	if s.profiles == nil {
		return ""
	}
	summary, err := s.profiles.Summary(ctx, identity)
	if err != nil {
		log.Printf("[svc] profile lookup for %s: %v", identity, err)
		return ""
	}
	return summary
}

// recordBookMentions searches the catalog for titles in the customer
// text and records the hit list as mentions. Provider trouble is logged
// and the turn continues without it.
func (s *Service) recordBookMentions(ctx context.Context, identity, text string) {
	if s.finder == nil {
		return
	}
	hits, err := s.finder.Search(ctx, text, 3)
	if err != nil {
		log.Printf("[svc] book search for %s: %v", identity, err)
		return
	}
	if len(hits) == 0 {
		return
	}
	mentions := make([]conversation.Mention, 0, len(hits))
	for _, b := range hits {
		mentions = append(mentions, conversation.Mention{RefText: b.Title, EntityID: b.ID})
	}
	if err := s.store.RecordMentions(ctx, identity, mentions); err != nil {
		log.Printf("[svc] record mentions for %s: %v", identity, err)
	}
}

// purchaseNote resolves which mentioned book a purchase message refers
// to and turns it into a context line with a purchase link.
func (s *Service) purchaseNote(ctx context.Context, identity, text string) string {
	entityID, ok := s.store.ResolveReference(ctx, identity, text)
	if !ok {
		return ""
	}
	title := entityID
	for _, m := range s.store.Mentions(ctx, identity) {
		if m.EntityID == entityID {
			title = m.RefText
		}
	}
	return fmt.Sprintf("customer wants to buy %q, purchase link: %s",
		title, books.PurchaseLink(title, s.affiliateID))
}

func joinContext(summary, note string) string {
	if summary == "" {
		return note
	}
	return summary + " | " + note
}
