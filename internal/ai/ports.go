package ai

import (
	"context"

	"github.com/dungeonbooks/marty/internal/conversation"
)

// Generator produces one in-character reply for a bounded context. It
// knows nothing about channels or persistence.
type Generator interface {
	GetReply(ctx context.Context, bctx conversation.BoundedContext) (string, error)
}
