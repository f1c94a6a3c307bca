package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dungeonbooks/marty/internal/conversation"
	"github.com/dungeonbooks/marty/internal/segment"
)

// FailureKind classifies a transport failure.
type FailureKind int

const (
	// FailureTransient covers timeouts and gateway hiccups; later
	// chunks are still worth attempting.
	FailureTransient FailureKind = iota
	// FailureFatal covers permanent rejections such as an invalid
	// recipient; remaining sends are pointless.
	FailureFatal
)

// TransportError carries the failure classification alongside the
// underlying error.
type TransportError struct {
	Kind FailureKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Kind == FailureFatal {
		return fmt.Sprintf("fatal transport failure: %v", e.Err)
	}
	return fmt.Sprintf("transient transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transient wraps err as a retriable transport failure.
func Transient(err error) *TransportError {
	return &TransportError{Kind: FailureTransient, Err: err}
}

// Fatal wraps err as a permanent transport failure.
func Fatal(err error) *TransportError {
	return &TransportError{Kind: FailureFatal, Err: err}
}

// Transport delivers one message to one recipient over a specific
// channel. Implementations classify failures with Transient and Fatal.
type Transport interface {
	Deliver(ctx context.Context, identity, text string) error
}

// Appender is the slice of the conversation store the dispatcher needs
// to record what was actually delivered.
type Appender interface {
	AppendMessage(ctx context.Context, identity string, role conversation.Role, text string, entityIDs ...string) (conversation.Message, error)
}

// Result is the delivery outcome for one chunk.
type Result struct {
	Index     int
	Delivered bool
	Skipped   bool
	Err       error
}

// ErrNoTransport means the dispatcher was wired without a transport,
// which is a configuration bug rather than a runtime condition.
var ErrNoTransport = errors.New("delivery: transport not configured")

// Dispatcher sends chunks strictly in sequence with a pacing delay
// between sends, then records the delivered texts as assistant history
// so the next turn's context reflects what the customer actually
// received.
type Dispatcher struct {
	transport Transport
	store     Appender
	delay     time.Duration
}

// NewDispatcher wires a dispatcher; a nil transport is rejected here so
// misconfiguration fails at startup, not mid-conversation.
func NewDispatcher(transport Transport, store Appender, delay time.Duration) (*Dispatcher, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	return &Dispatcher{transport: transport, store: store, delay: delay}, nil
}

// Send delivers the chunks in order. A transient failure records the
// miss and keeps going; a fatal failure halts and marks the rest
// skipped. The per-chunk result list always covers every chunk, and a
// single failed chunk is never an error.
func (d *Dispatcher) Send(ctx context.Context, identity string, chunks []segment.Chunk) []Result {
	results := make([]Result, 0, len(chunks))
	var delivered []string
	halted := false

	for i, chunk := range chunks {
		if halted {
			results = append(results, Result{Index: chunk.Index, Skipped: true})
			continue
		}
		if i > 0 && d.delay > 0 {
			if err := wait(ctx, d.delay); err != nil {
				halted = true
				results = append(results, Result{Index: chunk.Index, Skipped: true, Err: err})
				continue
			}
		}

		err := d.transport.Deliver(ctx, identity, chunk.Text)
		if err == nil {
			delivered = append(delivered, chunk.Text)
			results = append(results, Result{Index: chunk.Index, Delivered: true})
			continue
		}

		results = append(results, Result{Index: chunk.Index, Err: err})
		var te *TransportError
		if errors.As(err, &te) && te.Kind == FailureFatal {
			log.Printf("[alert] fatal delivery failure for %s chunk %d: %v", identity, chunk.Index, err)
			halted = true
			continue
		}
		log.Printf("[delivery] transient failure for %s chunk %d: %v", identity, chunk.Index, err)
	}

	// Chunks already sent are real-world side effects: they go into
	// history even when the turn's context has since been canceled.
	recordCtx := context.WithoutCancel(ctx)
	for _, text := range delivered {
		if _, err := d.store.AppendMessage(recordCtx, identity, conversation.RoleAssistant, text); err != nil {
			log.Printf("[delivery] record assistant message for %s: %v", identity, err)
		}
	}

	return results
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
