package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/dungeonbooks/marty/internal/conversation"
)

func TestSystemPromptIncludesContext(t *testing.T) {
	bctx := conversation.BoundedContext{
		Identity:       "+15550001",
		ProfileSummary: "regular, likes le guin",
		Mentions: []conversation.Mention{
			{RefText: "Dune", EntityID: "E1"},
			{RefText: "Hyperion", EntityID: "E2"},
		},
		Timestamp: time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC),
		StoreOpen: true,
	}

	prompt := systemPrompt(bctx)

	for _, want := range []string{
		"regular, likes le guin",
		"Dune, Hyperion",
		"3:30PM",
		"store is open",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.HasPrefix(prompt, MartyPrompt) {
		t.Error("system prompt must start with the persona")
	}
}

func TestSystemPromptClosedStore(t *testing.T) {
	prompt := systemPrompt(conversation.BoundedContext{
		Timestamp: time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(prompt, "store is closed") {
		t.Error("closed store must be stated")
	}
	if strings.Contains(prompt, "Customer context:") {
		t.Error("empty profile summary must not add a context line")
	}
}
