package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dungeonbooks/marty/internal/conversation"
)

// OpenAIClient generates replies through the OpenAI chat completion
// API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client; an empty model selects the default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// GetReply renders the bounded context into a chat completion request
// and returns the model's text.
func (c *OpenAIClient) GetReply(ctx context.Context, bctx conversation.BoundedContext) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(bctx.Messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(bctx),
	})
	for _, m := range bctx.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// systemPrompt folds the per-turn context into the persona prompt:
// profile summary, mentioned titles in recency order, clock and store
// state.
func systemPrompt(bctx conversation.BoundedContext) string {
	var b strings.Builder
	b.WriteString(MartyPrompt)

	if bctx.ProfileSummary != "" {
		b.WriteString("\n\nCustomer context: ")
		b.WriteString(bctx.ProfileSummary)
	}
	if len(bctx.Mentions) > 0 {
		titles := make([]string, 0, len(bctx.Mentions))
		for _, m := range bctx.Mentions {
			titles = append(titles, m.RefText)
		}
		b.WriteString("\nBooks mentioned in this conversation, oldest first: ")
		b.WriteString(strings.Join(titles, ", "))
	}
	b.WriteString("\nCurrent time: ")
	b.WriteString(bctx.Timestamp.Format(time.Kitchen))
	if bctx.StoreOpen {
		b.WriteString("\nThe store is open right now.")
	} else {
		b.WriteString("\nThe store is closed right now.")
	}
	return b.String()
}
