package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const defaultMaxTokens = 1024

// AnthropicAdapter sends turns to the Anthropic Messages API.
type AnthropicAdapter struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
}

func NewAnthropicAdapter(apiKey, model string, timeout time.Duration) *AnthropicAdapter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicAdapter{
		client:  anthropic.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (a *AnthropicAdapter) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	content := buildContent(req)
	if len(content) == 0 {
		return SendResponse{}, ErrEmptyContent
	}

	msgs := historyMessages(req.History)
	msgs = append(msgs, anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: content,
	})

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		Messages:  msgs,
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return SendResponse{}, fmt.Errorf("upstream model: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}

	return SendResponse{Text: text.String(), ResponseID: resp.ID}, nil
}

// buildContent assembles the content parts for one turn: trimmed text when
// present, plus the image payload tagged with its media type.
func buildContent(req SendRequest) []anthropic.MessageContent {
	var content []anthropic.MessageContent
	if text := strings.TrimSpace(req.Message); text != "" {
		content = append(content, anthropic.NewTextMessageContent(text))
	}
	if req.ImageBase64 != "" {
		mediaType := req.ImageMediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		content = append(content, anthropic.NewImageMessageContent(anthropic.MessageContentSource{
			Type:      anthropic.MessagesContentSourceTypeBase64,
			MediaType: mediaType,
			Data:      req.ImageBase64,
		}))
	}
	return content
}

// imagePlaceholder stands in for an image-only user turn when history is
// replayed. The raw image bytes are not persisted, and the turn must keep
// its slot: the Messages API requires the first message to be a user
// message, so dropping an image-only opening turn would leave its model
// reply first and fail every later turn of the session.
const imagePlaceholder = "(image attachment)"

// historyMessages converts prior turns into API messages. Empty model
// turns are skipped (consecutive same-role messages are merged upstream);
// empty user turns are image-only and keep their slot via a placeholder.
func historyMessages(history []Turn) []anthropic.Message {
	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, t := range history {
		text := strings.TrimSpace(t.Message)
		role := anthropic.RoleUser
		if t.Role == TurnRoleModel {
			role = anthropic.RoleAssistant
		}
		if text == "" {
			if role == anthropic.RoleAssistant {
				continue
			}
			text = imagePlaceholder
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(text)},
		})
	}
	return msgs
}
