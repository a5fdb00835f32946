package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Turn roles as seen by the adapter.
const (
	TurnRoleUser  = "user"
	TurnRoleModel = "model"
)

// ErrEmptyContent means a request carried neither text nor an image. The
// adapter fails with it before any network call is made.
var ErrEmptyContent = errors.New("chat request has no content")

// Turn is one prior message of the conversation history, supplied
// explicitly by the caller. Adapters hold no conversation state of their
// own, so concurrent sessions cannot cross-contaminate.
type Turn struct {
	Role    string
	Message string
}

// SendRequest is one outbound turn for the upstream model.
type SendRequest struct {
	Message        string
	ImageBase64    string
	ImageMediaType string
	History        []Turn
}

// SendResponse carries the model's reply.
type SendResponse struct {
	Text       string
	ResponseID string
}

// Adapter converts a turn into the upstream model's message shape, invokes
// it and returns the reply text. Failures come back as errors, never as a
// panic across this boundary.
type Adapter interface {
	Send(ctx context.Context, req SendRequest) (SendResponse, error)
}

// hasContent reports whether the request carries at least one content part.
func hasContent(req SendRequest) bool {
	return strings.TrimSpace(req.Message) != "" || req.ImageBase64 != ""
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewAnthropicAdapter(cfg.APIKey, cfg.Model, cfg.Timeout), nil
		}
		return NewMockAdapter(), nil
	case "anthropic":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("anthropic API key is required for anthropic mode")
		}
		return NewAnthropicAdapter(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported chat adapter mode %q", cfg.Mode)
	}
}
