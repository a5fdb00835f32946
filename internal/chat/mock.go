package chat

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// MockAdapter provides deterministic local replies when no upstream model
// is configured. Calls counts only requests that reached the transport
// stage, so tests can assert that empty turns never go out.
type MockAdapter struct {
	calls atomic.Int64
}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	if !hasContent(req) {
		return SendResponse{}, ErrEmptyContent
	}

	select {
	case <-ctx.Done():
		return SendResponse{}, ctx.Err()
	default:
	}
	a.calls.Add(1)

	return SendResponse{
		Text:       buildMockReply(req),
		ResponseID: fmt.Sprintf("mock-%d", a.calls.Load()),
	}, nil
}

// Calls reports how many requests reached the transport stage.
func (a *MockAdapter) Calls() int64 { return a.calls.Load() }

func buildMockReply(req SendRequest) string {
	base := strings.TrimSpace(req.Message)
	if base == "" {
		base = "I see the image you sent."
	}

	if len(req.History) == 0 {
		return fmt.Sprintf("You said: %s", base)
	}

	last := strings.TrimSpace(req.History[len(req.History)-1].Message)
	if last == "" {
		return fmt.Sprintf("You said: %s", base)
	}
	return fmt.Sprintf("You said: %s\nEarlier you mentioned: %s", base, last)
}
