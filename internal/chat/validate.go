package chat

import (
	"fmt"
	"strings"
)

// Validation reasons, stable strings for clients to key messages on.
const (
	ReasonMissingSession = "missing session"
	ReasonMissingContent = "missing content"
)

// ValidationError reports why a chat request was refused before it reached
// the model adapter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid chat request: %s", e.Reason)
}

// Validate checks a chat request. Chat is strictly session-scoped, and a
// turn must carry text and/or an image. Pure, no side effects.
func Validate(message, sessionID, imageBase64 string) error {
	if strings.TrimSpace(sessionID) == "" {
		return &ValidationError{Reason: ReasonMissingSession}
	}
	if strings.TrimSpace(message) == "" && imageBase64 == "" {
		return &ValidationError{Reason: ReasonMissingContent}
	}
	return nil
}
