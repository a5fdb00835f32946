package chat

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name        string
		message     string
		sessionID   string
		imageBase64 string
		wantReason  string
	}{
		{"all empty", "", "", "", ReasonMissingSession},
		{"message without session", "hi", "", "", ReasonMissingSession},
		{"session without content", "", "s1", "", ReasonMissingContent},
		{"whitespace message only", "   \t\n", "s1", "", ReasonMissingContent},
		{"text turn", "hi", "s1", "", ""},
		{"image-only turn", "", "s1", "aGVsbG8=", ""},
		{"text and image", "what is this?", "s1", "aGVsbG8=", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.message, tc.sessionID, tc.imageBase64)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if ve.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", ve.Reason, tc.wantReason)
			}
		})
	}
}
