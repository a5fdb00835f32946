package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/avellino/shopassist/internal/chat"
	"github.com/avellino/shopassist/internal/config"
	"github.com/avellino/shopassist/internal/observability"
	"github.com/avellino/shopassist/internal/storage"
	"github.com/avellino/shopassist/internal/store"
	"github.com/avellino/shopassist/internal/upload"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{StorageBackend: "local"}
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", time.Now().UnixNano()))

	st := store.NewInMemoryStore()
	chatService := chat.NewService(st, chat.NewMockAdapter(), chat.NewGuard(time.Minute), metrics)

	backend, err := storage.NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	gate := upload.NewGate(backend)

	return New(cfg, chatService, gate, metrics).Router()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(newTestRouter(t))
	t.Cleanup(ts.Close)
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"user_id": "user-1"})
	res, err := http.Post(ts.URL+"/v1/chat/session", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create session request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var created map[string]any
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	sessionID, _ := created["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in create response: %+v", created)
	}
	return sessionID
}

func postChat(t *testing.T, ts *httptest.Server, payload map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	body, _ := json.Marshal(payload)
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	defer res.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	return res, decoded
}

func TestChatTurnRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	sessionID := createSession(t, ts)

	res, decoded := postChat(t, ts, map[string]string{
		"session_id": sessionID,
		"message":    "do you have sneakers in size 44?",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, want %d (%+v)", res.StatusCode, http.StatusOK, decoded)
	}
	result, _ := decoded["result"].(string)
	if result == "" {
		t.Fatalf("missing result in chat response: %+v", decoded)
	}

	histRes, err := http.Get(ts.URL + "/v1/chat/session/" + sessionID + "/dialogues")
	if err != nil {
		t.Fatalf("dialogues request error = %v", err)
	}
	defer histRes.Body.Close()
	if histRes.StatusCode != http.StatusOK {
		t.Fatalf("dialogues status = %d, want %d", histRes.StatusCode, http.StatusOK)
	}
	var hist struct {
		Dialogues []store.Dialogue `json:"dialogues"`
	}
	if err := json.NewDecoder(histRes.Body).Decode(&hist); err != nil {
		t.Fatalf("decode dialogues: %v", err)
	}
	if len(hist.Dialogues) != 2 {
		t.Fatalf("len(dialogues) = %d, want 2", len(hist.Dialogues))
	}
}

func TestChatValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	sessionID := createSession(t, ts)

	res, decoded := postChat(t, ts, map[string]string{"message": "hi"})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing session status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if decoded["error"] != chat.ReasonMissingSession {
		t.Fatalf("error = %v, want %q", decoded["error"], chat.ReasonMissingSession)
	}

	res, decoded = postChat(t, ts, map[string]string{"session_id": sessionID})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing content status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if decoded["error"] != chat.ReasonMissingContent {
		t.Fatalf("error = %v, want %q", decoded["error"], chat.ReasonMissingContent)
	}

	res, _ = postChat(t, ts, map[string]string{"session_id": "no-such", "message": "hi"})
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func multipartUpload(t *testing.T, ts *httptest.Server, filename, mimeType string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	res, err := http.Post(ts.URL+"/v1/uploads", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload request error = %v", err)
	}
	return res
}

func TestUploadAndDelete(t *testing.T) {
	ts := newTestServer(t)

	res := multipartUpload(t, ts, "shirt.jpg", "image/jpeg", []byte("jpeg bytes"))
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var stored storage.StoredFile
	if err := json.NewDecoder(res.Body).Decode(&stored); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if stored.Locator == "" {
		t.Fatalf("missing locator in upload response")
	}

	deleteOnce := func() bool {
		body, _ := json.Marshal(map[string]string{"locator": stored.Locator})
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/uploads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		delRes, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("delete request error = %v", err)
		}
		defer delRes.Body.Close()
		if delRes.StatusCode != http.StatusOK {
			t.Fatalf("delete status = %d, want %d", delRes.StatusCode, http.StatusOK)
		}
		var decoded map[string]bool
		if err := json.NewDecoder(delRes.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode delete response: %v", err)
		}
		return decoded["deleted"]
	}

	if !deleteOnce() {
		t.Fatalf("first delete = false, want true")
	}
	if deleteOnce() {
		t.Fatalf("second delete = true, want false")
	}
}

func TestUploadRejections(t *testing.T) {
	ts := newTestServer(t)

	res := multipartUpload(t, ts, "notes.pdf", "application/pdf", []byte("%PDF"))
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("pdf upload status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	var decoded map[string]string
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	if decoded["error"] != upload.ReasonInvalidType {
		t.Fatalf("error = %q, want %q", decoded["error"], upload.ReasonInvalidType)
	}

	big := make([]byte, upload.MaxFileBytes+1)
	res = multipartUpload(t, ts, "huge.jpg", "image/jpeg", big)
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversize upload status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	decoded = map[string]string{}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	if decoded["error"] != upload.ReasonTooLarge {
		t.Fatalf("error = %q, want %q", decoded["error"], upload.ReasonTooLarge)
	}
}

func TestUploadBeyondBodyCapKeepsTooLargeReason(t *testing.T) {
	// Served in-process: a body well past the request cap would hit a client
	// write error over a real connection before the response comes back.
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="enormous.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(make([]byte, upload.MaxFileBytes+(2<<20))); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("over-cap upload status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var decoded map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	if decoded["error"] != upload.ReasonTooLarge {
		t.Fatalf("error = %q, want %q", decoded["error"], upload.ReasonTooLarge)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
