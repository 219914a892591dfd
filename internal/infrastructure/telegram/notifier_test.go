package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func testNotifier(serverURL string) *Notifier {
	n := NewNotifier("bot-token", "chat-42")
	n.baseURL = serverURL
	return n
}

func TestPublishRunSummarySendsDigest(t *testing.T) {
	t.Parallel()

	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/botbot-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	err := testNotifier(server.URL).PublishRunSummary(context.Background(), "*News run — placement*")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got := form["chat_id"]; len(got) != 1 || got[0] != "chat-42" {
		t.Fatalf("chat_id = %v", form["chat_id"])
	}
	if got := form["text"]; len(got) != 1 || got[0] != "*News run — placement*" {
		t.Fatalf("text = %v", form["text"])
	}
	if got := form["disable_web_page_preview"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("link previews should be disabled, form = %v", form)
	}
}

func TestPublishRunSummarySurfacesAPIFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer server.Close()

	err := testNotifier(server.URL).PublishRunSummary(context.Background(), "digest")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API description in error, got %v", err)
	}
}

func TestPublishRunSummaryRejectsMissingCredentials(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").PublishRunSummary(context.Background(), "digest"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("я", maxMessageLength+50)
	got := truncate(long, maxMessageLength)

	if utf8.RuneCountInString(got) != maxMessageLength {
		t.Fatalf("truncated length = %d runes, want %d", utf8.RuneCountInString(got), maxMessageLength)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncation should be marked")
	}
	if short := truncate("short", maxMessageLength); short != "short" {
		t.Fatalf("short message should pass through, got %q", short)
	}
}
