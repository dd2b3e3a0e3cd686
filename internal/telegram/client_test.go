package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Token: "TEST_TOKEN"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGetUpdates_AdvancesOffset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/botTEST_TOKEN/getUpdates") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["offset"].(float64) != 5 {
			t.Fatalf("offset = %v, want 5", req["offset"])
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"chat":{"id":10},"text":"hi"}},
			{"update_id":9,"message":{"message_id":2,"chat":{"id":10},"text":"yo"}}
		]}`))
	})

	updates, next, err := c.GetUpdates(context.Background(), 5, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if next != 10 {
		t.Fatalf("next offset = %d, want 10", next)
	}
	if updates[0].Message.Text != "hi" {
		t.Fatalf("first update text = %q", updates[0].Message.Text)
	}
}

func TestSendMessage_ForbiddenClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	})

	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsForbidden(err) {
		t.Fatalf("IsForbidden(%v) = false, want true", err)
	}
	if IsTooManyRequests(err) {
		t.Fatalf("IsTooManyRequests(%v) = true, want false", err)
	}
}

func TestSendMessage_RetryAfterClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))
	})

	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hello"})
	if !IsTooManyRequests(err) {
		t.Fatalf("IsTooManyRequests(%v) = false, want true", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.RetryAfter != 3*time.Second {
		t.Fatalf("RetryAfter = %v, want 3s", apiErr)
	}
}

func TestCopyMessage_ReturnsNewID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["from_chat_id"].(float64) != -100123 {
			t.Fatalf("from_chat_id = %v", req["from_chat_id"])
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":555}}`))
	})

	id, err := c.CopyMessage(context.Background(), 42, -100123, 9)
	if err != nil {
		t.Fatalf("CopyMessage: %v", err)
	}
	if id != 555 {
		t.Fatalf("message id = %d, want 555", id)
	}
}

func TestSendDocument_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "77" {
			t.Fatalf("chat_id = %q, want 77", got)
		}
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "users_export.csv" {
			t.Fatalf("filename = %q", hdr.Filename)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})

	err := c.SendDocument(context.Background(), SendDocumentRequest{
		ChatID:   77,
		FileName: "users_export.csv",
		Data:     []byte("ID;Username\n"),
		Caption:  "export",
	})
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}
