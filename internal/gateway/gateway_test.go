package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chatsync/internal/engine"
	"github.com/chatsync/internal/model"
	"github.com/chatsync/internal/storage/memory"
	"github.com/chatsync/internal/store"
)

func newTestGateway(t *testing.T) (http.Handler, *engine.NotificationEngine) {
	t.Helper()
	messages := store.NewMessageStore()
	convs := store.NewConversationStore()
	convs.Put(model.Conversation{ID: "c1", Participants: []string{"me", "peer"}})

	eng := engine.NewMessageEngine("me", messages, convs, nil, engine.MessageEngineOptions{
		SentDelay:      time.Millisecond,
		DeliveredDelay: 2 * time.Millisecond,
	})
	settings := memory.New()
	notif := engine.NewNotificationEngine(settings)

	router := NewRouter(
		NewMessageHandler(eng, messages, convs),
		NewNotificationHandler(notif, settings),
		"*",
	)
	return router, notif
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendEndpoint(t *testing.T) {
	h, _ := newTestGateway(t)

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/c1/messages", `{"text":"hi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var m model.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("body: %v", err)
	}
	if m.ID == "" || m.Status != model.MessageStatusSending {
		t.Fatalf("message = %+v", m)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/conversations/c1/messages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []model.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("list body: %v", err)
	}
	if len(list) != 1 || list[0].ID != m.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestSendEmptyRejected(t *testing.T) {
	h, _ := newTestGateway(t)
	rec := doJSON(t, h, http.MethodPost, "/api/conversations/c1/messages", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestNotificationReadAll(t *testing.T) {
	h, notif := newTestGateway(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := notif.Add(ctx, model.Notification{Type: model.NotificationTypeFollow, Title: "t"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/notifications/unread-count", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "3") {
		t.Fatalf("unread-count = %d %s", rec.Code, rec.Body.String())
	}

	if rec = doJSON(t, h, http.MethodPost, "/api/notifications/read-all", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("read-all status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/notifications/unread-count", "")
	if !strings.Contains(rec.Body.String(), `"unreadCount":0`) {
		t.Fatalf("unread-count after read-all = %s", rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	h, _ := newTestGateway(t)

	rec := doJSON(t, h, http.MethodPut, "/api/settings/notifications", `{"likes":false,"comments":true,"orders":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/settings/notifications", "")
	var s model.NotificationSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("body: %v", err)
	}
	if s.Likes || !s.Comments || s.Orders {
		t.Fatalf("settings = %+v", s)
	}
}

func TestDeleteNotification(t *testing.T) {
	h, notif := newTestGateway(t)
	if _, err := notif.Add(context.Background(), model.Notification{ID: "n1", Type: model.NotificationTypeFollow}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if rec := doJSON(t, h, http.MethodDelete, "/api/notifications/n1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/api/notifications/n1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}
