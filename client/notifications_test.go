// client/notifications_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/schemaforge/schemaforge/internal/domain"
)

// notificationStub serves a fixed feed and lets tests force mutation
// endpoints to fail.
type notificationStub struct {
	feed        []domain.Notification
	unread      int64
	failMutates bool
	readAll     int
	reads       []string
	deletes     []string
}

func (s *notificationStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"notifications": s.feed,
			"total":         len(s.feed),
			"unread_count":  s.unread,
			"page":          1,
			"limit":         10,
		})
	})
	mux.HandleFunc("/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"unread_count": s.unread})
	})
	mux.HandleFunc("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		s.readAll++
		if s.failMutates {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
		if s.failMutates {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		switch r.Method {
		case http.MethodPut:
			s.reads = append(s.reads, r.URL.Path)
		case http.MethodDelete:
			s.deletes = append(s.deletes, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	})
	return mux
}

func testFeed() []domain.Notification {
	return []domain.Notification{
		{ID: "n1", Title: "Schema created", IsRead: false},
		{ID: "n2", Title: "Welcome", IsRead: false},
		{ID: "n3", Title: "Old news", IsRead: true},
	}
}

func newTestCenter(t *testing.T, stub *notificationStub) (*NotificationCenter, func()) {
	t.Helper()
	server := httptest.NewServer(stub.handler())
	nc := NewNotificationCenter(NewClient(server.URL))
	if err := nc.Refresh(context.Background(), 1, 10); err != nil {
		server.Close()
		t.Fatalf("Refresh error: %v", err)
	}
	return nc, server.Close
}

func TestRefreshPopulatesLocalState(t *testing.T) {
	nc, done := newTestCenter(t, &notificationStub{feed: testFeed(), unread: 2})
	defer done()

	if got := nc.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount() = %d; want 2", got)
	}
	if got := nc.Total(); got != 3 {
		t.Errorf("Total() = %d; want 3", got)
	}
	if got := len(nc.Notifications()); got != 3 {
		t.Errorf("len(Notifications()) = %d; want 3", got)
	}
}

func TestMarkReadOptimistic(t *testing.T) {
	stub := &notificationStub{feed: testFeed(), unread: 2}
	nc, done := newTestCenter(t, stub)
	defer done()

	nc.MarkRead(context.Background(), "n1")

	if got := nc.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d; want 1", got)
	}
	for _, n := range nc.Notifications() {
		if n.ID == "n1" && !n.IsRead {
			t.Error("n1 not marked read locally")
		}
	}
	if len(stub.reads) != 1 {
		t.Errorf("server saw %d mark-read calls; want 1", len(stub.reads))
	}

	// Marking an already-read entry changes nothing.
	nc.MarkRead(context.Background(), "n3")
	if got := nc.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() after re-marking read entry = %d; want 1", got)
	}
}

// The local mutation sticks even when the server call fails; the next
// Refresh is the re-sync path.
func TestMarkAllReadOptimisticOnFailure(t *testing.T) {
	stub := &notificationStub{feed: testFeed(), unread: 2, failMutates: true}
	nc, done := newTestCenter(t, stub)
	defer done()

	nc.MarkAllRead(context.Background())

	if got := nc.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() = %d; want 0 despite server failure", got)
	}
	for _, n := range nc.Notifications() {
		if !n.IsRead {
			t.Errorf("notification %s not marked read locally", n.ID)
		}
	}
	if stub.readAll != 1 {
		t.Errorf("server saw %d read-all calls; want 1", stub.readAll)
	}
}

func TestDeleteOptimistic(t *testing.T) {
	stub := &notificationStub{feed: testFeed(), unread: 2, failMutates: true}
	nc, done := newTestCenter(t, stub)
	defer done()

	nc.Delete(context.Background(), "n1")

	if got := len(nc.Notifications()); got != 2 {
		t.Errorf("len(Notifications()) = %d; want 2 despite server failure", got)
	}
	if got := nc.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d; want 1 (deleted entry was unread)", got)
	}
	if got := nc.Total(); got != 2 {
		t.Errorf("Total() = %d; want 2", got)
	}
}

func TestRefreshResyncsAfterFailedMutation(t *testing.T) {
	stub := &notificationStub{feed: testFeed(), unread: 2, failMutates: true}
	nc, done := newTestCenter(t, stub)
	defer done()

	nc.MarkAllRead(context.Background())
	if got := nc.UnreadCount(); got != 0 {
		t.Fatalf("UnreadCount() = %d; want 0", got)
	}

	// Refresh restores the server's truth: the failed mutation never landed.
	if err := nc.Refresh(context.Background(), 1, 10); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if got := nc.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount() after re-sync = %d; want 2", got)
	}
}
