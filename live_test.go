package livepress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eringen/livepress/content"
)

type liveMessage struct {
	Type               string `json:"type"`
	InitialLoading     bool   `json:"initialLoading"`
	BackgroundUpdating bool   `json:"backgroundUpdating"`
	Expanded           bool   `json:"expanded"`
	HasMore            bool   `json:"hasMore"`
	HTML               string `json:"html"`
	Message            string `json:"message"`
}

func dialLive(t *testing.T, a *App) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(a.Echo)
	t.Cleanup(srv.Close)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// waitFor reads messages until one satisfies ok.
func waitFor(t *testing.T, ws *websocket.Conn, what string, ok func(liveMessage) bool) liveMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		ws.SetReadDeadline(deadline)
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if ok(msg) {
			return msg
		}
	}
}

func loaded(m liveMessage) bool { return m.Type == "state" && !m.InitialLoading }

func TestLiveViewUpdatesOnChange(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)
	ws := dialLive(t, a)

	first := waitFor(t, ws, "initial state", loaded)
	if !strings.Contains(first.HTML, `href="/blog/a/"`) {
		t.Error("featured record missing from the live fragment")
	}
	if n := strings.Count(first.HTML, `<article class="card">`); n != 6 {
		t.Errorf("initial fragment has %d cards, want 6", n)
	}
	if !first.HasMore || first.Expanded {
		t.Errorf("initial flags: hasMore=%v expanded=%v", first.HasMore, first.Expanded)
	}

	if err := ws.WriteJSON(map[string]string{"action": "expand"}); err != nil {
		t.Fatalf("send expand: %v", err)
	}
	expanded := waitFor(t, ws, "expanded state", func(m liveMessage) bool { return loaded(m) && m.Expanded })
	if n := strings.Count(expanded.HTML, `<article class="card">`); n != 7 {
		t.Errorf("expanded fragment has %d cards, want 7", n)
	}

	rec := content.Record{Title: "Breaking", Slug: "breaking", CreatedAt: baseTime.Add(time.Hour)}
	if _, err := a.Store.Save(context.Background(), &rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	updated := waitFor(t, ws, "state with the new record", func(m liveMessage) bool {
		return loaded(m) && !m.BackgroundUpdating && strings.Contains(m.HTML, `href="/blog/breaking/"`)
	})
	if !updated.Expanded {
		t.Error("refetch collapsed the expanded view")
	}
	if n := strings.Count(updated.HTML, `<article class="card">`); n != 8 {
		t.Errorf("updated fragment has %d cards, want 8", n)
	}
}

func TestLiveViewNoticeOnFailure(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)
	a.Loader = failingLoader{err: context.DeadlineExceeded}
	ws := dialLive(t, a)

	notice := waitFor(t, ws, "notice", func(m liveMessage) bool { return m.Type == "notice" })
	if notice.Message != "Error loading posts" {
		t.Errorf("notice = %q", notice.Message)
	}
}

func TestLiveViewUnmountsOnClose(t *testing.T) {
	a := setupTestApp(t)
	ws := dialLive(t, a)
	waitFor(t, ws, "initial state", loaded)

	hub := a.Store.Changes()
	if hub.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", hub.Subscribers())
	}
	ws.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription still open after the socket closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLiveViewSurvivesSteadyWrites(t *testing.T) {
	a := setupTestApp(t)
	a.liveTimeouts = liveTimeouts{
		ping:  30 * time.Millisecond,
		read:  150 * time.Millisecond,
		write: time.Second,
	}
	ws := dialLive(t, a)
	waitFor(t, ws, "initial state", loaded)

	// Changes arrive faster than the ping interval for several read
	// timeouts; the client only ever answers pings.
	const writes = 30
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < writes; i++ {
			rec := content.Record{
				Title:     fmt.Sprintf("Write %d", i),
				Slug:      fmt.Sprintf("w%d", i),
				CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
			}
			if _, err := a.Store.Save(context.Background(), &rec); err != nil {
				t.Errorf("Save failed: %v", err)
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	last := fmt.Sprintf(`href="/blog/w%d/"`, writes-1)
	waitFor(t, ws, "state with the last write", func(m liveMessage) bool {
		return loaded(m) && strings.Contains(m.HTML, last)
	})
	<-done
}
