package livepress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/eringen/livepress/live"
)

const liveReadLimit = 512

// liveTimeouts bounds a live connection. Browsers answer pings on their
// own, so the read deadline is kept alive by pongs, and ping must be well
// under read.
type liveTimeouts struct {
	ping  time.Duration
	read  time.Duration
	write time.Duration
}

var defaultLiveTimeouts = liveTimeouts{
	ping:  25 * time.Second,
	read:  60 * time.Second,
	write: 10 * time.Second,
}

// liveState is sent whenever the mounted view changes. HTML is the rendered
// #content section.
type liveState struct {
	Type               string `json:"type"`
	InitialLoading     bool   `json:"initialLoading"`
	BackgroundUpdating bool   `json:"backgroundUpdating"`
	Expanded           bool   `json:"expanded"`
	HasMore            bool   `json:"hasMore"`
	HTML               string `json:"html"`
}

type liveNotice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type liveAction struct {
	Action string `json:"action"`
}

// handleLive upgrades to a WebSocket and mounts one view for the life of
// the connection.
func (a *App) handleLive(c echo.Context) error {
	ws, err := a.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already replied to the client.
		c.Logger().Warnf("live: upgrade: %v", err)
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	view := live.NewView(a.Loader,
		live.WithPageSize(a.Config.PageSize),
		live.WithLogger(c.Logger()),
	)
	if err := view.Mount(ctx, a.Notifier); err != nil {
		c.Logger().Errorf("live: mount: %v", err)
		return nil
	}
	defer view.Unmount()

	go a.readLive(ctx, cancel, ws, view)

	// A ticker, not time.After in the select: state writes must not push
	// the next ping back.
	ping := time.NewTicker(a.liveTimeouts.ping)
	defer ping.Stop()

	if err := a.writeState(ctx, ws, view.Snapshot()); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-view.Changed():
			if err := a.writeState(ctx, ws, view.Snapshot()); err != nil {
				c.Logger().Debugf("live: write: %v", err)
				return nil
			}
		case n := <-view.Notices():
			if err := a.writeJSON(ws, liveNotice{Type: "notice", Message: n.Message}); err != nil {
				c.Logger().Debugf("live: write: %v", err)
				return nil
			}
		case <-ping.C:
			deadline := time.Now().Add(a.liveTimeouts.write)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.Logger().Debugf("live: ping: %v", err)
				return nil
			}
		}
	}
}

func (a *App) readLive(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, view *live.View) {
	defer cancel()
	ws.SetReadLimit(liveReadLimit)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(a.liveTimeouts.read))
	})
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ws.SetReadDeadline(time.Now().Add(a.liveTimeouts.read))
		var msg liveAction
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Action {
		case "expand":
			view.Expand()
		case "refresh":
			view.Refresh(ctx)
		}
	}
}

func (a *App) writeState(ctx context.Context, ws *websocket.Conn, s live.State) error {
	html, err := renderString(ctx, a.Views.ContentSection(listing(s)))
	if err != nil {
		return err
	}
	return a.writeJSON(ws, liveState{
		Type:               "state",
		InitialLoading:     s.InitialLoading,
		BackgroundUpdating: s.BackgroundUpdating,
		Expanded:           s.Expanded,
		HasMore:            s.HasMore(),
		HTML:               string(html),
	})
}

func (a *App) writeJSON(ws *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ws.SetWriteDeadline(time.Now().Add(a.liveTimeouts.write))
	return ws.WriteMessage(websocket.TextMessage, b)
}
