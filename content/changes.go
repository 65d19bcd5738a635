package content

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names the kind of row change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// EventMask selects which event types a channel receives.
type EventMask uint8

const (
	MaskInsert EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	AllEvents = MaskInsert | MaskUpdate | MaskDelete
)

// Has reports whether t is selected by the mask.
func (m EventMask) Has(t EventType) bool {
	switch t {
	case EventInsert:
		return m&MaskInsert != 0
	case EventUpdate:
		return m&MaskUpdate != 0
	case EventDelete:
		return m&MaskDelete != 0
	}
	return false
}

// Change is one row-level notification.
type Change struct {
	Table string
	Type  EventType
	ID    string
	Slug  string
	At    time.Time
}

// Notifier hands out change channels for a table.
type Notifier interface {
	Subscribe(ctx context.Context, table string, mask EventMask) (*Channel, error)
	Unsubscribe(ch *Channel) error
}

// ErrHubClosed is returned by Subscribe after the hub has been closed.
var ErrHubClosed = errors.New("content: change hub closed")

const defaultChannelBuffer = 16

// Channel is a subscription to one table's changes. Its event stream is
// closed when the channel is unsubscribed or the hub shuts down.
type Channel struct {
	ID    string
	Table string

	mask   EventMask
	events chan Change
}

// Events returns the receive side of the channel.
func (c *Channel) Events() <-chan Change {
	return c.events
}

// Hub fans row changes out to subscribed channels. Publishing never blocks:
// when a channel's buffer is full the change is dropped for that channel,
// since an undelivered change already guarantees the subscriber refetches.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	buffer   int
	closed   bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]*Channel),
		buffer:   defaultChannelBuffer,
	}
}

// Subscribe opens a channel for table receiving the event types in mask.
func (h *Hub) Subscribe(ctx context.Context, table string, mask EventMask) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	ch := &Channel{
		ID:     uuid.NewString(),
		Table:  table,
		mask:   mask,
		events: make(chan Change, h.buffer),
	}
	h.channels[ch.ID] = ch
	return ch, nil
}

// Unsubscribe stops delivery to ch and closes its event stream. Unsubscribing
// twice is a no-op.
func (h *Hub) Unsubscribe(ch *Channel) error {
	if ch == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[ch.ID]; !ok {
		return nil
	}
	delete(h.channels, ch.ID)
	close(ch.events)
	return nil
}

// Publish delivers c to every channel watching its table and event type.
func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.channels {
		if ch.Table != c.Table || !ch.mask.Has(c.Type) {
			continue
		}
		select {
		case ch.events <- c:
		default:
		}
	}
}

// Subscribers returns the number of open channels.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Close drops every channel. Subscribers see their event stream close.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.channels {
		delete(h.channels, id)
		close(ch.events)
	}
}
