// Package live keeps a mounted listing view in sync with the content store.
//
// A View owns its state and one Subscription. Mounting starts the first
// fetch and opens the subscription; every change on the posts table triggers
// a full background refetch. Each fetch carries a sequence number and only a
// result newer than the last applied one may replace the state, so
// overlapping refetches settle on the freshest data regardless of the order
// they finish in. Unmounting closes the subscription; fetches still in flight
// finish but their results are dropped.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eringen/livepress/content"
)

// DefaultPageSize is how many items a collapsed listing shows.
const DefaultPageSize = 6

// LoadErrorMessage is the notice shown when a fetch fails.
const LoadErrorMessage = "Error loading posts"

var (
	ErrAlreadyMounted = errors.New("live: view already mounted")
	ErrViewClosed     = errors.New("live: view unmounted")
)

// Loader produces listing snapshots. *content.Fetcher implements it.
type Loader interface {
	LoadContentView(ctx context.Context) (content.View, error)
}

// Notice is a transient message for the user.
type Notice struct {
	Message string
	Err     error
}

// State is a snapshot of a view.
type State struct {
	InitialLoading     bool
	BackgroundUpdating bool
	Featured           *content.Record
	Items              []content.Record
	Expanded           bool
	PageSize           int
}

// Visible returns the items to render: the first PageSize unless expanded.
func (s State) Visible() []content.Record {
	if s.Expanded || len(s.Items) <= s.PageSize {
		return s.Items
	}
	return s.Items[:s.PageSize]
}

// HasMore reports whether items are hidden behind the page cap.
func (s State) HasMore() bool {
	return !s.Expanded && len(s.Items) > s.PageSize
}

// Empty reports whether there is nothing to show.
func (s State) Empty() bool {
	return s.Featured == nil && len(s.Items) == 0
}

// Option configures a View.
type Option func(*View)

// WithPageSize sets the collapsed item count.
func WithPageSize(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.state.PageSize = n
		}
	}
}

// WithLogger sets the logger; echo.Logger satisfies Logger.
func WithLogger(l Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// View is the in-memory state of one mounted listing.
type View struct {
	loader Loader
	logger Logger

	mu         sync.Mutex
	state      State
	mounted    bool
	closed     bool
	seq        uint64 // last issued fetch
	applied    uint64 // newest fetch whose result is in state
	background int    // background fetches in flight
	sub        *Subscription

	changed chan struct{}
	notices chan Notice
	wg      sync.WaitGroup
}

// NewView creates an unmounted view reading from loader.
func NewView(loader Loader, opts ...Option) *View {
	v := &View{
		loader:  loader,
		logger:  defaultLogger(),
		state:   State{PageSize: DefaultPageSize},
		changed: make(chan struct{}, 1),
		notices: make(chan Notice, 8),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount opens the view's subscription on n and starts the initial fetch. A
// view mounts at most once.
func (v *View) Mount(ctx context.Context, n content.Notifier) error {
	v.mu.Lock()
	switch {
	case v.closed:
		v.mu.Unlock()
		return ErrViewClosed
	case v.mounted:
		v.mu.Unlock()
		return ErrAlreadyMounted
	}
	v.mounted = true
	v.state.InitialLoading = true
	v.mu.Unlock()

	sub := NewSubscription(n, content.PostsTable, func(content.Change) {
		v.Refresh(ctx)
	}, v.logger)
	if err := sub.Open(ctx); err != nil {
		v.mu.Lock()
		v.mounted = false
		v.closed = true
		v.state.InitialLoading = false
		v.mu.Unlock()
		return fmt.Errorf("live: open subscription: %w", err)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		sub.Close()
		return ErrViewClosed
	}
	v.sub = sub
	v.mu.Unlock()

	v.start(ctx, false)
	return nil
}

// Refresh refetches in the background. It is a no-op on an unmounted view.
func (v *View) Refresh(ctx context.Context) {
	v.start(ctx, true)
}

// Expand lifts the page cap for the rest of the view's life.
func (v *View) Expand() {
	v.mu.Lock()
	if v.state.Expanded {
		v.mu.Unlock()
		return
	}
	v.state.Expanded = true
	v.mu.Unlock()
	v.signal()
}

// Snapshot returns the current state. Item slices are replaced, never
// modified, so the snapshot stays valid after later updates.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Mounted reports whether the view is live.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Changed signals after the state changed. Signals coalesce; read Snapshot
// after each one.
func (v *View) Changed() <-chan struct{} {
	return v.changed
}

// Notices delivers transient user messages. Notices are dropped when the
// buffer is full.
func (v *View) Notices() <-chan Notice {
	return v.notices
}

// Unmount closes the subscription. Results of fetches still in flight are
// discarded when they arrive.
func (v *View) Unmount() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mounted = false
	sub := v.sub
	v.sub = nil
	v.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			v.logger.Warnf("close subscription: %v", err)
		}
	}
}

// Wait blocks until every fetch started so far has settled.
func (v *View) Wait() {
	v.wg.Wait()
}

func (v *View) start(ctx context.Context, background bool) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.seq++
	n := v.seq
	if background {
		v.background++
		v.state.BackgroundUpdating = true
	}
	v.wg.Add(1)
	v.mu.Unlock()

	// Unmounting suppresses the result instead of cancelling the query.
	fctx := context.WithoutCancel(ctx)
	go func() {
		defer v.wg.Done()
		view, err := v.loader.LoadContentView(fctx)
		v.settle(n, background, view, err)
	}()
}

func (v *View) settle(n uint64, background bool, view content.View, err error) {
	v.mu.Lock()
	if background {
		v.background--
		v.state.BackgroundUpdating = v.background > 0
	}
	v.state.InitialLoading = false
	if !v.mounted {
		v.mu.Unlock()
		v.logger.Debugf("discarding fetch #%d: view unmounted", n)
		return
	}
	stale := n <= v.applied
	if err == nil && !stale {
		v.state.Featured = view.Featured
		v.state.Items = view.Items
		v.applied = n
	}
	v.mu.Unlock()

	switch {
	case err != nil && stale:
		v.logger.Debugf("fetch #%d failed after a newer result: %v", n, err)
	case err != nil:
		v.logger.Errorf("fetch #%d: %v", n, err)
		v.notify(Notice{Message: LoadErrorMessage, Err: err})
	case stale:
		v.logger.Debugf("discarding stale fetch #%d", n)
	}
	v.signal()
}

func (v *View) signal() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

func (v *View) notify(n Notice) {
	select {
	case v.notices <- n:
	default:
	}
}
