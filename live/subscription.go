package live

import (
	"context"
	"sync"

	"github.com/eringen/livepress/content"
)

// SubState is the lifecycle state of a Subscription.
type SubState int

const (
	Inactive SubState = iota
	Active
)

func (s SubState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Subscription owns one change channel on a table and calls its handler for
// every insert, update or delete delivered on it.
type Subscription struct {
	notifier content.Notifier
	table    string
	handler  func(content.Change)
	logger   Logger

	mu     sync.Mutex
	state  SubState
	ch     *content.Channel
	done   chan struct{}
	exited chan struct{}
}

// NewSubscription prepares an inactive subscription on table.
func NewSubscription(n content.Notifier, table string, handler func(content.Change), logger Logger) *Subscription {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Subscription{
		notifier: n,
		table:    table,
		handler:  handler,
		logger:   logger,
	}
}

// State returns the current lifecycle state.
func (s *Subscription) State() SubState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open subscribes to every event type on the table and starts delivering
// changes to the handler. Opening an active subscription does nothing.
func (s *Subscription) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Active {
		return nil
	}
	ch, err := s.notifier.Subscribe(ctx, s.table, content.AllEvents)
	if err != nil {
		return err
	}
	s.ch = ch
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	s.state = Active
	go s.listen(ch, s.done, s.exited)
	return nil
}

func (s *Subscription) listen(ch *content.Channel, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	for {
		select {
		case <-done:
			return
		case c, ok := <-ch.Events():
			if !ok {
				select {
				case <-done:
				default:
					// Not retried: the view keeps showing its last state.
					s.logger.Warnf("change channel %s on %s dropped", ch.ID, s.table)
				}
				return
			}
			select {
			case <-done:
				return
			default:
			}
			s.handler(c)
		}
	}
}

// Close unsubscribes and stops delivery. It returns once the handler is no
// longer running, so the handler must not call Close itself. Closing an
// inactive subscription does nothing.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.state == Inactive {
		s.mu.Unlock()
		return nil
	}
	close(s.done)
	ch, exited := s.ch, s.exited
	s.ch = nil
	s.state = Inactive
	s.mu.Unlock()

	err := s.notifier.Unsubscribe(ch)
	<-exited
	return err
}
