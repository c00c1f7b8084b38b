package tasks

import (
	"sync"

	"github.com/feedstream/feedstream/app/feed"
)

type EventType string

const (
	EventSyncStarted   EventType = "sync_started"
	EventFeedRefreshed EventType = "feed_refreshed"
	EventSyncFinished  EventType = "sync_finished"
)

// Event is one progress notification of a sync run, fanned out to
// subscribers (the SSE endpoint among them).
type Event struct {
	Type    EventType            `json:"type"`
	Total   int                  `json:"total,omitempty"`
	Done    int                  `json:"done,omitempty"`
	Outcome *feed.RefreshOutcome `json:"outcome,omitempty"`
}

// Events is an in-process broadcast hub. Slow subscribers are skipped
// rather than blocking the publisher.
type Events struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewEvents() *Events {
	return &Events{subscribers: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned function removes it and
// closes its channel.
func (e *Events) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

func (e *Events) Publish(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ch := range e.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
