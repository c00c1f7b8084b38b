package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/feedstream/feedstream/app/feed"
)

// batchProgress counts down the feeds of one sync run so the finished
// event fires exactly once, after the last feed.
type batchProgress struct {
	total int
	done  atomic.Int64
}

type RefreshFeedTask struct {
	Task
	ingester *feed.Ingester
	events   *Events
	force    bool
	batch    *batchProgress
}

func NewRefreshFeedTask(feedURL string, ingester *feed.Ingester, events *Events, force bool, batch *batchProgress) *RefreshFeedTask {
	return &RefreshFeedTask{
		Task:     NewTask(TaskTypeRefreshFeed, feedURL),
		ingester: ingester,
		events:   events,
		force:    force,
		batch:    batch,
	}
}

func (t *RefreshFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outcome := t.ingester.Run(ctx, t.FeedURL, t.force)

	if t.events != nil {
		done := 0
		total := 0
		if t.batch != nil {
			done = int(t.batch.done.Add(1))
			total = t.batch.total
		}

		t.events.Publish(Event{
			Type:    EventFeedRefreshed,
			Total:   total,
			Done:    done,
			Outcome: &outcome,
		})

		if t.batch != nil && done == total {
			t.events.Publish(Event{Type: EventSyncFinished, Total: total, Done: done})
		}
	}

	slog.Debug("Task completed",
		"type", t.GetType(),
		"feed", t.FeedURL,
		"duration", t.GetDuration(),
		"new", outcome.NewItems,
		"failed", outcome.ItemsFailed)

	if outcome.Error != "" {
		return fmt.Errorf("feed refresh failed: %s", outcome.Error)
	}

	return nil
}
