package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/observability"
)

// ItemState tracks a queue item through its lifecycle.
type ItemState string

const (
	StatePending  ItemState = "pending"
	StatePosting  ItemState = "posting"
	StatePosted   ItemState = "posted"
	StateRetrying ItemState = "retrying"
)

// maxAttempts caps retries per item before it is dropped.
const maxAttempts = 3

type queueItem struct {
	summary  *classifier.IncidentSummary
	state    ItemState
	attempts int
}

// Queue serializes publishing of incident summaries. A single worker
// drains it strictly FIFO; the post-attempt pacing enforces platform rate
// limits, so two publish attempts never run concurrently.
type Queue struct {
	settings conf.PublisherSettings
	poster   Poster
	metrics  *observability.Metrics

	mu     sync.Mutex
	items  []*queueItem
	posted map[string]struct{} // summary ids seen, process lifetime
	wake   chan struct{}
}

// NewQueue creates a publishing queue draining into poster. metrics may
// be nil.
func NewQueue(settings conf.PublisherSettings, poster Poster, metrics *observability.Metrics) *Queue {
	return &Queue{
		settings: settings,
		poster:   poster,
		metrics:  metrics,
		posted:   make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// ShouldPost is the policy gate applied on top of the classifier verdict.
// Low-severity incidents are never posted even when classified newsworthy.
func ShouldPost(summary *classifier.IncidentSummary) bool {
	return summary.Severity != classifier.SeverityLow
}

// Enqueue adds a summary for publishing. Summaries that are not worth
// posting, have no social text, fail the ShouldPost gate, or have already
// been seen are silently ignored.
func (q *Queue) Enqueue(summary *classifier.IncidentSummary) {
	if !summary.WorthPosting || summary.SocialMedia == nil || !ShouldPost(summary) {
		return
	}

	q.mu.Lock()
	if _, seen := q.posted[summary.ID]; seen {
		q.mu.Unlock()
		return
	}
	q.posted[summary.ID] = struct{}{}
	q.items = append(q.items, &queueItem{summary: summary, state: StatePending})
	q.mu.Unlock()

	serviceLogger.Debug("queued summary for publishing",
		"id", summary.ID,
		"category", summary.Category,
		"severity", summary.Severity)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of items waiting in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// PostedCount returns the number of distinct summary ids ever enqueued.
func (q *Queue) PostedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.posted)
}

// Run drains the queue until ctx is cancelled. After every publish attempt
// the worker waits before touching the next item: the success interval in
// steady state, the failure backoff after an error.
func (q *Queue) Run(ctx context.Context) {
	for {
		item := q.peek()
		if item == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}

		item.state = StatePosting
		item.attempts++
		err := q.poster.Post(ctx, item.summary)

		if q.metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			q.metrics.PublishAttemptsTotal.WithLabelValues(outcome).Inc()
		}

		var wait time.Duration
		if err != nil {
			serviceLogger.Error("error posting to social media",
				"id", item.summary.ID,
				"attempt", item.attempts,
				"error", err)
			if item.attempts >= maxAttempts {
				serviceLogger.Warn("dropping summary after exhausted retries",
					"id", item.summary.ID)
				q.pop()
			} else {
				item.state = StateRetrying
			}
			wait = q.settings.FailureBackoff
		} else {
			item.state = StatePosted
			q.pop()
			wait = q.settings.SuccessInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// peek returns the head item without removing it, or nil when empty.
func (q *Queue) peek() *queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// pop removes the head item.
func (q *Queue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		q.items = q.items[1:]
	}
}
