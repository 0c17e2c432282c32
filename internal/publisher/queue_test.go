package publisher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

// fakePoster records posts and can fail a configurable number of times.
type fakePoster struct {
	mu        sync.Mutex
	posted    []string
	failuresN int32 // fail this many posts before succeeding
	inFlight  int32
	overlap   atomic.Bool
}

func (p *fakePoster) Post(ctx context.Context, summary *classifier.IncidentSummary) error {
	if atomic.AddInt32(&p.inFlight, 1) > 1 {
		p.overlap.Store(true)
	}
	defer atomic.AddInt32(&p.inFlight, -1)

	time.Sleep(time.Millisecond)

	if atomic.AddInt32(&p.failuresN, -1) >= 0 {
		return errors.New("platform unavailable")
	}
	p.mu.Lock()
	p.posted = append(p.posted, summary.ID)
	p.mu.Unlock()
	return nil
}

func (p *fakePoster) postedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posted...)
}

func worthSummary(id string, severity classifier.Severity) *classifier.IncidentSummary {
	text := "incident summary"
	social := "🚨 incident update"
	return &classifier.IncidentSummary{
		ID:           id,
		WorthPosting: true,
		Summary:      &text,
		Severity:     severity,
		Category:     classifier.CategoryFire,
		SocialMedia:  &social,
		Timestamp:    time.Now(),
	}
}

func testQueueSettings() conf.PublisherSettings {
	return conf.PublisherSettings{
		Enabled:         true,
		SuccessInterval: time.Millisecond,
		FailureBackoff:  time.Millisecond,
	}
}

func TestShouldPostGatesLowSeverity(t *testing.T) {
	assert.False(t, ShouldPost(worthSummary("a", classifier.SeverityLow)))
	assert.True(t, ShouldPost(worthSummary("b", classifier.SeverityMedium)))
	assert.True(t, ShouldPost(worthSummary("c", classifier.SeverityHigh)))
	assert.True(t, ShouldPost(worthSummary("d", classifier.SeverityCritical)))
}

func TestEnqueueGates(t *testing.T) {
	q := NewQueue(testQueueSettings(), &fakePoster{}, nil)

	notWorth := worthSummary("a", classifier.SeverityHigh)
	notWorth.WorthPosting = false
	q.Enqueue(notWorth)
	assert.Equal(t, 0, q.Len())

	noSocial := worthSummary("b", classifier.SeverityHigh)
	noSocial.SocialMedia = nil
	q.Enqueue(noSocial)
	assert.Equal(t, 0, q.Len())

	// worth posting but low severity still fails the policy gate
	q.Enqueue(worthSummary("c", classifier.SeverityLow))
	assert.Equal(t, 0, q.Len())

	q.Enqueue(worthSummary("d", classifier.SeverityHigh))
	assert.Equal(t, 1, q.Len())
}

func TestEnqueueDeduplicatesByID(t *testing.T) {
	q := NewQueue(testQueueSettings(), &fakePoster{}, nil)

	q.Enqueue(worthSummary("dup", classifier.SeverityHigh))
	q.Enqueue(worthSummary("dup", classifier.SeverityHigh))

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, q.PostedCount())
}

func TestRunDrainsFIFO(t *testing.T) {
	poster := &fakePoster{}
	q := NewQueue(testQueueSettings(), poster, nil)

	q.Enqueue(worthSummary("first", classifier.SeverityHigh))
	q.Enqueue(worthSummary("second", classifier.SeverityMedium))
	q.Enqueue(worthSummary("third", classifier.SeverityCritical))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(poster.postedIDs()) == 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, []string{"first", "second", "third"}, poster.postedIDs())
	assert.Equal(t, 0, q.Len())
	assert.False(t, poster.overlap.Load(), "posts must never overlap")
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	poster := &fakePoster{failuresN: 2}
	q := NewQueue(testQueueSettings(), poster, nil)

	q.Enqueue(worthSummary("retry", classifier.SeverityHigh))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(poster.postedIDs()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, q.Len())
}

func TestRunDropsAfterExhaustedRetries(t *testing.T) {
	poster := &fakePoster{failuresN: 100}
	q := NewQueue(testQueueSettings(), poster, nil)

	q.Enqueue(worthSummary("doomed", classifier.SeverityHigh))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return q.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Empty(t, poster.postedIDs())
	// only maxAttempts posts were attempted
	assert.EqualValues(t, 100-maxAttempts, atomic.LoadInt32(&poster.failuresN))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := NewQueue(testQueueSettings(), &fakePoster{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
