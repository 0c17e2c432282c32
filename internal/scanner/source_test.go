package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

func testSource() *Source {
	return NewSource(conf.ScannerSettings{
		IntervalMin: time.Millisecond,
		IntervalMax: 5 * time.Millisecond,
	})
}

func TestNextDrawsFromCannedTable(t *testing.T) {
	s := testSource()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		tx := s.Next()
		assert.NotEmpty(t, tx.ID)
		assert.False(t, tx.Timestamp.IsZero())
		assert.Contains(t, []Kind{KindPolice, KindFire, KindEMS}, tx.Kind)

		found := false
		for _, entry := range mockTransmissions {
			if entry.Message == tx.Message && entry.Unit == tx.Unit {
				found = true
				break
			}
		}
		assert.True(t, found, "message %q not in the canned table", tx.Message)
		seen[tx.ID] = struct{}{}
	}

	// every emission gets a fresh id
	assert.Len(t, seen, 50)
}

func TestIntervalStaysWithinRange(t *testing.T) {
	s := NewSource(conf.ScannerSettings{
		IntervalMin: 5 * time.Second,
		IntervalMax: 15 * time.Second,
	})

	for i := 0; i < 100; i++ {
		d := s.interval()
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.Less(t, d, 15*time.Second)
	}
}

func TestIntervalDegenerateRange(t *testing.T) {
	s := NewSource(conf.ScannerSettings{
		IntervalMin: 5 * time.Second,
		IntervalMax: 5 * time.Second,
	})
	assert.Equal(t, 5*time.Second, s.interval())
}

func TestRunEmitsUntilCancelled(t *testing.T) {
	s := testSource()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Transmission)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, out)
	}()

	var received []Transmission
	timeout := time.After(2 * time.Second)
	for len(received) < 3 {
		select {
		case tx := <-out:
			received = append(received, tx)
		case <-timeout:
			t.Fatal("source did not emit three transmissions in time")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("source did not stop after cancel")
	}

	require.Len(t, received, 3)
	assert.NotEqual(t, received[0].ID, received[1].ID)
}
