package recorder

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/errors"
)

func newTestRecorder(maxSession time.Duration) *Recorder {
	return New(conf.RecordingSettings{
		WindowMin:  time.Millisecond,
		WindowMax:  5 * time.Millisecond,
		MaxSession: maxSession,
	}, nil)
}

func TestStartRejectsSecondSession(t *testing.T) {
	r := newTestRecorder(0)

	require.NoError(t, r.Start("tx-1"))
	err := r.Start("tx-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionActive)

	// first session is unaffected
	metadata, _, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, "tx-1", metadata.ID)
}

func TestConcurrentStartsOnlyOneSucceeds(t *testing.T) {
	r := newTestRecorder(0)

	const attempts = 20
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Start("tx-race"); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
}

func TestStopYieldsChunkCountAndDuration(t *testing.T) {
	r := newTestRecorder(0)

	require.NoError(t, r.Start("tx-1"))
	for i := 0; i < 5; i++ {
		r.AddChunk([]byte{0x01, 0x02})
	}

	metadata, audio, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, metadata)

	assert.Equal(t, 5, metadata.Size)
	assert.GreaterOrEqual(t, metadata.Duration, 0.0)
	assert.Len(t, audio, 10)
	assert.Contains(t, metadata.Filename, "tx-1_")
}

func TestStopWithNoSessionIsNoOp(t *testing.T) {
	r := newTestRecorder(0)

	metadata, audio, err := r.Stop()
	require.NoError(t, err)
	assert.Nil(t, metadata)
	assert.Nil(t, audio)
}

func TestAddChunkIgnoredWhenClosed(t *testing.T) {
	r := newTestRecorder(0)

	r.AddChunk([]byte{0xFF})
	require.NoError(t, r.Start("tx-1"))
	metadata, _, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, metadata.Size)
}

func TestChunksClearedBetweenSessions(t *testing.T) {
	r := newTestRecorder(0)

	require.NoError(t, r.Start("tx-1"))
	r.AddChunk([]byte{0x01})
	_, _, err := r.Stop()
	require.NoError(t, err)

	require.NoError(t, r.Start("tx-2"))
	metadata, _, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, metadata.Size)
}

func TestWatchdogForcesCloseOfStaleSession(t *testing.T) {
	r := newTestRecorder(50 * time.Millisecond)

	done := make(chan *datastore.Recording, 1)
	r.OnForceClose = func(metadata *datastore.Recording, _ []byte) {
		done <- metadata
	}

	require.NoError(t, r.Start("tx-stale"))

	select {
	case metadata := <-done:
		assert.Equal(t, "tx-stale", metadata.ID)
		assert.False(t, r.Recording())
	case <-time.After(time.Second):
		t.Fatal("watchdog did not close the stale session")
	}

	// a new session can open after the forced close
	require.NoError(t, r.Start("tx-next"))
	_, _, err := r.Stop()
	require.NoError(t, err)
}

func TestWatchdogDoesNotFireAfterNormalStop(t *testing.T) {
	r := newTestRecorder(30 * time.Millisecond)

	forced := make(chan struct{}, 1)
	r.OnForceClose = func(*datastore.Recording, []byte) {
		forced <- struct{}{}
	}

	require.NoError(t, r.Start("tx-1"))
	_, _, err := r.Stop()
	require.NoError(t, err)

	select {
	case <-forced:
		t.Fatal("watchdog fired for an already-closed session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartErrorIsStateCategory(t *testing.T) {
	r := newTestRecorder(0)

	require.NoError(t, r.Start("tx-1"))
	err := r.Start("tx-1")
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}
