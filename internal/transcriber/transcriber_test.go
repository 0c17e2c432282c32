package transcriber

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
)

const testEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// memoryStore records saved transcriptions for assertions.
type memoryStore struct {
	transcriptions []*datastore.Transcription
	saveErr        error
}

func (m *memoryStore) Open() error  { return nil }
func (m *memoryStore) Close() error { return nil }
func (m *memoryStore) SaveRecording(rec *datastore.Recording) error {
	return nil
}
func (m *memoryStore) GetRecordings(limit int) ([]datastore.Recording, error) {
	return nil, nil
}
func (m *memoryStore) SaveTranscription(tr *datastore.Transcription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.transcriptions = append(m.transcriptions, tr)
	return nil
}
func (m *memoryStore) GetTranscriptions(limit int) ([]datastore.Transcription, error) {
	return nil, nil
}
func (m *memoryStore) ExpireBefore(cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestService(apiKey string, ds datastore.Interface) *Service {
	return New(conf.TranscriptionSettings{
		APIKey:   apiKey,
		Endpoint: testEndpoint,
		Model:    "whisper-1",
		Language: "en",
		Timeout:  5 * time.Second,
	}, ds)
}

func TestTranscribeDisabledProducesMock(t *testing.T) {
	store := &memoryStore{}
	s := newTestService("", store)

	tr := s.Transcribe(context.Background(), []byte("audio"), "tx-1", 4.2)

	require.NotNil(t, tr)
	assert.Equal(t, "tx-1", tr.ID)
	assert.True(t, tr.IsMock)
	assert.InDelta(t, mockConfidence, tr.Confidence, 0.0001)
	assert.GreaterOrEqual(t, tr.Duration, 3.0)
	assert.Less(t, tr.Duration, 8.0)
	assert.Contains(t, mockTexts, tr.Text)
	require.Len(t, store.transcriptions, 1)
	assert.Same(t, tr, store.transcriptions[0])
}

func TestTranscribeRemoteSuccess(t *testing.T) {
	store := &memoryStore{}
	s := newTestService("sk-test", store)
	httpmock.ActivateNonDefault(s.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", req.FormValue("model"))
			assert.Equal(t, "json", req.FormValue("response_format"))
			assert.Equal(t, "en", req.FormValue("language"))
			return httpmock.NewJsonResponse(200, map[string]string{
				"text": "Engine 3 on scene, smoke showing from second floor",
			})
		})

	tr := s.Transcribe(context.Background(), []byte("audio"), "tx-1", 4.2)

	require.NotNil(t, tr)
	assert.False(t, tr.IsMock)
	assert.Equal(t, "Engine 3 on scene, smoke showing from second floor", tr.Text)
	assert.InDelta(t, 0.95, tr.Confidence, 0.0001)
	assert.InDelta(t, 4.2, tr.Duration, 0.0001)
	require.Len(t, store.transcriptions, 1)
}

func TestTranscribeFallsBackOnServerError(t *testing.T) {
	store := &memoryStore{}
	s := newTestService("sk-test", store)
	httpmock.ActivateNonDefault(s.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(500, "upstream unavailable"))

	tr := s.Transcribe(context.Background(), []byte("audio"), "tx-1", 4.2)

	require.NotNil(t, tr)
	assert.True(t, tr.IsMock)
	assert.InDelta(t, mockConfidence, tr.Confidence, 0.0001)
}

func TestTranscribeFallsBackOnEmptyText(t *testing.T) {
	store := &memoryStore{}
	s := newTestService("sk-test", store)
	httpmock.ActivateNonDefault(s.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewJsonResponderOrPanic(200, map[string]string{"text": ""}))

	tr := s.Transcribe(context.Background(), []byte("audio"), "tx-1", 4.2)

	require.NotNil(t, tr)
	assert.True(t, tr.IsMock)
}

func TestTranscribeSurvivesPersistenceFailure(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	s := newTestService("", store)

	tr := s.Transcribe(context.Background(), nil, "tx-1", 0)

	require.NotNil(t, tr)
	assert.True(t, tr.IsMock)
}

func TestTranscribeNilDatastore(t *testing.T) {
	s := newTestService("", nil)

	tr := s.Transcribe(context.Background(), nil, "tx-1", 0)
	require.NotNil(t, tr)
}
