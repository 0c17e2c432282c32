package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanduskycurrent/scanner-stream/internal/audiostream"
	"github.com/sanduskycurrent/scanner-stream/internal/broadcast"
	"github.com/sanduskycurrent/scanner-stream/internal/classifier"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/datastore"
	"github.com/sanduskycurrent/scanner-stream/internal/scanner"
)

// stubStore serves canned query results.
type stubStore struct {
	recordings     []datastore.Recording
	transcriptions []datastore.Transcription
	err            error
}

func (s *stubStore) Open() error                                         { return nil }
func (s *stubStore) Close() error                                        { return nil }
func (s *stubStore) SaveRecording(rec *datastore.Recording) error        { return nil }
func (s *stubStore) SaveTranscription(tr *datastore.Transcription) error { return nil }
func (s *stubStore) ExpireBefore(cutoff time.Time) (int64, error)        { return 0, nil }

func (s *stubStore) GetRecordings(limit int) ([]datastore.Recording, error) {
	return s.recordings, s.err
}

func (s *stubStore) GetTranscriptions(limit int) ([]datastore.Transcription, error) {
	return s.transcriptions, s.err
}

func newTestServer(ds datastore.Interface) *Server {
	settings := &conf.Settings{}
	settings.WebServer.Port = "0"
	return New(settings, ds, broadcast.NewHub(), audiostream.NewHub(),
		classifier.New(conf.ClassificationSettings{}), nil)
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.WSClients)
	assert.Equal(t, 0, body.AudioClients)

	_, err := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestHandleRecordings(t *testing.T) {
	store := &stubStore{recordings: []datastore.Recording{
		{ID: "a", Filename: "a.mp3", Duration: 4.2, Timestamp: time.Now(), Size: 3},
	}}
	s := newTestServer(store)

	rec := doRequest(t, s, "/recordings")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []datastore.Recording
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "a", body[0].ID)
}

func TestHandleRecordingsWithoutDatastore(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(t, s, "/recordings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleRecordingsQueryError(t *testing.T) {
	s := newTestServer(&stubStore{err: errors.New("db locked")})

	rec := doRequest(t, s, "/recordings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleTranscriptions(t *testing.T) {
	store := &stubStore{transcriptions: []datastore.Transcription{
		{ID: "tx-1", Text: "Engine 3 on scene", Confidence: 0.95, Timestamp: time.Now()},
	}}
	s := newTestServer(store)

	rec := doRequest(t, s, "/transcriptions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []datastore.Transcription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Engine 3 on scene", body[0].Text)
}

func TestHandleIncidents(t *testing.T) {
	s := newTestServer(nil)

	s.Classifier.Classify(context.Background(), &datastore.Transcription{
		ID:   "tx-1",
		Text: "Engine 3 on scene, smoke showing from second floor",
	}, scanner.NewTransmission(scanner.KindFire, "Engine 3", "On scene"))

	rec := doRequest(t, s, "/incidents")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []classifier.IncidentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "tx-1", body[0].ID)
}
