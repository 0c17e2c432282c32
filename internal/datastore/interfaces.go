package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

// Interface defines the persistence operations used by the pipeline.
type Interface interface {
	Open() error
	Close() error
	SaveRecording(rec *Recording) error
	GetRecordings(limit int) ([]Recording, error)
	SaveTranscription(tr *Transcription) error
	GetTranscriptions(limit int) ([]Transcription, error)
	// ExpireBefore deletes recordings and transcriptions with a timestamp
	// strictly before cutoff, and returns the number of rows removed.
	// Entries exactly at cutoff are retained.
	ExpireBefore(cutoff time.Time) (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a datastore instance based on the provided settings.
// Only SQLite is supported; other backends fall back to it.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{Settings: settings}
}
