package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/sanduskycurrent/scanner-stream/internal/errors"
)

// performAutoMigration runs GORM auto-migration for the pipeline models.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Recording{}, &Transcription{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto-migration").
			Build()
	}
	return nil
}

// SaveRecording inserts or updates recording metadata.
func (ds *DataStore) SaveRecording(rec *Recording) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ds.DB.Save(rec).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save-recording").
			Context("id", rec.ID).
			Build()
	}
	return nil
}

// GetRecordings returns persisted recordings, newest first.
func (ds *DataStore) GetRecordings(limit int) ([]Recording, error) {
	var recordings []Recording
	query := ds.DB.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recordings).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-recordings").
			Build()
	}
	return recordings, nil
}

// SaveTranscription inserts or updates a transcription.
func (ds *DataStore) SaveTranscription(tr *Transcription) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ds.DB.Save(tr).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save-transcription").
			Context("id", tr.ID).
			Build()
	}
	return nil
}

// GetTranscriptions returns persisted transcriptions, newest first.
func (ds *DataStore) GetTranscriptions(limit int) ([]Transcription, error) {
	var transcriptions []Transcription
	query := ds.DB.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&transcriptions).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-transcriptions").
			Build()
	}
	return transcriptions, nil
}

// ExpireBefore deletes rows with a timestamp strictly before cutoff.
func (ds *DataStore) ExpireBefore(cutoff time.Time) (int64, error) {
	var total int64

	res := ds.DB.Where("timestamp < ?", cutoff).Delete(&Recording{})
	if res.Error != nil {
		return total, errors.New(res.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "expire-recordings").
			Build()
	}
	total += res.RowsAffected

	res = ds.DB.Where("timestamp < ?", cutoff).Delete(&Transcription{})
	if res.Error != nil {
		return total, errors.New(res.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "expire-transcriptions").
			Build()
	}
	total += res.RowsAffected

	return total, nil
}
