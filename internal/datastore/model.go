// Package datastore provides persistence for recordings and transcriptions.
package datastore

import "time"

// Recording holds the immutable metadata emitted when a capture session
// closes. ID matches the originating transmission id.
type Recording struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Filename  string    `json:"filename"`
	Duration  float64   `json:"duration"` // seconds
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Size      int       `json:"size"` // number of audio chunks captured
}

// Transcription is the timestamped text produced for one recording.
// ID matches the Recording id.
type Transcription struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Duration   float64   `json:"duration"` // seconds
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	IsMock     bool      `json:"isMock"`
}
