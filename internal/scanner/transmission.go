// Package scanner defines radio transmission events and the transmission source.
package scanner

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the dispatch service a transmission belongs to.
type Kind string

const (
	KindPolice Kind = "police"
	KindFire   Kind = "fire"
	KindEMS    Kind = "ems"
)

// Transmission is one discrete scanner radio event. It is immutable after
// creation and handed between pipeline stages by value.
type Transmission struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Unit      string    `json:"unit"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransmission assigns an id and timestamp to a raw scanner event.
func NewTransmission(kind Kind, unit, message string) Transmission {
	return Transmission{
		ID:        uuid.NewString(),
		Kind:      kind,
		Unit:      unit,
		Message:   message,
		Timestamp: time.Now(),
	}
}
