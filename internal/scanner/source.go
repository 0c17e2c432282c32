package scanner

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// canned transmission table used by the simulated source. A production
// deployment replaces Source with a real radio decoder feed.
var mockTransmissions = []struct {
	Kind    Kind
	Unit    string
	Message string
}{
	{KindPolice, "Unit 12", "Traffic stop at Cleveland and Perkins"},
	{KindFire, "Engine 3", "Responding to fire alarm at Sandusky Mall"},
	{KindEMS, "Medic 1", "Transport to Firelands Medical Center"},
	{KindPolice, "Unit 7", "Clearing from Venice Road call"},
	{KindPolice, "Unit 23", "Request backup at Columbus Avenue"},
	{KindFire, "Ladder 2", "On scene, nothing showing"},
	{KindEMS, "Medic 3", "Patient refusal, returning to station"},
	{KindPolice, "Unit 15", "Code 4, situation under control"},
}

// Source produces transmission events on an irregular schedule.
type Source struct {
	settings conf.ScannerSettings
	rng      *rand.Rand
	logger   *slog.Logger
}

// NewSource creates a transmission source with the given interval settings.
func NewSource(settings conf.ScannerSettings) *Source {
	return &Source{
		settings: settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logging.ForService("scanner"),
	}
}

// Next returns a randomly chosen canned transmission with a fresh id.
func (s *Source) Next() Transmission {
	entry := mockTransmissions[s.rng.Intn(len(mockTransmissions))]
	return NewTransmission(entry.Kind, entry.Unit, entry.Message)
}

// interval returns a jittered delay within the configured range.
func (s *Source) interval() time.Duration {
	spread := s.settings.IntervalMax - s.settings.IntervalMin
	if spread <= 0 {
		return s.settings.IntervalMin
	}
	return s.settings.IntervalMin + time.Duration(s.rng.Int63n(int64(spread)))
}

// Run emits transmissions on out until ctx is cancelled. The channel is
// not closed by Run; the caller owns it.
func (s *Source) Run(ctx context.Context, out chan<- Transmission) {
	timer := time.NewTimer(s.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("transmission source stopped")
			return
		case <-timer.C:
			tx := s.Next()
			s.logger.Debug("emitting transmission",
				"id", tx.ID,
				"kind", tx.Kind,
				"unit", tx.Unit)
			select {
			case out <- tx:
			case <-ctx.Done():
				return
			}
			timer.Reset(s.interval())
		}
	}
}
