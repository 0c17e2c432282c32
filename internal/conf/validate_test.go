package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Scanner.IntervalMin = 5 * time.Second
	s.Scanner.IntervalMax = 15 * time.Second
	s.Realtime.Recording.WindowMin = 3 * time.Second
	s.Realtime.Recording.WindowMax = 5 * time.Second
	s.Realtime.Recording.MaxSession = 30 * time.Second
	s.Realtime.Publisher.Enabled = true
	s.Realtime.Publisher.SuccessInterval = 30 * time.Second
	s.Realtime.Publisher.FailureBackoff = 5 * time.Second
	s.Realtime.Retention.Enabled = true
	s.Realtime.Retention.MaxAge = 24 * time.Hour
	s.Realtime.Retention.Interval = time.Hour
	return s
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(s *Settings) {}, false},
		{"zero scanner interval", func(s *Settings) {
			s.Scanner.IntervalMin = 0
		}, true},
		{"inverted scanner range", func(s *Settings) {
			s.Scanner.IntervalMax = time.Second
		}, true},
		{"zero recording window", func(s *Settings) {
			s.Realtime.Recording.WindowMin = 0
		}, true},
		{"inverted recording window", func(s *Settings) {
			s.Realtime.Recording.WindowMax = time.Second
		}, true},
		{"max session shorter than window", func(s *Settings) {
			s.Realtime.Recording.MaxSession = time.Second
		}, true},
		{"max session disabled is fine", func(s *Settings) {
			s.Realtime.Recording.MaxSession = 0
		}, false},
		{"publisher zero success interval", func(s *Settings) {
			s.Realtime.Publisher.SuccessInterval = 0
		}, true},
		{"publisher disabled skips interval check", func(s *Settings) {
			s.Realtime.Publisher.Enabled = false
			s.Realtime.Publisher.SuccessInterval = 0
		}, false},
		{"retention zero max age", func(s *Settings) {
			s.Realtime.Retention.MaxAge = 0
		}, true},
		{"retention disabled skips check", func(s *Settings) {
			s.Realtime.Retention.Enabled = false
			s.Realtime.Retention.MaxAge = 0
		}, false},
		{"mqtt enabled without broker", func(s *Settings) {
			s.Realtime.MQTT.Enabled = true
		}, true},
		{"mqtt enabled with broker", func(s *Settings) {
			s.Realtime.MQTT.Enabled = true
			s.Realtime.MQTT.Broker = "tcp://localhost:1883"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
