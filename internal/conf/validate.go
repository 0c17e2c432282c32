package conf

import "fmt"

// ValidateSettings checks that loaded settings are internally consistent.
func ValidateSettings(s *Settings) error {
	if s.Scanner.IntervalMin <= 0 || s.Scanner.IntervalMax < s.Scanner.IntervalMin {
		return fmt.Errorf("invalid scanner interval range: min=%v max=%v",
			s.Scanner.IntervalMin, s.Scanner.IntervalMax)
	}

	rec := s.Realtime.Recording
	if rec.WindowMin <= 0 || rec.WindowMax < rec.WindowMin {
		return fmt.Errorf("invalid recording window range: min=%v max=%v",
			rec.WindowMin, rec.WindowMax)
	}
	if rec.MaxSession > 0 && rec.MaxSession < rec.WindowMax {
		return fmt.Errorf("recording max session %v shorter than capture window %v",
			rec.MaxSession, rec.WindowMax)
	}

	pub := s.Realtime.Publisher
	if pub.Enabled {
		if pub.SuccessInterval <= 0 || pub.FailureBackoff <= 0 {
			return fmt.Errorf("publisher intervals must be positive: success=%v failure=%v",
				pub.SuccessInterval, pub.FailureBackoff)
		}
	}

	ret := s.Realtime.Retention
	if ret.Enabled && (ret.MaxAge <= 0 || ret.Interval <= 0) {
		return fmt.Errorf("invalid retention settings: maxage=%v interval=%v",
			ret.MaxAge, ret.Interval)
	}

	if s.Realtime.MQTT.Enabled && s.Realtime.MQTT.Broker == "" {
		return fmt.Errorf("mqtt enabled but no broker configured")
	}

	return nil
}
