// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "scanner-stream")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "scanner.log")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "3001")

	viper.SetDefault("scanner.intervalmin", 5*time.Second)
	viper.SetDefault("scanner.intervalmax", 15*time.Second)

	viper.SetDefault("realtime.recording.windowmin", 3*time.Second)
	viper.SetDefault("realtime.recording.windowmax", 5*time.Second)
	viper.SetDefault("realtime.recording.maxsession", 30*time.Second)

	viper.SetDefault("realtime.transcription.endpoint", "https://api.openai.com/v1/audio/transcriptions")
	viper.SetDefault("realtime.transcription.model", "whisper-1")
	viper.SetDefault("realtime.transcription.language", "en")
	viper.SetDefault("realtime.transcription.timeout", 30*time.Second)

	viper.SetDefault("realtime.classification.endpoint", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("realtime.classification.model", "gpt-4-turbo-preview")
	viper.SetDefault("realtime.classification.temperature", 0.3)
	viper.SetDefault("realtime.classification.maxtokens", 200)
	viper.SetDefault("realtime.classification.timeout", 30*time.Second)

	viper.SetDefault("realtime.publisher.enabled", true)
	viper.SetDefault("realtime.publisher.endpoint", "https://api.publer.io/v1")
	viper.SetDefault("realtime.publisher.linkurl", "https://sanduskycurrent.com")
	viper.SetDefault("realtime.publisher.successinterval", 30*time.Second)
	viper.SetDefault("realtime.publisher.failurebackoff", 5*time.Second)
	viper.SetDefault("realtime.publisher.timeout", 15*time.Second)

	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("realtime.mqtt.topic", "scanner/incidents")

	viper.SetDefault("realtime.retention.enabled", true)
	viper.SetDefault("realtime.retention.maxage", 24*time.Hour)
	viper.SetDefault("realtime.retention.interval", time.Hour)

	viper.SetDefault("realtime.sqlite.enabled", true)
	viper.SetDefault("realtime.sqlite.path", "scanner.db")
}
