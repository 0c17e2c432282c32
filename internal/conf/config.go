// Package conf loads and provides access to scanner-stream configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings contains all runtime configuration for the service.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string    // node name, used as MQTT client id and log attribute
		Log  LogConfig // main logging configuration
	}

	WebServer struct {
		Enabled bool   // true to enable web server
		Port    string // port for web server
	}

	Scanner ScannerSettings

	Realtime RealtimeSettings
}

// LogConfig defines settings for a file log output.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// ScannerSettings holds transmission source configuration.
type ScannerSettings struct {
	IntervalMin time.Duration // minimum delay between transmissions
	IntervalMax time.Duration // maximum delay between transmissions
}

// RealtimeSettings contains pipeline processing settings.
type RealtimeSettings struct {
	Recording      RecordingSettings
	Transcription  TranscriptionSettings
	Classification ClassificationSettings
	Publisher      PublisherSettings
	MQTT           MQTTSettings
	Retention      RetentionSettings

	SQLite struct {
		Enabled bool   // true to enable sqlite output
		Path    string // path to sqlite database
	}
}

// RecordingSettings controls the per-transmission capture window.
type RecordingSettings struct {
	WindowMin  time.Duration // minimum capture window
	WindowMax  time.Duration // maximum capture window
	MaxSession time.Duration // force-close a session left open this long
}

// TranscriptionSettings configures the speech-to-text collaborator.
type TranscriptionSettings struct {
	APIKey   string        // speech-to-text API key, empty disables the remote path
	Endpoint string        // transcription endpoint URL
	Model    string        // model identifier
	Language string        // language hint
	Timeout  time.Duration // per-request timeout
}

// ClassificationSettings configures the LLM completion collaborator.
type ClassificationSettings struct {
	APIKey      string        // completion API key, empty disables the remote path
	Endpoint    string        // chat completions endpoint URL
	Model       string        // model identifier
	Temperature float64       // sampling temperature
	MaxTokens   int           // response token budget
	Timeout     time.Duration // per-request timeout
}

// PublisherSettings configures social media publishing.
type PublisherSettings struct {
	Enabled         bool          // true to enable the publishing worker
	APIKey          string        // Publer API key, empty enables mock posting
	WorkspaceID     string        // Publer workspace id
	Endpoint        string        // Publer API base URL
	LinkURL         string        // link appended to every post
	SuccessInterval time.Duration // wait after a successful post
	FailureBackoff  time.Duration // wait after a failed post
	Timeout         time.Duration // per-request timeout
}

// MQTTSettings configures optional incident republishing to a broker.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT republish
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string // topic for incident summaries
	Username string
	Password string
}

// RetentionSettings controls the persisted-state sweep.
type RetentionSettings struct {
	Enabled  bool          // true to enable the retention sweep
	MaxAge   time.Duration // entries older than this are deleted
	Interval time.Duration // how often the sweep runs
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	setDefaultConfig()
	bindSecretEnv()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// initViper sets up config file discovery and reads the config if present.
// A missing config file is not an error, defaults apply.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// bindSecretEnv maps credentials from the environment so they never need to
// live in the config file.
func bindSecretEnv() {
	_ = viper.BindEnv("realtime.transcription.apikey", "OPENAI_API_KEY")
	_ = viper.BindEnv("realtime.classification.apikey", "OPENAI_API_KEY")
	_ = viper.BindEnv("realtime.publisher.apikey", "PUBLER_API_KEY")
	_ = viper.BindEnv("realtime.publisher.workspaceid", "PUBLER_WORKSPACE_ID")
	_ = viper.BindEnv("realtime.mqtt.username", "MQTT_USERNAME")
	_ = viper.BindEnv("realtime.mqtt.password", "MQTT_PASSWORD")
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}, nil
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "scanner-stream"),
	}, nil
}

// Setting returns the shared Settings instance, loading it on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	once.Do(func() {
		if _, err := Load(); err != nil {
			panic(fmt.Sprintf("error loading settings: %v", err))
		}
	})

	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
