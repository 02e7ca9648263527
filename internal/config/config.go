package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the application's typed configuration, read from viper after the
// CLI has bound flags and environment variables.
type Config struct {
	Database    DatabaseConfig
	AI          AIConfig
	Recognition RecognitionConfig
	Recording   RecordingConfig
	UserID      string
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// AIConfig describes the remote transcript-cleanup endpoint and its
// credential chain: a session token (static or minted from a token
// endpoint), falling back to the anonymous key.
type AIConfig struct {
	Endpoint     string
	AnonKey      string
	SessionToken string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// RecognitionConfig describes the speech-recognition segment settings.
type RecognitionConfig struct {
	Language string
	Interim  bool
}

// RecordingConfig tunes the session controller's timers and waveform.
type RecordingConfig struct {
	TickInterval     time.Duration
	WaveformInterval time.Duration
	WaveformBars     int
}

// SetDefaults registers configuration defaults with viper.
func SetDefaults() {
	viper.SetDefault("database.path", "~/.local/share/notestream/notes.db")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("ai.anon_key", "")
	viper.SetDefault("ai.session_token", "")
	viper.SetDefault("ai.token_url", "")
	viper.SetDefault("ai.client_id", "")
	viper.SetDefault("ai.client_secret", "")
	viper.SetDefault("ai.timeout", 30*time.Second)
	viper.SetDefault("recognition.language", "en-US")
	viper.SetDefault("recognition.interim", true)
	viper.SetDefault("recording.tick_interval", time.Second)
	viper.SetDefault("recording.waveform_interval", 120*time.Millisecond)
	viper.SetDefault("recording.waveform_bars", 32)
	viper.SetDefault("user_id", "local")
}

// Load builds the typed configuration from viper's current state.
func Load() Config {
	return Config{
		Database: DatabaseConfig{
			Path: ExpandPath(viper.GetString("database.path")),
		},
		AI: AIConfig{
			Endpoint:     viper.GetString("ai.endpoint"),
			AnonKey:      viper.GetString("ai.anon_key"),
			SessionToken: viper.GetString("ai.session_token"),
			TokenURL:     viper.GetString("ai.token_url"),
			ClientID:     viper.GetString("ai.client_id"),
			ClientSecret: viper.GetString("ai.client_secret"),
			Timeout:      viper.GetDuration("ai.timeout"),
		},
		Recognition: RecognitionConfig{
			Language: viper.GetString("recognition.language"),
			Interim:  viper.GetBool("recognition.interim"),
		},
		Recording: RecordingConfig{
			TickInterval:     viper.GetDuration("recording.tick_interval"),
			WaveformInterval: viper.GetDuration("recording.waveform_interval"),
			WaveformBars:     viper.GetInt("recording.waveform_bars"),
		},
		UserID: viper.GetString("user_id"),
	}
}
