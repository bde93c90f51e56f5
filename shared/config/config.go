package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	YouTube     YouTubeConfig    `yaml:"youtube"`
	Transcript  TranscriptConfig `yaml:"transcript"`
	AI          AIConfig         `yaml:"ai"`
	Email       EmailConfig      `yaml:"email"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Schedule    string           `yaml:"schedule"`
	DataDir     string           `yaml:"data_dir"`
	TrackerDays int              `yaml:"tracker_days"`
}

type YouTubeConfig struct {
	APIKey              string   `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID            string   `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret        string   `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile           string   `yaml:"token_file"`
	ChannelIDs          []string `yaml:"channel_ids"`
	LookbackHours       int      `yaml:"lookback_hours" env:"LOOKBACK_HOURS"`
	MaxVideosPerChannel int64    `yaml:"max_videos_per_channel" env:"MAX_VIDEOS_PER_CHANNEL"`
}

// UsesOAuth reports whether the Data API should be reached with an OAuth
// token instead of an API key.
func (y YouTubeConfig) UsesOAuth() bool {
	return y.APIKey == "" && y.ClientID != "" && y.ClientSecret != ""
}

type TranscriptConfig struct {
	PreferredLanguage     string   `yaml:"preferred_language"`
	FetchDelaySeconds     int      `yaml:"fetch_delay_seconds" env:"FETCH_DELAY_SECONDS"`
	MediaTool             string   `yaml:"media_tool"`
	MediaToolLanguages    []string `yaml:"media_tool_languages"`
	MinDescriptionLength  int      `yaml:"min_description_length"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
}

func (t TranscriptConfig) FetchDelay() time.Duration {
	return time.Duration(t.FetchDelaySeconds) * time.Second
}

func (t TranscriptConfig) RequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeoutSeconds) * time.Second
}

type AIConfig struct {
	GeminiAPIKey       string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model              string `yaml:"model"`
	MaxTranscriptChars int    `yaml:"max_transcript_chars"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email" env:"RECIPIENT_EMAIL"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile, explicit := os.LookupEnv("CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Environment-only setup.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setString(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Email.Username, "EMAIL_USERNAME")
	setString(&c.Email.Password, "EMAIL_PASSWORD")
	setString(&c.Email.ToEmail, "RECIPIENT_EMAIL")

	if err := setInt(&c.YouTube.LookbackHours, "LOOKBACK_HOURS"); err != nil {
		return err
	}
	var perChannel int
	if err := setInt(&perChannel, "MAX_VIDEOS_PER_CHANNEL"); err != nil {
		return err
	}
	if perChannel > 0 && c.YouTube.MaxVideosPerChannel == 0 {
		c.YouTube.MaxVideosPerChannel = int64(perChannel)
	}
	return setInt(&c.Transcript.FetchDelaySeconds, "FETCH_DELAY_SECONDS")
}

func (c *Config) applyDefaults() {
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.LookbackHours == 0 {
		c.YouTube.LookbackHours = 24
	}
	if c.YouTube.MaxVideosPerChannel == 0 {
		c.YouTube.MaxVideosPerChannel = 5
	}

	if c.Transcript.PreferredLanguage == "" {
		c.Transcript.PreferredLanguage = "en"
	}
	if c.Transcript.FetchDelaySeconds == 0 {
		c.Transcript.FetchDelaySeconds = 3
	}
	if c.Transcript.MediaTool == "" {
		c.Transcript.MediaTool = "yt-dlp"
	}
	if len(c.Transcript.MediaToolLanguages) == 0 {
		c.Transcript.MediaToolLanguages = []string{"en", "en-US", "en-GB"}
	}
	if c.Transcript.MinDescriptionLength == 0 {
		c.Transcript.MinDescriptionLength = 100
	}
	if c.Transcript.RequestTimeoutSeconds == 0 {
		c.Transcript.RequestTimeoutSeconds = 30
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.MaxTranscriptChars == 0 {
		c.AI.MaxTranscriptChars = 50000
	}

	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = "smtp.gmail.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}
	if c.Email.ToEmail == "" {
		c.Email.ToEmail = c.Email.Username
	}

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 7 * * *" // Daily at 7 AM, seconds field first
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.TrackerDays == 0 {
		c.TrackerDays = 7
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	if len(c.YouTube.ChannelIDs) == 0 {
		return fmt.Errorf("at least one channel is required (youtube.channel_ids)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Email.Username == "" {
		return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
	}
	if c.Transcript.FetchDelaySeconds < 0 {
		return fmt.Errorf("transcript.fetch_delay_seconds cannot be negative")
	}
	return nil
}

// setString fills an empty field from the environment.
func setString(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func setInt(field *int, key string) error {
	raw := os.Getenv(key)
	if *field != 0 || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*field = v
	return nil
}
