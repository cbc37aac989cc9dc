package config

import "time"

// S3Config holds static credentials for an S3-compatible sync target.
type S3Config struct {
	Region          string
	Endpoint        string
	Bucket          string
	Key             string
	AccessKeyID     string
	SecretAccessKey string
}

// Config holds runtime settings for the daybook CLI.
//
// Fields:
//   - DBPath: path of the local SQLite database.
//   - SyncInterval: background upload interval.
//   - DebounceQuiet: quiet period before a local mutation triggers upload.
//   - S3: credentials and location for the s3 backend.
//   - NimbusURL / NimbusAPIKey: project endpoint of the hosted backend.
//   - DriveBaseURL / DriveUploadURL: override the drive API endpoints
//     (testing and self-hosted gateways); empty means provider defaults.
//   - TranscribeURL: HTTP endpoint for voice transcription.
//   - ClassifyModel: model id for the LLM quadrant classifier; empty
//     disables the LLM path and rules alone are used.
type Config struct {
	DBPath        string
	SyncInterval  time.Duration
	DebounceQuiet time.Duration

	S3 S3Config

	NimbusURL    string
	NimbusAPIKey string

	DriveBaseURL   string
	DriveUploadURL string

	TranscribeURL string
	ClassifyModel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "daybook.db"
	c.SyncInterval = 5 * time.Minute
	c.DebounceQuiet = 2 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
