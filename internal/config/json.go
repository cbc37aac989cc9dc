package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	DBPath        string         `json:"db_path"`
	SyncInterval  timex.Duration `json:"sync_interval"`
	DebounceQuiet timex.Duration `json:"debounce_quiet"`

	S3 struct {
		Region          string `json:"region"`
		Endpoint        string `json:"endpoint"`
		Bucket          string `json:"bucket"`
		Key             string `json:"key"`
		AccessKeyID     string `json:"access_key_id"`
		SecretAccessKey string `json:"secret_access_key"`
	} `json:"s3"`

	NimbusURL    string `json:"nimbus_url"`
	NimbusAPIKey string `json:"nimbus_api_key"`

	DriveBaseURL   string `json:"drive_base_url"`
	DriveUploadURL string `json:"drive_upload_url"`

	TranscribeURL string `json:"transcribe_url"`
	ClassifyModel string `json:"classify_model"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c / -config flags via
// flagx.JsonConfigFlags(); when absent, nothing is loaded. Read or
// unmarshal errors panic (caller may recover). Zero-valued JSON fields do
// not clobber earlier layers.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DBPath, jc.DBPath)
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.DebounceQuiet.Duration > 0 {
		cfg.DebounceQuiet = time.Duration(jc.DebounceQuiet.Duration)
	}

	setString(&cfg.S3.Region, jc.S3.Region)
	setString(&cfg.S3.Endpoint, jc.S3.Endpoint)
	setString(&cfg.S3.Bucket, jc.S3.Bucket)
	setString(&cfg.S3.Key, jc.S3.Key)
	setString(&cfg.S3.AccessKeyID, jc.S3.AccessKeyID)
	setString(&cfg.S3.SecretAccessKey, jc.S3.SecretAccessKey)

	setString(&cfg.NimbusURL, jc.NimbusURL)
	setString(&cfg.NimbusAPIKey, jc.NimbusAPIKey)
	setString(&cfg.DriveBaseURL, jc.DriveBaseURL)
	setString(&cfg.DriveUploadURL, jc.DriveUploadURL)
	setString(&cfg.TranscribeURL, jc.TranscribeURL)
	setString(&cfg.ClassifyModel, jc.ClassifyModel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
