// Package config loads runtime configuration for the daybook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path of the local database file
//	-i int      background sync interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "5m" or integer nanoseconds:
//
//	{
//	  "db_path": "daybook.db",
//	  "sync_interval": "5m",
//	  "debounce_quiet": "2s",
//	  "s3": {
//	    "region": "us-east-1",
//	    "bucket": "daybook",
//	    "key": "snapshots/me.json",
//	    "access_key_id": "...",
//	    "secret_access_key": "..."
//	  },
//	  "nimbus_url": "https://abc.nimbus.example",
//	  "nimbus_api_key": "...",
//	  "transcribe_url": "https://transcribe.example/v1"
//	}
//
// Note: this package does not read environment variables directly; use the
// JSON file or flags to configure values. The one exception elsewhere in
// the app is the LLM classifier, whose SDK reads its API key from the
// environment.
package config
