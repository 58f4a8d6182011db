package config

import (
	"os"
	"time"
)

// Config holds the grabber's process-wide settings: where provider
// dictionaries and configs live, how aggressively to scan, and where to
// publish metrics and EPG data.
type Config struct {
	DictDir     string // directory of Huffman dictionary files, e.g. /etc/opentvgrab/dicts
	ProvDir     string // directory of provider config files, e.g. /etc/opentvgrab/providers
	ScanPeriod  time.Duration
	ScanMax     time.Duration // per-revolution budget before a pass is abandoned
	MetricsAddr string        // listen address for the Prometheus handler, e.g. :9109
	EPGDBPath   string        // path to the reference SQLite EPG store
	SvcMgrAddr  string        // base URL of the service-manager collaborator, empty to use the static registry
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load
// to layer a local .env file underneath the inherited environment (values
// already set in the environment win).
func Load() *Config {
	c := &Config{
		DictDir:     getEnv("OPENTVGRAB_DICT_DIR", "/etc/opentvgrab/dicts"),
		ProvDir:     getEnv("OPENTVGRAB_PROV_DIR", "/etc/opentvgrab/providers"),
		ScanPeriod:  getEnvDuration("OPENTVGRAB_SCAN_PERIOD", time.Hour),
		ScanMax:     getEnvDuration("OPENTVGRAB_SCAN_MAX", 10*time.Minute),
		MetricsAddr: getEnv("OPENTVGRAB_METRICS_ADDR", ":9109"),
		EPGDBPath:   getEnv("OPENTVGRAB_EPG_DB", "./epg.db"),
		SvcMgrAddr:  os.Getenv("OPENTVGRAB_SVCMGR_ADDR"),
	}
	if c.ScanPeriod <= 0 {
		c.ScanPeriod = time.Hour
	}
	if c.ScanMax <= 0 {
		c.ScanMax = 10 * time.Minute
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
