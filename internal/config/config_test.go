package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	c := Load()
	if c.DictDir != "/etc/opentvgrab/dicts" {
		t.Errorf("DictDir default: got %q", c.DictDir)
	}
	if c.ProvDir != "/etc/opentvgrab/providers" {
		t.Errorf("ProvDir default: got %q", c.ProvDir)
	}
	if c.ScanPeriod != time.Hour {
		t.Errorf("ScanPeriod default: got %v", c.ScanPeriod)
	}
	if c.ScanMax != 10*time.Minute {
		t.Errorf("ScanMax default: got %v", c.ScanMax)
	}
	if c.MetricsAddr != ":9109" {
		t.Errorf("MetricsAddr default: got %q", c.MetricsAddr)
	}
	if c.EPGDBPath != "./epg.db" {
		t.Errorf("EPGDBPath default: got %q", c.EPGDBPath)
	}
	if c.SvcMgrAddr != "" {
		t.Errorf("SvcMgrAddr default should be empty: got %q", c.SvcMgrAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("OPENTVGRAB_DICT_DIR", "/tmp/dicts")
	os.Setenv("OPENTVGRAB_PROV_DIR", "/tmp/providers")
	os.Setenv("OPENTVGRAB_SCAN_PERIOD", "30m")
	os.Setenv("OPENTVGRAB_SCAN_MAX", "5m")
	os.Setenv("OPENTVGRAB_METRICS_ADDR", ":9999")
	os.Setenv("OPENTVGRAB_EPG_DB", "/tmp/epg.db")
	os.Setenv("OPENTVGRAB_SVCMGR_ADDR", "http://svcmgr.local:8080")
	c := Load()
	if c.DictDir != "/tmp/dicts" {
		t.Errorf("DictDir: got %q", c.DictDir)
	}
	if c.ProvDir != "/tmp/providers" {
		t.Errorf("ProvDir: got %q", c.ProvDir)
	}
	if c.ScanPeriod != 30*time.Minute {
		t.Errorf("ScanPeriod: got %v", c.ScanPeriod)
	}
	if c.ScanMax != 5*time.Minute {
		t.Errorf("ScanMax: got %v", c.ScanMax)
	}
	if c.MetricsAddr != ":9999" {
		t.Errorf("MetricsAddr: got %q", c.MetricsAddr)
	}
	if c.EPGDBPath != "/tmp/epg.db" {
		t.Errorf("EPGDBPath: got %q", c.EPGDBPath)
	}
	if c.SvcMgrAddr != "http://svcmgr.local:8080" {
		t.Errorf("SvcMgrAddr: got %q", c.SvcMgrAddr)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	os.Clearenv()
	os.Setenv("OPENTVGRAB_SCAN_PERIOD", "0s")
	os.Setenv("OPENTVGRAB_SCAN_MAX", "0s")
	c := Load()
	if c.ScanPeriod != time.Hour {
		t.Errorf("ScanPeriod should fall back to default on 0: got %v", c.ScanPeriod)
	}
	if c.ScanMax != 10*time.Minute {
		t.Errorf("ScanMax should fall back to default on 0: got %v", c.ScanMax)
	}
}
