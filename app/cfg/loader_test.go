package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./data/test.sqlite",
		BackupDir:         "./data/backups",
		Port:              "8080",
		MaxConcurrency:    6,
		FetchTimeout:      12000,
		SchedulerInterval: 60,
		ReaderCacheTTL:    720,
		APIAccessKey:      "test-key",
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./data/test.sqlite" {
		t.Errorf("Expected db path './data/test.sqlite', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.MaxConcurrency != 6 {
		t.Errorf("Expected max concurrency 6, got %d", cfg.MaxConcurrency)
	}
	if cfg.FetchTimeout != 12000 {
		t.Errorf("Expected fetch timeout 12000, got %d", cfg.FetchTimeout)
	}
	if cfg.SchedulerInterval != 60 {
		t.Errorf("Expected scheduler interval 60, got %d", cfg.SchedulerInterval)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
