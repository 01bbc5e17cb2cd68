package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_ShippedConfig(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Failed to load shipped config: %v", err)
	}

	if len(cfg.Registry.Devices) != 3 {
		t.Fatalf("Registry has %d devices, want 3", len(cfg.Registry.Devices))
	}
	robot := cfg.Registry.Devices[0]
	if robot.Name != "Robot Ctrl" || robot.Role != "critical" || robot.TaskTargetPackets != 100 {
		t.Errorf("First device = %+v, want the critical Robot Ctrl entry", robot)
	}
	if cfg.Source.Type != "file" {
		t.Errorf("Source type = %q, want file", cfg.Source.Type)
	}
	if cfg.Safety.MaxLatencyMs != 50.0 || cfg.Safety.MaxCompletionTimeSec != 5.0 {
		t.Errorf("Safety thresholds = %+v, want 50ms/5s", cfg.Safety)
	}
	if cfg.Export.ClickHouse.Enabled {
		t.Errorf("ClickHouse should be disabled in the shipped config")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	minimal := `
registry:
  devices:
    - name: "Robot Ctrl"
      address: 192.168.1.1
      role: critical
      task_target_packets: 100
source:
  type: file
  file:
    path: records.json
`
	if err := os.WriteFile(path, []byte(minimal), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Export.CSV.Path != DefaultCSVPath {
		t.Errorf("CSV path = %q, want default %q", cfg.Export.CSV.Path, DefaultCSVPath)
	}
	if cfg.Safety.MaxLatencyMs != DefaultMaxLatencyMs {
		t.Errorf("MaxLatencyMs = %v, want default %v", cfg.Safety.MaxLatencyMs, DefaultMaxLatencyMs)
	}
	if cfg.Safety.MaxCompletionTimeSec != DefaultMaxCompletionTimeSec {
		t.Errorf("MaxCompletionTimeSec = %v, want default %v", cfg.Safety.MaxCompletionTimeSec, DefaultMaxCompletionTimeSec)
	}
}

func TestLoadConfig_UnknownSourceType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := `
source:
  type: carrier-pigeon
`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("LoadConfig should reject an unknown source type")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("LoadConfig should fail for a missing file")
	}
}
