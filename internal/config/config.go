package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceDef defines a single monitored device in the config file.
type DeviceDef struct {
	Name              string `yaml:"name"`
	Address           string `yaml:"address"`
	Role              string `yaml:"role"`
	TaskTargetPackets uint64 `yaml:"task_target_packets"`
}

// RegistryConfig holds the static device registry contents.
type RegistryConfig struct {
	Devices []DeviceDef `yaml:"devices"`
}

// FileSourceConfig configures the JSON record-file source.
type FileSourceConfig struct {
	Path string `yaml:"path"`
}

// FlowmonSourceConfig configures the ns-3 FlowMonitor XML source.
type FlowmonSourceConfig struct {
	Path string `yaml:"path"`
}

// NATSSourceConfig configures the NATS record collector.
type NATSSourceConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Timeout string `yaml:"timeout"`
}

// CaptureSourceConfig configures the pcap capture-pair source.
type CaptureSourceConfig struct {
	TxPath string `yaml:"tx_path"`
	RxPath string `yaml:"rx_path"`
}

// SourceConfig selects and configures the flow record source.
type SourceConfig struct {
	Type    string              `yaml:"type"` // file | flowmon | nats | capture
	File    FileSourceConfig    `yaml:"file"`
	Flowmon FlowmonSourceConfig `yaml:"flowmon"`
	NATS    NATSSourceConfig    `yaml:"nats"`
	Capture CaptureSourceConfig `yaml:"capture"`
}

// CSVConfig configures the persisted tabular record.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// ClickHouseConfig holds the connection settings for the optional ClickHouse
// metrics sink.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ExportConfig holds the configuration for the report exporter.
type ExportConfig struct {
	CSV        CSVConfig        `yaml:"csv"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// SafetyConfig holds the safety thresholds applied to critical devices.
type SafetyConfig struct {
	MaxLatencyMs         float64 `yaml:"max_latency_ms"`
	MaxCompletionTimeSec float64 `yaml:"max_completion_time_sec"`
}

// APIConfig holds the settings for the report API server.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Source   SourceConfig   `yaml:"source"`
	Export   ExportConfig   `yaml:"export"`
	Safety   SafetyConfig   `yaml:"safety"`
	API      APIConfig      `yaml:"api"`
}

// Defaults applied when the corresponding fields are absent from the file.
const (
	DefaultCSVPath              = "surgical_metrics.csv"
	DefaultMaxLatencyMs         = 50.0
	DefaultMaxCompletionTimeSec = 5.0
)

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct with defaults applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if cfg.Export.CSV.Path == "" {
		cfg.Export.CSV.Path = DefaultCSVPath
	}
	if cfg.Safety.MaxLatencyMs == 0 {
		cfg.Safety.MaxLatencyMs = DefaultMaxLatencyMs
	}
	if cfg.Safety.MaxCompletionTimeSec == 0 {
		cfg.Safety.MaxCompletionTimeSec = DefaultMaxCompletionTimeSec
	}

	switch cfg.Source.Type {
	case "", "file", "flowmon", "nats", "capture":
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}

	return &cfg, nil
}
