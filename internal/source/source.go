package source

import (
	"fmt"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/model"
)

// New builds the record source selected by the configuration.
func New(cfg config.SourceConfig) (model.RecordSource, error) {
	switch cfg.Type {
	case "", "file":
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file source requires a path")
		}
		return NewFileSource(cfg.File.Path), nil
	case "flowmon":
		if cfg.Flowmon.Path == "" {
			return nil, fmt.Errorf("flowmon source requires a path")
		}
		return NewFlowmonSource(cfg.Flowmon.Path), nil
	case "nats":
		return NewNATSCollector(cfg.NATS)
	case "capture":
		if cfg.Capture.TxPath == "" || cfg.Capture.RxPath == "" {
			return nil, fmt.Errorf("capture source requires both tx_path and rx_path")
		}
		return NewCaptureSource(cfg.Capture), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
