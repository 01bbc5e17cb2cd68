package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS device_metrics (
    RunTime               DateTime,
    Device                String,
    FlowID                UInt32,
    TxPackets             UInt64,
    RxPackets             UInt64,
    LossPercent           Float64,
    AvgLatencyMs          Float64,
    AvgJitterMs           Float64,
    TaskTargetPackets     UInt64,
    TaskCompleted         UInt8,
    TaskCompletionTimeSec Float64,
    SuccessRatePercent    Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(RunTime)
ORDER BY (Device, RunTime);
`

// ClickHouseWriter implements the model.MetricsWriter interface for
// ClickHouse, keeping one row per device-flow per run for later analysis.
type ClickHouseWriter struct {
	conn driver.Conn
	addr string
}

// NewClickHouseWriter connects to ClickHouse and ensures the metrics table
// exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.MetricsWriter, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse at %s: %w", addr, err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse at %s: %w", addr, err)
	}
	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create device_metrics table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn, addr: addr}, nil
}

// Destination returns the ClickHouse address this writer targets.
func (w *ClickHouseWriter) Destination() string {
	return "clickhouse://" + w.addr
}

// Write inserts the metrics collection into the device_metrics table as a
// single batch, stamped with the insertion time.
func (w *ClickHouseWriter) Write(ms []*model.DeviceMetrics) error {
	if len(ms) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO device_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", w.Destination(), err)
	}

	runTime := time.Now().UTC()
	for _, m := range ms {
		completed := uint8(0)
		if m.TaskCompleted {
			completed = 1
		}
		err = batch.Append(
			runTime,
			m.Device,
			m.FlowID,
			m.TxPackets,
			m.RxPackets,
			m.LossRatePercent,
			m.AvgLatencyMs,
			m.AvgJitterMs,
			m.TaskTargetPackets,
			completed,
			m.TaskCompletionTimeSec,
			m.SuccessRatePercent(),
		)
		if err != nil {
			return fmt.Errorf("failed to append metrics row to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch to %s: %w", w.Destination(), err)
	}

	log.Printf("Wrote %d device metrics rows to ClickHouse", len(ms))
	return nil
}
