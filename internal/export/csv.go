package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"MedFlowScope/internal/model"
)

// csvHeader is the stable column order of the persisted tabular record.
var csvHeader = []string{
	"Device",
	"TxPackets",
	"RxPackets",
	"LossPercent",
	"AvgLatencyMs",
	"AvgJitterMs",
	"TaskTargetPackets",
	"TaskCompleted",
	"TaskCompletionTimeSec",
	"SuccessRatePercent",
}

// CSVWriter persists device metrics as a comma-separated table. Each run
// replaces the previous file; the output carries no timestamps, so exporting
// the same collection twice produces byte-identical files.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer targeting the given file path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Destination returns the output file path.
func (w *CSVWriter) Destination() string {
	return w.path
}

// Write creates (or truncates) the destination file and writes the header row
// followed by one row per metric. Failures carry the attempted path.
func (w *CSVWriter) Write(ms []*model.DeviceMetrics) error {
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file '%s': %w", w.path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header to '%s': %w", w.path, err)
	}
	for _, m := range ms {
		if err := cw.Write(csvRecord(m)); err != nil {
			return fmt.Errorf("failed to write row to '%s': %w", w.path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush metrics file '%s': %w", w.path, err)
	}
	return nil
}

func csvRecord(m *model.DeviceMetrics) []string {
	completed := "No"
	if m.TaskCompleted {
		completed = "Yes"
	}
	return []string{
		m.Device,
		strconv.FormatUint(m.TxPackets, 10),
		strconv.FormatUint(m.RxPackets, 10),
		formatFloat(m.LossRatePercent),
		formatFloat(m.AvgLatencyMs),
		formatFloat(m.AvgJitterMs),
		strconv.FormatUint(m.TaskTargetPackets, 10),
		completed,
		formatFloat(m.TaskCompletionTimeSec),
		formatFloat(m.SuccessRatePercent()),
	}
}

// formatFloat keeps the natural precision of the value. Rounding is a
// presentation concern and happens only in the console renderer.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ReadCSV parses a previously persisted tabular record back into device
// metrics. Flow identity is not part of the schema, so FlowID is zero on the
// parsed rows; the success-rate column is recomputable and therefore only
// validated, never stored.
func ReadCSV(path string) ([]*model.DeviceMetrics, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file '%s': %w", path, err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics file '%s': %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metrics file '%s' is empty", path)
	}
	if len(rows[0]) != len(csvHeader) {
		return nil, fmt.Errorf("metrics file '%s' has %d columns, want %d", path, len(rows[0]), len(csvHeader))
	}

	var ms []*model.DeviceMetrics
	for i, row := range rows[1:] {
		m, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("metrics file '%s' row %d: %w", path, i+1, err)
		}
		ms = append(ms, m)
	}
	return ms, nil
}

func parseRow(row []string) (*model.DeviceMetrics, error) {
	if len(row) != len(csvHeader) {
		return nil, fmt.Errorf("row has %d fields, want %d", len(row), len(csvHeader))
	}

	tx, err := strconv.ParseUint(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad TxPackets %q: %w", row[1], err)
	}
	rx, err := strconv.ParseUint(row[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad RxPackets %q: %w", row[2], err)
	}
	loss, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return nil, fmt.Errorf("bad LossPercent %q: %w", row[3], err)
	}
	latency, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return nil, fmt.Errorf("bad AvgLatencyMs %q: %w", row[4], err)
	}
	jitter, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return nil, fmt.Errorf("bad AvgJitterMs %q: %w", row[5], err)
	}
	target, err := strconv.ParseUint(row[6], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad TaskTargetPackets %q: %w", row[6], err)
	}
	var completed bool
	switch row[7] {
	case "Yes":
		completed = true
	case "No":
		completed = false
	default:
		return nil, fmt.Errorf("bad TaskCompleted %q", row[7])
	}
	completion, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return nil, fmt.Errorf("bad TaskCompletionTimeSec %q: %w", row[8], err)
	}

	return &model.DeviceMetrics{
		Device:                row[0],
		TxPackets:             tx,
		RxPackets:             rx,
		LossRatePercent:       loss,
		AvgLatencyMs:          latency,
		AvgJitterMs:           jitter,
		TaskTargetPackets:     target,
		TaskCompleted:         completed,
		TaskCompletionTimeSec: completion,
	}, nil
}
