package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"MedFlowScope/internal/model"
)

func sampleMetrics() []*model.DeviceMetrics {
	return []*model.DeviceMetrics{
		{
			Device:                "Robot Ctrl",
			FlowID:                1,
			TxPackets:             100,
			RxPackets:             100,
			LossRatePercent:       0.0,
			AvgLatencyMs:          8.5,
			AvgJitterMs:           1.0,
			TaskTargetPackets:     100,
			TaskCompleted:         true,
			TaskCompletionTimeSec: 0.99,
		},
		{
			Device:                "Endoscope",
			FlowID:                2,
			TxPackets:             500,
			RxPackets:             250,
			LossRatePercent:       50.0,
			AvgLatencyMs:          27.3,
			AvgJitterMs:           3.1,
			TaskTargetPackets:     500,
			TaskCompleted:         false,
			TaskCompletionTimeSec: 12.4,
		},
	}
}

func TestCSVWriter_WriteAndReadBack(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "surgical_metrics.csv")

	ms := sampleMetrics()
	w := NewCSVWriter(path)
	if err := w.Write(ms); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Output has %d lines, want header + 2 rows", len(lines))
	}
	wantHeader := "Device,TxPackets,RxPackets,LossPercent,AvgLatencyMs,AvgJitterMs,TaskTargetPackets,TaskCompleted,TaskCompletionTimeSec,SuccessRatePercent"
	if lines[0] != wantHeader {
		t.Errorf("Header = %q, want %q", lines[0], wantHeader)
	}
	if !strings.HasPrefix(lines[1], "Robot Ctrl,100,100,0,8.5,1,100,Yes,0.99,100") {
		t.Errorf("Row 1 = %q, unexpected content", lines[1])
	}

	parsed, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(parsed) != len(ms) {
		t.Fatalf("ReadCSV returned %d rows, want %d", len(parsed), len(ms))
	}
	for i, p := range parsed {
		want := ms[i]
		if p.Device != want.Device ||
			p.TxPackets != want.TxPackets ||
			p.RxPackets != want.RxPackets ||
			p.LossRatePercent != want.LossRatePercent ||
			p.AvgLatencyMs != want.AvgLatencyMs ||
			p.AvgJitterMs != want.AvgJitterMs ||
			p.TaskTargetPackets != want.TaskTargetPackets ||
			p.TaskCompleted != want.TaskCompleted ||
			p.TaskCompletionTimeSec != want.TaskCompletionTimeSec {
			t.Errorf("Row %d round-trip mismatch: got %+v, want %+v", i, p, want)
		}
	}
}

func TestCSVWriter_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "surgical_metrics.csv")

	ms := sampleMetrics()
	w := NewCSVWriter(path)

	if err := w.Write(ms); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read first output: %v", err)
	}

	if err := w.Write(ms); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read second output: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Re-exporting the same collection produced different bytes")
	}
}

func TestCSVWriter_UnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "surgical_metrics.csv")

	err := NewCSVWriter(path).Write(sampleMetrics())
	if err == nil {
		t.Fatalf("Write to missing directory should fail")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("Error %q should carry the attempted destination path", err)
	}
}

func TestCSVWriter_EmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surgical_metrics.csv")

	if err := NewCSVWriter(path).Write(nil); err != nil {
		t.Fatalf("Write of empty collection failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Errorf("Empty export should still write the header row, got %d lines", len(lines))
	}
}
