package model

import (
	"net"
	"time"
)

// FiveTuple represents the 5-tuple identifying a unidirectional flow.
type FiveTuple struct {
	SrcIP    net.IP `json:"src_ip"`
	DstIP    net.IP `json:"dst_ip"`
	SrcPort  uint16 `json:"src_port"`
	DstPort  uint16 `json:"dst_port"`
	Protocol uint8  `json:"protocol"`
}

// RawFlowRecord holds the raw per-flow counters produced by the simulation
// collaborator once a run has finished. Records are read-only to the engine.
// Timestamps are offsets from the start of the run; delay and jitter sums are
// accumulated across received packets.
type RawFlowRecord struct {
	FlowID      uint32        `json:"flow_id"`
	FiveTuple   FiveTuple     `json:"five_tuple"`
	TxPackets   uint64        `json:"tx_packets"`
	RxPackets   uint64        `json:"rx_packets"`
	DelaySum    time.Duration `json:"delay_sum_ns"`
	JitterSum   time.Duration `json:"jitter_sum_ns"`
	TimeFirstTx time.Duration `json:"time_first_tx_ns"`
	TimeLastRx  time.Duration `json:"time_last_rx_ns"`
}

// DeviceMetrics is the per-device view derived from exactly one RawFlowRecord
// plus a registry lookup. Immutable after creation; one instance per
// recognized flow.
type DeviceMetrics struct {
	Device                string  `json:"device"`
	FlowID                uint32  `json:"flow_id"`
	TxPackets             uint64  `json:"tx_packets"`
	RxPackets             uint64  `json:"rx_packets"`
	LossRatePercent       float64 `json:"loss_rate_percent"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	AvgJitterMs           float64 `json:"avg_jitter_ms"`
	TaskTargetPackets     uint64  `json:"task_target_packets"`
	TaskCompleted         bool    `json:"task_completed"`
	TaskCompletionTimeSec float64 `json:"task_completion_time_sec"`
}

// SuccessRatePercent is the ratio of received to expected packets, expressed
// as a percentage. It is derived for reporting rather than stored; a zero
// target yields 0.0.
func (m *DeviceMetrics) SuccessRatePercent() float64 {
	if m.TaskTargetPackets == 0 {
		return 0.0
	}
	return float64(m.RxPackets) / float64(m.TaskTargetPackets) * 100.0
}
