package metrics

import (
	"sort"
	"time"

	"MedFlowScope/internal/model"
	"MedFlowScope/internal/registry"
)

// Derive computes the per-device metrics for a single raw flow record. The
// boolean reports whether the record was recognized: false means the source
// address has no registry entry and the flow is excluded, which is expected
// for background traffic and not an error. A name that resolves but has no
// task target violates the registry invariant and returns the error.
//
// Degenerate counters get defined fallbacks rather than NaNs: a flow with no
// transmissions is total loss, a flow with no receptions has nothing to
// average and reports zero latency, jitter and completion time.
func Derive(rec *model.RawFlowRecord, reg *registry.Registry) (*model.DeviceMetrics, bool, error) {
	name, ok := reg.Resolve(rec.FiveTuple.SrcIP)
	if !ok {
		return nil, false, nil
	}
	target, err := reg.TaskTarget(name)
	if err != nil {
		return nil, false, err
	}

	lossRate := 100.0
	if rec.TxPackets > 0 {
		lossRate = (1.0 - float64(rec.RxPackets)/float64(rec.TxPackets)) * 100.0
	}

	var avgLatencyMs, avgJitterMs float64
	if rec.RxPackets > 0 {
		avgLatencyMs = float64(rec.DelaySum) / float64(time.Millisecond) / float64(rec.RxPackets)
		avgJitterMs = float64(rec.JitterSum) / float64(time.Millisecond) / float64(rec.RxPackets)
	}

	// Completion time is meaningful only when packets actually travelled.
	var completionSec float64
	if rec.RxPackets > 0 && rec.TxPackets > 0 {
		completionSec = (rec.TimeLastRx - rec.TimeFirstTx).Seconds()
	}

	return &model.DeviceMetrics{
		Device:                name,
		FlowID:                rec.FlowID,
		TxPackets:             rec.TxPackets,
		RxPackets:             rec.RxPackets,
		LossRatePercent:       lossRate,
		AvgLatencyMs:          avgLatencyMs,
		AvgJitterMs:           avgJitterMs,
		TaskTargetPackets:     target,
		TaskCompleted:         rec.RxPackets >= target,
		TaskCompletionTimeSec: completionSec,
	}, true, nil
}

// DeriveAll runs Derive over a full run snapshot. Unresolved flows are
// dropped silently. Multiple flows resolving to the same device are kept as
// separate rows; the result is ordered by device name, then flow ID, so that
// repeated exports of the same snapshot are byte-identical.
func DeriveAll(recs []*model.RawFlowRecord, reg *registry.Registry) ([]*model.DeviceMetrics, error) {
	results := make([]*model.DeviceMetrics, 0, len(recs))
	for _, rec := range recs {
		m, ok, err := Derive(rec, reg)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, m)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Device != results[j].Device {
			return results[i].Device < results[j].Device
		}
		return results[i].FlowID < results[j].FlowID
	})

	return results, nil
}
