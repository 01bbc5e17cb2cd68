package source

import (
	"fmt"
	"sort"
	"time"

	"MedFlowScope/internal/model"
)

// packetSample is one captured packet reduced to what flow matching needs:
// when it was seen, which flow it belongs to, and a digest of its transport
// payload for pairing the sender-side and receiver-side observations.
type packetSample struct {
	Timestamp time.Time
	FiveTuple model.FiveTuple
	Digest    uint64
}

func flowKey(ft model.FiveTuple) string {
	return fmt.Sprintf("%s:%d->%s:%d/%d", ft.SrcIP, ft.SrcPort, ft.DstIP, ft.DstPort, ft.Protocol)
}

// matchCaptures pairs sender-side and receiver-side samples of the same run
// into raw flow records, FlowMonitor-style. Per flow, tx counts come from the
// sender capture, rx counts from payload-matched receiver packets, delay is
// summed over the matches and jitter over the variation between consecutive
// delays. Timestamps in the result are offsets from the first transmitted
// packet of the run. Receiver-side packets with no sender counterpart are
// ignored.
func matchCaptures(tx, rx []packetSample) []*model.RawFlowRecord {
	txFlows := make(map[string][]packetSample)
	rxFlows := make(map[string][]packetSample)
	tuples := make(map[string]model.FiveTuple)

	for _, s := range tx {
		key := flowKey(s.FiveTuple)
		txFlows[key] = append(txFlows[key], s)
		tuples[key] = s.FiveTuple
	}
	for _, s := range rx {
		rxFlows[flowKey(s.FiveTuple)] = append(rxFlows[flowKey(s.FiveTuple)], s)
	}

	var runStart time.Time
	for _, samples := range txFlows {
		if runStart.IsZero() || samples[0].Timestamp.Before(runStart) {
			runStart = samples[0].Timestamp
		}
	}

	keys := make([]string, 0, len(txFlows))
	for key := range txFlows {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	recs := make([]*model.RawFlowRecord, 0, len(keys))
	for i, key := range keys {
		txs := txFlows[key]

		// Queue tx timestamps per payload digest so retransmitted payloads
		// match in capture order.
		pending := make(map[uint64][]time.Time)
		for _, s := range txs {
			pending[s.Digest] = append(pending[s.Digest], s.Timestamp)
		}

		rec := &model.RawFlowRecord{
			FlowID:      uint32(i + 1),
			FiveTuple:   tuples[key],
			TxPackets:   uint64(len(txs)),
			TimeFirstTx: txs[0].Timestamp.Sub(runStart),
		}

		var prevDelay time.Duration
		var lastRx time.Time
		for _, s := range rxFlows[key] {
			queue := pending[s.Digest]
			if len(queue) == 0 {
				continue
			}
			sent := queue[0]
			pending[s.Digest] = queue[1:]

			delay := s.Timestamp.Sub(sent)
			rec.DelaySum += delay
			if rec.RxPackets > 0 {
				jitter := delay - prevDelay
				if jitter < 0 {
					jitter = -jitter
				}
				rec.JitterSum += jitter
			}
			prevDelay = delay
			lastRx = s.Timestamp
			rec.RxPackets++
		}

		if rec.RxPackets > 0 {
			rec.TimeLastRx = lastRx.Sub(runStart)
		}

		recs = append(recs, rec)
	}

	return recs
}
