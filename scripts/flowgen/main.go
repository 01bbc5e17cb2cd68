// flowgen writes a synthetic raw-flow-record JSON file mirroring the smart-OR
// reference scenario, for demos and manual testing of mf-report without a
// simulator run.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net"
	"os"
	"time"

	"MedFlowScope/internal/model"
)

func main() {
	out := flag.String("out", "flow_records.json", "output file path")
	degraded := flag.Bool("degraded", false, "degrade the control flow past the safety thresholds")
	flag.Parse()

	serverIP := net.ParseIP("192.168.1.4")

	robot := &model.RawFlowRecord{
		FlowID: 1,
		FiveTuple: model.FiveTuple{
			SrcIP:    net.ParseIP("192.168.1.1"),
			DstIP:    serverIP,
			SrcPort:  49153,
			DstPort:  8000,
			Protocol: 17,
		},
		TxPackets:   100,
		RxPackets:   100,
		DelaySum:    850 * time.Millisecond,
		JitterSum:   40 * time.Millisecond,
		TimeFirstTx: 2 * time.Second,
		TimeLastRx:  2990 * time.Millisecond,
	}
	if *degraded {
		robot.RxPackets = 60
		robot.DelaySum = 6 * time.Second
		robot.TimeLastRx = 9 * time.Second
	}

	records := []*model.RawFlowRecord{
		robot,
		{
			FlowID: 2,
			FiveTuple: model.FiveTuple{
				SrcIP:    net.ParseIP("192.168.1.2"),
				DstIP:    serverIP,
				SrcPort:  49154,
				DstPort:  8001,
				Protocol: 17,
			},
			TxPackets:   500,
			RxPackets:   487,
			DelaySum:    5 * time.Second,
			JitterSum:   900 * time.Millisecond,
			TimeFirstTx: 2500 * time.Millisecond,
			TimeLastRx:  14900 * time.Millisecond,
		},
		{
			FlowID: 3,
			FiveTuple: model.FiveTuple{
				SrcIP:    net.ParseIP("192.168.1.3"),
				DstIP:    serverIP,
				SrcPort:  49155,
				DstPort:  8002,
				Protocol: 17,
			},
			TxPackets:   15,
			RxPackets:   15,
			DelaySum:    90 * time.Millisecond,
			JitterSum:   10 * time.Millisecond,
			TimeFirstTx: 3 * time.Second,
			TimeLastRx:  14 * time.Second,
		},
		{
			// Background traffic from an unregistered host; mf-report must
			// drop this flow silently.
			FlowID: 4,
			FiveTuple: model.FiveTuple{
				SrcIP:    net.ParseIP("192.168.1.50"),
				DstIP:    serverIP,
				SrcPort:  40000,
				DstPort:  9999,
				Protocol: 6,
			},
			TxPackets: 42,
			RxPackets: 40,
		},
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal records: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Printf("Wrote %d flow records to %s", len(records), *out)
}
