package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleFlowmonXML = `<?xml version="1.0" ?>
<FlowMonitor>
  <FlowStats>
    <Flow flowId="1" timeFirstTxPacket="+2000000000.0ns" timeFirstRxPacket="+2004300000.0ns" timeLastTxPacket="+2990000000.0ns" timeLastRxPacket="+2990000000.0ns" delaySum="+850000000.0ns" jitterSum="+100000000.0ns" lastDelay="+4200000.0ns" txBytes="6400" rxBytes="6400" txPackets="100" rxPackets="100" lostPackets="0" timesForwarded="0">
    </Flow>
    <Flow flowId="2" timeFirstTxPacket="+2500000000.0ns" timeFirstRxPacket="+0.0ns" timeLastTxPacket="+14900000000.0ns" timeLastRxPacket="+0.0ns" delaySum="+0.0ns" jitterSum="+0.0ns" lastDelay="+0.0ns" txBytes="700000" rxBytes="0" txPackets="500" rxPackets="0" lostPackets="500" timesForwarded="0">
    </Flow>
  </FlowStats>
  <Ipv4FlowClassifier>
    <Flow flowId="1" sourceAddress="192.168.1.1" destinationAddress="192.168.1.4" protocol="17" sourcePort="49153" destinationPort="8000" />
    <Flow flowId="2" sourceAddress="192.168.1.2" destinationAddress="192.168.1.4" protocol="17" sourcePort="49154" destinationPort="8001" />
  </Ipv4FlowClassifier>
</FlowMonitor>
`

func writeFlowmonFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.flowmon.xml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sample file: %v", err)
	}
	return path
}

func TestFlowmonSource_Collect(t *testing.T) {
	path := writeFlowmonFile(t, sampleFlowmonXML)

	recs, err := NewFlowmonSource(path).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Collect returned %d records, want 2", len(recs))
	}

	r := recs[0]
	if r.FlowID != 1 {
		t.Errorf("FlowID = %d, want 1", r.FlowID)
	}
	if got := r.FiveTuple.SrcIP.String(); got != "192.168.1.1" {
		t.Errorf("SrcIP = %s, want 192.168.1.1", got)
	}
	if r.FiveTuple.SrcPort != 49153 || r.FiveTuple.DstPort != 8000 || r.FiveTuple.Protocol != 17 {
		t.Errorf("FiveTuple = %+v, unexpected ports/protocol", r.FiveTuple)
	}
	if r.TxPackets != 100 || r.RxPackets != 100 {
		t.Errorf("Tx/Rx = %d/%d, want 100/100", r.TxPackets, r.RxPackets)
	}
	if r.DelaySum != 850*time.Millisecond {
		t.Errorf("DelaySum = %v, want 850ms", r.DelaySum)
	}
	if r.JitterSum != 100*time.Millisecond {
		t.Errorf("JitterSum = %v, want 100ms", r.JitterSum)
	}
	if r.TimeFirstTx != 2*time.Second {
		t.Errorf("TimeFirstTx = %v, want 2s", r.TimeFirstTx)
	}
	if r.TimeLastRx != 2990*time.Millisecond {
		t.Errorf("TimeLastRx = %v, want 2.99s", r.TimeLastRx)
	}

	// The lossy flow still parses; the calculator handles the zero-rx policy.
	if recs[1].RxPackets != 0 || recs[1].TxPackets != 500 {
		t.Errorf("Flow 2 Tx/Rx = %d/%d, want 500/0", recs[1].TxPackets, recs[1].RxPackets)
	}
}

func TestFlowmonSource_MissingClassifierEntry(t *testing.T) {
	broken := `<?xml version="1.0" ?>
<FlowMonitor>
  <FlowStats>
    <Flow flowId="7" timeFirstTxPacket="+0.0ns" timeLastRxPacket="+0.0ns" delaySum="+0.0ns" jitterSum="+0.0ns" txPackets="1" rxPackets="1" />
  </FlowStats>
  <Ipv4FlowClassifier>
  </Ipv4FlowClassifier>
</FlowMonitor>
`
	path := writeFlowmonFile(t, broken)

	if _, err := NewFlowmonSource(path).Collect(context.Background()); err == nil {
		t.Fatalf("Collect should fail when stats reference an unclassified flow")
	}
}

func TestParseNanoseconds(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"+850000000.0ns", 850 * time.Millisecond},
		{"+0.0ns", 0},
		{"1500ns", 1500 * time.Nanosecond},
	}
	for _, tc := range cases {
		got, err := parseNanoseconds(tc.in)
		if err != nil {
			t.Errorf("parseNanoseconds(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseNanoseconds(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := parseNanoseconds("fast"); err == nil {
		t.Errorf("parseNanoseconds(\"fast\") should fail")
	}
}
