package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"MedFlowScope/internal/model"
)

// FlowmonSource reads the XML file an ns-3 FlowMonitor serializes at the end
// of a run, joining the per-flow statistics with the classifier's five-tuples.
type FlowmonSource struct {
	path string
}

// NewFlowmonSource creates a source reading from the given XML file.
func NewFlowmonSource(path string) *FlowmonSource {
	return &FlowmonSource{path: path}
}

type flowmonDoc struct {
	XMLName    xml.Name       `xml:"FlowMonitor"`
	Stats      []flowmonStat  `xml:"FlowStats>Flow"`
	Classifier []flowmonTuple `xml:"Ipv4FlowClassifier>Flow"`
}

type flowmonStat struct {
	FlowID            uint32 `xml:"flowId,attr"`
	TimeFirstTxPacket string `xml:"timeFirstTxPacket,attr"`
	TimeLastRxPacket  string `xml:"timeLastRxPacket,attr"`
	DelaySum          string `xml:"delaySum,attr"`
	JitterSum         string `xml:"jitterSum,attr"`
	TxPackets         uint64 `xml:"txPackets,attr"`
	RxPackets         uint64 `xml:"rxPackets,attr"`
}

type flowmonTuple struct {
	FlowID             uint32 `xml:"flowId,attr"`
	SourceAddress      string `xml:"sourceAddress,attr"`
	DestinationAddress string `xml:"destinationAddress,attr"`
	Protocol           uint8  `xml:"protocol,attr"`
	SourcePort         uint16 `xml:"sourcePort,attr"`
	DestinationPort    uint16 `xml:"destinationPort,attr"`
}

// Collect parses the file and returns one record per classified flow.
func (s *FlowmonSource) Collect(_ context.Context) ([]*model.RawFlowRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flowmon file '%s': %w", s.path, err)
	}

	var doc flowmonDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flowmon file '%s': %w", s.path, err)
	}

	tuples := make(map[uint32]flowmonTuple, len(doc.Classifier))
	for _, t := range doc.Classifier {
		tuples[t.FlowID] = t
	}

	recs := make([]*model.RawFlowRecord, 0, len(doc.Stats))
	for _, st := range doc.Stats {
		t, ok := tuples[st.FlowID]
		if !ok {
			return nil, fmt.Errorf("flowmon file '%s': flow %d has stats but no classifier entry", s.path, st.FlowID)
		}

		rec := &model.RawFlowRecord{
			FlowID:    st.FlowID,
			TxPackets: st.TxPackets,
			RxPackets: st.RxPackets,
			FiveTuple: model.FiveTuple{
				SrcIP:    net.ParseIP(t.SourceAddress),
				DstIP:    net.ParseIP(t.DestinationAddress),
				SrcPort:  t.SourcePort,
				DstPort:  t.DestinationPort,
				Protocol: t.Protocol,
			},
		}
		if rec.FiveTuple.SrcIP == nil {
			return nil, fmt.Errorf("flowmon file '%s': flow %d has invalid source address %q", s.path, st.FlowID, t.SourceAddress)
		}

		if rec.DelaySum, err = parseNanoseconds(st.DelaySum); err != nil {
			return nil, fmt.Errorf("flowmon file '%s': flow %d delaySum: %w", s.path, st.FlowID, err)
		}
		if rec.JitterSum, err = parseNanoseconds(st.JitterSum); err != nil {
			return nil, fmt.Errorf("flowmon file '%s': flow %d jitterSum: %w", s.path, st.FlowID, err)
		}
		if rec.TimeFirstTx, err = parseNanoseconds(st.TimeFirstTxPacket); err != nil {
			return nil, fmt.Errorf("flowmon file '%s': flow %d timeFirstTxPacket: %w", s.path, st.FlowID, err)
		}
		if rec.TimeLastRx, err = parseNanoseconds(st.TimeLastRxPacket); err != nil {
			return nil, fmt.Errorf("flowmon file '%s': flow %d timeLastRxPacket: %w", s.path, st.FlowID, err)
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

// parseNanoseconds decodes ns-3 time attributes of the form "+850000000.0ns".
func parseNanoseconds(v string) (time.Duration, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(v), "ns")
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value %q: %w", v, err)
	}
	return time.Duration(f), nil
}
