package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/model"
)

// CaptureSource derives raw flow records from two pcap files of the same run:
// one captured at the sender side, one at the receiver side.
type CaptureSource struct {
	txPath string
	rxPath string
}

// NewCaptureSource creates a source reading the given capture pair.
func NewCaptureSource(cfg config.CaptureSourceConfig) *CaptureSource {
	return &CaptureSource{txPath: cfg.TxPath, rxPath: cfg.RxPath}
}

// Collect reads both captures and pairs them into flow records.
func (s *CaptureSource) Collect(_ context.Context) ([]*model.RawFlowRecord, error) {
	tx, err := readSamples(s.txPath)
	if err != nil {
		return nil, fmt.Errorf("sender capture: %w", err)
	}
	rx, err := readSamples(s.rxPath)
	if err != nil {
		return nil, fmt.Errorf("receiver capture: %w", err)
	}
	return matchCaptures(tx, rx), nil
}

// readSamples reads all packets from a pcap file, dropping anything that is
// not IPv4 TCP/UDP.
func readSamples(path string) ([]packetSample, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file '%s': %w", path, err)
	}
	defer handle.Close()

	var samples []packetSample
	skipped := 0

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		sample, err := parseSample(packet)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}
	if skipped > 0 {
		log.Printf("Skipped %d non-IPv4-TCP/UDP packets in '%s'", skipped, path)
	}

	return samples, nil
}

// parseSample decodes a packet into the fields flow matching needs.
func parseSample(packet gopacket.Packet) (packetSample, error) {
	sample := packetSample{}
	if meta := packet.Metadata(); meta != nil {
		sample.Timestamp = meta.Timestamp
	}

	l := packet.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return sample, fmt.Errorf("not an IPv4 packet")
	}
	ipLayer := l.(*layers.IPv4)
	sample.FiveTuple.SrcIP = ipLayer.SrcIP
	sample.FiveTuple.DstIP = ipLayer.DstIP
	sample.FiveTuple.Protocol = uint8(ipLayer.Protocol)

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		tcpLayer := l.(*layers.TCP)
		sample.FiveTuple.SrcPort = uint16(tcpLayer.SrcPort)
		sample.FiveTuple.DstPort = uint16(tcpLayer.DstPort)
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		udpLayer := l.(*layers.UDP)
		sample.FiveTuple.SrcPort = uint16(udpLayer.SrcPort)
		sample.FiveTuple.DstPort = uint16(udpLayer.DstPort)
	} else {
		return sample, fmt.Errorf("not a TCP or UDP packet")
	}

	sample.Digest = payloadDigest(packet)
	return sample, nil
}

func payloadDigest(packet gopacket.Packet) uint64 {
	hasher := fnv.New64a()
	if transport := packet.TransportLayer(); transport != nil {
		hasher.Write(transport.LayerPayload())
	}
	return hasher.Sum64()
}
