package pcap

import (
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Reader reads packets from a pcap file and turns each into a flow record.
type Reader struct {
	file    *os.File
	reader  *pcapgo.Reader
	skipped uint64
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &Reader{file: file, reader: reader}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// ReadRecords reads all packets from the pcap file and sends a record for each
// IP packet to out. It closes the channel when done; Skipped is valid from then on.
func (r *Reader) ReadRecords(out chan<- model.FlowRecord) {
	defer close(out)

	packetSource := gopacket.NewPacketSource(r.reader, r.reader.LinkType())
	for packet := range packetSource.Packets() {
		rec, err := ParsePacket(packet)
		if err != nil {
			r.skipped++
			continue
		}
		out <- rec
	}
	if r.skipped > 0 {
		log.Printf("Skipped %d non-IP packets.", r.skipped)
	}
}

// Skipped returns the number of packets ReadRecords dropped as non-IP.
func (r *Reader) Skipped() uint64 {
	return r.skipped
}

// ParsePacket extracts the destination port and IP protocol number of a packet.
// Packets without a TCP or UDP layer get port 0, as in flow logs.
func ParsePacket(packet gopacket.Packet) (model.FlowRecord, error) {
	var rec model.FlowRecord

	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		rec.ProtocolNumber = uint64(l.(*layers.IPv4).Protocol)
	} else if l := packet.Layer(layers.LayerTypeIPv6); l != nil {
		rec.ProtocolNumber = uint64(l.(*layers.IPv6).NextHeader)
	} else {
		return rec, fmt.Errorf("not an IP packet")
	}

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		rec.DstPort = uint64(l.(*layers.TCP).DstPort)
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		rec.DstPort = uint64(l.(*layers.UDP).DstPort)
	}

	return rec, nil
}
