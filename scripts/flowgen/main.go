package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	commonPorts = []uint16{22, 25, 53, 80, 110, 143, 443, 993, 3306, 3389, 8080}
	protocols   = []layers.IPProtocol{layers.IPProtocolTCP, layers.IPProtocolTCP, layers.IPProtocolUDP, layers.IPProtocolICMPv4, 47}
)

type flow struct {
	srcIP, dstIP     net.IP
	srcPort, dstPort uint16
	proto            layers.IPProtocol
	packets, bytes   int
}

func main() {
	outputFile := flag.String("o", "flow_logs.txt", "Output file path")
	count := flag.Int("c", 1000, "Number of flow records to generate")
	asPcap := flag.Bool("pcap", false, "Write one packet per flow as a pcap file instead of flow log lines")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Printf("Generating %d flows into %s...", *count, *outputFile)
	if *asPcap {
		err = writePcap(f, rng, *count)
	} else {
		err = writeFlowLog(f, rng, *count)
	}
	if err != nil {
		log.Fatalf("Failed to generate flows: %v", err)
	}
	log.Printf("Successfully generated %d flows into %s.", *count, *outputFile)
}

func randomFlow(rng *rand.Rand) flow {
	fl := flow{
		srcIP:   net.IP{10, 0, byte(rng.Intn(256)), byte(rng.Intn(256))},
		dstIP:   net.IP{10, 1, byte(rng.Intn(256)), byte(rng.Intn(256))},
		srcPort: uint16(rng.Intn(65535-1024) + 1024),
		proto:   protocols[rng.Intn(len(protocols))],
		packets: rng.Intn(100) + 1,
	}
	fl.bytes = fl.packets * (rng.Intn(1400) + 40)
	if rng.Intn(4) == 0 {
		fl.dstPort = uint16(rng.Intn(65535-1024) + 1024)
	} else {
		fl.dstPort = commonPorts[rng.Intn(len(commonPorts))]
	}
	if fl.proto == layers.IPProtocolICMPv4 {
		fl.srcPort, fl.dstPort = 0, 0
	}
	return fl
}

// writeFlowLog writes version 2 flow log records.
func writeFlowLog(f *os.File, rng *rand.Rand, count int) error {
	w := bufio.NewWriter(f)
	start := time.Now().Unix()
	for i := 0; i < count; i++ {
		fl := randomFlow(rng)
		action := "ACCEPT"
		if rng.Intn(10) == 0 {
			action = "REJECT"
		}
		fmt.Fprintf(w, "2 123456789012 eni-%08x %s %s %d %d %d %d %d %d %d %s OK\n",
			rng.Uint32(), fl.srcIP, fl.dstIP, fl.dstPort, fl.srcPort, fl.proto,
			fl.packets, fl.bytes, start, start+60, action)
	}
	return w.Flush()
}

// writePcap writes one Ethernet frame per flow.
func writePcap(f *os.File, rng *rand.Rand, count int) error {
	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	for i := 0; i < count; i++ {
		fl := randomFlow(rng)

		ethLayer := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ipLayer := &layers.IPv4{SrcIP: fl.srcIP, DstIP: fl.dstIP, Version: 4, TTL: 64, Protocol: fl.proto}

		stack := []gopacket.SerializableLayer{ethLayer, ipLayer}
		switch fl.proto {
		case layers.IPProtocolTCP:
			tcpLayer := &layers.TCP{SrcPort: layers.TCPPort(fl.srcPort), DstPort: layers.TCPPort(fl.dstPort), SYN: true, Window: 14600}
			tcpLayer.SetNetworkLayerForChecksum(ipLayer)
			stack = append(stack, tcpLayer)
		case layers.IPProtocolUDP:
			udpLayer := &layers.UDP{SrcPort: layers.UDPPort(fl.srcPort), DstPort: layers.UDPPort(fl.dstPort)}
			udpLayer.SetNetworkLayerForChecksum(ipLayer)
			stack = append(stack, udpLayer)
		case layers.IPProtocolICMPv4:
			stack = append(stack, &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)})
		}
		stack = append(stack, gopacket.Payload(make([]byte, 32)))

		buf := gopacket.NewSerializeBuffer()
		if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
			return fmt.Errorf("failed to serialize layers: %w", err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := pcapWriter.WritePacket(ci, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}
	return nil
}
