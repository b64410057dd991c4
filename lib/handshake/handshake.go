// Package handshake inspects pcap capture files for WPA handshake material.
package handshake

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrUnreadableCapture indicates the file could not be parsed as pcap.
var ErrUnreadableCapture = errors.New("unreadable capture file")

// fullHandshakeFrames is the number of EAPOL messages in a complete
// WPA 4-way handshake.
const fullHandshakeFrames = 4

// Analysis summarizes the handshake-relevant contents of a capture file.
type Analysis struct {
	Packets         int  `json:"packets"`
	EAPOLFrames     int  `json:"eapol_frames"`
	BeaconFrames    int  `json:"beacon_frames"`
	HandshakeLikely bool `json:"handshake_likely"`
}

// Analyze reads a pcap file and counts EAPOL and beacon frames. A capture
// with at least four EAPOL frames likely holds a complete 4-way handshake.
func Analyze(path string) (Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("open capture: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrUnreadableCapture, err)
	}

	var analysis Analysis

	for {
		data, _, readErr := reader.ReadPacketData()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			// Truncated trailing packet; keep what was counted so far.
			break
		}

		analysis.Packets++

		pkt := gopacket.NewPacket(data, reader.LinkType(), gopacket.Lazy)
		if pkt.Layer(layers.LayerTypeEAPOL) != nil {
			analysis.EAPOLFrames++
		}

		if dot11 := pkt.Layer(layers.LayerTypeDot11); dot11 != nil {
			if frame, ok := dot11.(*layers.Dot11); ok &&
				frame.Type == layers.Dot11TypeMgmtBeacon {
				analysis.BeaconFrames++
			}
		}
	}

	analysis.HandshakeLikely = analysis.EAPOLFrames >= fullHandshakeFrames

	return analysis, nil
}
