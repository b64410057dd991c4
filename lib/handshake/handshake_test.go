package handshake

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPcap(t *testing.T, eapolFrames, plainFrames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.cap")
	f, err := os.Create(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, f.Close()) }()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))

	eth := &layers.Ethernet{
		SrcMAC:       []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01},
		DstMAC:       []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02},
		EthernetType: layers.EthernetTypeEAPOL,
	}
	eapol := &layers.EAPOL{Version: 1, Type: layers.EAPOLTypeKey, Length: 95}

	opts := gopacket.SerializeOptions{FixLengths: true}

	for range eapolFrames {
		buf := gopacket.NewSerializeBuffer()
		require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, eapol,
			gopacket.Payload(make([]byte, 95))))
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}, buf.Bytes()))
	}

	plainEth := &layers.Ethernet{
		SrcMAC:       []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01},
		DstMAC:       []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}

	for range plainFrames {
		buf := gopacket.NewSerializeBuffer()
		require.NoError(t, gopacket.SerializeLayers(buf, opts, plainEth,
			gopacket.Payload(make([]byte, 40))))
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}, buf.Bytes()))
	}

	return path
}

func TestAnalyzeCompleteHandshake(t *testing.T) {
	path := writeTestPcap(t, 4, 10)

	analysis, err := Analyze(path)
	require.NoError(t, err)

	assert.Equal(t, 14, analysis.Packets)
	assert.Equal(t, 4, analysis.EAPOLFrames)
	assert.True(t, analysis.HandshakeLikely)
}

func TestAnalyzePartialHandshake(t *testing.T) {
	path := writeTestPcap(t, 2, 5)

	analysis, err := Analyze(path)
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.EAPOLFrames)
	assert.False(t, analysis.HandshakeLikely)
}

func TestAnalyzeNoEAPOL(t *testing.T) {
	path := writeTestPcap(t, 0, 3)

	analysis, err := Analyze(path)
	require.NoError(t, err)

	assert.Zero(t, analysis.EAPOLFrames)
	assert.False(t, analysis.HandshakeLikely)
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := Analyze(filepath.Join(t.TempDir(), "absent.cap"))
	require.Error(t, err)
}

func TestAnalyzeGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.cap")
	require.NoError(t, os.WriteFile(path, []byte("not a pcap"), 0o600))

	_, err := Analyze(path)
	require.ErrorIs(t, err, ErrUnreadableCapture)
}
