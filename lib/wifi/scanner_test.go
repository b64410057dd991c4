package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iwScanFixture = `BSS aa:bb:cc:dd:ee:01(on wlan0)
	freq: 2437
	signal: -45.00 dBm
	SSID: HomeNet
	DS Parameter set: channel 6
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK
BSS aa:bb:cc:dd:ee:02(on wlan0)
	freq: 5180
	signal: -60.00 dBm
	SSID: OfficeNet
	RSN:	 * Version: 1
		 * Authentication suites: SAE
BSS aa:bb:cc:dd:ee:03(on wlan0)
	freq: 2412
	signal: -72.00 dBm
	SSID: CoffeeShop
BSS aa:bb:cc:dd:ee:04(on wlan0)
	freq: 2462
	signal: -80.00 dBm
	SSID: HomeNet
	RSN:	 * Version: 1
BSS aa:bb:cc:dd:ee:05(on wlan0)
	freq: 2422
	signal: -55.00 dBm
	SSID: LegacyNet
	WPA:	 * Version: 1
BSS aa:bb:cc:dd:ee:06(on wlan0)
	freq: 2427
	signal: -66.00 dBm
	SSID:
`

func TestParseScan(t *testing.T) {
	nets := parseScan(iwScanFixture)

	// Hidden SSID dropped, duplicate HomeNet collapsed.
	require.Len(t, nets, 4)

	// Sorted by signal, strongest first.
	assert.Equal(t, "HomeNet", nets[0].SSID)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", nets[0].BSSID)
	assert.Equal(t, -45, nets[0].Signal)
	assert.Equal(t, 6, nets[0].Channel)
	assert.Equal(t, EncryptionWPA2, nets[0].Encryption)

	assert.Equal(t, "LegacyNet", nets[1].SSID)
	assert.Equal(t, EncryptionWPA, nets[1].Encryption)

	assert.Equal(t, "OfficeNet", nets[2].SSID)
	assert.Equal(t, 36, nets[2].Channel)
	assert.Equal(t, EncryptionWPA3, nets[2].Encryption)

	assert.Equal(t, "CoffeeShop", nets[3].SSID)
	assert.Equal(t, EncryptionOpen, nets[3].Encryption)
	assert.Equal(t, 1, nets[3].Channel)
}

func TestParseScanEmpty(t *testing.T) {
	assert.Empty(t, parseScan(""))
	assert.Empty(t, parseScan("command failed: No such device"))
}

func TestFrequencyToChannel(t *testing.T) {
	tests := []struct {
		name string
		mhz  float64
		want int
	}{
		{name: "channel 1", mhz: 2412, want: 1},
		{name: "channel 6", mhz: 2437, want: 6},
		{name: "channel 11", mhz: 2462, want: 11},
		{name: "channel 14", mhz: 2484, want: 14},
		{name: "channel 36", mhz: 5180, want: 36},
		{name: "channel 149", mhz: 5745, want: 149},
		{name: "out of band", mhz: 900, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frequencyToChannel(tt.mhz))
		})
	}
}
