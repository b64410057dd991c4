package wifi

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wavecrack/wavecrackd/coordstate"
)

var bssidRe = regexp.MustCompile(`([0-9a-fA-F]{2}(?::[0-9a-fA-F]{2}){5})`)

// ScanNetworks runs an active scan on the given interface and returns the
// observed access points, deduplicated by SSID keeping the strongest signal.
func (a *ToolAdapter) ScanNetworks(ctx context.Context, iface string) ([]Network, error) {
	out, err := runTool(ctx, scanToolTimeout, "iw", "dev", iface, "scan")
	if err != nil {
		return nil, err
	}

	nets := parseScan(out)
	coordstate.Logger.Info("Scan complete", "interface", iface, "networks", len(nets))

	return nets, nil
}

// parseScan converts `iw dev <iface> scan` output into a network list.
// Hidden networks (empty SSID) are dropped; duplicate SSIDs keep the entry
// with the best signal.
func parseScan(text string) []Network {
	var nets []Network

	var cur *Network

	flush := func() {
		if cur != nil && cur.SSID != "" {
			if cur.Encryption == "" {
				cur.Encryption = EncryptionOpen
			}
			nets = append(nets, *cur)
		}
		cur = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "BSS "):
			flush()

			cur = &Network{Signal: -100}
			if m := bssidRe.FindString(line); m != "" {
				cur.BSSID = strings.ToLower(m)
			}
		case cur == nil:
			continue
		case strings.HasPrefix(line, "SSID:"):
			cur.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		case strings.HasPrefix(line, "signal:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					cur.Signal = int(v)
				}
			}
		case strings.HasPrefix(line, "freq:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if mhz, err := strconv.ParseFloat(fields[1], 64); err == nil && cur.Channel == 0 {
					cur.Channel = frequencyToChannel(mhz)
				}
			}
		case strings.HasPrefix(line, "DS Parameter set: channel"):
			fields := strings.Fields(line)
			if v, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				cur.Channel = v
			}
		case strings.HasPrefix(line, "RSN:"):
			// SAE AKM means WPA3; plain RSN is WPA2.
			if cur.Encryption != EncryptionWPA3 {
				cur.Encryption = EncryptionWPA2
			}
		case strings.Contains(line, "SAE"):
			cur.Encryption = EncryptionWPA3
		case strings.HasPrefix(line, "WPA:"):
			if cur.Encryption == "" || cur.Encryption == EncryptionOpen || cur.Encryption == EncryptionWEP {
				cur.Encryption = EncryptionWPA
			}
		case strings.Contains(line, "WEP"):
			if cur.Encryption == "" || cur.Encryption == EncryptionOpen {
				cur.Encryption = EncryptionWEP
			}
		}
	}

	flush()

	best := make(map[string]Network, len(nets))
	for _, n := range nets {
		if prev, ok := best[n.SSID]; !ok || n.Signal > prev.Signal {
			best[n.SSID] = n
		}
	}

	out := make([]Network, 0, len(best))
	for _, n := range best {
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Signal > out[j].Signal })

	return out
}

// frequencyToChannel maps a 802.11 center frequency in MHz to its channel
// number. Returns 0 for frequencies outside the 2.4/5 GHz bands.
func frequencyToChannel(mhz float64) int {
	switch {
	case mhz >= 2412 && mhz <= 2472:
		return int(mhz-2407) / 5
	case mhz == 2484:
		return 14
	case mhz >= 5000 && mhz <= 5900:
		return int(mhz-5000) / 5
	default:
		return 0
	}
}
