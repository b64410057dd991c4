package wifi

import (
	"context"
	"strconv"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const deauthTimeout = 30 * time.Second

// SendDeauth sends a burst of deauthentication frames to the target BSSID to
// force clients to reconnect and complete a fresh handshake.
func (a *ToolAdapter) SendDeauth(ctx context.Context, iface, bssid string, count int) error {
	coordstate.Logger.Info("Sending deauth burst", "bssid", bssid, "count", count)

	_, err := runTool(ctx, deauthTimeout, "aireplay-ng",
		"--deauth", strconv.Itoa(count),
		"-a", bssid,
		iface)

	return err
}
