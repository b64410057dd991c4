package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const notifyTimeout = 10 * time.Second

// Notifier pushes capture-ready notifications to the GPU worker.
type Notifier struct {
	workerURL string
	apiKey    string
	client    *http.Client
}

// NewNotifier returns a notifier for the worker at workerURL.
func NewNotifier(workerURL, apiKey string) *Notifier {
	return &Notifier{
		workerURL: workerURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: notifyTimeout},
	}
}

type captureReadyRequest struct {
	Filename string `json:"filename"`
	SSID     string `json:"ssid"`
}

// CaptureReady tells the GPU worker that a staged capture file is waiting.
func (n *Notifier) CaptureReady(ctx context.Context, filename, ssid string) error {
	body, err := json.Marshal(captureReadyRequest{Filename: filename, SSID: ssid})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.workerURL+"/api/capture_ready", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify GPU worker: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify GPU worker: unexpected status %d", resp.StatusCode)
	}

	coordstate.Logger.Debug("GPU worker notified", "file", filename)

	return nil
}
