package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureReady(t *testing.T) {
	notifier := NewNotifier("http://gpu-worker:9000", "secret-key")

	httpmock.ActivateNonDefault(notifier.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://gpu-worker:9000/api/capture_ready",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer secret-key", req.Header.Get("Authorization"))

			var payload captureReadyRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "hs-01.cap", payload.Filename)
			assert.Equal(t, "HomeNet", payload.SSID)

			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"status": "ok"})
		})

	err := notifier.CaptureReady(context.Background(), "hs-01.cap", "HomeNet")
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCaptureReadyWorkerError(t *testing.T) {
	notifier := NewNotifier("http://gpu-worker:9000", "secret-key")

	httpmock.ActivateNonDefault(notifier.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://gpu-worker:9000/api/capture_ready",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	err := notifier.CaptureReady(context.Background(), "hs-01.cap", "HomeNet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestCaptureReadyUnreachable(t *testing.T) {
	notifier := NewNotifier("http://gpu-worker:9000", "secret-key")

	httpmock.ActivateNonDefault(notifier.client)
	defer httpmock.DeactivateAndReset()

	err := notifier.CaptureReady(context.Background(), "hs-01.cap", "HomeNet")
	require.Error(t, err)
}
