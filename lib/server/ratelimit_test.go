package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	limiter := newRateLimiter(2)

	base := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return base }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))

	// Other clients have their own budget.
	assert.True(t, limiter.allow("10.0.0.2"))

	// Old requests fall out of the window.
	limiter.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.True(t, limiter.allow("10.0.0.1"))
}

func TestRateLimiterPartialExpiry(t *testing.T) {
	limiter := newRateLimiter(2)

	base := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return base }
	assert.True(t, limiter.allow("10.0.0.1"))

	limiter.now = func() time.Time { return base.Add(30 * time.Second) }
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))

	// The first request expires; the second is still inside the window.
	limiter.now = func() time.Time { return base.Add(75 * time.Second) }
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
}
