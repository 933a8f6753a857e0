// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestRateLimiterIntervals(t *testing.T) {
	rl := NewRateLimiter(types.RateLimitConfig{
		PerSourceDelays: map[string]time.Duration{
			"arxiv": 10 * time.Second,
		},
	})

	tests := []struct {
		source string
		want   time.Duration
	}{
		{"arxiv", 10 * time.Second},           // override wins
		{"unpaywall", 100 * time.Millisecond}, // built-in default
		{"somewhere_new", time.Second},        // fallback
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rl.Interval(tt.source), "Interval(%q)", tt.source)
	}
}

func TestRateLimiterFirstRequestImmediate(t *testing.T) {
	rl := NewRateLimiter(types.RateLimitConfig{})

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "arxiv"))
	assert.Less(t, time.Since(start), time.Second, "first Wait should be immediate")
}

func TestRateLimiterWaitHonorsCancellation(t *testing.T) {
	rl := NewRateLimiter(types.RateLimitConfig{
		PerSourceDelays: map[string]time.Duration{"slow": time.Hour},
	})

	// Burn the initial token.
	require.NoError(t, rl.Wait(context.Background(), "slow"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rl.Wait(ctx, "slow"), "Wait with cancelled context should fail")
}

func TestRateLimiterIndependentPerSource(t *testing.T) {
	rl := NewRateLimiter(types.RateLimitConfig{
		PerSourceDelays: map[string]time.Duration{"slow": time.Hour},
	})

	require.NoError(t, rl.Wait(context.Background(), "slow"))

	// Another source must not be blocked by the slow one's pacing.
	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "openalex"))
	assert.Less(t, time.Since(start), time.Second, "openalex Wait should be immediate")
}
