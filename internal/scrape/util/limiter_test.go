package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterPerHost(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, hl.WaitURL(ctx, "https://a.example/1"))
	// a different host has its own bucket
	require.NoError(t, hl.WaitURL(ctx, "https://b.example/1"))
	// the second request to a.example has to wait ~1s and runs out of time
	assert.Error(t, hl.WaitURL(ctx, "https://a.example/2"))
}

func TestHostLimiterUnlimitedAndNil(t *testing.T) {
	hl := NewHostLimiter(0, 1)
	for i := 0; i < 50; i++ {
		require.NoError(t, hl.WaitURL(context.Background(), "https://a.example/"))
	}
	var none *HostLimiter
	assert.NoError(t, none.WaitURL(context.Background(), "https://a.example/"))
}
