//go:build unix

package debug

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	for _, name := range []string{"SIGUSR1", "usr1", " Usr1 "} {
		sig, err := ParseSignal(name)
		require.NoError(t, err, name)
		assert.Equal(t, syscall.SIGUSR1, sig)
	}
	_, err := ParseSignal("SIGNOPE")
	assert.Error(t, err)
}

func TestNotify(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var p PauseSignal
	p.Notify(ctx, syscall.SIGUSR2)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	require.Eventually(t, p.Pending, time.Second, time.Millisecond)
	assert.True(t, p.Consume())
	assert.False(t, p.Pending())
}
