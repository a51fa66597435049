package netutil

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestWaitForPort_Open(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	err = WaitForPort(context.Background(), "127.0.0.1", port, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitForPort_Timeout(t *testing.T) {
	port := freePort(t)
	timeout := 200 * time.Millisecond

	start := time.Now()
	err := WaitForPort(context.Background(), "127.0.0.1", port, timeout, 20*time.Millisecond)

	assert.ErrorIs(t, err, ErrPortTimeout)
	assert.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestWaitForPort_DelayedStart(t *testing.T) {
	port := freePort(t)
	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	go func() {
		time.Sleep(100 * time.Millisecond)
		ln, err := net.Listen("tcp", address)
		if err != nil {
			return
		}
		time.Sleep(time.Second)
		ln.Close()
	}()

	err := WaitForPort(context.Background(), "127.0.0.1", port, 3*time.Second, 20*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitForPort_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForPort(ctx, "127.0.0.1", freePort(t), time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForPort_WithDial(t *testing.T) {
	var attempts []string
	refuse := func(_ context.Context, network, address string) (net.Conn, error) {
		attempts = append(attempts, network+" "+address)
		if len(attempts) < 3 {
			return nil, errors.New("connection refused")
		}
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}

	err := WaitForPort(context.Background(), "198.51.100.7", SSHPort, time.Second, time.Millisecond, WithDial(refuse))
	require.NoError(t, err)
	assert.Len(t, attempts, 3)
	assert.Equal(t, "tcp 198.51.100.7:22", attempts[0])
}

func TestWaitForPort_WithNilDialKeepsDefault(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	assert.NoError(t, WaitForPort(context.Background(), "127.0.0.1", port, time.Second, 10*time.Millisecond, WithDial(nil)))
}
