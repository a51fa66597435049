// Package netutil provides network utility functions for port checking.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// SSHPort is checked before the controller is reported reachable.
const SSHPort = 22

// dialTimeout bounds a single connection attempt.
const dialTimeout = 2 * time.Second

// ErrPortTimeout is returned when the port did not open in time.
var ErrPortTimeout = errors.New("timed out waiting for port")

// DialFunc opens a connection. It has the signature of net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Option configures WaitForPort.
type Option func(*waitConfig)

type waitConfig struct {
	dial DialFunc
}

// WithDial replaces the TCP dialer. A nil dial keeps the default.
func WithDial(dial DialFunc) Option {
	return func(c *waitConfig) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WaitForPort waits for a TCP port to accept connections on host. It retries
// every interval until the port is accessible or the timeout is reached.
func WaitForPort(ctx context.Context, host string, port int, timeout, interval time.Duration, opts ...Option) error {
	cfg := &waitConfig{dial: (&net.Dialer{Timeout: dialTimeout}).DialContext}
	for _, opt := range opts {
		opt(cfg)
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if reachable(ctx, cfg.dial, address) {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %s", ErrPortTimeout, address, timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func reachable(ctx context.Context, dial DialFunc, address string) bool {
	conn, err := dial(ctx, "tcp", address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
