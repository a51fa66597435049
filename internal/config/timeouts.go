package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds wait and retry tuning.
// These values can be customized via environment variables.
type Timeouts struct {
	PollInterval      time.Duration // Delay between instance state polls
	SlowAfterPolls    int           // Polls before a slow-wait warning is logged
	InstanceRunning   time.Duration // Timeout for the controller to reach running
	InstanceTerminate time.Duration // Timeout for the controller to terminate
	SSHReady          time.Duration // Timeout for the controller to accept SSH
	RetryMaxAttempts  int           // Maximum attempts for throttled provider calls
	RetryInitialDelay time.Duration // Initial backoff for throttled provider calls
	RetryMaxDelay     time.Duration // Backoff cap for throttled provider calls
	RetryMultiplier   float64       // Backoff growth per throttled attempt
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - SPOTCLUSTER_WAIT_INTERVAL (default: 8s)
//   - SPOTCLUSTER_WAIT_SLOW_AFTER (default: 8)
//   - SPOTCLUSTER_TIMEOUT_RUNNING (default: 15m)
//   - SPOTCLUSTER_TIMEOUT_TERMINATE (default: 10m)
//   - SPOTCLUSTER_TIMEOUT_SSH (default: 5m)
//   - SPOTCLUSTER_RETRY_MAX_ATTEMPTS (default: 5)
//   - SPOTCLUSTER_RETRY_INITIAL_DELAY (default: 1s)
//   - SPOTCLUSTER_RETRY_MAX_DELAY (default: 30s)
//   - SPOTCLUSTER_RETRY_MULTIPLIER (default: 2)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:      parseDuration("SPOTCLUSTER_WAIT_INTERVAL", 8*time.Second),
		SlowAfterPolls:    parseInt("SPOTCLUSTER_WAIT_SLOW_AFTER", 8),
		InstanceRunning:   parseDuration("SPOTCLUSTER_TIMEOUT_RUNNING", 15*time.Minute),
		InstanceTerminate: parseDuration("SPOTCLUSTER_TIMEOUT_TERMINATE", 10*time.Minute),
		SSHReady:          parseDuration("SPOTCLUSTER_TIMEOUT_SSH", 5*time.Minute),
		RetryMaxAttempts:  parseInt("SPOTCLUSTER_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("SPOTCLUSTER_RETRY_INITIAL_DELAY", 1*time.Second),
		RetryMaxDelay:     parseDuration("SPOTCLUSTER_RETRY_MAX_DELAY", 30*time.Second),
		RetryMultiplier:   parseFloat("SPOTCLUSTER_RETRY_MULTIPLIER", 2),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}

// parseFloat parses a factor of at least 1 from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseFloat(envVar string, defaultVal float64) float64 {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 1 {
		return defaultVal
	}

	return f
}
