package compute

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/provisioning/infrastructure"
	fake "github.com/imamik/spotcluster/internal/testing"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type eventLog struct {
	mu     sync.Mutex
	events []provisioning.Event
}

func (l *eventLog) Printf(string, ...any) {}

func (l *eventLog) Event(e provisioning.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) WithFields(map[string]string) provisioning.Observer { return l }

func (l *eventLog) of(t provisioning.EventType) []provisioning.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []provisioning.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// newContext returns a context whose key directory is a temp dir and whose
// waits poll every millisecond.
func newContext(t *testing.T, cloud *fake.FakeCloud, b *fake.ConfigBuilder) (*provisioning.Context, *eventLog) {
	t.Helper()
	if b == nil {
		b = fake.NewConfigBuilder()
	}
	cfg := b.WithKeyDir(t.TempDir()).Build()

	ctx := provisioning.NewContext(fake.TestContext(t), cfg, fake.NewRecord(cfg), fake.NewMemoryStore(), cloud)
	log := &eventLog{}
	ctx.Observer = log
	ctx.Prices = fake.NewCatalog()
	ctx.Now = fake.FixedClock(testNow)
	ctx.Timeouts = &config.Timeouts{
		PollInterval:      time.Millisecond,
		SlowAfterPolls:    5,
		InstanceRunning:   2 * time.Second,
		InstanceTerminate: 2 * time.Second,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
	return ctx, log
}

// withNetwork runs the infrastructure phases.
func withNetwork(t *testing.T, ctx *provisioning.Context) {
	t.Helper()
	require.NoError(t, provisioning.RunPhases(ctx, infrastructure.Phases()))
}

// upTo runs the compute phases before the named one.
func upTo(t *testing.T, ctx *provisioning.Context, phase string) {
	t.Helper()
	withNetwork(t, ctx)
	for _, p := range Phases(seeded()) {
		if p.Name() == phase {
			return
		}
		require.NoError(t, p.Provision(ctx), p.Name())
	}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
