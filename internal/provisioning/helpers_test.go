package provisioning

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/imamik/spotcluster/internal/config"
	fake "github.com/imamik/spotcluster/internal/testing"
)

// recordingObserver records events and messages.
type recordingObserver struct {
	mu       sync.Mutex
	events   []Event
	messages []string
	fields   map[string]string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{fields: map[string]string{}}
}

func (o *recordingObserver) Printf(format string, _ ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, format)
}

func (o *recordingObserver) Event(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) WithFields(fields map[string]string) Observer {
	next := newRecordingObserver()
	for k, v := range o.fields {
		next.fields[k] = v
	}
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (o *recordingObserver) eventsOf(t EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestContext(t *testing.T, cloud *fake.FakeCloud) (*Context, *recordingObserver, *fake.MemoryStore) {
	t.Helper()
	cfg := fake.NewConfigBuilder().Build()
	store := fake.NewMemoryStore()
	ctx := NewContext(fake.TestContext(t), cfg, fake.NewRecord(cfg), store, cloud)
	obs := newRecordingObserver()
	ctx.Observer = obs
	ctx.Timeouts = &config.Timeouts{
		PollInterval:      time.Millisecond,
		SlowAfterPolls:    3,
		InstanceRunning:   time.Second,
		InstanceTerminate: time.Second,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
	return ctx, obs, store
}

var _ context.Context = (*Context)(nil)
