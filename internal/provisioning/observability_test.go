package provisioning

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureObserver(verbosity int) (*LogrObserver, *[]string) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, strings.TrimSpace(prefix+" "+args))
	}, funcr.Options{Verbosity: verbosity})
	return NewObserver(log), &lines
}

func TestLogrObserver_Printf(t *testing.T) {
	obs, lines := captureObserver(0)
	obs.Printf("created %d subnets", 3)

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"msg"="created 3 subnets"`)
}

func TestLogrObserver_Event(t *testing.T) {
	obs, lines := captureObserver(0)

	LogResourceCreated(obs, "network", "vpc", "demo", "vpc-1")
	require.Len(t, *lines, 1)
	line := (*lines)[0]
	assert.Contains(t, line, `"event"="resource.created"`)
	assert.Contains(t, line, `"phase"="network"`)
	assert.Contains(t, line, `"id"="vpc-1"`)
	assert.Contains(t, line, `"type"="vpc"`)
}

func TestLogrObserver_VerbosityAndErrors(t *testing.T) {
	obs, lines := captureObserver(0)

	LogResourceCreating(obs, "network", "vpc", "demo")
	assert.Empty(t, *lines, "creating events are debug level")

	LogPhaseFailed(obs, "network", errors.New("boom"))
	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"error"=null`)

	verbose, vlines := captureObserver(1)
	LogResourceCreating(verbose, "network", "vpc", "demo")
	assert.Len(t, *vlines, 1)
}

func TestLogrObserver_WithFields(t *testing.T) {
	obs, lines := captureObserver(0)
	scoped := obs.WithFields(map[string]string{"cluster": "demo", "type": "ctx"})

	scoped.Event(Event{Type: EventResourceDeleted, Message: "gone", Fields: map[string]string{"type": "subnet"}})
	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"cluster"="demo"`)
	assert.Contains(t, (*lines)[0], `"type"="subnet"`, "event fields win over context fields")

	obs.Printf("unscoped")
	assert.NotContains(t, (*lines)[1], "cluster", "parent observer is unchanged")
}

func TestLogPhaseComplete_RoundsDuration(t *testing.T) {
	obs := newRecordingObserver()
	LogPhaseComplete(obs, "subnets", 1234567*time.Microsecond)

	require.Len(t, obs.events, 1)
	assert.Equal(t, "completed in 1.235s", obs.events[0].Message)
}

func TestLogResourceMissing(t *testing.T) {
	obs := newRecordingObserver()
	LogResourceMissing(obs, "teardown", "subnet", "subnet-1")

	require.Len(t, obs.eventsOf(EventResourceMissing), 1)
	assert.Equal(t, "subnet already gone", obs.events[0].Message)
}
