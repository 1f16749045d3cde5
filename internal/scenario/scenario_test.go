package scenario

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

type countingDoer struct {
	mu    sync.Mutex
	calls []string
}

func (d *countingDoer) note(method, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, method+" "+url)
}

func (d *countingDoer) Get(ctx context.Context, url string, headers map[string]string) (*transport.Response, error) {
	d.note("GET", url)
	return &transport.Response{StatusCode: 200, Body: []byte(`{"items":[]}`)}, nil
}

func (d *countingDoer) Post(ctx context.Context, url string, headers map[string]string, body any) (*transport.Response, error) {
	d.note("POST", url)
	return &transport.Response{StatusCode: 200, Body: []byte(`{"token":"tok"}`)}, nil
}

func (d *countingDoer) count(substr string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, call := range d.calls {
		if strings.Contains(call, substr) {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:         "http://api.test",
		UserPassword:    "pw",
		UserEmailPrefix: "loadtest+",
		UserEmailDomain: "example.org",
		UserPoolSize:    50,
		CommentsPerFeed: 3,
		TeamsMin:        1,
		TeamsMax:        1,
		SleepMin:        time.Microsecond,
		SleepMax:        2 * time.Microsecond,
		ErrorSleep:      time.Microsecond,
		PBlendTrueUser:  1.0,
	}
}

func TestTeamPool_ReturnsCopy(t *testing.T) {
	pool := TeamPool()
	require.NotEmpty(t, pool)
	pool[0] = -99
	assert.NotEqual(t, -99, TeamPool()[0])
}

func TestTeamPool_DocumentedGaps(t *testing.T) {
	pool := TeamPool()
	seen := map[int]bool{}
	for _, id := range pool {
		assert.Positive(t, id)
		assert.False(t, seen[id], "duplicate team id %d", id)
		seen[id] = true
	}
	// The merged-club range must stay out of the pool.
	for id := 15; id <= 19; id++ {
		assert.False(t, seen[id], "id %d is a known-invalid gap", id)
	}
}

func TestNew_UnknownScenario(t *testing.T) {
	_, err := New("chaos-monkey", testConfig(), &countingDoer{}, metrics.NewRegistry(), 1)
	assert.Error(t, err)
}

func TestNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{Blended, Guest, TrueUser}, Names())
}

func TestGuestScenario_ThinSequentialFlow(t *testing.T) {
	doer := &countingDoer{}
	runner, err := New(Guest, testConfig(), doer, metrics.NewRegistry(), 2)
	require.NoError(t, err)

	runner.RunIteration(context.Background(), 0)

	assert.Equal(t, 1, doer.count("/api/feed/latest"))
	assert.Equal(t, 1, doer.count("/games"))
	assert.Len(t, doer.calls, 3, "latest + team feed + games screen, nothing else")
	assert.Equal(t, 0, doer.count("/login"), "guest flow never authenticates")
	assert.Equal(t, 0, doer.count("/comments"), "guest flow has no fan-out")
}

func TestTrueUserScenario_WorkersKeepTheirOwnSession(t *testing.T) {
	doer := &countingDoer{}
	runner, err := New(TrueUser, testConfig(), doer, metrics.NewRegistry(), 2)
	require.NoError(t, err)

	// Two iterations per worker: each worker logs in once and caches.
	runner.RunIteration(context.Background(), 0)
	runner.RunIteration(context.Background(), 0)
	runner.RunIteration(context.Background(), 1)
	runner.RunIteration(context.Background(), 1)

	assert.Equal(t, 2, doer.count("/login"), "one login per worker, cached across iterations")
}

func TestBlendedScenario_AllTrueUserWhenForced(t *testing.T) {
	doer := &countingDoer{}
	cfg := testConfig()
	cfg.PBlendTrueUser = 1.0
	runner, err := New(Blended, cfg, doer, metrics.NewRegistry(), 1)
	require.NoError(t, err)

	runner.RunIteration(context.Background(), 0)
	assert.Equal(t, 1, doer.count("/login"))
}

func TestBlendedScenario_AllGuestWhenZero(t *testing.T) {
	doer := &countingDoer{}
	cfg := testConfig()
	cfg.PBlendTrueUser = 0.0
	runner, err := New(Blended, cfg, doer, metrics.NewRegistry(), 1)
	require.NoError(t, err)

	runner.RunIteration(context.Background(), 0)
	assert.Equal(t, 0, doer.count("/login"))
	assert.Equal(t, 1, doer.count("/games"))
}
