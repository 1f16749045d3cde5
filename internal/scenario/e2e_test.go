package scenario

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/mockapi"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

// E2ETestSuite runs the full true-user journey against the in-memory mock
// API over a real HTTP transport.
type E2ETestSuite struct {
	suite.Suite
	srv *httptest.Server
	cfg *config.Config
	reg *metrics.Registry
}

func TestE2ETestSuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

func (suite *E2ETestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.srv = httptest.NewServer(mockapi.New("Passw0rd!test").Handler())
	suite.reg = metrics.NewRegistry()
	suite.cfg = &config.Config{
		BaseURL:         suite.srv.URL,
		UserPassword:    "Passw0rd!test",
		UserEmailPrefix: "loadtest+",
		UserEmailDomain: "example.org",
		UserPoolSize:    10,
		CommentsPerFeed: 3,
		TeamsMin:        2,
		TeamsMax:        2,
		PLatestPaginate: 1.0, PLatestPaginateTwice: 1.0,
		PTeamFeedPaginate: 0, PSummary: 1.0,
		SleepMin:   time.Millisecond,
		SleepMax:   2 * time.Millisecond,
		ErrorSleep: time.Millisecond,
		RunTag:     "e2e",
	}
}

func (suite *E2ETestSuite) TearDownTest() {
	suite.srv.Close()
}

func (suite *E2ETestSuite) TestTrueUserJourney_TwoIterations() {
	client := transport.NewClient(suite.cfg.RunTag, false)
	runner, err := New(TrueUser, suite.cfg, client, suite.reg, 1)
	require.NoError(suite.T(), err)

	runner.RunIteration(context.Background(), 0)
	runner.RunIteration(context.Background(), 0)

	// One login for both iterations: the token is cached across iterations.
	logins, loginFails := suite.reg.Counts(metrics.EndpointLogin)
	suite.Equal(int64(1), logins)
	suite.Equal(int64(0), loginFails)

	// The who-am-I probe runs once per iteration regardless of caching.
	probes, probeFails := suite.reg.Counts(metrics.EndpointMe)
	suite.Equal(int64(2), probes)
	suite.Equal(int64(0), probeFails)

	// latest per iteration: guest read + authenticated read + two forced
	// cursor repeats. The repeats request items after the newest cursor,
	// which legitimately returns an empty page.
	latest, latestFails := suite.reg.Counts(metrics.EndpointLatest)
	suite.Equal(int64(8), latest)
	suite.Equal(int64(0), latestFails)

	// Two teams per iteration, games and top always together, summary forced.
	games, _ := suite.reg.Counts(metrics.EndpointGamesScreen)
	top, _ := suite.reg.Counts(metrics.EndpointTeamTop)
	summaries, _ := suite.reg.Counts(metrics.EndpointSummary)
	suite.Equal(int64(4), games)
	suite.Equal(int64(4), top)
	suite.Equal(int64(4), summaries)

	teamFeeds, _ := suite.reg.Counts(metrics.EndpointTeamFeed)
	suite.Equal(int64(4), teamFeeds)

	// Feed fan-out reached the comments endpoint.
	commentReqs, commentFails := suite.reg.Counts(metrics.EndpointComments)
	suite.Greater(commentReqs, int64(0))
	suite.Equal(int64(0), commentFails)

	// Nothing in the journey failed against the mock API.
	snap := suite.reg.Snapshot()
	for name, ep := range snap.Endpoints {
		suite.Zero(ep.Failures, "endpoint %s reported failures", name)
		suite.Equal(ep.Requests, ep.Count, "endpoint %s duration samples mismatch", name)
	}

	// The summary renders real numbers for exercised endpoints.
	out := suite.reg.RenderSummary()
	suite.Contains(out, "latest")
	suite.Contains(out, "0.00%")
}

func (suite *E2ETestSuite) TestGuestJourney_NoAuthTraffic() {
	client := transport.NewClient(suite.cfg.RunTag, false)
	runner, err := New(Guest, suite.cfg, client, suite.reg, 1)
	require.NoError(suite.T(), err)

	runner.RunIteration(context.Background(), 0)

	logins, _ := suite.reg.Counts(metrics.EndpointLogin)
	suite.Zero(logins)

	latest, latestFails := suite.reg.Counts(metrics.EndpointLatest)
	suite.Equal(int64(1), latest)
	suite.Zero(latestFails)
}
