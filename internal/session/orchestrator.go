package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/feed"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

// Orchestrator drives one virtual user's full browsing journey: guest reads,
// auth bootstrap, authenticated feed with pagination, then a randomized
// multi-team fan-out. One Orchestrator per worker; RunIteration is called
// repeatedly and sequentially by the load driver.
type Orchestrator struct {
	cfg    *config.Config
	client transport.Doer
	reg    *metrics.Registry
	creds  *Credentials
	user   *User
	teams  []int
	rng    *rand.Rand
	log    *logrus.Entry

	// Sleep is the pacing primitive, replaceable in tests.
	Sleep func(time.Duration)
}

func NewOrchestrator(cfg *config.Config, client transport.Doer, reg *metrics.Registry, user *User, teams []int, rng *rand.Rand) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		client: client,
		reg:    reg,
		creds:  NewCredentials(client, reg, cfg.BaseURL),
		user:   user,
		teams:  teams,
		rng:    rng,
		log:    logrus.WithField("user", user.Email),
		Sleep:  time.Sleep,
	}
}

// User exposes the session identity, mainly for tests and logging.
func (o *Orchestrator) User() *User {
	return o.user
}

// RunIteration executes one full session flow. Every call outcome is
// recorded; failures are soft except login failure and an invalidated token,
// which abort the rest of the iteration.
func (o *Orchestrator) RunIteration(ctx context.Context) {
	base := o.cfg.BaseURL

	// Guest browse before the app would prompt for login.
	o.readFeedWithFanout(ctx, metrics.EndpointLatest, LatestURL(base), nil)
	o.pace()

	// Auth bootstrap. A cached token from an earlier iteration skips the
	// login but still gets probed once, emulating app re-hydration.
	if !o.creds.EnsureToken(ctx, o.user) {
		o.Sleep(o.cfg.ErrorSleep)
		return
	}
	if o.creds.Probe(ctx, o.user) == ProbeInvalid {
		o.log.Debug("token invalidated, aborting iteration")
		return
	}
	o.getRecorded(ctx, metrics.EndpointUserTeams, UserTeamsURL(base), BearerHeaders(o.user))

	// Authenticated primary feed, with the pull-to-refresh pagination replay.
	o.feedWithPagination(ctx, metrics.EndpointLatest, LatestURL(base), BearerHeaders(o.user),
		o.cfg.PLatestPaginate, o.cfg.PLatestPaginateTwice,
		func(cursor string) string { return LatestAfterURL(base, cursor) })
	o.pace()

	for _, teamID := range o.pickTeams() {
		o.feedWithPagination(ctx, metrics.EndpointTeamFeed, TeamFeedURL(base, teamID), nil,
			o.cfg.PTeamFeedPaginate, o.cfg.PTeamFeedPaginateTwice,
			func(cursor string) string { return TeamFeedAfterURL(base, teamID, cursor) })
		o.pace()

		// The real client's team screen issues both of these together,
		// unconditionally: games first, then top.
		o.getRecorded(ctx, metrics.EndpointGamesScreen, GamesScreenURL(base, teamID), nil)
		o.getRecorded(ctx, metrics.EndpointTeamTop, TeamTopURL(base, teamID), BearerHeaders(o.user))

		if o.rng.Float64() < o.cfg.PSummary {
			o.getRecorded(ctx, metrics.EndpointSummary, TeamSummaryURL(base, teamID), BearerHeaders(o.user))
		}
		o.pace()
	}
}

// getRecorded issues one GET and records its outcome. Returns the response
// and whether it was a 2xx.
func (o *Orchestrator) getRecorded(ctx context.Context, ep metrics.Endpoint, url string, headers map[string]string) (*transport.Response, bool) {
	resp, err := o.client.Get(ctx, url, headers)
	sample := transport.Sample(resp)
	o.reg.Record(ep, sample)
	if err != nil || sample.Failed() {
		return resp, false
	}
	return resp, true
}

// readFeedWithFanout reads a feed endpoint and, on success, fans out to the
// comments thread of up to CommentsPerFeed discovered items. Returns the
// parsed payload when one was available.
func (o *Orchestrator) readFeedWithFanout(ctx context.Context, ep metrics.Endpoint, url string, headers map[string]string) (map[string]any, bool) {
	resp, ok := o.getRecorded(ctx, ep, url, headers)
	if !ok {
		return nil, false
	}
	payload, parsed := feed.Parse(resp.Body)
	if !parsed {
		return nil, false
	}
	for _, itemID := range feed.ExtractItemIDs(payload, o.cfg.CommentsPerFeed) {
		o.getRecorded(ctx, metrics.EndpointComments, CommentsURL(o.cfg.BaseURL, itemID), nil)
	}
	return payload, true
}

// feedWithPagination performs the primary feed read (with fan-out) and then,
// probabilistically, one or two cursor-paginated repeats. The cursor is
// derived once from the first page and reused verbatim for both repeats, so
// the two repeats are identical requests. That mirrors the production
// client's double pull-to-refresh and is intentional; do not re-derive the
// cursor from the repeat responses.
func (o *Orchestrator) feedWithPagination(ctx context.Context, ep metrics.Endpoint, url string, headers map[string]string, pOnce, pTwice float64, afterURL func(cursor string) string) {
	payload, ok := o.readFeedWithFanout(ctx, ep, url, headers)
	if !ok {
		return
	}
	cursor, has := feed.ExtractCursor(payload)
	if !has {
		return
	}
	if o.rng.Float64() >= pOnce {
		return
	}
	repeat := afterURL(cursor)
	o.getRecorded(ctx, ep, repeat, headers)
	if o.rng.Float64() < pTwice {
		o.getRecorded(ctx, ep, repeat, headers)
	}
}

// pickTeams selects a random count of distinct team ids within the
// configured bounds, without replacement.
func (o *Orchestrator) pickTeams() []int {
	low, high := o.cfg.TeamsMin, o.cfg.TeamsMax
	if low < 1 {
		low = 1
	}
	if high < low {
		high = low
	}
	count := low + o.rng.Intn(high-low+1)
	if count > len(o.teams) {
		count = len(o.teams)
	}

	picked := make([]int, 0, count)
	for _, idx := range o.rng.Perm(len(o.teams))[:count] {
		picked = append(picked, o.teams[idx])
	}
	return picked
}

// pace sleeps for a uniform-random duration within the configured bounds.
func (o *Orchestrator) pace() {
	min, max := o.cfg.SleepMin, o.cfg.SleepMax
	if max <= min {
		o.Sleep(min)
		return
	}
	o.Sleep(min + time.Duration(o.rng.Int63n(int64(max-min))))
}
