// Package scenario wires virtual-user flows into named, runnable scenarios
// for the load driver. The "true-user" scenario carries the full session
// state machine; "guest" is the thin unauthenticated browse; "blended" mixes
// the two per iteration.
package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/session"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

const (
	TrueUser = "true-user"
	Guest    = "guest"
	Blended  = "blended"
)

// Names lists the available scenarios, sorted.
func Names() []string {
	names := []string{TrueUser, Guest, Blended}
	sort.Strings(names)
	return names
}

// Runner owns one worker-indexed iteration function. The load driver calls
// RunIteration repeatedly per worker; within a worker, iterations are
// strictly sequential.
type Runner struct {
	Name    string
	iterate func(ctx context.Context, worker int)
}

// RunIteration executes one full iteration for the given worker slot.
func (r *Runner) RunIteration(ctx context.Context, worker int) {
	r.iterate(ctx, worker)
}

// New builds a named scenario sized for maxWorkers concurrent virtual users.
// Each worker slot gets its own user identity and seeded randomness source,
// created once and reused across all of that worker's iterations.
func New(name string, cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) (*Runner, error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	switch name {
	case TrueUser:
		return newTrueUser(cfg, client, reg, maxWorkers), nil
	case Guest:
		return newGuest(cfg, client, reg, maxWorkers), nil
	case Blended:
		return newBlended(cfg, client, reg, maxWorkers), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
}

func workerRand(worker int) *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
}

func newTrueUser(cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) *Runner {
	orchestrators := buildOrchestrators(cfg, client, reg, maxWorkers)
	return &Runner{
		Name: TrueUser,
		iterate: func(ctx context.Context, worker int) {
			orchestrators[worker%len(orchestrators)].RunIteration(ctx)
		},
	}
}

func buildOrchestrators(cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) []*session.Orchestrator {
	teams := TeamPool()
	orchestrators := make([]*session.Orchestrator, maxWorkers)
	for i := range orchestrators {
		user := session.NewUser(cfg.UserEmailPrefix, cfg.UserEmailDomain, cfg.UserPassword,
			cfg.UserPoolSize, cfg.UserPoolOffset, i)
		orchestrators[i] = session.NewOrchestrator(cfg, client, reg, user, teams, workerRand(i))
	}
	return orchestrators
}

// guestFlow is the stateless browse: latest feed, one team feed, that
// team's games screen. No auth, no cursors, no fan-out.
type guestFlow struct {
	cfg    *config.Config
	client transport.Doer
	reg    *metrics.Registry
	teams  []int
	rng    *rand.Rand
	sleep  func(time.Duration)
}

func (g *guestFlow) run(ctx context.Context) {
	base := g.cfg.BaseURL
	g.get(ctx, metrics.EndpointLatest, session.LatestURL(base))
	g.pace()

	teamID := g.teams[g.rng.Intn(len(g.teams))]
	g.get(ctx, metrics.EndpointTeamFeed, session.TeamFeedURL(base, teamID))
	g.pace()
	g.get(ctx, metrics.EndpointGamesScreen, session.GamesScreenURL(base, teamID))
	g.pace()
}

func (g *guestFlow) get(ctx context.Context, ep metrics.Endpoint, url string) {
	resp, _ := g.client.Get(ctx, url, nil)
	g.reg.Record(ep, transport.Sample(resp))
}

func (g *guestFlow) pace() {
	min, max := g.cfg.SleepMin, g.cfg.SleepMax
	if max <= min {
		g.sleep(min)
		return
	}
	g.sleep(min + time.Duration(g.rng.Int63n(int64(max-min))))
}

func buildGuests(cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) []*guestFlow {
	teams := TeamPool()
	guests := make([]*guestFlow, maxWorkers)
	for i := range guests {
		guests[i] = &guestFlow{
			cfg:    cfg,
			client: client,
			reg:    reg,
			teams:  teams,
			rng:    workerRand(maxWorkers + i),
			sleep:  time.Sleep,
		}
	}
	return guests
}

func newGuest(cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) *Runner {
	guests := buildGuests(cfg, client, reg, maxWorkers)
	return &Runner{
		Name: Guest,
		iterate: func(ctx context.Context, worker int) {
			guests[worker%len(guests)].run(ctx)
		},
	}
}

// newBlended runs the true-user flow with probability PBlendTrueUser, the
// guest flow otherwise. Each worker keeps one session for the true-user
// side, so token caching behaves exactly as in the pure scenario.
func newBlended(cfg *config.Config, client transport.Doer, reg *metrics.Registry, maxWorkers int) *Runner {
	orchestrators := buildOrchestrators(cfg, client, reg, maxWorkers)
	guests := buildGuests(cfg, client, reg, maxWorkers)
	picks := make([]*rand.Rand, maxWorkers)
	for i := range picks {
		picks[i] = workerRand(2*maxWorkers + i)
	}
	return &Runner{
		Name: Blended,
		iterate: func(ctx context.Context, worker int) {
			slot := worker % maxWorkers
			if picks[slot].Float64() < cfg.PBlendTrueUser {
				orchestrators[slot].RunIteration(ctx)
				return
			}
			guests[slot].run(ctx)
		},
	}
}
