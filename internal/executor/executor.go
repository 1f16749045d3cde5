// Package executor is the load driver: it ramps up a fixed population of
// workers and has each of them run scenario iterations back to back until
// the test duration elapses. Workers are torn down between iterations, never
// mid-call; in-flight requests are bounded by the transport timeout.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// IterationFunc runs one full scenario iteration for a worker slot.
type IterationFunc func(ctx context.Context, worker int)

// Config shapes one load run.
type Config struct {
	// Users is the number of concurrent workers at full ramp.
	Users int
	// Duration is the total run time, including ramp-up.
	Duration time.Duration
	// RampUp linearly staggers worker starts over this window.
	RampUp time.Duration
	// MaxIterationsPerSec globally caps iteration starts across all workers.
	// Zero means uncapped.
	MaxIterationsPerSec float64
}

// Executor drives one scenario with a ramping worker pool.
type Executor struct {
	cfg     Config
	fn      IterationFunc
	limiter *rate.Limiter
}

func New(cfg Config, fn IterationFunc) *Executor {
	if cfg.Users < 1 {
		cfg.Users = 1
	}
	e := &Executor{cfg: cfg, fn: fn}
	if cfg.MaxIterationsPerSec > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.MaxIterationsPerSec), 1)
	}
	return e
}

// Run blocks until the duration elapses or ctx is cancelled, then waits for
// every worker to finish its current iteration.
func (e *Executor) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"users":    e.cfg.Users,
		"duration": e.cfg.Duration,
		"ramp_up":  e.cfg.RampUp,
	}).Info("Starting load run")

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Users; i++ {
		wg.Add(1)
		go e.worker(runCtx, &wg, i, e.startDelay(i))
	}
	wg.Wait()

	logrus.WithField("elapsed", time.Since(start)).Info("Load run finished")
}

// startDelay spreads worker starts linearly across the ramp-up window.
func (e *Executor) startDelay(worker int) time.Duration {
	if e.cfg.RampUp <= 0 || e.cfg.Users <= 1 {
		return 0
	}
	return e.cfg.RampUp * time.Duration(worker) / time.Duration(e.cfg.Users)
}

func (e *Executor) worker(ctx context.Context, wg *sync.WaitGroup, worker int, delay time.Duration) {
	defer wg.Done()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}
		}
		e.fn(ctx, worker)
	}
}
