package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/executor"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/report"
	"github.com/dscott-devops/chunky-loadgen/internal/scenario"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

func main() {
	var (
		scenarioName  = flag.String("scenario", scenario.TrueUser, "Scenario to run")
		listScenarios = flag.Bool("list", false, "List available scenarios")
		users         = flag.Int("users", 50, "Concurrent virtual users at full ramp")
		duration      = flag.Duration("duration", 5*time.Minute, "Total run duration")
		rampUp        = flag.Duration("ramp-up", 30*time.Second, "Linear ramp-up window")
		rateCap       = flag.Float64("rate", 0, "Global cap on iteration starts per second (0 = uncapped)")
		baseURL       = flag.String("url", "", "Base URL (overrides BASE_URL)")
		outputDir     = flag.String("output", "", "Report directory (overrides REPORT_DIR)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *listScenarios {
		fmt.Println("Available scenarios:")
		for _, name := range scenario.Names() {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	cfg := config.Load()
	if *verbose {
		cfg.Debug = true
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *outputDir != "" {
		cfg.ReportDir = *outputDir
	}

	reg := metrics.NewRegistry()
	client := transport.NewClient(cfg.RunTag, cfg.Debug)

	runner, err := scenario.New(*scenarioName, cfg, client, reg, *users)
	if err != nil {
		logrus.WithError(err).Error("Unknown scenario")
		fmt.Fprintf(os.Stderr, "Run with -list to see available scenarios\n")
		os.Exit(1)
	}

	logrus.WithFields(logrus.Fields{
		"scenario": runner.Name,
		"base_url": cfg.BaseURL,
		"run_tag":  cfg.RunTag,
	}).Info("Starting load generation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	executor.New(executor.Config{
		Users:               *users,
		Duration:            *duration,
		RampUp:              *rampUp,
		MaxIterationsPerSec: *rateCap,
	}, runner.RunIteration).Run(ctx)
	end := time.Now()

	rendered := reg.RenderSummary()
	fmt.Println()
	fmt.Print(rendered)

	result := &report.RunResult{
		Scenario:  runner.Name,
		RunTag:    cfg.RunTag,
		Users:     *users,
		StartTime: start,
		EndTime:   end,
		Summary:   reg.Snapshot(),
	}

	if _, _, err := report.NewWriter(cfg.ReportDir).Save(result, rendered); err != nil {
		logrus.WithError(err).Error("Failed to save run results")
	}

	if cfg.RedisURL != "" {
		publishToRedis(cfg.RedisURL, result)
	}
}

func publishToRedis(redisURL string, result *report.RunResult) {
	sink, err := report.NewRedisSink(redisURL)
	if err != nil {
		logrus.WithError(err).Error("Failed to connect to Redis summary sink")
		return
	}
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Publish(ctx, result); err != nil {
		logrus.WithError(err).Error("Failed to publish run summary")
	}
}
