// Command engine boots a small multi-Lane runtime: a "view" Lane and a
// "physics" Lane exchanging tick-driven events through a Synchronizer, with
// structured logging, configuration, and an optional diagnostic trace, all
// wired the same way the rest of this module expects a host process to do it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bfgengine/lanecore/internal/config"
	"github.com/bfgengine/lanecore/internal/event"
	"github.com/bfgengine/lanecore/internal/logging"
)

const (
	viewEventID    event.EventID = event.FirstApplicationEventID
	physicsEventID event.EventID = event.FirstApplicationEventID + 1
)

func main() {
	startedAt := time.Now()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize structured logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logging.ReplaceGlobals(logger)

	synchronizer := event.NewSynchronizer(cfg, logger)

	if cfg.TraceDir != "" {
		trace, err := event.NewTraceRecorder(cfg.TraceDir, cfg.TraceMaxEvents)
		if err != nil {
			logger.Warn("failed to start trace recorder; continuing without one", logging.Error(err))
		} else {
			synchronizer.AttachTraceRecorder(trace)
			logger.Info("trace recorder attached", logging.String("directory", trace.Directory()))
		}
	}

	viewLane := event.NewLane(event.LaneConfig{FrequencyHz: 60, Name: "view", RateLimitGroup: event.RL1}, synchronizer)
	physicsLane := event.NewLane(event.LaneConfig{FrequencyHz: 120, Name: "physics", RateLimitGroup: event.RL2}, synchronizer)

	synchronizer.RegisterEntryPoint(viewLane, func(lane *event.Lane) error {
		logger.Info("view lane entry point running", logging.String("lane", lane.Name()))
		return nil
	})
	synchronizer.RegisterEntryPoint(physicsLane, func(lane *event.Lane) error {
		logger.Info("physics lane entry point running", logging.String("lane", lane.Name()))
		return nil
	})

	if err := event.LaneConnect(physicsLane, viewEventID, event.UnspecifiedDestination, func(frame int, _ event.SenderID) {
		logger.Debug("physics lane observed a view frame", logging.Int("frame", frame))
	}); err != nil {
		logger.Fatal("failed to connect physics handler", logging.Error(err))
	}

	if err := event.LaneConnect(viewLane, physicsEventID, event.UnspecifiedDestination, func(tick int, _ event.SenderID) {
		logger.Debug("view lane observed a physics tick", logging.Int("tick", tick))
	}); err != nil {
		logger.Fatal("failed to connect view handler", logging.Error(err))
	}

	var frame int
	viewLane.ConnectLoop(func(event.TickData) {
		frame++
		_ = event.LaneEmit(viewLane, viewEventID, event.UnspecifiedDestination, frame, event.UnspecifiedSender)
	})

	var physicsTick int
	physicsLane.ConnectLoop(func(event.TickData) {
		physicsTick++
		_ = event.LaneEmit(physicsLane, physicsEventID, event.UnspecifiedDestination, physicsTick, event.UnspecifiedSender)
	})

	entryCtx, entryCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer entryCancel()
	if err := synchronizer.StartEntries(entryCtx); err != nil {
		logger.Fatal("one or more entry points failed", logging.Error(err))
	}
	synchronizer.Start()

	logger.Info("engine running", logging.String("uptime_at_start", time.Since(startedAt).String()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received; draining lanes")

	finishCtx, finishCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer finishCancel()
	if err := synchronizer.Finish(finishCtx, false); err != nil {
		logger.Error("synchronizer shutdown reported an error", logging.Error(err))
		os.Exit(1)
	}

	logger.Info("engine stopped cleanly")
}
