package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine"
	"github.com/Carmen-Shannon/oxy-overlay/engine/config"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/session"
	"github.com/Carmen-Shannon/oxy-overlay/engine/viewer"
	"github.com/gdamore/tcell/v2"
)

var (
	configFlag = flag.String("config", "", "Path to the YAML settings file")
	logFlag    = flag.String("log", "", "Write logs to this file (logs are discarded while the dashboard is up otherwise)")
	muteFlag   = flag.Bool("mute", false, "Disable audio cues")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lib, err := config.LoadLibrary(cfg.LibraryPath)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metrics.NewRegistry()
	m, err := metrics.New(reg, metrics.DefaultNamespace)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	cue := viewer.NewAudioCue()
	if !*muteFlag {
		if err := cue.Init(); err != nil {
			log.Printf("[Viewer] audio disabled: %v", err)
		}
	}

	opts := []session.SessionBuilderOption{
		session.WithMetrics(m),
		session.WithEventHandler(cue.Handle),
	}
	if cfg.SamplerWorkers > 0 {
		pool := worker.NewDynamicWorkerPool(cfg.SamplerWorkers, cfg.SamplerWorkers*4, time.Second)
		defer pool.Stop()
		opts = append(opts, session.WithWorkerPool(pool))
	}

	s, err := session.New(cfg, lib, opts...)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer s.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	// The dashboard owns the terminal from here on, so log lines go to a file or nowhere.
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}
	defer log.SetOutput(os.Stderr)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				log.Printf("[Metrics] %v", err)
			}
		}()
	}

	dashboard := viewer.NewDashboard(screen)

	var eng engine.Engine
	eng = engine.NewEngine(
		engine.WithTickRate(float64(cfg.TickRate)),
		engine.WithProfiling(cfg.Profiling),
		engine.WithTickCallback(func(dt float32) {
			if err := s.Tick(dt); err != nil {
				log.Printf("[Viewer] evaluate: %v", err)
				eng.Quit()
				return
			}
			dashboard.Draw(s.Snapshot())
		}),
	)

	go viewer.PollKeys(screen, func(code uint32) {
		eng.Enqueue(func() {
			if _, err := s.HandleKey(code); err != nil {
				log.Printf("[Viewer] key %d: %v", code, err)
			}
			if s.QuitRequested() {
				eng.Quit()
			}
		})
	})

	eng.Run()
	return nil
}
