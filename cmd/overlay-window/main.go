package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine"
	"github.com/Carmen-Shannon/oxy-overlay/engine/config"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/output"
	"github.com/Carmen-Shannon/oxy-overlay/engine/session"
	"github.com/Carmen-Shannon/oxy-overlay/engine/viewer"
	"github.com/Carmen-Shannon/oxy-overlay/engine/window"
)

var (
	configFlag   = flag.String("config", "", "Path to the YAML settings file")
	fallbackFlag = flag.Bool("software", false, "Request the software fallback GPU adapter")
	muteFlag     = flag.Bool("mute", false, "Disable audio cues")
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

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
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				log.Printf("[Metrics] %v", err)
			}
		}()
	}

	win, err := window.NewWindow(window.WithTitle(cfg.Name), window.WithSize(960, 540))
	if err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	defer win.Close()

	cue := viewer.NewAudioCue()
	if !*muteFlag {
		if err := cue.Init(); err != nil {
			log.Printf("[Viewer] audio disabled: %v", err)
		}
	}

	opts := []session.SessionBuilderOption{
		session.WithMetrics(m),
		session.WithEventHandler(func(e session.Event, clipName string) {
			log.Printf("[Viewer] overlay %s %s", clipName, e)
			cue.Handle(e, clipName)
		}),
	}
	if cfg.SamplerWorkers > 0 {
		pool := worker.NewDynamicWorkerPool(cfg.SamplerWorkers, cfg.SamplerWorkers*4, time.Second)
		defer pool.Stop()
		opts = append(opts, session.WithWorkerPool(pool))
	}

	// The pose and sampled curves are uploaded to GPU storage buffers every tick.
	// Without a usable adapter the host still runs, evaluating on the CPU only.
	var (
		sink   output.GPUPoseSink
		writer output.QueueWriter
	)
	device, err := output.NewDevice(win.SurfaceDescriptor(), *fallbackFlag)
	if err != nil {
		log.Printf("[Viewer] GPU upload disabled: %v", err)
	} else {
		defer device.Release()
		provider := output.NewBufferProvider(cfg.Name + " Pose")
		defer provider.Release()
		if err := device.AllocatePoseBuffers(provider, output.DefaultPoseBinding, output.DefaultCurveBinding,
			lib.Avatar.BoneCount(), len(cfg.Curves)); err != nil {
			return fmt.Errorf("allocate pose buffers: %w", err)
		}
		sink = output.NewGPUPoseSink(provider)
		writer = output.NewQueueWriter(device.Queue())
		opts = append(opts, session.WithSink(sink))
	}

	s, err := session.New(cfg, lib, opts...)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer s.Close()

	var eng engine.Engine
	eng = engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTickRate(float64(cfg.TickRate)),
		engine.WithProfiling(cfg.Profiling),
		engine.WithTickCallback(func(dt float32) {
			if err := s.Tick(dt); err != nil {
				log.Printf("[Viewer] evaluate: %v", err)
				eng.Quit()
				return
			}
			if sink != nil {
				output.Flush(writer, sink.StagedWriteData())
			}
		}),
	)

	win.SetKeyDownCallback(func(code uint32) {
		eng.Enqueue(func() {
			if _, err := s.HandleKey(code); err != nil {
				log.Printf("[Viewer] key %d: %v", code, err)
			}
			if s.QuitRequested() {
				eng.Quit()
			}
		})
	})

	// The title bar is the window host's status line; it is refreshed from the window thread.
	win.SetUpdateCallback(func() {
		select {
		case <-eng.Done():
			_ = win.Close()
		default:
			win.SetTitle(viewer.Title(s.Snapshot()))
		}
	})

	eng.Run()
	return nil
}
