package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-overlay/engine/profiler"
	"github.com/Carmen-Shannon/oxy-overlay/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick goroutine, the command queue and the optional window.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	mu      *sync.Mutex
	queue   []func()
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	ticks          uint64
}

// Engine hosts a fixed-rate tick loop.
// The tick callback and every enqueued command run on the same goroutine, so state they share needs no locking.
type Engine interface {
	// Window returns the window the engine runs alongside, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the profiler fed by the tick loop.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// TickRate returns the configured interval between ticks.
	TickRate() time.Duration

	// SetTickCallback registers the function called each engine tick.
	// Must be called before Run.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Enqueue schedules fn to run on the tick goroutine ahead of the next tick callback.
	// Commands run in the order they were enqueued.
	//
	// Parameters:
	//   - fn: the command to run
	//
	// Returns:
	//   - bool: false if the engine has quit and fn was dropped
	Enqueue(fn func()) bool

	// Step runs one tick synchronously: pending commands first, then the tick callback.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds passed to the tick callback
	Step(deltaTime float32)

	// Ticks returns the number of ticks run so far.
	Ticks() uint64

	// Run starts the tick loop and blocks.
	// With a window it runs the window message loop on the calling goroutine and quits when the window closes;
	// without one it blocks until Quit is called.
	Run()

	// Quit signals the tick goroutine to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Done returns a channel closed once Quit has been called.
	Done() <-chan struct{}
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, window, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		mu:               &sync.Mutex{},
		quitChannel:      make(chan struct{}),
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}

	e.wg.Wait()
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) Done() <-chan struct{} {
	return e.quitChannel
}

// signalQuit closes the quit channel to signal the tick goroutine to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.queue = nil
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel and exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.TickRate())
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

func (e *engine) Step(deltaTime float32) {
	e.mu.Lock()
	pending := e.queue
	e.queue = nil
	profiling := e.profilingEnabled
	e.mu.Unlock()

	for _, fn := range pending {
		if !e.safeCall(func() { fn() }) {
			return
		}
	}

	start := time.Now()
	if e.tickCallback != nil {
		if !e.safeCall(func() { e.tickCallback(deltaTime) }) {
			return
		}
	}
	cost := time.Since(start)

	e.mu.Lock()
	e.ticks++
	e.mu.Unlock()

	if profiling && e.profiler != nil {
		e.profiler.Tick(cost)
	}
}

// safeCall runs fn and recovers from a panic inside it.
// A recovered panic is logged and shuts the engine down.
//
// Returns:
//   - bool: false if fn panicked
func (e *engine) safeCall(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] tick recovered from panic: %v", r)
			e.signalQuit()
			ok = false
		}
	}()
	fn()
	return true
}

func (e *engine) Enqueue(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-e.quitChannel:
		return false
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, fn)
	return true
}

func (e *engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = true
	e.mu.Unlock()
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = false
	e.mu.Unlock()
}

func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()

	if !running {
		return
	}

	// Non-blocking send; a pending update is replaced by the newer one.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) TickRate() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engineTickRate
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// tickInterval converts a rate in ticks per second into the interval between ticks.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
