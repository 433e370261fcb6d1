package viewer

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-overlay/engine/session"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate   = beep.SampleRate(44100)
	toneDuration = 60 * time.Millisecond
	cueGain      = -0.7
)

// AudioCue plays a short tone on overlay lifecycle events.
// It is silent until Init succeeds, so hosts without an audio device keep working.
type AudioCue struct {
	mu          sync.Mutex
	initialized bool
	muted       bool
	play        func(beep.Streamer)
}

// NewAudioCue creates an uninitialized audio cue.
func NewAudioCue() *AudioCue {
	return &AudioCue{}
}

// Init opens the speaker. Calling Init again after success is a no-op.
//
// Returns:
//   - error: error if the audio device cannot be opened
func (a *AudioCue) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	a.play = func(s beep.Streamer) { speaker.Play(s) }
	a.initialized = true
	return nil
}

// SetMuted silences or restores the cues.
func (a *AudioCue) SetMuted(muted bool) {
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
}

// Handle plays the cue for e. It matches the session event handler signature.
//
// Parameters:
//   - e: the overlay event
//   - clipName: the clip the event concerns
func (a *AudioCue) Handle(e session.Event, clipName string) {
	a.mu.Lock()
	play := a.play
	silent := !a.initialized || a.muted
	a.mu.Unlock()
	if silent || play == nil {
		return
	}

	s, err := cueStreamer(e)
	if err != nil {
		log.Printf("[Viewer] audio cue for %s %s: %v", clipName, e, err)
		return
	}
	play(s)
}

// cueStreamer builds the tone sequence for e: rising on start, falling on completion and a low blip on preemption.
func cueStreamer(e session.Event) (beep.Streamer, error) {
	var freqs []float64
	switch e {
	case session.EventOverlayStarted:
		freqs = []float64{660, 880}
	case session.EventOverlayCompleted:
		freqs = []float64{880, 660}
	default:
		freqs = []float64{330}
	}

	tones := make([]beep.Streamer, 0, len(freqs))
	for _, f := range freqs {
		sine, err := generators.SineTone(sampleRate, f)
		if err != nil {
			return nil, err
		}
		tones = append(tones, beep.Take(sampleRate.N(toneDuration), sine))
	}
	return &effects.Gain{Streamer: beep.Seq(tones...), Gain: cueGain}, nil
}
