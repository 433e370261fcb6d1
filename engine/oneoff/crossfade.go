package oneoff

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-overlay/common"
)

// DefaultFade is the default fade-in and fade-out window, as a fraction of the clip's duration.
const DefaultFade float32 = 0.1

// State is the crossfade controller state.
type State int

const (
	// Idle means no overlay is active and the base layer drives the output alone.
	Idle State = iota

	// Blending means an overlay clip is mixed over the base layer.
	Blending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Blending:
		return "Blending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// BlendWeights is the pair of mixer weights applied on the last evaluation.
// While HasOverlay is true, Base + Overlay == 1. When idle, Base == 1.
type BlendWeights struct {
	Base, Overlay float32
	HasOverlay    bool
}

// FadeWeight returns the overlay weight for a clip at the given normalized time.
// The weight ramps linearly from 0 to 1 over the first fadeIn of the clip, holds at 1, then ramps back to 0 over
// the last fadeOut. When the two windows overlap the fade-in ramp takes precedence.
//
// Parameters:
//   - normalized: the clip time divided by its duration
//   - fadeIn: the fade-in window in (0, 1]
//   - fadeOut: the fade-out window in (0, 1]
//
// Returns:
//   - float32: the overlay weight in [0, 1]
func FadeWeight(normalized, fadeIn, fadeOut float32) float32 {
	var w float32
	switch {
	case normalized < fadeIn:
		w = normalized / fadeIn
	case normalized > 1-fadeOut:
		w = (1 - normalized) / fadeOut
	default:
		w = 1
	}
	return common.Clamp(w, 0, 1)
}

func validFade(f float32) bool {
	return f > 0 && f <= 1
}
