package viewer

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/oneoff"
	"github.com/Carmen-Shannon/oxy-overlay/engine/session"
	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
)

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen.Init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

// rowText returns the text of row y on a simulation screen.
func rowText(screen tcell.SimulationScreen, y int) string {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < width; x++ {
		c := cells[y*width+x]
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func blendingSnapshot() session.Snapshot {
	return session.Snapshot{
		Name:      "OneOff",
		Frame:     42,
		BaseState: "Walk",
		State:     oneoff.Blending,
		Weights:   oneoff.BlendWeights{Base: 0.5, Overlay: 0.5, HasOverlay: true},
		Overlay: oneoff.OverlayInfo{
			ClipName:       "Wave",
			Time:           1.9,
			Duration:       2,
			NormalizedTime: 0.95,
		},
		HasOverlay: true,
		Properties: []string{"FootHeight", "Grip"},
		Values:     []float32{1, -1},
		Overlays:   []string{"Wave", "Jump"},
	}
}

func TestDashboardDraw(t *testing.T) {
	screen := newTestScreen(t)
	d := NewDashboard(screen)
	if d.Screen() != screen {
		t.Fatal("Screen() should return the drawing screen")
	}

	d.Draw(blendingSnapshot())

	tests := []struct {
		row  int
		want string
	}{
		{0, "OneOff  frame 42  base: Walk"},
		{1, "state: Blending  overlay: Wave 1.90s/2.00s ( 95%)"},
		{3, "base"},
		{4, "overlay"},
		{6, "properties"},
		{7, "FootHeight"},
		{8, "Grip"},
		{23, "1 Wave  2 Jump  | W locomotion | Q quit"},
	}
	for _, tt := range tests {
		if got := rowText(screen, tt.row); !strings.HasPrefix(got, tt.want) {
			t.Errorf("row %d = %q, want prefix %q", tt.row, got, tt.want)
		}
	}

	// A weight of 0.5 fills half the gauge.
	if got := strings.Count(rowText(screen, 3), "#"); got != barWidth/2 {
		t.Errorf("base gauge has %d filled cells, want %d", got, barWidth/2)
	}
	// Curve gauges span [-1, 1]: 1 fills the bar, -1 leaves it empty.
	if got := strings.Count(rowText(screen, 7), "#"); got != barWidth {
		t.Errorf("FootHeight gauge has %d filled cells, want %d", got, barWidth)
	}
	if got := strings.Count(rowText(screen, 8), "#"); got != 0 {
		t.Errorf("Grip gauge has %d filled cells, want 0", got)
	}
	if !strings.HasSuffix(rowText(screen, 8), "-1.000") {
		t.Errorf("Grip row = %q, want value -1.000", rowText(screen, 8))
	}
}

func TestDashboardIdle(t *testing.T) {
	screen := newTestScreen(t)
	d := NewDashboard(screen)

	d.Draw(session.Snapshot{Name: "OneOff", BaseState: "Idle", State: oneoff.Idle, Weights: oneoff.BlendWeights{Base: 1}})

	if got := rowText(screen, 1); got != "state: Idle  overlay: none" {
		t.Errorf("row 1 = %q", got)
	}
	if got := strings.Count(rowText(screen, 3), "#"); got != barWidth {
		t.Errorf("base gauge has %d filled cells, want %d", got, barWidth)
	}
}

func TestKeyCode(t *testing.T) {
	tests := []struct {
		name string
		ev   tcell.Event
		want uint32
		ok   bool
	}{
		{"digit", tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone), common.Key1 + 1, true},
		{"lower case letter", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), common.KeyW, true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), common.KeyEsc, true},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), common.KeyEsc, true},
		{"unbound key", tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), 0, false},
		{"resize", tcell.NewEventResize(80, 24), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyCode(tt.ev)
			if got != tt.want || ok != tt.ok {
				t.Errorf("KeyCode = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPollKeys(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen.Init: %v", err)
	}

	screen.InjectKey(tcell.KeyRune, '1', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	var codes []uint32
	done := make(chan struct{})
	go func() {
		PollKeys(screen, func(code uint32) {
			codes = append(codes, code)
			if code == common.KeyQ {
				screen.Fini()
			}
		})
		close(done)
	}()
	<-done

	if len(codes) != 2 || codes[0] != common.Key1 || codes[1] != common.KeyQ {
		t.Errorf("codes = %v, want [%d %d]", codes, common.Key1, common.KeyQ)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(blendingSnapshot()); got != "OneOff | Walk | Wave 50%" {
		t.Errorf("Title = %q", got)
	}
	idle := session.Snapshot{Name: "OneOff", BaseState: "Idle", State: oneoff.Idle}
	if got := Title(idle); got != "OneOff | Idle | Idle" {
		t.Errorf("Title = %q", got)
	}
}

func drain(s beep.Streamer) int {
	buf := make([][2]float64, 512)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok || n == 0 {
			return total
		}
	}
}

func TestCueStreamer(t *testing.T) {
	tone := sampleRate.N(toneDuration)
	tests := []struct {
		event session.Event
		want  int
	}{
		{session.EventOverlayStarted, 2 * tone},
		{session.EventOverlayCompleted, 2 * tone},
		{session.EventOverlayPreempted, tone},
	}
	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			s, err := cueStreamer(tt.event)
			if err != nil {
				t.Fatalf("cueStreamer: %v", err)
			}
			if got := drain(s); got != tt.want {
				t.Errorf("cue length = %d samples, want %d", got, tt.want)
			}
		})
	}
}

func TestAudioCueHandle(t *testing.T) {
	played := 0
	a := NewAudioCue()
	a.play = func(beep.Streamer) { played++ }

	a.Handle(session.EventOverlayStarted, "Wave")
	if played != 0 {
		t.Fatal("an uninitialized cue should stay silent")
	}

	a.initialized = true
	a.Handle(session.EventOverlayStarted, "Wave")
	a.Handle(session.EventOverlayCompleted, "Wave")
	if played != 2 {
		t.Errorf("played %d cues, want 2", played)
	}

	a.SetMuted(true)
	a.Handle(session.EventOverlayPreempted, "Wave")
	if played != 2 {
		t.Errorf("muted cue played, total %d", played)
	}
}
