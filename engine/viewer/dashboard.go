package viewer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/oneoff"
	"github.com/Carmen-Shannon/oxy-overlay/engine/session"
	"github.com/gdamore/tcell/v2"
)

const (
	labelWidth = 24
	barWidth   = 30
)

var (
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleBase    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleOverlay = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleCurve   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleHelp    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Dashboard renders session snapshots onto a terminal screen.
type Dashboard struct {
	screen tcell.Screen
}

// NewDashboard creates a dashboard drawing onto screen. The screen must already be initialized.
//
// Parameters:
//   - screen: the terminal screen
//
// Returns:
//   - *Dashboard: the dashboard
func NewDashboard(screen tcell.Screen) *Dashboard {
	return &Dashboard{screen: screen}
}

// Screen returns the screen the dashboard draws onto.
func (d *Dashboard) Screen() tcell.Screen {
	return d.screen
}

// Draw clears the screen and renders snap: the blend weights, the attached overlay and every sampled property.
//
// Parameters:
//   - snap: the session state to render
func (d *Dashboard) Draw(snap session.Snapshot) {
	d.screen.Clear()
	_, height := d.screen.Size()

	base := snap.BaseState
	if snap.BaseBlending {
		base += " (blending)"
	}
	d.text(0, 0, styleTitle, fmt.Sprintf("%s  frame %d  base: %s", snap.Name, snap.Frame, base))

	overlay := "none"
	if snap.HasOverlay {
		overlay = fmt.Sprintf("%s %.2fs/%.2fs (%3.0f%%)", snap.Overlay.ClipName, snap.Overlay.Time,
			snap.Overlay.Duration, snap.Overlay.NormalizedTime*100)
	}
	d.text(0, 1, styleLabel, fmt.Sprintf("state: %s  overlay: %s", snap.State, overlay))

	d.bar(3, "base", snap.Weights.Base, 0, 1, styleBase)
	d.bar(4, "overlay", snap.Weights.Overlay, 0, 1, styleOverlay)

	d.text(0, 6, styleTitle, "properties")
	row := 7
	for i, name := range snap.Properties {
		if row >= height-1 {
			break
		}
		var v float32
		if i < len(snap.Values) {
			v = snap.Values[i]
		}
		d.bar(row, name, v, -1, 1, styleCurve)
		row++
	}

	d.text(0, height-1, styleHelp, helpLine(snap))
	d.screen.Show()
}

// bar draws a labelled horizontal gauge of v over [lo, hi] followed by the numeric value.
func (d *Dashboard) bar(y int, label string, v, lo, hi float32, style tcell.Style) {
	d.text(0, y, styleLabel, fmt.Sprintf("%-*s", labelWidth, truncate(label, labelWidth-1)))

	filled := int(common.Clamp((v-lo)/(hi-lo), 0, 1)*barWidth + 0.5)
	x := labelWidth
	d.screen.SetContent(x, y, '[', nil, styleLabel)
	for i := 0; i < barWidth; i++ {
		r := '.'
		st := styleLabel
		if i < filled {
			r, st = '#', style
		}
		d.screen.SetContent(x+1+i, y, r, nil, st)
	}
	d.screen.SetContent(x+1+barWidth, y, ']', nil, styleLabel)
	d.text(x+barWidth+3, y, style, fmt.Sprintf("%7.3f", v))
}

// text writes s starting at (x, y), clipped to the screen width.
func (d *Dashboard) text(x, y int, style tcell.Style, s string) {
	width, _ := d.screen.Size()
	for _, r := range s {
		if x >= width {
			return
		}
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func helpLine(snap session.Snapshot) string {
	var b strings.Builder
	for i, name := range snap.Overlays {
		if i >= 9 {
			break
		}
		fmt.Fprintf(&b, "%d %s  ", i+1, name)
	}
	b.WriteString("| W locomotion | Q quit")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// KeyCode translates a terminal event into a virtual key code.
// Escape and Ctrl-C map onto the Escape key code.
//
// Parameters:
//   - ev: the terminal event
//
// Returns:
//   - uint32: the virtual key code
//   - bool: false if ev is not a key press the session understands
func KeyCode(ev tcell.Event) (uint32, bool) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return 0, false
	}
	switch key.Key() {
	case tcell.KeyRune:
		return common.RuneKeyCode(key.Rune()), true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return common.KeyEsc, true
	}
	return 0, false
}

// PollKeys forwards every key press on screen to handle until the screen is finalized.
// Resize events trigger a screen sync.
//
// Parameters:
//   - screen: the terminal screen
//   - handle: function receiving each virtual key code
func PollKeys(screen tcell.Screen, handle func(keyCode uint32)) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		if _, ok := ev.(*tcell.EventResize); ok {
			screen.Sync()
			continue
		}
		if code, ok := KeyCode(ev); ok {
			handle(code)
		}
	}
}

// Title formats a one-line summary of snap for a window title bar.
func Title(snap session.Snapshot) string {
	state := snap.State.String()
	if snap.State == oneoff.Blending && snap.HasOverlay {
		state = fmt.Sprintf("%s %.0f%%", snap.Overlay.ClipName, snap.Weights.Overlay*100)
	}
	return fmt.Sprintf("%s | %s | %s", snap.Name, snap.BaseState, state)
}
