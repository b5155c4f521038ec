// Package display renders the device's status screen.
package display

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"petra/internal/domain"
)

var faces = map[domain.Face]string{
	domain.FaceIdle:      "( ^_^ )",
	domain.FaceListening: "( o_o )",
	domain.FaceSpeaking:  "( ^o^ )",
}

// Theme is the color scheme of the terminal screen.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Alert   lipgloss.Color
}

var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Alert:   lipgloss.Color("#ff5f5f"),
}

// Terminal draws the face, caption and recording LED as a framed panel
// and redraws it after every change. It also serves as the indicator.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	width   int
	panel   lipgloss.Style
	face    lipgloss.Style
	caption lipgloss.Style
	ledOn   lipgloss.Style
	ledOff  lipgloss.Style

	state domain.Face
	text  string
	led   domain.Level
}

func NewTerminal(out io.Writer, width int, theme Theme) *Terminal {
	if width < 16 {
		width = 32
	}
	inner := width - 4
	return &Terminal{
		out:     out,
		width:   width,
		panel:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.Primary).Padding(0, 1),
		face:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Width(inner).Align(lipgloss.Center),
		caption: lipgloss.NewStyle().Width(inner).Align(lipgloss.Center),
		ledOn:   lipgloss.NewStyle().Bold(true).Foreground(theme.Alert),
		ledOff:  lipgloss.NewStyle().Foreground(theme.Dim),
		state:   domain.FaceIdle,
	}
}

func (t *Terminal) ShowIdleFace()      { t.update(func() { t.state = domain.FaceIdle }) }
func (t *Terminal) ShowListeningFace() { t.update(func() { t.state = domain.FaceListening }) }
func (t *Terminal) ShowSpeakingFace()  { t.update(func() { t.state = domain.FaceSpeaking }) }
func (t *Terminal) ClearCaptionArea()  { t.update(func() { t.text = "" }) }

func (t *Terminal) SetCaption(text string) {
	t.update(func() { t.text = text })
}

// Set drives the recording LED.
func (t *Terminal) Set(level domain.Level) {
	t.update(func() { t.led = level })
}

// View returns the current panel.
func (t *Terminal) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view()
}

func (t *Terminal) update(change func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	change()
	// Raw keyboard mode turns off output post-processing, so lines need an
	// explicit carriage return.
	frame := strings.ReplaceAll(t.view(), "\n", "\r\n")
	_, _ = io.WriteString(t.out, frame+"\r\n")
}

func (t *Terminal) view() string {
	led := t.ledOff.Render("○ mic off")
	if t.led == domain.LevelHigh {
		led = t.ledOn.Render("● REC")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		t.face.Render(faces[t.state]),
		t.caption.Render(t.text),
	)
	return lipgloss.JoinVertical(lipgloss.Left, t.panel.Render(body), led)
}
