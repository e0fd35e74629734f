package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"go-notelength/config"
	"go-notelength/debug"
	nl "go-notelength/humanize"
	"go-notelength/midi"
	"go-notelength/theme"
	"go-notelength/widgets"
)

const (
	sliderWidth = 40
	histBins    = 24
)

var keyHelp = []widgets.KeySection{
	{Title: "Keys", Keys: []widgets.KeyBinding{
		{Key: "←/→  -/+", Desc: "intensity ±1% / ±5%"},
		{Key: "a", Desc: "toggle all notes / selected only"},
		{Key: "r", Desc: "new seed"},
		{Key: "enter", Desc: "humanize"},
		{Key: "u", Desc: "undo"},
		{Key: "w", Desc: "write file and settings"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	File   *midi.File
	Config *config.Config
	Theme  *theme.Theme

	last     *nl.Result
	hist     *widgets.Histogram
	status   string
	isError  bool
	quitting bool
}

func NewModel(f *midi.File, cfg *config.Config, th *theme.Theme) Model {
	return Model{
		File:   f,
		Config: cfg,
		Theme:  th,
		hist:   widgets.NewHistogram(histBins),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "+", "=":
		m.nudge(0.05)
	case "-", "_":
		m.nudge(-0.05)
	case "right", "l":
		m.nudge(0.01)
	case "left", "h":
		m.nudge(-0.01)

	case "a":
		m.Config.ApplyToAll = !m.Config.ApplyToAll

	case "r":
		seed := m.Config.Reseed()
		m.setStatus(fmt.Sprintf("seed %s", seed), false)

	case "enter", " ":
		m.apply()

	case "u":
		label, err := m.File.Undo()
		if err != nil {
			m.setStatus(err.Error(), true)
			break
		}
		m.last = nil
		m.hist = widgets.NewHistogram(histBins)
		m.setStatus("undid "+label, false)

	case "w":
		if err := m.File.Save(""); err != nil {
			m.setStatus("save: "+err.Error(), true)
			break
		}
		if err := m.Config.Save(); err != nil {
			m.setStatus("settings: "+err.Error(), true)
			break
		}
		m.setStatus("wrote "+m.File.Path, false)
	}

	return m, nil
}

func (m *Model) nudge(delta float64) {
	v := m.Config.Intensity + delta
	m.Config.Intensity = math.Round(math.Max(0, math.Min(1, v))*100) / 100
}

func (m *Model) setStatus(s string, isError bool) {
	m.status = s
	m.isError = isError
}

func (m *Model) apply() {
	res, err := nl.Apply(m.File, m.Config.Options(), m.Config.Seed)
	if err != nil {
		debug.Log("tui", "apply failed: %v", err)
		m.setStatus(err.Error(), true)
		return
	}
	if res == nil {
		m.setStatus("no active track", true)
		return
	}

	m.last = res
	m.hist = widgets.NewHistogram(histBins)
	for _, c := range res.Changes {
		if l := c.Pair.Length(); l > 0 {
			m.hist.Add(float64(c.NewLength-l) / float64(l))
		}
	}

	if !res.Changed() {
		m.setStatus("nothing changed", false)
		return
	}
	m.setStatus(fmt.Sprintf("humanized %s notes in %s",
		humanize.Comma(int64(res.Modified)), durafmt.Parse(res.Elapsed).LimitFirstN(2)), false)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(th.Success())
	if m.isError {
		statusStyle = statusStyle.Foreground(th.Warning())
	}

	dirty := ""
	if m.File.Dirty() {
		dirty = " *"
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(fmt.Sprintf("notelength  %s  track %d%s", m.File.Path, m.File.Track(), dirty)))
	out.WriteString("\n\n")

	out.WriteString(fmt.Sprintf("intensity %3.0f%% ", m.Config.Intensity*100))
	out.WriteString(widgets.RenderSlider(m.Config.Intensity, sliderWidth, th.Symbols.SliderFill, th.Symbols.SliderEmpty, th.Accent()))
	out.WriteString("\n")
	out.WriteString(widgets.RenderToggle(m.Config.ApplyToAll, "all notes", th.Symbols.On, th.Symbols.Off))
	out.WriteString("   ")
	out.WriteString(widgets.RenderToggle(!m.Config.ApplyToAll, "selected only", th.Symbols.On, th.Symbols.Off))
	out.WriteString(dimStyle.Render(fmt.Sprintf("   seed %s", m.Config.Seed)))
	out.WriteString("\n\n")

	if r := m.last; r != nil {
		out.WriteString(fmt.Sprintf("notes %s  eligible %s  modified %s  clamped %s  unmatched %s\n",
			humanize.Comma(int64(r.Pairs)), humanize.Comma(int64(r.Eligible)),
			humanize.Comma(int64(r.Modified)), humanize.Comma(int64(r.Clamped)),
			humanize.Comma(int64(r.Unmatched))))
		out.WriteString(fmt.Sprintf("%c shorter ", th.Symbols.Shorter))
		out.WriteString(m.hist.Render(th.FG()))
		out.WriteString(fmt.Sprintf(" longer %c\n", th.Symbols.Longer))
	}
	out.WriteString(dimStyle.Render(fmt.Sprintf("undo %d", m.File.UndoDepth())))
	out.WriteString("\n\n")

	if m.status != "" {
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n\n")
	}

	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	return out.String()
}
