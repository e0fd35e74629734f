package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderSlider renders value (0-1) as a bar of width cells
func RenderSlider(value float64, width int, fill, empty rune, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	value = math.Max(0, math.Min(1, value))
	n := int(math.Round(value * float64(width)))

	style := lipgloss.NewStyle().Foreground(color)
	return style.Render(strings.Repeat(string(fill), n)) + strings.Repeat(string(empty), width-n)
}

// RenderToggle renders "● label" or "○ label"
func RenderToggle(on bool, label string, onRune, offRune rune) string {
	r := offRune
	if on {
		r = onRune
	}
	return fmt.Sprintf("%c %s", r, label)
}

// Histogram buckets relative length changes into bins across [-1, 1]
type Histogram struct {
	Bins []int
}

// NewHistogram returns a histogram with n bins
func NewHistogram(n int) *Histogram {
	if n < 1 {
		n = 1
	}
	return &Histogram{Bins: make([]int, n)}
}

// Add counts ratio, clamped to [-1, 1]
func (h *Histogram) Add(ratio float64) {
	ratio = math.Max(-1, math.Min(1, ratio))
	i := int((ratio + 1) / 2 * float64(len(h.Bins)))
	if i >= len(h.Bins) {
		i = len(h.Bins) - 1
	}
	h.Bins[i]++
}

var bars = []rune(" ▁▂▃▄▅▆▇█")

// Render draws one row of block characters scaled to the fullest bin
func (h *Histogram) Render(color lipgloss.Color) string {
	peak := 0
	for _, n := range h.Bins {
		peak = max(peak, n)
	}

	var out strings.Builder
	for _, n := range h.Bins {
		level := 0
		if peak > 0 {
			level = int(math.Ceil(float64(n) / float64(peak) * float64(len(bars)-1)))
		}
		out.WriteRune(bars[level])
	}
	return lipgloss.NewStyle().Foreground(color).Render(out.String())
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
