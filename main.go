package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-notelength/config"
	"go-notelength/debug"
	"go-notelength/midi"
	"go-notelength/theme"
	"go-notelength/tui"
)

func main() {
	track := flag.Int("track", -1, "track index (-1 = first track with notes)")
	channel := flag.Int("channel", -1, "select notes on this channel (0-15)")
	from := flag.Int64("from", 0, "select notes starting at or after this tick")
	to := flag.Int64("to", 0, "select notes starting before this tick")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("usage: notelength-tui [flags] file.mid")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		if path, err := config.LogPath(); err == nil {
			debug.Enable(path)
			defer debug.Disable()
		}
	}

	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	sel := midi.Selection{Channel: *channel, From: *from, To: *to}
	f, err := midi.Open(flag.Arg(0), *track, sel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m := tui.NewModel(f, cfg, theme.New(palette))
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
