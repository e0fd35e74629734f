package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-notelength/batch"
	"go-notelength/config"
	"go-notelength/debug"
	nl "go-notelength/humanize"
	"go-notelength/midi"
)

const portTimeout = 3 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "run":
		err = runCmd(cfg, args)
	case "batch":
		err = batchCmd(cfg, args)
	case "info":
		err = infoCmd(cfg, args)
	case "seed":
		err = seedCmd(cfg, args)
	case "ports":
		err = portsCmd()
	case "play":
		err = playCmd(cfg, args)
	default:
		usage()
	}
	debug.Disable()

	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Println("notelength - humanize MIDI note lengths")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run   [flags] file.mid       - humanize one file")
	fmt.Println("  batch [flags] files...       - humanize many files in parallel")
	fmt.Println("  info  [flags] file.mid       - show tracks and note counts")
	fmt.Println("  seed  [-save]                - print a fresh seed")
	fmt.Println("  ports                        - list MIDI output ports")
	fmt.Println("  play  [flags] file.mid       - audition a track on a MIDI port")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// shared flags for every command that transforms a file
type common struct {
	intensity *float64
	all       *bool
	seed      *string
	track     *int
	channel   *int
	from      *int64
	to        *int64
	debug     *bool
}

func addCommon(fs *flag.FlagSet, cfg *config.Config) *common {
	return &common{
		intensity: fs.Float64("intensity", cfg.Intensity, "max relative length change (0-1)"),
		all:       fs.Bool("all", cfg.ApplyToAll, "change all notes, not just selected ones"),
		seed:      fs.String("seed", cfg.Seed.String(), "random seed"),
		track:     fs.Int("track", -1, "track index (-1 = first track with notes)"),
		channel:   fs.Int("channel", -1, "select notes on this channel (0-15)"),
		from:      fs.Int64("from", 0, "select notes starting at or after this tick"),
		to:        fs.Int64("to", 0, "select notes starting before this tick"),
		debug:     fs.Bool("debug", cfg.Debug, "write a debug log"),
	}
}

func (c *common) options() nl.Options {
	return nl.Options{ApplyToAll: *c.all, Intensity: *c.intensity}
}

func (c *common) selection() midi.Selection {
	return midi.Selection{Channel: *c.channel, From: *c.from, To: *c.to}
}

func (c *common) setup() (nl.Seed, error) {
	if *c.debug {
		path, err := config.LogPath()
		if err != nil {
			return 0, err
		}
		if err := debug.Enable(path); err != nil {
			return 0, err
		}
	}
	if err := c.options().Validate(); err != nil {
		return 0, err
	}
	return nl.ParseSeed(*c.seed)
}

func printResult(path string, res *nl.Result) {
	fmt.Printf("%s: %s notes, %s eligible, %s modified", path,
		humanize.Comma(int64(res.Pairs)), humanize.Comma(int64(res.Eligible)), humanize.Comma(int64(res.Modified)))
	if res.Clamped > 0 {
		fmt.Printf(", %s clamped", humanize.Comma(int64(res.Clamped)))
	}
	if res.Unmatched > 0 {
		fmt.Printf(", %s unmatched note-offs", humanize.Comma(int64(res.Unmatched)))
	}
	fmt.Printf(" (%s)\n", durafmt.Parse(res.Elapsed).LimitFirstN(2))
}

func runCmd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	c := addCommon(fs, cfg)
	out := fs.String("o", "", "output file (default: rewrite input)")
	dry := fs.Bool("n", false, "dry run: report without writing")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("run needs exactly one file")
	}

	seed, err := c.setup()
	if err != nil {
		return err
	}

	f, err := midi.Open(fs.Arg(0), *c.track, c.selection())
	if err != nil {
		return err
	}

	res, err := nl.Apply(f, c.options(), seed)
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("nothing to process")
		return nil
	}
	printResult(fs.Arg(0), res)

	if !res.Changed() || *dry {
		return nil
	}
	return f.Save(*out)
}

func batchCmd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	c := addCommon(fs, cfg)
	outDir := fs.String("outdir", "", "write results here (default: rewrite inputs)")
	dry := fs.Bool("n", false, "dry run: report without writing")
	workers := fs.Int("j", 0, "parallel files (default: one per CPU)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("batch needs at least one file")
	}

	seed, err := c.setup()
	if err != nil {
		return err
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return err
		}
	}

	started := time.Now()
	outcomes := batch.Run(fs.Args(), batch.Job{
		Options:   c.options(),
		Seed:      seed,
		Track:     *c.track,
		Selection: c.selection(),
		OutDir:    *outDir,
		DryRun:    *dry,
		Workers:   *workers,
	})

	failed, modified := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			fmt.Printf("%s: %v\n", o.Path, o.Err)
		case o.Result == nil:
			fmt.Printf("%s: nothing to process\n", o.Path)
		default:
			modified += o.Result.Modified
			printResult(o.Path, o.Result)
		}
	}

	fmt.Printf("%s files, %s notes modified, %d failed in %s\n",
		humanize.Comma(int64(len(outcomes))), humanize.Comma(int64(modified)), failed,
		durafmt.Parse(time.Since(started)).LimitFirstN(2))
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

func infoCmd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	c := addCommon(fs, cfg)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("info needs exactly one file")
	}

	f, err := midi.Open(fs.Arg(0), *c.track, c.selection())
	if err != nil {
		return err
	}

	fmt.Printf("File: %s (%d ppq)\n", f.Path, f.Tempo().PPQ())
	for _, t := range f.Tracks() {
		marker := " "
		if t.Index == f.Track() {
			marker = "*"
		}
		fmt.Printf("%s track %d %-20q %s events, %s notes\n", marker, t.Index, t.Name,
			humanize.Comma(int64(t.Events)), humanize.Comma(int64(t.Notes)))
	}

	buf, _, err := f.EventBuffer()
	if err != nil {
		return err
	}
	res, err := nl.Run(buf, f.TimeMap(), nl.Options{ApplyToAll: *c.all}, 0)
	if err != nil {
		return err
	}
	fmt.Printf("pairs %s, eligible %s, unmatched note-offs %s\n",
		humanize.Comma(int64(res.Pairs)), humanize.Comma(int64(res.Eligible)), humanize.Comma(int64(res.Unmatched)))
	return nil
}

func seedCmd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	save := fs.Bool("save", false, "store the seed in the config file")
	fs.Parse(args)

	seed := cfg.Reseed()
	fmt.Println(seed)
	if *save {
		return cfg.Save()
	}
	return nil
}

func portsCmd() error {
	fmt.Println("=== MIDI Output Ports ===")
	outs, err := midi.OutPorts(portTimeout)
	if err != nil {
		return err
	}
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func playCmd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	c := addCommon(fs, cfg)
	port := fs.String("port", cfg.OutputPort, "output port name (substring match)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("play needs exactly one file")
	}
	if *port == "" {
		return fmt.Errorf("no output port: pass -port or set outputPort in the config")
	}

	seed, err := c.setup()
	if err != nil {
		return err
	}

	f, err := midi.Open(fs.Arg(0), *c.track, c.selection())
	if err != nil {
		return err
	}

	// audition the humanized take without touching the file
	if *c.intensity > 0 {
		res, err := nl.Apply(f, c.options(), seed)
		if err != nil {
			return err
		}
		if res != nil {
			printResult(fs.Arg(0), res)
		}
	}

	out, err := midi.FindOut(*port, portTimeout)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return err
	}
	defer gomidi.CloseDriver()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	buf, _, err := f.EventBuffer()
	if err != nil {
		return err
	}
	fmt.Printf("Playing on %s (ctrl+c to stop)\n", out.String())
	err = midi.Play(ctx, send, buf, f.TimeMap())
	if err == context.Canceled {
		return nil
	}
	return err
}
