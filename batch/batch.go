package batch

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"go-notelength/debug"
	"go-notelength/humanize"
	"go-notelength/midi"
)

// Job describes how every file in a batch is processed
type Job struct {
	Options   humanize.Options
	Seed      humanize.Seed
	Track     int
	Selection midi.Selection
	OutDir    string // empty rewrites files in place
	DryRun    bool
	Workers   int // <= 0 uses one per CPU
}

// Outcome is the result for one input file
type Outcome struct {
	Path    string
	Output  string // empty when nothing was written
	Result  *humanize.Result
	Err     error
	Elapsed time.Duration
}

// Run processes files concurrently. Each file is an independent transform
// with the same seed, so a file's output does not depend on its neighbours.
// Outcomes are returned in input order.
func Run(files []string, job Job) []Outcome {
	workers := job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]Outcome, len(files))
	wg := sizedwaitgroup.New(workers)
	for i, path := range files {
		wg.Add()
		go func(i int, path string) {
			defer wg.Done()
			out[i] = processFile(path, job)
		}(i, path)
	}
	wg.Wait()

	return out
}

func processFile(path string, job Job) Outcome {
	started := time.Now()
	o := Outcome{Path: path}

	f, err := midi.Open(path, job.Track, job.Selection)
	if err != nil {
		o.Err = err
		return o
	}

	o.Result, o.Err = humanize.Apply(f, job.Options, job.Seed)
	if o.Err == nil && o.Result != nil && o.Result.Changed() && !job.DryRun {
		dest := path
		if job.OutDir != "" {
			dest = filepath.Join(job.OutDir, filepath.Base(path))
		}
		if o.Err = f.Save(dest); o.Err == nil {
			o.Output = dest
		}
	}

	o.Elapsed = time.Since(started)
	debug.Log("batch", "%s: err=%v elapsed=%s", path, o.Err, o.Elapsed)
	return o
}
