// Package batch exports many BMD models with a worker pool.
package batch

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/collada"
	"mu-bmd-collada/internal/convert"
	"mu-bmd-collada/internal/crypto"
	"mu-bmd-collada/internal/itemlist"
	"mu-bmd-collada/internal/storage"
	"mu-bmd-collada/internal/trs"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Storage storage.Storage
	Keys    crypto.Keys

	// Convert is the per-model template; Name, Source and TRS are set per job.
	Convert convert.Options
	Export  collada.Options

	Workers int

	// Progress is the interval of progress log lines; zero disables them.
	Progress time.Duration

	Log   logrus.FieldLogger
	RunID string
}

// Job is one model to export into Dir/File.dae.
type Job struct {
	Name      string
	ModelPath string
	Dir       string
	File      string
	TRS       *trs.Entry

	// Item is set for jobs built from the item list.
	Item *itemlist.ItemDef
}

// Result holds the outcome of processing one job.
type Result struct {
	Job      Job
	Output   string
	Textures []string
	Report   convert.Report
	Success  bool
	Error    string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ItemJobs builds one job per item, writing to <section>/<index>.dae.
func ItemJobs(itemDir string, items []itemlist.ItemDef, data trs.Data) []Job {
	jobs := make([]Job, len(items))
	for i := range items {
		it := &items[i]
		jobs[i] = Job{
			Name:      it.Name,
			ModelPath: filepath.Join(itemDir, filepath.FromSlash(strings.ReplaceAll(it.ModelFile, "\\", "/"))),
			Dir:       strconv.Itoa(it.Section),
			File:      strconv.Itoa(it.Index),
			TRS:       data.Lookup(it.Section, it.Index),
			Item:      it,
		}
	}
	return jobs
}

// FileJob builds a job for a standalone model written as <stem>.dae.
func FileJob(modelPath string) Job {
	base := filepath.Base(modelPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Job{Name: stem, ModelPath: modelPath, File: stem}
}

// Run processes all jobs using a worker pool. Failures are reported in the
// results and never stop the run.
func Run(cfg Config, jobs []Job) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.RunID == "" {
		cfg.RunID = NewRunID()
	}
	log := cfg.Log.WithField("run_id", cfg.RunID)

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						log.Infof("[%d/%d] %.1f models/sec", p, total, rate)
					}
				}
			}
		}()
	}

	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, log, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(cfg Config, log logrus.FieldLogger, job Job) Result {
	res := Result{Job: job, Output: path.Join(job.Dir, job.File+ext(cfg.Export))}
	log = log.WithFields(logrus.Fields{"model": job.ModelPath, "output": res.Output})

	fail := func(err error) Result {
		res.Error = err.Error()
		log.WithError(err).Warn("export failed")
		return res
	}

	if _, err := os.Stat(job.ModelPath); os.IsNotExist(err) {
		return fail(fmt.Errorf("BMD not found: %s", filepath.Base(job.ModelPath)))
	}
	model, err := bmd.Parse(job.ModelPath, cfg.Keys)
	if err != nil {
		return fail(err)
	}
	if len(model.Meshes) == 0 {
		return fail(fmt.Errorf("no meshes in %s", filepath.Base(job.ModelPath)))
	}

	opts := cfg.Convert
	opts.Name = job.Name
	opts.Source = filepath.Base(job.ModelPath)
	opts.TRS = job.TRS
	sc, rep, err := convert.Model(model, opts)
	if err != nil {
		return fail(err)
	}
	res.Report = rep
	for _, tex := range rep.MissingTextures {
		log.WithField("texture", tex).Warn("texture not found")
	}

	written, err := collada.New(sc, cfg.Export).Export(cfg.Storage, job.Dir, job.File)
	if err != nil {
		return fail(err)
	}
	res.Output = written[0]
	if len(written) > 1 {
		res.Textures = written[1:]
	}

	log.WithFields(logrus.Fields{
		"meshes":     rep.Meshes,
		"bones":      rep.Bones,
		"animations": rep.Animations,
	}).Debug("exported")
	res.Success = true
	return res
}

func ext(opts collada.Options) string {
	if opts.Extension != "" {
		return opts.Extension
	}
	return ".dae"
}

// Summary counts successful and failed results.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
