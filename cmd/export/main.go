package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"mu-bmd-collada/internal/batch"
	"mu-bmd-collada/internal/collada"
	"mu-bmd-collada/internal/config"
	"mu-bmd-collada/internal/convert"
	"mu-bmd-collada/internal/imagefile"
	"mu-bmd-collada/internal/itemlist"
	"mu-bmd-collada/internal/storage"
	"mu-bmd-collada/internal/texture"
	"mu-bmd-collada/internal/trs"
)

const manifestName = "manifest.json"

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json, .yaml or .toml)")
	testN := flag.Int("test", 0, "Export only first N items for testing")
	section := flag.Int("section", -1, "Export only items from this section")
	index := flag.Int("index", -1, "Export only item with this index (requires -section)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: Data/Item-collada)")
	format := flag.String("format", "", "Texture file format: webp or png (default: webp)")
	preview := flag.Bool("preview", false, "Add a preview camera and lights")
	dryRun := flag.Bool("dry-run", false, "Convert everything but write nothing")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [model.bmd ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	log.SetOutput(os.Stdout)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:       *dataDir,
		OutputDir:     *outputDir,
		Workers:       *workers,
		TextureFormat: *format,
	})
	if *preview {
		cfg.Preview = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	keys, err := cfg.Keys()
	if err != nil {
		log.Fatal(err)
	}

	files := flag.Args()
	if len(files) == 0 && cfg.BaseDir == "" {
		log.Fatal("cannot find Data directory. Use -data flag, a config file or pass .bmd files.")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	// The item list is required for a full run and optional for single files,
	// where it only maps models to their display transform.
	items, err := loadItems(cfg)
	if err != nil {
		if len(files) == 0 {
			log.Fatalf("Error loading item list: %v", err)
		}
		log.Debugf("item list: %v", err)
	}
	log.Infof("Item list: %d items with models", len(items))

	trsData, err := trs.Load(cfg.TRSBMD, cfg.CustomTRS, items)
	if err != nil {
		log.Warnf("TRS load: %v", err)
	}
	log.Infof("TRS data: %d items loaded", len(trsData))

	var jobs []batch.Job
	if len(files) > 0 {
		jobs = fileJobs(files, items, trsData)
	} else {
		items = itemlist.Filter(items, *section, *index)
		jobs = batch.ItemJobs(cfg.ItemDir, items, trsData)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(jobs) {
		jobs = jobs[:*testN]
	}
	if len(jobs) == 0 {
		log.Info("No models to export.")
		return
	}

	// Build texture index
	texDirs := []string{}
	if cfg.ItemDir != "" {
		texDirs = append(texDirs, cfg.ItemDir)
	}
	for _, f := range files {
		texDirs = append(texDirs, filepath.Dir(f))
	}
	texIndex := texture.BuildIndex(texDirs...)
	texCache := texture.NewCache(texIndex)
	log.Infof("Textures: %d indexed", texIndex.Len())

	var st storage.Storage = storage.Dir{Root: cfg.OutputDir}
	var mem *storage.Memory
	if *dryRun {
		mem = storage.NewMemory()
		st = mem
	}

	mode := ""
	switch {
	case len(files) > 0:
		mode = " (files)"
	case *section >= 0:
		mode = fmt.Sprintf(" (Section %d)", *section)
	case *testN > 0:
		mode = fmt.Sprintf(" (TEST: first %d)", *testN)
	}
	if *dryRun {
		mode += " [dry run]"
	}

	runID := batch.NewRunID()
	log.Infof("MU Online BMD → COLLADA%s", mode)
	log.Infof("Models: %d, Workers: %d, Textures: %s", len(jobs), cfg.Workers, cfg.TextureFormat)
	log.Infof("Output: %s", cfg.OutputDir)
	log.Infof("Run: %s", runID)

	start := time.Now()

	results := batch.Run(batch.Config{
		Storage: st,
		Keys:    keys,
		Convert: convert.Options{
			Author:           cfg.Author,
			Textures:         texCache,
			FrameRate:        cfg.FrameRate,
			DropBodyMeshes:   cfg.DropBodyMeshes,
			DropEffectMeshes: cfg.DropEffectMeshes,
			ApplyTRS:         cfg.ApplyTRS,
			Preview:          cfg.Preview,
		},
		Export: collada.Options{
			Author:  cfg.Author,
			Encoder: imagefile.Encoder{Format: cfg.TextureFormat, MaxSize: cfg.MaxTextureSize},
		},
		Workers:  cfg.Workers,
		Progress: 5 * time.Second,
		Log:      log.StandardLogger(),
		RunID:    runID,
	}, jobs)

	elapsed := time.Since(start)
	ok, failed := batch.Summary(results)
	log.Infof("Done in %.1fs", elapsed.Seconds())
	log.Infof("Exported: %d/%d", ok, len(jobs))

	if failed > 0 {
		log.Warnf("Failed (%d):", failed)
		shown := 0
		for _, r := range results {
			if r.Success {
				continue
			}
			if shown == 20 {
				log.Warnf("  ... and %d more", failed-shown)
				break
			}
			log.Warnf("  %s: %s", r.Job.Name, r.Error)
			shown++
		}
	}

	manifest := batch.NewManifest(runID, time.Now(), results)
	if err := batch.WriteManifest(st, manifestName, manifest); err != nil {
		log.Errorf("Error writing manifest: %v", err)
	} else if !*dryRun {
		log.Infof("Manifest: %s", filepath.Join(cfg.OutputDir, manifestName))
	}

	if mem != nil {
		log.Infof("Dry run: %d files, %d bytes would be written", len(mem.Paths()), mem.Size())
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// loadItems reads ItemList.xml, falling back to the client's item.bmd.
func loadItems(cfg config.Config) ([]itemlist.ItemDef, error) {
	if cfg.ItemListXML == "" && cfg.ItemBMD == "" {
		return nil, fmt.Errorf("no item list configured")
	}
	items, err := itemlist.Parse(cfg.ItemListXML)
	if err == nil || cfg.ItemBMD == "" {
		return items, err
	}
	items, binErr := itemlist.ParseBinary(cfg.ItemBMD)
	if binErr != nil {
		return nil, fmt.Errorf("%v; %v", err, binErr)
	}
	log.Infof("ItemList.xml unavailable, using %s", cfg.ItemBMD)
	return items, nil
}

// fileJobs builds jobs for models named on the command line. A model listed
// in the item list picks up that item's display transform.
func fileJobs(files []string, items []itemlist.ItemDef, data trs.Data) []batch.Job {
	jobs := make([]batch.Job, 0, len(files))
	for _, f := range files {
		job := batch.FileJob(f)
		if it, ok := itemlist.ByModel(items, filepath.Base(f)); ok {
			job.Item = &it
			job.TRS = data.Lookup(it.Section, it.Index)
		}
		jobs = append(jobs, job)
	}
	return jobs
}
