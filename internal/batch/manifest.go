package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"mu-bmd-collada/internal/storage"
)

// Manifest describes one batch run.
type Manifest struct {
	RunID     string          `json:"run_id"`
	Created   string          `json:"created"`
	Exported  int             `json:"exported"`
	Failed    int             `json:"failed"`
	Documents []ManifestEntry `json:"documents"`
}

// ManifestEntry represents one model in the output manifest.
type ManifestEntry struct {
	Section     int      `json:"section"`
	SectionName string   `json:"section_name,omitempty"`
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	ModelFile   string   `json:"model_file"`
	Document    string   `json:"document,omitempty"`
	Textures    []string `json:"textures,omitempty"`
	Missing     []string `json:"missing_textures,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewManifest summarises results in job order.
func NewManifest(runID string, now time.Time, results []Result) Manifest {
	ok, failed := Summary(results)
	m := Manifest{
		RunID:     runID,
		Created:   now.UTC().Format(time.RFC3339),
		Exported:  ok,
		Failed:    failed,
		Documents: make([]ManifestEntry, len(results)),
	}
	for i, r := range results {
		e := ManifestEntry{
			Name:      r.Job.Name,
			ModelFile: r.Job.ModelPath,
			Textures:  r.Textures,
			Missing:   r.Report.MissingTextures,
			Error:     r.Error,
		}
		if r.Success {
			e.Document = r.Output
		}
		if it := r.Job.Item; it != nil {
			e.Section = it.Section
			e.SectionName = it.SectionName
			e.Index = it.Index
			e.ModelFile = it.ModelFile
		}
		m.Documents[i] = e
	}
	return m
}

// WriteManifest stores the manifest as indented JSON.
func WriteManifest(st storage.Storage, path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: encode manifest: %w", err)
	}
	w, err := st.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return w.Close()
}
