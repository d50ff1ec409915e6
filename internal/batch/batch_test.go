package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/crypto"
	"mu-bmd-collada/internal/itemlist"
	"mu-bmd-collada/internal/storage"
	"mu-bmd-collada/internal/trs"
)

func model() *bmd.Model {
	return &bmd.Model{
		Name: "Sword01",
		Meshes: []bmd.Mesh{{
			Verts:       [][3]float32{{0, 0, 0}, {40, 0, 0}, {0, 40, 0}},
			Nodes:       []int16{0, 0, 0},
			Normals:     [][3]float32{{0, 0, 1}},
			NormalNodes: []int16{0},
			UVs:         [][2]float32{{0, 0}, {1, 0}, {0, 1}},
			Tris:        []bmd.Triangle{{Polygon: 3, VI: [4]int16{0, 1, 2}, TI: [4]int16{0, 1, 2}}},
			TexPath:     "sword01.jpg",
		}},
		Actions: []bmd.Action{{Keys: 1}},
		Bones: []bmd.Bone{{
			Name: "Bip01", Parent: -1,
			Actions: []bmd.BoneKeys{{Positions: [][3]float32{{0, 0, 1}}, Rotations: [][3]float32{{}}}},
		}},
	}
}

func setup(t *testing.T) (string, []itemlist.ItemDef) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sword01.bmd"), bmd.Encode(model()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.bmd"), []byte("BMD"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Empty.bmd"), bmd.Encode(&bmd.Model{Name: "Empty"}), 0o644))
	items := []itemlist.ItemDef{
		{Section: 0, SectionName: "Swords", Index: 1, Name: "Kris", ModelFile: "Sword01.bmd"},
		{Section: 0, SectionName: "Swords", Index: 2, Name: "Ghost", ModelFile: "Missing.bmd"},
		{Section: 3, Index: 0, Name: "Cracked", ModelFile: "Broken.bmd"},
		{Section: 3, Index: 1, Name: "Hollow", ModelFile: "Empty.bmd"},
	}
	return dir, items
}

func TestItemJobs(t *testing.T) {
	data := trs.Data{{0, 1}: {Source: trs.SourceCustom}}
	jobs := ItemJobs("/data/Item", []itemlist.ItemDef{
		{Section: 0, Index: 1, Name: "Kris", ModelFile: "Sword01.bmd"},
		{Section: 7, Index: 12, Name: "Wings", ModelFile: `Wing\Wing01.bmd`},
	}, data)

	require.Len(t, jobs, 2)
	assert.Equal(t, filepath.Join("/data/Item", "Sword01.bmd"), jobs[0].ModelPath)
	assert.Equal(t, "0", jobs[0].Dir)
	assert.Equal(t, "1", jobs[0].File)
	assert.Same(t, data[[2]int{0, 1}], jobs[0].TRS)
	assert.Equal(t, filepath.Join("/data/Item", "Wing", "Wing01.bmd"), jobs[1].ModelPath)
	assert.Nil(t, jobs[1].TRS)
	assert.Equal(t, "Wings", jobs[1].Item.Name)
}

func TestFileJob(t *testing.T) {
	j := FileJob("/models/Sword01.bmd")
	assert.Equal(t, "Sword01", j.Name)
	assert.Equal(t, "Sword01", j.File)
	assert.Empty(t, j.Dir)
}

func TestRun(t *testing.T) {
	dir, items := setup(t)
	mem := storage.NewMemory()
	logger, hook := test.NewNullLogger()

	results := Run(Config{
		Storage: mem,
		Keys:    crypto.DefaultKeys(),
		Workers: 3,
		Log:     logger,
		RunID:   "run-1",
	}, ItemJobs(dir, items, nil))

	require.Len(t, results, 4)
	assert.True(t, results[0].Success, results[0].Error)
	assert.Equal(t, "0/1.dae", results[0].Output)
	assert.Equal(t, 1, results[0].Report.Meshes)

	assert.Contains(t, results[1].Error, "BMD not found")
	assert.Contains(t, results[2].Error, "invalid header")
	assert.Contains(t, results[3].Error, "no meshes")

	ok, failed := Summary(results)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 3, failed)

	doc, found := mem.File("0/1.dae")
	require.True(t, found)
	assert.Contains(t, string(doc), "<COLLADA")
	assert.Equal(t, []string{"0/1.dae"}, mem.Paths())

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, "run-1", e.Data["run_id"])
			assert.NotEmpty(t, e.Data["model"])
		}
	}
	assert.Equal(t, 3, warnings)
}

func TestRunDefaults(t *testing.T) {
	dir, items := setup(t)
	mem := storage.NewMemory()
	logger, _ := test.NewNullLogger()
	results := Run(Config{Storage: mem, Log: logger}, []Job{FileJob(filepath.Join(dir, items[0].ModelFile))})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success, results[0].Error)
	assert.Equal(t, "Sword01.dae", results[0].Output)
}

func TestManifest(t *testing.T) {
	dir, items := setup(t)
	logger, _ := test.NewNullLogger()
	mem := storage.NewMemory()
	results := Run(Config{Storage: mem, Workers: 2, Log: logger}, ItemJobs(dir, items[:2], nil))

	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	m := NewManifest("abc", now, results)
	assert.Equal(t, "abc", m.RunID)
	assert.Equal(t, "2024-03-09T10:00:00Z", m.Created)
	assert.Equal(t, 1, m.Exported)
	assert.Equal(t, 1, m.Failed)
	require.Len(t, m.Documents, 2)
	assert.Equal(t, "0/1.dae", m.Documents[0].Document)
	assert.Equal(t, "Sword01.bmd", m.Documents[0].ModelFile)
	assert.Empty(t, m.Documents[1].Document)
	assert.NotEmpty(t, m.Documents[1].Error)

	require.NoError(t, WriteManifest(mem, "manifest.json", m))
	raw, ok := mem.File("manifest.json")
	require.True(t, ok)
	var back Manifest
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, m, back)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
