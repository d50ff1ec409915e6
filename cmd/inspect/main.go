package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mu-bmd-collada/internal/bmd"
	"mu-bmd-collada/internal/config"
	"mu-bmd-collada/internal/convert"
	"mu-bmd-collada/internal/filter"
	"mu-bmd-collada/internal/scene"
	"mu-bmd-collada/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config file for decryption keys")
	texDir := flag.String("textures", "", "Directory to resolve textures from (default: model directory)")
	showScene := flag.Bool("scene", false, "Also print the converted scene")
	decrypt := flag.String("decrypt", "", "Write the model as plain v10 BMD to this path (single input only)")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	keys, err := cfg.Keys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *decrypt != "" && flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -decrypt needs exactly one model")
		os.Exit(1)
	}

	exit := 0
	for _, arg := range flag.Args() {
		m, err := bmd.Parse(arg, keys)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			exit = 1
			continue
		}

		dirs := []string{*texDir}
		if *texDir == "" {
			dirs[0] = filepath.Dir(arg)
		}
		cache := texture.NewCache(texture.BuildIndex(dirs...))

		printModel(arg, m, cache)

		if *showScene {
			sc, rep, err := convert.Model(m, convert.Options{Textures: cache, Preview: true})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Convert error %s: %v\n", arg, err)
				exit = 1
				continue
			}
			printScene(sc, rep)
		}

		if *decrypt != "" {
			if err := os.WriteFile(*decrypt, bmd.Encode(m), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
				exit = 1
				continue
			}
			fmt.Printf("Wrote %s (v10)\n", *decrypt)
		}
	}
	os.Exit(exit)
}

func printModel(path string, m *bmd.Model, cache *texture.Cache) {
	fmt.Printf("\n=== %s %q v%d (meshes=%d bones=%d actions=%d) ===\n",
		path, m.Name, m.Version, len(m.Meshes), len(m.Bones), len(m.Actions))

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		texInfo := "MISSING"
		if img, err := cache.Resolve(mesh.TexPath); err == nil {
			b := img.Pixels.Bounds()
			texInfo = fmt.Sprintf("%s %dx%d", img.Format, b.Dx(), b.Dy())
			if !img.Opaque() {
				texInfo += " alpha"
			}
		}
		fmt.Printf("  Mesh[%d]: v=%d n=%d uv=%d t=%d tex=%q (%s) [%s]\n",
			i, len(mesh.Verts), len(mesh.Normals), len(mesh.UVs), len(mesh.Tris),
			mesh.TexPath, texInfo, filter.Classify(mesh))
	}

	for i, b := range m.Bones {
		if b.IsDummy {
			fmt.Printf("  Bone[%d]: dummy\n", i)
			continue
		}
		fmt.Printf("  Bone[%d]: %q parent=%d pos=(%.1f,%.1f,%.1f)\n",
			i, b.Name, b.Parent, b.BindPosition[0], b.BindPosition[1], b.BindPosition[2])
	}

	for i, a := range m.Actions {
		lock := ""
		if a.LockPositions {
			lock = " lock"
		}
		fmt.Printf("  Action[%d]: keys=%d%s\n", i, a.Keys, lock)
	}
}

func printScene(sc *scene.Scene, rep convert.Report) {
	fmt.Printf("--- SCENE nodes=%d meshes=%d materials=%d textures=%d cameras=%d lights=%d animations=%d\n",
		sc.NumNodes(), len(sc.Meshes), len(sc.Materials), len(sc.Textures),
		len(sc.Cameras), len(sc.Lights), len(sc.Animations))
	fmt.Printf("    dropped=%d effect=%d bones=%d\n", rep.DroppedMeshes, rep.EffectMeshes, rep.Bones)
	if len(rep.MissingTextures) > 0 {
		fmt.Printf("    missing textures: %s\n", strings.Join(rep.MissingTextures, ", "))
	}

	sc.Walk(func(id scene.NodeID, depth int) bool {
		n := sc.Node(id)
		extra := ""
		if len(n.Meshes) > 0 {
			extra += fmt.Sprintf(" meshes=%v", n.Meshes)
		}
		if len(n.Cameras) > 0 {
			extra += fmt.Sprintf(" cameras=%v", n.Cameras)
		}
		fmt.Printf("    %s%s%s\n", strings.Repeat("  ", depth), n.Name, extra)
		return true
	})

	for _, a := range sc.Animations {
		fmt.Printf("    anim %s: %.0f ticks @ %.0f/s, %d channels\n",
			a.Name, a.Duration, a.TicksPerSecond, len(a.Channels))
	}
}
