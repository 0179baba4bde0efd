package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/matbind/internal/binding"
	"github.com/Faultbox/matbind/internal/export"
	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/pipeline"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/internal/store"
	"github.com/Faultbox/matbind/pkg/mesh"
)

// orphanPreview is how many unused materials export lists by name.
const orphanPreview = 5

func (a *app) cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	cube := fs.Bool("cube", false, "Add a 2x2x2 cube named Cube")
	force := fs.Bool("force", false, "Overwrite an existing scene")
	fs.Parse(args)

	path := a.cfg.Scene.Path
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("scene %s already exists (use -force to overwrite)", path)
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	sc := scene.New()
	if *cube {
		if _, err := sc.Add("Cube", mesh.NewCube(2)); err != nil {
			return err
		}
	}
	if err := st.Save(sc); err != nil {
		return err
	}

	fmt.Printf("Created scene %s (%d objects)\n", path, len(sc.Objects))
	return nil
}

func (a *app) cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	size := fs.Float64("size", 2, "Edge length")
	cols := fs.Int("cols", 4, "Grid columns")
	rows := fs.Int("rows", 4, "Grid rows")
	x := fs.Float64("x", 0, "Position X")
	y := fs.Float64("y", 0, "Position Y")
	z := fs.Float64("z", 0, "Position Z")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: matbind add <cube|grid> <name> [-size n] [-cols n] [-rows n] [-x n -y n -z n]")
	}

	var m *mesh.Mesh
	switch kind := strings.ToLower(fs.Arg(0)); kind {
	case "cube":
		m = mesh.NewCube(float32(*size))
	case "grid":
		m = mesh.NewGrid(*cols, *rows, float32(*size))
	default:
		return fmt.Errorf("unknown mesh kind %q", kind)
	}

	return a.withScene(true, func(sc *scene.Scene) error {
		obj, err := sc.Add(fs.Arg(1), m)
		if err != nil {
			return err
		}
		obj.Position = mgl32.Vec3{float32(*x), float32(*y), float32(*z)}
		fmt.Printf("Added %s (%d faces)\n", obj.Name, m.FaceCount())
		return nil
	})
}

func (a *app) cmdFolders(args []string) error {
	fs := flag.NewFlagSet("folders", flag.ExitOnError)
	fs.Parse(args)

	folders, err := a.scanner.ListFolders(a.cfg.Textures.Root)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		fmt.Printf("No texture folders in %s\n", a.cfg.Textures.Root)
		return nil
	}

	fmt.Printf("Texture folders in %s:\n", a.cfg.Textures.Root)
	for _, f := range folders {
		strategy, err := a.naming.Classify(f.Count)
		if err != nil {
			continue
		}
		fmt.Printf("  %-24s %4d  %s\n", f.Name, f.Count, strategy)
	}
	return nil
}

func (a *app) cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: matbind scan <folder>")
	}

	mgr := pipeline.NewManager(a.scanner, a.naming, material.NewRegistry(), a.assets, a.status)
	res, err := mgr.Preview(pipeline.Request{Source: a.folderPath(fs.Arg(0)), Mode: pipeline.Folder})
	if err != nil {
		return err
	}

	fmt.Printf("Source:   %s\n", res.Source)
	fmt.Printf("Strategy: %s (%d textures)\n", res.Strategy, len(res.Scan.Entries))
	fmt.Println()
	for i, r := range res.Resolution.Resolved {
		fmt.Printf("  [%d] %-32s <- %s\n", i, r.ID, r.Entry.FileName())
	}
	for _, s := range res.Resolution.Skipped {
		fmt.Printf("  skip %s (%s)\n", s.File, s.ID)
	}
	for _, d := range res.Scan.Duplicates {
		fmt.Printf("  duplicate %s ignored in favor of %s\n", strings.Join(d.Discarded, ", "), d.Kept)
	}
	return nil
}

func (a *app) cmdApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: matbind apply <folder> [objects...]")
	}
	source := a.folderPath(fs.Arg(0))

	return a.withScene(true, func(sc *scene.Scene) error {
		targets, err := sc.Select(fs.Args()[1:]...)
		if err != nil {
			return err
		}
		res, err := a.manager(sc).Apply(pipeline.Request{
			Source:  source,
			Mode:    pipeline.Folder,
			Targets: targets,
		})
		printApply(res)
		return err
	})
}

func (a *app) cmdApplyPair(args []string) error {
	fs := flag.NewFlagSet("apply-pair", flag.ExitOnError)
	files := fs.String("files", "", "Comma-separated texture files instead of the configured folder")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: matbind apply-pair <multi|single> [-files a,b] [objects...]")
	}
	strategy, err := material.ParseStrategy(fs.Arg(0))
	if err != nil {
		return err
	}

	var paths []string
	if *files != "" {
		for _, p := range strings.Split(*files, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	} else {
		dir := a.cfg.Textures.Multiple
		if strategy == material.Single {
			dir = a.cfg.Textures.Single
		}
		scan, err := a.scanner.ScanDir(dir)
		if err != nil {
			return err
		}
		for _, e := range scan.Entries {
			paths = append(paths, e.Path)
		}
	}

	return a.withScene(true, func(sc *scene.Scene) error {
		targets, err := sc.Select(fs.Args()[1:]...)
		if err != nil {
			return err
		}
		res, err := a.manager(sc).Apply(pipeline.Request{
			Paths:    paths,
			Mode:     pipeline.FixedPaths,
			Strategy: strategy,
			Targets:  targets,
		})
		printApply(res)
		return err
	})
}

func printApply(res *pipeline.Result) {
	if res == nil {
		return
	}
	fmt.Printf("Applied %d %s material(s) from %s\n", len(res.Applied), res.Strategy, res.Source)
	for _, f := range res.Failed {
		fmt.Printf("  failed %s: %v\n", f.Name, f.Err)
	}
	for _, or := range res.Objects {
		if or.Err != nil {
			fmt.Printf("  %-20s error: %v\n", or.Object, or.Err)
			continue
		}
		fmt.Printf("  %-20s %d slot(s), faces per slot %v\n", or.Object, or.BoundCount, or.Faces)
		if len(or.Dropped) > 0 {
			fmt.Printf("  %-20s removed %s\n", "", strings.Join(or.Dropped, ", "))
		}
	}
}

func (a *app) cmdClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	fs.Parse(args)

	return a.withScene(true, func(sc *scene.Scene) error {
		targets, err := sc.Select(fs.Args()...)
		if err != nil {
			return err
		}
		n, err := a.manager(sc).Clear(targets)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared materials on %d object(s)\n", n)
		return nil
	})
}

type materialInfo struct {
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"`
	Image    string `yaml:"image,omitempty"`
	Users    int    `yaml:"users"`
}

func (a *app) cmdMaterials(args []string) error {
	fs := flag.NewFlagSet("materials", flag.ExitOnError)
	output := fs.String("o", "text", "Output format: text or yaml")
	fs.Parse(args)

	return a.withScene(false, func(sc *scene.Scene) error {
		users := sc.MaterialUsers()
		var infos []materialInfo
		for _, name := range sc.Materials.Names() {
			m, _ := sc.Materials.Get(name)
			infos = append(infos, materialInfo{
				Name:     name,
				Strategy: a.naming.PartitionOf(name).String(),
				Image:    m.ImagePath,
				Users:    users[name],
			})
		}

		switch *output {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{"materials": infos})
		case "text":
			if len(infos) == 0 {
				fmt.Println("No materials")
				return nil
			}
			for _, info := range infos {
				fmt.Printf("  %-32s %-6s %2d user(s)  %s\n", info.Name, info.Strategy, info.Users, info.Image)
			}
			return nil
		default:
			return fmt.Errorf("unknown output format %q", *output)
		}
	})
}

func (a *app) cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", a.cfg.ExportPath(), "Output file")
	scope := fs.String("scope", a.cfg.Export.MaterialScope, "Material scope: selection-only or all")
	fs.Parse(args)

	ms := export.MaterialScope(*scope)
	if ms != export.ScopeSelectionOnly && ms != export.ScopeAll {
		return fmt.Errorf("unknown material scope %q", *scope)
	}

	return a.withScene(false, func(sc *scene.Scene) error {
		selection, err := sc.Select(fs.Args()...)
		if err != nil {
			return err
		}
		if len(selection) == 0 {
			return fmt.Errorf("select at least one mesh object")
		}

		set := export.ResolveMaterialSet(selection, sc.Materials)
		fmt.Println("Materials used by the selection:")
		for _, name := range set.Used {
			fmt.Printf("  - %s (%s, used on %d object(s))\n", name, a.naming.PartitionOf(name), len(set.Users[name]))
		}
		fmt.Printf("Materials to export: %d\n", len(set.Used))
		if n := len(set.Orphans); n > 0 {
			fmt.Printf("%d unused material(s) in the scene will be ignored:\n", n)
			for _, name := range set.Orphans[:min(n, orphanPreview)] {
				fmt.Printf("  - %s\n", name)
			}
			if n > orphanPreview {
				fmt.Printf("  ... and %d more\n", n-orphanPreview)
			}
		}

		exp := &export.GLBExporter{Assets: a.assets, Generator: a.cfg.Export.Generator}
		req := export.Request{Path: *output, Scene: sc, Objects: selection, Scope: ms}
		attempt, err := export.Run(exp, req, export.Ladder(*output, ms), a.status)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d object(s), %d material(s), %d image(s) to %s (%s, attempt %d)\n",
			exp.Last.Objects, exp.Last.Materials, exp.Last.Images, exp.Last.Path,
			humanize.Bytes(uint64(exp.Last.Bytes)), attempt)
		return nil
	})
}

func (a *app) cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)

	return a.withScene(false, func(sc *scene.Scene) error {
		var objects []*scene.Object
		if fs.NArg() == 0 {
			objects = sc.Objects
		} else {
			for _, name := range fs.Args() {
				obj, ok := sc.Find(name)
				if !ok {
					return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, name)
				}
				objects = append(objects, obj)
			}
		}

		fmt.Printf("Scene: %s (%d objects, %d materials)\n", a.cfg.Scene.Path, len(sc.Objects), sc.Materials.Len())
		for _, obj := range objects {
			fmt.Printf("\n%s [%s] %s\n", obj.Name, obj.Kind, obj.ID)
			if !obj.IsMesh() {
				continue
			}
			faces := obj.Mesh.FaceCount()
			fmt.Printf("  faces: %s\n", humanize.Comma(int64(faces)))
			counts := binding.Histogram(obj.Mesh.FaceMaterials, len(obj.Slots))
			for i, slot := range obj.Slots {
				fmt.Printf("  [%d] %-32s %d face(s)\n", i, slot, counts[i])
			}
		}
		return nil
	})
}
