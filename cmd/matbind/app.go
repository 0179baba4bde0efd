package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/Faultbox/matbind/internal/assets"
	"github.com/Faultbox/matbind/internal/config"
	"github.com/Faultbox/matbind/internal/logger"
	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/pipeline"
	"github.com/Faultbox/matbind/internal/report"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/internal/store"
	"github.com/Faultbox/matbind/internal/texture"
)

// app holds what every command needs.
type app struct {
	cfg     *config.Config
	naming  material.Naming
	scanner *texture.Scanner
	assets  *assets.Manager
	status  *report.Recorder
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg:     cfg,
		naming:  material.Naming{SinglePrefix: cfg.Textures.SinglePrefix},
		scanner: texture.NewScanner(cfg.Textures.Extensions),
		assets:  assets.NewManager(),
		status:  &report.Recorder{Next: report.NewLogReporter(logger.Named("status"))},
	}
}

// openScene opens the scene file; it must already exist.
func (a *app) openScene() (*store.Store, *scene.Scene, error) {
	if _, err := os.Stat(a.cfg.Scene.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("scene %s does not exist, run 'matbind init' first", a.cfg.Scene.Path)
		}
		return nil, nil, err
	}

	st, err := store.Open(a.cfg.Scene.Path)
	if err != nil {
		return nil, nil, err
	}
	sc, err := st.Load()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, sc, nil
}

// withScene runs fn on the loaded scene and saves it when fn succeeds
// and save is set.
func (a *app) withScene(save bool, fn func(sc *scene.Scene) error) error {
	st, sc, err := a.openScene()
	if err != nil {
		return err
	}
	defer st.Close()

	fnErr := fn(sc)
	if fnErr != nil && !save {
		return fnErr
	}
	if save {
		if err := st.Save(sc); err != nil {
			return multierr.Append(fnErr, err)
		}
	}
	return fnErr
}

func (a *app) manager(sc *scene.Scene) *pipeline.Manager {
	return pipeline.NewManager(a.scanner, a.naming, sc.Materials, a.assets, a.status)
}

// folderPath resolves a folder argument: an existing directory is used
// as is, anything else is looked up under the texture root.
func (a *app) folderPath(arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	return filepath.Join(a.cfg.Textures.Root, arg)
}
