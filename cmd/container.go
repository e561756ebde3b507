package cmd

import (
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/pkgpatch/pkgpatch/application"
	"github.com/pkgpatch/pkgpatch/config"
	"github.com/pkgpatch/pkgpatch/domain"
	packagerPkg "github.com/pkgpatch/pkgpatch/infrastructure/packager"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager/deb"
	"github.com/pkgpatch/pkgpatch/infrastructure/packager/rpm"
	"github.com/pkgpatch/pkgpatch/infrastructure/patchstore/shipdir"
	"github.com/pkgpatch/pkgpatch/infrastructure/tools"
)

// injectService wires the whole object graph for one command invocation:
// config, resolved mode, tool runner, both packagers, the registry, the
// patch-store factory, and the dispatch service on top.
func injectService() (*application.PatchService, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	mode, err := config.ResolveMode(modeFlag, cfg)
	if err != nil {
		return nil, err
	}

	workingDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory %q: %w", workDir, err)
	}

	container, err := newContainer(cfg, mode, workingDir)
	if err != nil {
		return nil, err
	}

	var svc *application.PatchService
	if err = container.Invoke(func(s *application.PatchService) {
		svc = s
	}); err != nil {
		return nil, fmt.Errorf("building service: %w", err)
	}

	return svc, nil
}

func newContainer(cfg *config.Config, mode domain.BuildMode, workingDir string) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		func() tools.Runner { return tools.NewExecRunner() },
		func(runner tools.Runner, cfg *config.Config) *deb.Packager {
			return deb.New(runner, deb.Options{
				BuildCommand: cfg.Deb.BuildCommand,
				BuildEnv:     cfg.Deb.BuildEnv,
			})
		},
		func(runner tools.Runner, cfg *config.Config) *rpm.Packager {
			return rpm.New(runner, rpm.Options{
				BuildCommand: cfg.Rpm.BuildCommand,
				ExtraArgs:    cfg.Rpm.ExtraArgs,
			})
		},
		func(d *deb.Packager, r *rpm.Packager) *packagerPkg.Registry {
			registry := packagerPkg.NewRegistry()
			registry.Register(d)
			registry.Register(r)
			return registry
		},
		func() application.StoreFactory {
			return func(dir string) (domain.PatchStore, error) {
				store, openErr := shipdir.New(dir)
				if openErr != nil {
					return nil, openErr
				}
				return store, nil
			}
		},
		func(registry *packagerPkg.Registry, stores application.StoreFactory) *application.PatchService {
			return application.NewPatchService(registry, stores, mode, workingDir)
		},
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, fmt.Errorf("registering provider: %w", err)
		}
	}

	return container, nil
}

// loadConfig reads the config file named by --config, or the first one found
// in the default locations. No config file at all is not an error.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found; using defaults")
			return &config.Config{}, nil
		}
		path = found
	}

	logger.Infof("Using config file: %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
