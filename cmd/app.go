package cmd

import (
	"github.com/bnema/sitepack/internal/config"
	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/internal/store"
	"github.com/bnema/sitepack/pkg/logger"
)

// app bundles everything a command needs: config, the entity store and
// the package repositories.
type app struct {
	cfg       *config.Config
	db        *store.DB
	created   *packaging.Repository
	installed *packaging.Repository
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger()
	log.SetLogLevel(cfg.LogLevel)
	log.ConfigureFromEnv()

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		db:        db,
		created:   packaging.NewRepository(cfg.DataDir),
		installed: packaging.NewInstalledRepository(cfg.DataDir),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		logger.Error("Closing entity database failed", "error", err)
	}
}

func (a *app) installer() *packaging.Installer {
	return packaging.NewInstaller(a.db, a.cfg.UserID)
}

func (a *app) exporter() *packaging.Exporter {
	return packaging.NewExporter(a.db.ReadStores(), a.created,
		a.cfg.SiteRoot, a.cfg.PackagesDir, a.cfg.TempDir)
}

func (a *app) conflictChecker() *packaging.ConflictChecker {
	return packaging.NewConflictChecker(a.db.ReadStores(), a.cfg.SiteRoot)
}

// runWithApp wraps a command body with app setup and teardown.
func runWithApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
