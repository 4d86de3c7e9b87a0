// Package app assembles the deployment controller, the compose backend and
// the inference client from a resolved config.Config.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/remyxai/remyxai-cli/internal/config"
	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/deploy/compose"
	"github.com/remyxai/remyxai-cli/internal/httpapi"
	"github.com/remyxai/remyxai-cli/internal/inference"
	"github.com/remyxai/remyxai-cli/internal/registry"
	"github.com/remyxai/remyxai-cli/internal/remyx"
	"github.com/remyxai/remyxai-cli/internal/storage"
)

// ModelLister enumerates models that have a local stack.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// Overrides replaces components built from config. Zero fields keep the default.
type Overrides struct {
	Backend deploy.Backend
	Lister  ModelLister
	Prober  deploy.Prober
	Kinds   deploy.KindResolver
	Source  deploy.PackageSource
}

// App is the process-wide set of components shared by the CLI and the
// control API.
type App struct {
	cfg        config.Config
	log        zerolog.Logger
	controller *deploy.Controller
	lister     ModelLister
	infer      *inference.Client
	remote     *remyx.Client
}

var _ httpapi.Service = (*App)(nil)

// New builds an App. cfg must already be normalized.
func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	return NewWithOverrides(cfg, log, Overrides{})
}

// NewWithOverrides builds an App with some components supplied by the caller.
func NewWithOverrides(cfg config.Config, log zerolog.Logger, o Overrides) (*App, error) {
	remote, err := remyx.New(remyx.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		Logger:  log.With().Str("component", "remyx").Logger(),
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, remote: remote}

	source := o.Source
	if source == nil {
		if source, err = a.packageSource(); err != nil {
			return nil, err
		}
	}
	backend, lister := o.Backend, o.Lister
	if backend == nil {
		cb := compose.New(compose.Config{
			Bin:         cfg.ComposeBin,
			DeployDir:   cfg.DeployDir,
			Source:      source,
			Logger:      log.With().Str("component", "compose").Logger(),
			StopTimeout: cfg.StopTimeout.Std(),
			GPU:         cfg.GPU,
		})
		backend = cb
		if lister == nil {
			lister = cb
		}
	}
	if lister == nil {
		lister = registryLister(cfg.DeployDir)
	}
	a.lister = lister

	kinds := o.Kinds
	if kinds == nil {
		kinds = registry.Chain{registry.NewStatic(cfg.ModelKinds), remote}
	}
	a.controller = deploy.NewWithConfig(deploy.ControllerConfig{
		Backend:          backend,
		Kinds:            kinds,
		Prober:           o.Prober,
		Publisher:        httpapi.MetricsPublisher{},
		Logger:           log.With().Str("component", "deploy").Logger(),
		ReadyTimeout:     cfg.ReadyTimeout.Std(),
		ProbeInterval:    cfg.ProbeInterval.Std(),
		ProbeMaxInterval: cfg.ProbeMaxInterval.Std(),
		ProbeTimeout:     cfg.ProbeTimeout.Std(),
	})
	a.infer = inference.New(
		inference.WithLogger(log.With().Str("component", "inference").Logger()),
		inference.WithObserver(httpapi.ObserveInference),
	)
	return a, nil
}

func (a *App) packageSource() (deploy.PackageSource, error) {
	if !strings.HasPrefix(a.cfg.PackageSource, storage.S3Prefix+"://") {
		return a.remote, nil
	}
	src, err := storage.NewMinioSource(storage.MinioConfig{
		URL:       a.cfg.PackageSource,
		Endpoint:  a.cfg.S3.Endpoint,
		AccessKey: a.cfg.S3.AccessKey,
		SecretKey: a.cfg.S3.SecretKey,
		UseSSL:    a.cfg.S3.UseSSL,
		Region:    a.cfg.S3.Region,
		Logger:    a.log.With().Str("component", "storage").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("package source: %w", err)
	}
	return src, nil
}

// Controller exposes the deployment controller.
func (a *App) Controller() *deploy.Controller { return a.controller }

// Config returns the settings the App was built with.
func (a *App) Config() config.Config { return a.cfg }

func (a *App) BringUp(ctx context.Context, model string) (deploy.DeploymentStatus, error) {
	return a.controller.BringUp(ctx, model)
}

func (a *App) BringDown(ctx context.Context, model string) (deploy.DeploymentStatus, error) {
	return a.controller.BringDown(ctx, model)
}

func (a *App) Status(ctx context.Context, model string) deploy.DeploymentStatus {
	return a.controller.Status(ctx, model)
}

// Deployments reports the status of every model with a local stack.
func (a *App) Deployments(ctx context.Context) ([]deploy.DeploymentStatus, error) {
	models, err := a.lister.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return a.controller.List(ctx, models), nil
}

// Infer fills unset request fields from config and, without a server
// address, targets the model's Ready deployment. A target that is not Ready
// fails with deploy.ErrNotReady before anything is sent.
func (a *App) Infer(ctx context.Context, req inference.Request) (inference.Result, error) {
	if req.ModelVersion == "" {
		req.ModelVersion = a.cfg.ModelVersion
	}
	if req.Timeout == 0 {
		req.Timeout = a.cfg.InferTimeout.Std()
	}
	if req.ServerAddress == "" {
		req.ServerAddress = a.cfg.ServerURL
	}
	if req.ServerAddress == "" && strings.TrimSpace(req.ModelName) != "" {
		ep, err := a.controller.Endpoint(ctx, req.ModelName)
		if err != nil {
			return inference.Result{}, err
		}
		req.ServerAddress = ep
	}
	return a.infer.Infer(ctx, req)
}

// Close releases idle connections held by the clients.
func (a *App) Close() {
	a.infer.Close()
	a.remote.Close()
}

// registryLister lists prepared stacks when the backend cannot enumerate models.
type registryLister string

func (d registryLister) Models(context.Context) ([]string, error) {
	stacks, err := registry.LoadDir(string(d))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(stacks))
	for _, s := range stacks {
		out = append(out, s.Model)
	}
	return out, nil
}
