// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
	"github.com/fd1az/arbitrage-dashboard/internal/health"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
)

// Registry keys for the shared infrastructure.
const (
	ConfigKey = "config"
	LoggerKey = "logger"
	HealthKey = "health"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Health() *health.Server
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services, start up
// and shut down.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
	Shutdown(context.Context) error
}

// App implements the Monolith interface.
type App struct {
	config    *config.Config
	logger    logger.LoggerInterface
	health    *health.Server
	container di.Container
	started   []Module
}

var _ Monolith = (*App)(nil)

// New creates a new Monolith instance. The health server is created but not
// started.
func New(cfg *config.Config, log logger.LoggerInterface) *App {
	if log == nil {
		log = logger.NewNop()
	}

	hs := health.NewServer(cfg.Health.Port, cfg.App.Name, log)

	container := di.NewContainer()
	container.Register(ConfigKey, cfg)
	container.Register(LoggerKey, log)
	container.Register(HealthKey, hs)

	return &App{
		config:    cfg,
		logger:    log,
		health:    hs,
		container: container,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) Health() *health.Server {
	return a.health
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts modules in order. When one fails, the ones already
// started are shut down before the error is returned.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return errors.Join(err, a.StopModules(ctx))
		}
		a.started = append(a.started, m)
	}
	return nil
}

// StopModules shuts started modules down in reverse order.
func (a *App) StopModules(ctx context.Context) error {
	var errs []error
	for i := len(a.started) - 1; i >= 0; i-- {
		if err := a.started[i].Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.started = nil
	return errors.Join(errs...)
}
