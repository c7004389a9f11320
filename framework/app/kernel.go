package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/config"
	"github.com/km-arc/galanthus/framework/di"
	"github.com/km-arc/galanthus/framework/dispatcher"
	"github.com/km-arc/galanthus/framework/logging"
	"github.com/km-arc/galanthus/framework/metrics"
	"github.com/km-arc/galanthus/framework/providers"
	"github.com/km-arc/galanthus/framework/routing"
)

// Version of the framework.
const Version = "0.1.0"

// Application is the root container plus the providers registered on it.
// app.Register() adds providers; app.MustRegister() and app.Configure()
// reach the container directly.
type Application struct {
	*di.Container
	Providers *di.ProviderRegistry

	config  *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	closers []io.Closer
}

// Options tune New beyond what the environment configures.
type Options struct {
	// EnvFiles are loaded before reading the environment. Default: .env
	EnvFiles []string
	// ControllerNamespaces are the packages controllers are looked up in.
	ControllerNamespaces []string
	// Schema statements run when the database is first opened.
	Schema []string
	// Logger replaces the logger built from the configuration.
	Logger *zap.Logger
}

// New loads the configuration, creates the container and registers the
// framework providers. Definition files are applied with LoadDefinitions.
func New(opts Options) (*Application, error) {
	cfg := config.Load(opts.EnvFiles...)
	log := opts.Logger
	if log == nil {
		log = logging.New(cfg.Log)
	}
	collector := metrics.New(true)

	c := di.New(
		di.WithLogger(log),
		di.WithObserver(collector),
		di.WithMaxDepth(cfg.DI.MaxDepth),
	)
	a := &Application{
		Container: c,
		Providers: di.NewProviderRegistry(c),
		config:    cfg,
		log:       log,
		metrics:   collector,
	}

	database := &providers.DatabaseServiceProvider{Schema: opts.Schema}
	a.closers = append(a.closers, database)

	for _, p := range []di.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: log},
		&providers.RoutingServiceProvider{},
		&providers.MetricsServiceProvider{Collector: collector},
		database,
		&providers.ViewServiceProvider{},
		&providers.DispatcherServiceProvider{Namespaces: opts.ControllerNamespaces},
	} {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider di.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// LoadDefinitions applies YAML definition files to the container. With no
// paths the files listed in DI_CONFIG are used.
func (a *Application) LoadDefinitions(paths ...string) error {
	if len(paths) == 0 {
		paths = a.config.DI.Files
	}
	defs, err := config.LoadDefinitions(paths...)
	if err != nil {
		return err
	}
	if err := a.Configure(defs); err != nil {
		return fmt.Errorf("app: apply definitions: %w", err)
	}
	a.log.Debug("definitions loaded", zap.Strings("files", paths), zap.Int("types", len(defs)))
	return nil
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

func (a *Application) Config() *config.Config      { return a.config }
func (a *Application) Log() *zap.Logger            { return a.log }
func (a *Application) Metrics() *metrics.Collector { return a.metrics }

// Router resolves the shared router.
func (a *Application) Router() (*routing.Router, error) {
	return di.Resolve[*routing.Router](a.Container, "router")
}

// Dispatcher resolves the shared dispatcher.
func (a *Application) Dispatcher() (*dispatcher.Dispatcher, error) {
	return di.Resolve[*dispatcher.Dispatcher](a.Container, "dispatcher")
}

// Handler boots the application if needed and returns the router.
func (a *Application) Handler() (http.Handler, error) {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return nil, err
		}
	}
	return a.Router()
}

// Run serves HTTP on APP_PORT until ctx is cancelled, then shuts down
// gracefully and closes the application.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + a.config.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening",
			zap.String("app", a.config.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", a.config.App.Env),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
	}
	return a.Close()
}

// Close releases resources held by providers and flushes the logger.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.config.IsProduction() }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
