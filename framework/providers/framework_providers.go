package providers

import (
	"errors"
	"sync"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/broker"
	"github.com/km-arc/galanthus/framework/config"
	"github.com/km-arc/galanthus/framework/controller"
	ctrlhelpers "github.com/km-arc/galanthus/framework/controller/helpers"
	"github.com/km-arc/galanthus/framework/db"
	"github.com/km-arc/galanthus/framework/db/tablegateway"
	"github.com/km-arc/galanthus/framework/di"
	"github.com/km-arc/galanthus/framework/dispatcher"
	gohttp "github.com/km-arc/galanthus/framework/http"
	"github.com/km-arc/galanthus/framework/metrics"
	"github.com/km-arc/galanthus/framework/routing"
	"github.com/km-arc/galanthus/framework/view"
	viewhelpers "github.com/km-arc/galanthus/framework/view/helpers"
)

// useDefault binds name on ctx unless definitions already did.
func useDefault(ctx *di.Context, name string, p di.Preference) {
	if _, ok := ctx.Variables()[name]; !ok {
		ctx.ForVariable(name).Use(p)
	}
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration.
//
// Bound:
//   - "config" → *config.Config
type ConfigServiceProvider struct {
	di.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *di.Container) error {
	if p.Config == nil {
		return errors.New("providers: no configuration")
	}
	app.UseInstance(p.Config)
	app.Alias("config", di.TypeOf[*config.Config]())
	return nil
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound:
//   - "log" → *zap.Logger
type LoggingServiceProvider struct {
	di.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *di.Container) error {
	log := p.Logger
	if log == nil {
		log = app.Logger()
	}
	app.UseInstance(log)
	app.Alias("log", di.TypeOf[*zap.Logger]())
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus collector and serves it on
// /metrics.
//
// Bound:
//   - "metrics" → *metrics.Collector
type MetricsServiceProvider struct {
	di.BaseProvider
	Collector *metrics.Collector
	Path      string // default: "/metrics"
}

func (p *MetricsServiceProvider) Register(app *di.Container) error {
	if p.Collector == nil {
		p.Collector = metrics.New(false)
	}
	app.UseInstance(p.Collector)
	app.Alias("metrics", di.TypeOf[*metrics.Collector]())
	return nil
}

func (p *MetricsServiceProvider) Boot(app *di.Container) error {
	router, err := di.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	path := p.Path
	if path == "" {
		path = "/metrics"
	}
	router.Handle(path, p.Collector.Handler())
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound:
//   - "router" → *routing.Router (shared)
type RoutingServiceProvider struct {
	di.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *di.Container) error {
	id := app.MustRegister(routing.New, di.Params("log"), di.Optional("log", nil), di.As("router"))
	app.Share(id)
	return nil
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider registers the bun database and table gateways. It
// is deferred: nothing is opened until a gateway or "db-driver" is created.
//
// Bound:
//   - "db-driver" → *bun.DB (shared)
//   - *tablegateway.TableGateway, params "db" and "table"
type DatabaseServiceProvider struct {
	di.BaseProvider
	// Schema statements run once when the database is opened.
	Schema []string

	mu     sync.Mutex
	opened []*bun.DB
}

func (p *DatabaseServiceProvider) IsDeferred() bool { return true }

func (p *DatabaseServiceProvider) Provides() []string {
	return []string{
		"db-driver",
		di.TypeOf[*bun.DB](),
		di.TypeOf[*tablegateway.TableGateway](),
	}
}

func (p *DatabaseServiceProvider) Register(app *di.Container) error {
	id := app.MustRegister(p.open, di.Params("driver", "dsn", "log"), di.As("db-driver"))
	app.Share(id)

	cfg, err := di.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	ctx := app.WhenCreating(id)
	useDefault(ctx, "driver", di.Strategy(di.NewValue(cfg.DB.Driver)))
	useDefault(ctx, "dsn", di.Strategy(di.NewValue(db.DSN(cfg.DB))))

	app.MustRegister(tablegateway.New, di.Params("db", "table"))
	return nil
}

func (p *DatabaseServiceProvider) open(driver, dsn string, log *zap.Logger) (*bun.DB, error) {
	bdb, err := db.Open(config.DBConfig{Driver: driver, DSN: dsn}, db.WithLogger(log))
	if err != nil {
		return nil, err
	}
	for _, stmt := range p.Schema {
		if _, err := bdb.Exec(stmt); err != nil {
			_ = bdb.Close()
			return nil, err
		}
	}
	p.mu.Lock()
	p.opened = append(p.opened, bdb)
	p.mu.Unlock()
	return bdb, nil
}

// Close closes the databases opened so far.
func (p *DatabaseServiceProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, bdb := range p.opened {
		errs = append(errs, bdb.Close())
	}
	p.opened = nil
	return errors.Join(errs...)
}

// ── ViewServiceProvider ───────────────────────────────────────────────────────

// ViewServiceProvider registers the view renderer, its helpers and the
// renderer and layout response decorators.
//
// Bound:
//   - *view.Renderer, param "paths", setter SetHelpers
//   - view helpers Partial and Escape
type ViewServiceProvider struct {
	di.BaseProvider
}

func (p *ViewServiceProvider) Register(app *di.Container) error {
	cfg, err := di.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}

	id := app.MustRegister(view.NewRenderer, di.Params("paths"))
	ctx := app.WhenCreating(id)
	useDefault(ctx, "paths", di.Literal(cfg.View.Paths))
	ctx.ForType(id).Call("SetHelpers")

	brokerCtx := ctx.WhenCreating(di.TypeOf[*broker.HelperBroker]())
	useDefault(brokerCtx, "namespaces", di.Literal([]string{viewhelpers.Namespace}))

	resCtx := app.WhenCreating(di.TypeOf[*gohttp.Response]())
	useDefault(resCtx, "instructions", di.Literal(map[string]string{view.LayoutInstruction: cfg.View.Layout}))

	viewhelpers.Register(app)
	return nil
}

func (p *ViewServiceProvider) Boot(app *di.Container) error {
	registry, err := di.ResolveType[*gohttp.DecoratorRegistry](app)
	if err != nil {
		return err
	}
	resolve := func() (*view.Renderer, error) { return di.ResolveType[*view.Renderer](app) }
	registry.Register(view.RendererDecoratorName, view.RendererFactory(resolve))
	registry.Register(view.LayoutDecoratorName, view.LayoutFactory(resolve))
	return nil
}

// ── DispatcherServiceProvider ─────────────────────────────────────────────────

// DispatcherServiceProvider registers the dispatcher, the per-request
// Response and the controller helpers, and mounts the dispatch routes.
//
// Bound:
//   - "dispatcher" → *dispatcher.Dispatcher (shared), param "namespaces"
//   - *http.Response, params "decorators" and "instructions"
//   - *http.DecoratorRegistry
//   - controller.Controller, setter SetLogger
type DispatcherServiceProvider struct {
	di.BaseProvider
	// Namespaces holds the packages controllers are looked up in.
	Namespaces []string
}

func (p *DispatcherServiceProvider) Register(app *di.Container) error {
	app.MustRegister(broker.New, di.Params("container", "namespaces"))

	app.UseInstance(gohttp.NewDecoratorRegistry())
	app.MustRegister(gohttp.NewResponse,
		di.Params("registry", "decorators", "instructions"),
		di.Optional("decorators", nil),
		di.Optional("instructions", nil),
	)

	iface := di.RegisterInterface[controller.Controller](app)
	app.ForType(iface).Call("SetLogger")
	ctrlhelpers.Register(app)

	id := app.MustRegister(dispatcher.New,
		di.Params("container", "helpers", "namespaces", "root"),
		di.Optional("root", ""),
		di.As("dispatcher"),
	)
	app.Share(id)
	ctx := app.WhenCreating(id)
	if len(p.Namespaces) > 0 {
		useDefault(ctx, "namespaces", di.Literal(p.Namespaces))
	}
	ctx.ForType(id).Call("SetLogger", "SetMetrics")

	brokerCtx := ctx.WhenCreating(di.TypeOf[*broker.HelperBroker]())
	useDefault(brokerCtx, "namespaces", di.Literal([]string{ctrlhelpers.Namespace}))
	return nil
}

func (p *DispatcherServiceProvider) Boot(app *di.Container) error {
	d, err := di.Resolve[*dispatcher.Dispatcher](app, "dispatcher")
	if err != nil {
		return err
	}
	router, err := di.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	d.Mount(router)
	return nil
}
