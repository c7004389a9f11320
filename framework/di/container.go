package di

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds the nesting path of a single Create call.
const DefaultMaxDepth = 64

// Observer receives one notification per completed resolution.
// *metrics.Collector implements it.
type Observer interface {
	Observe(id string, d time.Duration, err error)
}

// core is the state shared by every Context of one tree.
type core struct {
	repo      *Repository
	log       *zap.Logger
	observers []Observer
	maxDepth  int
	container *Container

	mu             sync.RWMutex
	afterResolving []func(id string, instance any)
	deferred       map[string]*deferredLoader
}

type deferredLoader struct {
	once sync.Once
	load func(*Container) error
	err  error
}

// known canonicalises id, running a deferred loader registered for it first.
func (co *core) known(id string) (string, error) {
	co.mu.RLock()
	loader := co.deferred[id]
	if loader == nil {
		loader = co.deferred[co.repo.Canonical(id)]
	}
	co.mu.RUnlock()

	if loader != nil {
		loader.once.Do(func() {
			co.log.Debug("di: loading deferred provider", zap.String("type", id))
			loader.err = loader.load(co.container)
		})
		if loader.err != nil {
			return id, loader.err
		}
	}

	canonical := co.repo.Canonical(id)
	if !co.repo.Known(canonical) {
		return canonical, ErrUnknownType
	}
	return canonical, nil
}

func (co *core) resolved(id string, instance any, d time.Duration, err error) {
	for _, o := range co.observers {
		o.Observe(id, d, err)
	}
	if err != nil {
		return
	}
	co.mu.RLock()
	cbs := co.afterResolving
	co.mu.RUnlock()
	for _, cb := range cbs {
		cb(id, instance)
	}
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the root Context of a resolution tree. It owns the type
// Repository and the hooks that apply to every resolution.
//
//	c := di.New(di.WithLogger(log))
//	c.MustRegister(NewFileLogger, di.Params("path"))
//	c.ForVariable("path").UseString("/var/log/app.log")
//	logger, err := di.ResolveType[Logger](c)
type Container struct {
	*Context
}

// Option configures a Container.
type Option func(*core)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(co *core) {
		if log != nil {
			co.log = log
		}
	}
}

// WithObserver adds a resolution observer.
func WithObserver(o Observer) Option {
	return func(co *core) { co.observers = append(co.observers, o) }
}

// WithMaxDepth sets the nesting limit. Zero disables it.
func WithMaxDepth(n int) Option {
	return func(co *core) { co.maxDepth = n }
}

// WithRepository shares an existing Repository.
func WithRepository(r *Repository) Option {
	return func(co *core) {
		if r != nil {
			co.repo = r
		}
	}
}

// New creates a Container. The container is bound to itself and reachable
// as "container".
func New(opts ...Option) *Container {
	co := &core{
		repo:     NewRepository(),
		log:      zap.NewNop(),
		maxDepth: DefaultMaxDepth,
		deferred: make(map[string]*deferredLoader),
	}
	for _, opt := range opts {
		opt(co)
	}
	c := &Container{Context: newContext(nil, co)}
	co.container = c

	c.UseInstance(c)
	co.repo.Alias("container", KeyOf(c))
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register records a constructor in the container's Repository.
func (c *Container) Register(ctor any, opts ...ClassOption) (string, error) {
	return c.core.repo.Register(ctor, opts...)
}

// MustRegister is like Register but panics on an invalid constructor.
func (c *Container) MustRegister(ctor any, opts ...ClassOption) string {
	return c.core.repo.MustRegister(ctor, opts...)
}

// Alias registers an alternative name for id.
func (c *Container) Alias(alias, id string) *Container {
	c.core.repo.Alias(alias, id)
	return c
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.core.log }

// AfterResolving registers a callback fired after every successful resolution.
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	c.core.afterResolving = append(c.core.afterResolving, cb)
}

// Defer registers load to run once, the first time any of ids is created.
// load typically registers constructors and preferences for ids.
func (c *Container) Defer(ids []string, load func(*Container) error) {
	l := &deferredLoader{load: load}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	for _, id := range ids {
		c.core.deferred[id] = l
	}
}

// Bound reports whether id is known or has a pending deferred loader.
func (c *Container) Bound(id string) bool {
	if c.core.repo.Known(id) {
		return true
	}
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	_, ok := c.core.deferred[id]
	return ok
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve creates id and type-asserts the result.
//
//	gw, err := di.Resolve[*tablegateway.TableGateway](c, "cities")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	instance, err := c.Create(id)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &ResolutionError{
			Op:   "resolve",
			Type: id,
			Err:  fmt.Errorf("%w: resolved to %T, want %T", ErrTypeMismatch, instance, zero),
		}
	}
	return typed, nil
}

// ResolveType creates the type identified by T.
func ResolveType[T any](c *Container) (T, error) {
	return Resolve[T](c, TypeOf[T]())
}

// MustResolve is like Resolve but panics on failure. Use it at bootstrap.
func MustResolve[T any](c *Container, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}

// RegisterInterface registers the interface T in the container's Repository.
//
//	di.RegisterInterface[Logger](c)
func RegisterInterface[T any](c *Container) string {
	return Interface[T](c.core.repo)
}
