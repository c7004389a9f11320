package di

import (
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ── Type metadata ─────────────────────────────────────────────────────────────

// Type holds the setter-injection metadata registered for one type.
type Type struct {
	mu      sync.RWMutex
	setters []string
}

// Call registers setters to invoke after construction.
//
//	c.ForType(di.TypeOf[controller.Controller]()).Call("SetHelpers", "SetLogger")
func (t *Type) Call(methods ...string) *Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range methods {
		if !slices.Contains(t.setters, m) {
			t.setters = append(t.setters, m)
		}
	}
	return t
}

// Setters returns the registered setter names.
func (t *Type) Setters() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.setters...)
}

// ── Context ───────────────────────────────────────────────────────────────────

// Context is one scope of the resolution tree. It holds preferences, variable
// bindings, child scopes per type, setter metadata and wrappers; resolution
// walks from the scope it starts in up to the root Container.
type Context struct {
	mu sync.RWMutex

	parent *Context
	core   *core

	// newest preference first
	registry []Lifecycle

	variables map[string]*Variable

	// type → child scope, in registration order
	children   map[string]*Context
	childOrder []string

	types    map[string]*Type
	wrappers []string
}

func newContext(parent *Context, co *core) *Context {
	return &Context{
		parent:    parent,
		core:      co,
		variables: make(map[string]*Variable),
		children:  make(map[string]*Context),
		types:     make(map[string]*Type),
	}
}

// Parent returns the enclosing scope, or nil at the root.
func (c *Context) Parent() *Context { return c.parent }

// IsRoot reports whether c is the Container's own scope.
func (c *Context) IsRoot() bool { return c.parent == nil }

// Repository returns the type metadata shared by the whole tree.
func (c *Context) Repository() *Repository { return c.core.repo }

// ── Registration ──────────────────────────────────────────────────────────────

// WillUse registers a preference. The newest registration wins among
// preferences matching the same candidates.
func (c *Context) WillUse(l Lifecycle) *Context {
	if v, ok := l.(*Value); ok {
		c.core.repo.registerInstance(v.instance)
	}
	c.mu.Lock()
	c.registry = slices.Insert(c.registry, 0, l)
	c.mu.Unlock()
	return c
}

// Prefer registers a Factory preference for class.
func (c *Context) Prefer(class string) *Context {
	return c.WillUse(NewFactory(c.core.repo.Canonical(class)))
}

// Share registers a Shared preference for class.
func (c *Context) Share(class string) *Context {
	return c.WillUse(NewShared(c.core.repo.Canonical(class)))
}

// UseInstance registers a pre-built instance as a preference.
func (c *Context) UseInstance(instance any) *Context {
	return c.WillUse(NewValue(instance))
}

// ForVariable creates (or replaces) the binding for a parameter name.
func (c *Context) ForVariable(name string) *Variable {
	v := &Variable{ctx: c}
	c.mu.Lock()
	c.variables[name] = v
	c.mu.Unlock()
	return v
}

// WhenCreating returns the child scope used when creating id or any class
// that satisfies it, creating it on first use.
func (c *Context) WhenCreating(id string) *Context {
	id = c.core.repo.Canonical(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	child, ok := c.children[id]
	if !ok {
		child = newContext(c, c.core)
		c.children[id] = child
		c.childOrder = append(c.childOrder, id)
	}
	return child
}

// ForType returns the setter metadata of id in this scope.
func (c *Context) ForType(id string) *Type {
	id = c.core.repo.Canonical(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.types[id]
	if !ok {
		t = &Type{}
		c.types[id] = t
	}
	return t
}

// WrapWith registers a wrapper applied to classes created in this scope.
func (c *Context) WrapWith(id string) *Context {
	id = c.core.repo.Canonical(id)
	c.mu.Lock()
	c.wrappers = append(c.wrappers, id)
	c.mu.Unlock()
	return c
}

// ── Lookups ───────────────────────────────────────────────────────────────────

// HasContext reports whether a child scope is registered for id.
func (c *Context) HasContext(id string) bool {
	return c.child(c.core.repo.Canonical(id)) != nil
}

// Variables returns a copy of the local bindings.
func (c *Context) Variables() map[string]*Variable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Variable, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}
	return out
}

func (c *Context) child(id string) *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.children[id]
}

func (c *Context) variable(name string) *Variable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variables[name]
}

func (c *Context) localSetters(id string) []string {
	c.mu.RLock()
	t := c.types[id]
	c.mu.RUnlock()
	if t == nil {
		return nil
	}
	return t.Setters()
}

// preferFrom returns the newest local preference producing one of candidates.
func (c *Context) preferFrom(candidates []string) Lifecycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.registry {
		if l.IsOneOf(candidates) {
			return l
		}
	}
	return nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Create resolves id into a fully wired instance.
func (c *Context) Create(id string) (any, error) {
	return c.create(id, start())
}

func (c *Context) create(id string, path *nesting) (any, error) {
	if max := c.core.maxDepth; max > 0 && path.len() >= max {
		return nil, newError("create", id, path, ErrDepthExceeded)
	}

	id, err := c.core.known(id)
	if err != nil {
		return nil, newError("create", id, path, err)
	}

	candidates := c.core.repo.Candidates(id)
	lifecycle, err := c.PickStrategy(id, candidates)
	if err != nil {
		rerr := newError("create", id, path, err)
		rerr.Candidates = candidates
		return nil, rerr
	}

	class := lifecycle.Class()
	ctx := c.determineContext(class)

	if wrapper, ok := ctx.wrapper(path); ok {
		c.core.log.Debug("di: wrapping", zap.String("type", id), zap.String("wrapper", wrapper))
		return c.create(wrapper, path.pushWrapper(wrapper))
	}

	if path.building(class) {
		return nil, newError("create", id, path, ErrCircularDependency)
	}

	ctx.inheritVariables(id)
	if class != id {
		ctx.inheritVariables(class)
	}

	start := time.Now()
	instance, err := c.produce(ctx, lifecycle, path)
	c.core.resolved(id, instance, time.Since(start), err)
	return instance, err
}

// produce runs lifecycle in ctx: constructor dependencies, instantiation and
// setter injection. Value lifecycles skip all three.
func (c *Context) produce(ctx *Context, lifecycle Lifecycle, path *nesting) (any, error) {
	repo := c.core.repo
	class := lifecycle.Class()

	switch l := lifecycle.(type) {
	case *Value:
		return l.Instantiate(repo, nil)
	case *Shared:
		instance, err := l.once(path.resolution(), func() (any, error) {
			return ctx.build(class, path, true, func(args []any) (any, error) {
				return repo.Construct(class, args)
			})
		})
		if errors.Is(err, errInFlight) {
			return nil, newError("create", class, path, ErrCircularDependency)
		}
		return instance, err
	}
	return ctx.build(class, path, lifecycle.ShouldInvokeSetters(), func(args []any) (any, error) {
		return lifecycle.Instantiate(repo, args)
	})
}

func (c *Context) build(class string, path *nesting, setters bool, construct func([]any) (any, error)) (any, error) {
	repo := c.core.repo
	inner := path.push(class)

	args, err := c.createDependencies(repo.ConstructorParameters(class), inner)
	if err != nil {
		return nil, err
	}
	instance, err := construct(args)
	if err != nil {
		return nil, newError("construct", class, path, err)
	}
	if !setters {
		return instance, nil
	}

	for _, setter := range c.SettersFor(class) {
		params, err := repo.SetterParameters(class, setter)
		if err != nil {
			return nil, newError("setter "+setter, class, path, err)
		}
		args, err := c.createDependencies(params, inner)
		if err != nil {
			return nil, err
		}
		if err := repo.Invoke(instance, setter, args); err != nil {
			return nil, newError("setter "+setter, class, path, err)
		}
	}
	return instance, nil
}

// PickStrategy chooses the lifecycle for id among candidates: the newest
// matching preference of the nearest scope wins; only the root falls back
// to a Factory, and only for a single candidate.
func (c *Context) PickStrategy(id string, candidates []string) (Lifecycle, error) {
	if len(candidates) == 0 {
		return nil, ErrUnresolvableType
	}
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if l := ctx.preferFrom(candidates); l != nil {
			return l, nil
		}
		if ctx.parent == nil && len(candidates) == 1 {
			return NewFactory(candidates[0]), nil
		}
	}
	return nil, ErrAmbiguousType
}

// DetermineContext returns the first child scope registered for a type that
// class satisfies, or c itself.
func (c *Context) DetermineContext(class string) *Context {
	return c.determineContext(c.core.repo.Canonical(class))
}

func (c *Context) determineContext(class string) *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.childOrder {
		if c.core.repo.IsSupertype(class, id) {
			return c.children[id]
		}
	}
	return c
}

// WrappersFor returns the wrappers visible from c: local ones first, then
// each ancestor's. Wrappers are scoped by context, so id only names the
// request.
func (c *Context) WrappersFor(id string) []string {
	var out []string
	for ctx := c; ctx != nil; ctx = ctx.parent {
		ctx.mu.RLock()
		out = append(out, ctx.wrappers...)
		ctx.mu.RUnlock()
	}
	return out
}

// HasWrapper reports whether a wrapper not in applied is available for id.
func (c *Context) HasWrapper(id string, applied []string) bool {
	_, ok := c.Wrapper(id, applied)
	return ok
}

// Wrapper returns the first wrapper available for id that is not in applied.
func (c *Context) Wrapper(id string, applied []string) (string, bool) {
	for _, w := range c.WrappersFor(id) {
		if !slices.Contains(applied, w) {
			return w, true
		}
	}
	return "", false
}

func (c *Context) wrapper(path *nesting) (string, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		ctx.mu.RLock()
		wrappers := ctx.wrappers
		ctx.mu.RUnlock()
		for _, w := range wrappers {
			if !path.contains(w) {
				return w, true
			}
		}
	}
	return "", false
}

// SettersFor returns the setters to invoke on class: local ones, then the
// parent's, then those registered here for interfaces class implements.
// Duplicates keep their first position.
func (c *Context) SettersFor(class string) []string {
	class = c.core.repo.Canonical(class)

	var chain []*Context
	for ctx := c; ctx != nil; ctx = ctx.parent {
		chain = append(chain, ctx)
	}

	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	for _, ctx := range chain {
		add(ctx.localSetters(class))
	}
	ifaces := c.core.repo.Interfaces(class)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, iface := range ifaces {
			add(chain[i].localSetters(iface))
		}
	}
	return out
}

// inheritVariables merges the bindings of the nearest ancestor scope
// registered for id into c. Bindings already present in c win. create calls
// it for the requested type, then for the chosen class.
func (c *Context) inheritVariables(id string) {
	for a := c.parent; a != nil; a = a.parent {
		donor := a.child(id)
		if donor == nil || donor == c {
			continue
		}
		inherited := donor.Variables()
		c.mu.Lock()
		for name, v := range inherited {
			if _, ok := c.variables[name]; !ok {
				c.variables[name] = v
			}
		}
		c.mu.Unlock()
		return
	}
}

// createDependencies resolves params in order. An optional parameter that
// fails to resolve takes its default.
func (c *Context) createDependencies(params []Parameter, path *nesting) ([]any, error) {
	values := make([]any, 0, len(params))
	for _, p := range params {
		v, err := c.instantiateParameter(p, path)
		if err != nil {
			if p.Optional {
				c.core.log.Debug("di: optional parameter defaulted",
					zap.String("param", p.Name), zap.Error(err))
				values = append(values, p.defaultValue())
				continue
			}
			var rerr *ResolutionError
			if errors.Is(err, ErrUnboundVariable) && !errors.As(err, &rerr) {
				return nil, &ResolutionError{Op: "parameter", Param: p.Name, Path: path.ids(), Err: err}
			}
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// instantiateParameter resolves one parameter. Typed parameters use a local
// binding, then an ancestor's, then plain creation of the hint; untyped
// parameters need a binding somewhere up to the root.
func (c *Context) instantiateParameter(p Parameter, path *nesting) (any, error) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		v := ctx.variable(p.Name)
		if p.Type != "" {
			if v != nil {
				if value, ok, err := ctx.resolvePreference(v.Preference(), true, path); ok || err != nil {
					return value, err
				}
				return ctx.create(p.Type, path)
			}
			if ctx.parent != nil && ctx.parent.boundInTree(p.Name) {
				continue
			}
			return ctx.create(p.Type, path)
		}
		if v != nil {
			value, _, err := ctx.resolvePreference(v.Preference(), false, path)
			return value, err
		}
	}
	return nil, ErrUnboundVariable
}

// boundInTree reports whether name is bound in c or one of its ancestors.
func (c *Context) boundInTree(name string) bool {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ctx.variable(name) != nil {
			return true
		}
	}
	return false
}

// resolvePreference turns a binding into a value. ok is false when a typed
// parameter is bound to a string literal, which defers to the type hint.
func (c *Context) resolvePreference(p Preference, typed bool, path *nesting) (value any, ok bool, err error) {
	switch p.kind {
	case deferred:
		value, err = c.create(p.typ, path)
		return value, true, err
	case strategy:
		value, err = c.produceBinding(p.lifecycle, path)
		return value, true, err
	case literal:
		if s, isString := p.value.(string); isString {
			if typed {
				return nil, false, nil
			}
			value, err = c.create(s, path)
			return value, true, err
		}
		return p.value, true, nil
	}
	return nil, true, nil
}

// produceBinding runs a lifecycle bound to a variable in the scope of its class.
func (c *Context) produceBinding(l Lifecycle, path *nesting) (any, error) {
	if _, ok := l.(*Value); !ok && path.building(l.Class()) {
		return nil, newError("create", l.Class(), path, ErrCircularDependency)
	}
	return c.produce(c.determineContext(l.Class()), l, path)
}
