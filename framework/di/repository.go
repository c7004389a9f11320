package di

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ── Parameters ────────────────────────────────────────────────────────────────

// Parameter describes one constructor or setter parameter.
type Parameter struct {
	Name     string
	Type     string // type hint; empty for scalars, slices, maps and any
	Optional bool
	Default  any

	rtype reflect.Type
}

// defaultValue is what an optional parameter falls back to. A nil default on a
// slice or map parameter becomes an empty container.
func (p Parameter) defaultValue() any {
	if p.Default != nil || p.rtype == nil {
		return p.Default
	}
	switch p.rtype.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(p.rtype, 0, 0).Interface()
	case reflect.Map:
		return reflect.MakeMap(p.rtype).Interface()
	}
	return nil
}

// ── Class options ─────────────────────────────────────────────────────────────

type classOptions struct {
	names    []string
	optional map[string]any
	aliases  []string
}

// ClassOption configures a registration.
type ClassOption func(*classOptions)

// Params names the constructor parameters in order. Unnamed trailing
// parameters are called arg0, arg1, ...
//
//	repo.Register(NewTableGateway, di.Params("db", "table"))
func Params(names ...string) ClassOption {
	return func(o *classOptions) { o.names = append(o.names, names...) }
}

// Optional marks a named parameter optional. When it cannot be resolved the
// default is passed instead.
func Optional(name string, def any) ClassOption {
	return func(o *classOptions) { o.optional[name] = def }
}

// As registers an alias for the class.
func As(alias string) ClassOption {
	return func(o *classOptions) { o.aliases = append(o.aliases, alias) }
}

// ── Repository ────────────────────────────────────────────────────────────────

// class is the metadata kept for one type identifier.
type class struct {
	id       string
	typ      reflect.Type
	ctor     reflect.Value // invalid for interfaces and instance-only classes
	errOut   bool          // constructor returns (T, error)
	params   []Parameter
	abstract bool
}

// Repository is the type-metadata provider of a container: constructor
// signatures, setter lists and interface relations, registered at startup.
type Repository struct {
	mu      sync.RWMutex
	classes map[string]*class
	order   []string
	aliases map[string]string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		classes: make(map[string]*class),
		aliases: make(map[string]string),
	}
}

// Register records a constructor. ctor must be a non-variadic func returning
// a concrete T or (T, error). The identifier of T is returned.
func (r *Repository) Register(ctor any, opts ...ClassOption) (string, error) {
	o := classOptions{optional: make(map[string]any)}
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(ctor)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "", fmt.Errorf("%w: %T is not a func", ErrInvalidConstructor, ctor)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return "", fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, ft)
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return "", fmt.Errorf("%w: %s must return T or (T, error)", ErrInvalidConstructor, ft)
	}
	out := ft.Out(0)
	if out.Kind() == reflect.Interface {
		return "", fmt.Errorf("%w: %s returns an interface", ErrInvalidConstructor, ft)
	}
	if len(o.names) > ft.NumIn() {
		return "", fmt.Errorf("%w: %d names for %d parameters", ErrInvalidConstructor, len(o.names), ft.NumIn())
	}

	params := make([]Parameter, ft.NumIn())
	for i := range params {
		in := ft.In(i)
		name := "arg" + strconv.Itoa(i)
		if i < len(o.names) {
			name = o.names[i]
		}
		def, optional := o.optional[name]
		params[i] = Parameter{Name: name, Type: hintOf(in), Optional: optional, Default: def, rtype: in}
	}

	id := keyOf(out)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(&class{id: id, typ: out, ctor: v, errOut: ft.NumOut() == 2, params: params})
	for _, alias := range o.aliases {
		r.aliases[alias] = id
	}
	return id, nil
}

// MustRegister is like Register but panics on an invalid constructor.
func (r *Repository) MustRegister(ctor any, opts ...ClassOption) string {
	id, err := r.Register(ctor, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// Interface registers T, which must be an interface type, as an abstract
// identifier whose candidates are the registered classes implementing it.
func Interface[T any](r *Repository) string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("di: Interface[%s]: not an interface", t))
	}
	id := keyOf(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(&class{id: id, typ: t, abstract: true})
	return id
}

// registerInstance makes the type of a pre-built value known so that Value
// lifecycles take part in candidate selection.
func (r *Repository) registerInstance(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	id := keyOf(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[id]; !ok {
		r.put(&class{id: id, typ: t})
	}
	return id
}

// put must hold mu.Lock.
func (r *Repository) put(c *class) {
	if _, exists := r.classes[c.id]; !exists {
		r.order = append(r.order, c.id)
	}
	r.classes[c.id] = c
}

// Alias registers an alternative name for an identifier.
func (r *Repository) Alias(alias, id string) {
	if alias == id {
		panic(fmt.Sprintf("di: [%s] is aliased to itself", id))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = id
}

// Canonical resolves aliases to the identifier they point to.
func (r *Repository) Canonical(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canonical(id)
}

func (r *Repository) canonical(id string) string {
	for i := 0; i < len(r.aliases)+1; i++ {
		target, ok := r.aliases[id]
		if !ok {
			break
		}
		id = target
	}
	return id
}

// Known reports whether id (or the identifier it aliases) has metadata.
func (r *Repository) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.classes[r.canonical(id)]
	return ok
}

// Classes returns every registered identifier in registration order.
func (r *Repository) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Repository) lookup(id string) *class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[r.canonical(id)]
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Candidates returns the concrete classes that satisfy id, in registration
// order. A concrete id is its own single candidate.
func (r *Repository) Candidates(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.classes[r.canonical(id)]
	if c == nil {
		return nil
	}
	if !c.abstract {
		return []string{c.id}
	}
	var out []string
	for _, oid := range r.order {
		o := r.classes[oid]
		if !o.abstract && o.typ.Implements(c.typ) {
			out = append(out, oid)
		}
	}
	return out
}

// ConstructorParameters returns the parameters of the constructor of id.
func (r *Repository) ConstructorParameters(id string) []Parameter {
	c := r.lookup(id)
	if c == nil {
		return nil
	}
	return append([]Parameter(nil), c.params...)
}

// Setters lists the exported Set* methods of id.
func (r *Repository) Setters(id string) []string {
	c := r.lookup(id)
	if c == nil || c.abstract {
		return nil
	}
	var out []string
	for i := 0; i < c.typ.NumMethod(); i++ {
		if name := c.typ.Method(i).Name; len(name) > 3 && strings.HasPrefix(name, "Set") {
			out = append(out, name)
		}
	}
	return out
}

// SetterParameters describes the parameters of method on id. The first one
// is named after the setter: SetLogger takes "logger".
func (r *Repository) SetterParameters(id, method string) ([]Parameter, error) {
	c := r.lookup(id)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}
	m, ok := c.typ.MethodByName(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", ErrConstruction, id, method)
	}
	params := make([]Parameter, 0, m.Type.NumIn()-1)
	for i := 1; i < m.Type.NumIn(); i++ {
		in := m.Type.In(i)
		name := "arg" + strconv.Itoa(i-1)
		if i == 1 {
			if n := lowerFirst(strings.TrimPrefix(method, "Set")); n != "" {
				name = n
			}
		}
		params = append(params, Parameter{Name: name, Type: hintOf(in), rtype: in})
	}
	return params, nil
}

// Interfaces lists the registered interfaces implemented by id.
func (r *Repository) Interfaces(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.classes[r.canonical(id)]
	if c == nil || c.abstract {
		return nil
	}
	var out []string
	for _, oid := range r.order {
		if o := r.classes[oid]; o.abstract && c.typ.Implements(o.typ) {
			out = append(out, oid)
		}
	}
	return out
}

// IsSupertype reports whether class is super or implements it.
func (r *Repository) IsSupertype(class, super string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, super = r.canonical(class), r.canonical(super)
	if class == super {
		return true
	}
	c, s := r.classes[class], r.classes[super]
	if c == nil || s == nil || !s.abstract {
		return false
	}
	return c.typ.Implements(s.typ)
}

// ── Reflection calls ──────────────────────────────────────────────────────────

// Construct calls the constructor of id with args coerced to its parameter types.
func (r *Repository) Construct(id string, args []any) (any, error) {
	c := r.lookup(id)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}
	if !c.ctor.IsValid() {
		return nil, fmt.Errorf("%w: %s has no constructor", ErrConstruction, id)
	}
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrConstruction, id, len(c.params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, p := range c.params {
		v, err := coerce(args[i], p.rtype)
		if err != nil {
			return nil, fmt.Errorf("%s argument %q: %w", id, p.Name, err)
		}
		in[i] = v
	}
	out := c.ctor.Call(in)
	if c.errOut && !out[1].IsNil() {
		return nil, fmt.Errorf("%w: %s: %w", ErrConstruction, id, out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

// Invoke calls method on instance with args coerced to its parameter types.
// A non-nil error result is returned wrapped in ErrConstruction.
func (r *Repository) Invoke(instance any, method string, args []any) error {
	m := reflect.ValueOf(instance).MethodByName(method)
	if !m.IsValid() {
		return fmt.Errorf("%w: %T has no method %s", ErrConstruction, instance, method)
	}
	mt := m.Type()
	if mt.NumIn() != len(args) {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrConstruction, method, mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i := range args {
		v, err := coerce(args[i], mt.In(i))
		if err != nil {
			return fmt.Errorf("%s argument %d: %w", method, i, err)
		}
		in[i] = v
	}
	for _, out := range m.Call(in) {
		if out.Type() == errorType && !out.IsNil() {
			return fmt.Errorf("%w: %s: %w", ErrConstruction, method, out.Interface().(error))
		}
	}
	return nil
}

// ── Type keys ─────────────────────────────────────────────────────────────────

// TypeOf returns the identifier of T.
//
//	di.TypeOf[Logger]()      // "github.com/acme/app/log.Logger"
//	di.TypeOf[*FileLogger]() // "github.com/acme/app/log.FileLogger"
func TypeOf[T any]() string {
	return keyOf(reflect.TypeOf((*T)(nil)).Elem())
}

// KeyOf returns the identifier of the dynamic type of v.
func KeyOf(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	return keyOf(t)
}

func keyOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// hintOf returns the type hint of a parameter type: named interfaces and
// named structs (or pointers to them) are resolved by type, everything else
// needs a variable binding.
func hintOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Interface:
		if t.Name() == "" || t == errorType {
			return ""
		}
		return keyOf(t)
	case reflect.Pointer:
		if e := t.Elem(); e.Kind() == reflect.Struct && e.Name() != "" {
			return keyOf(t)
		}
	case reflect.Struct:
		if t.Name() != "" {
			return keyOf(t)
		}
	}
	return ""
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}
