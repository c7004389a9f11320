package di

import (
	"fmt"
	"sync"
)

type preferenceKind uint8

const (
	unset preferenceKind = iota
	literal
	strategy
	deferred
)

// Preference is what a Variable is bound to: a literal value, a lifecycle,
// or a deferred reference to a type resolved when the variable is used.
type Preference struct {
	kind      preferenceKind
	value     any
	lifecycle Lifecycle
	typ       string
}

// Literal binds a value as is. A string literal on an untyped parameter is
// read as a type identifier; use UseString to pass plain strings.
func Literal(v any) Preference { return Preference{kind: literal, value: v} }

// Strategy binds a lifecycle.
func Strategy(l Lifecycle) Preference { return Preference{kind: strategy, lifecycle: l} }

// Deferred binds the type id, created in the variable's context when used.
func Deferred(id string) Preference { return Preference{kind: deferred, typ: id} }

// Value returns the literal value, if any.
func (p Preference) Value() (any, bool) { return p.value, p.kind == literal }

// Lifecycle returns the bound lifecycle, if any.
func (p Preference) Lifecycle() (Lifecycle, bool) { return p.lifecycle, p.kind == strategy }

// Deferred returns the deferred type id, if any.
func (p Preference) Deferred() (string, bool) { return p.typ, p.kind == deferred }

func (p Preference) String() string {
	switch p.kind {
	case literal:
		return fmt.Sprintf("literal(%v)", p.value)
	case strategy:
		return fmt.Sprintf("strategy(%T %s)", p.lifecycle, p.lifecycle.Class())
	case deferred:
		return "use(" + p.typ + ")"
	}
	return "unset"
}

// ── Variable ──────────────────────────────────────────────────────────────────

// Variable is a named binding in a Context.
type Variable struct {
	ctx *Context

	mu   sync.RWMutex
	pref Preference
}

// Use sets the preference and returns the owning context.
//
//	c.ForVariable("table").UseString("cities").
//	    ForVariable("db").UseType("db-driver")
func (v *Variable) Use(p Preference) *Context {
	v.mu.Lock()
	v.pref = p
	v.mu.Unlock()
	return v.ctx
}

// UseValue binds a literal value.
func (v *Variable) UseValue(value any) *Context { return v.Use(Literal(value)) }

// UseString binds a plain string.
func (v *Variable) UseString(s string) *Context { return v.Use(Strategy(NewValue(s))) }

// UseType binds a deferred type reference.
func (v *Variable) UseType(id string) *Context { return v.Use(Deferred(id)) }

// UseLifecycle binds a lifecycle.
func (v *Variable) UseLifecycle(l Lifecycle) *Context {
	if val, ok := l.(*Value); ok {
		v.ctx.core.repo.registerInstance(val.instance)
	}
	return v.Use(Strategy(l))
}

// Preference returns the current binding.
func (v *Variable) Preference() Preference {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pref
}
