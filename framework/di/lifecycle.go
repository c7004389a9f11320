package di

import (
	"errors"
	"slices"
	"sync"
)

// Builder constructs registered classes from ordered arguments.
// *Repository implements it.
type Builder interface {
	Construct(id string, args []any) (any, error)
}

// Lifecycle is a policy for producing instances of one class.
type Lifecycle interface {
	// Class returns the identifier of the produced class.
	Class() string

	// IsOneOf reports whether the produced class is among candidates.
	IsOneOf(candidates []string) bool

	// Instantiate produces an instance from resolved constructor arguments.
	Instantiate(b Builder, args []any) (any, error)

	// ShouldInvokeSetters reports whether setter injection runs on the result.
	ShouldInvokeSetters() bool
}

// ── Factory ───────────────────────────────────────────────────────────────────

// Factory constructs a new instance on every resolution.
type Factory struct {
	class string
}

// NewFactory returns a Factory for class.
func NewFactory(class string) *Factory { return &Factory{class: class} }

func (f *Factory) Class() string                    { return f.class }
func (f *Factory) IsOneOf(candidates []string) bool { return slices.Contains(candidates, f.class) }
func (f *Factory) ShouldInvokeSetters() bool        { return true }

func (f *Factory) Instantiate(b Builder, args []any) (any, error) {
	return b.Construct(f.class, args)
}

// ── Shared ────────────────────────────────────────────────────────────────────

// Shared constructs its class once and hands out the cached instance after.
// Concurrent first resolutions wait for the one in flight; a failed
// construction leaves the cache empty so the next resolution retries.
type Shared struct {
	class string

	done     bool
	instance any
	owner    *resolution   // resolution building the instance, nil when idle
	ready    chan struct{} // closed when owner finishes
}

// flights guards every Shared's build state and the wait-for graph between
// resolutions, so that two resolutions waiting on each other fail instead
// of blocking.
var flights = struct {
	sync.Mutex
	waiting map[*resolution]*Shared
}{waiting: make(map[*resolution]*Shared)}

// errInFlight is returned by once when waiting would close a cycle.
var errInFlight = errors.New("di: shared instance in flight")

// NewShared returns a Shared lifecycle for class.
func NewShared(class string) *Shared { return &Shared{class: class} }

func (s *Shared) Class() string                    { return s.class }
func (s *Shared) IsOneOf(candidates []string) bool { return slices.Contains(candidates, s.class) }
func (s *Shared) ShouldInvokeSetters() bool        { return true }

func (s *Shared) Instantiate(b Builder, args []any) (any, error) {
	return s.once(nil, func() (any, error) { return b.Construct(s.class, args) })
}

// Cached returns the instance if one has been built.
func (s *Shared) Cached() (any, bool) {
	flights.Lock()
	defer flights.Unlock()
	return s.instance, s.done
}

// once builds the instance on behalf of owner, or waits for the resolution
// already building it. A nil owner gets its own resolution.
func (s *Shared) once(owner *resolution, build func() (any, error)) (any, error) {
	if owner == nil {
		owner = &resolution{}
	}
	for {
		flights.Lock()
		if s.done {
			instance := s.instance
			flights.Unlock()
			return instance, nil
		}
		if s.owner == nil {
			s.owner, s.ready = owner, make(chan struct{})
			flights.Unlock()
			return s.run(build)
		}
		if waitsOn(s.owner, owner) {
			flights.Unlock()
			return nil, errInFlight
		}
		flights.waiting[owner] = s
		ready := s.ready
		flights.Unlock()

		<-ready

		flights.Lock()
		delete(flights.waiting, owner)
		flights.Unlock()
	}
}

func (s *Shared) run(build func() (any, error)) (instance any, err error) {
	defer func() {
		flights.Lock()
		if err == nil {
			s.instance, s.done = instance, true
		}
		s.owner = nil
		close(s.ready)
		flights.Unlock()
	}()
	return build()
}

// waitsOn reports whether from is, directly or through the resolutions it
// waits for, the resolution target. Callers hold flights.
func waitsOn(from, target *resolution) bool {
	r := from
	for range len(flights.waiting) + 1 {
		if r == nil {
			return false
		}
		if r == target {
			return true
		}
		next, ok := flights.waiting[r]
		if !ok {
			return false
		}
		r = next.owner
	}
	return false
}

// ── Value ─────────────────────────────────────────────────────────────────────

// Value hands out a pre-built instance. Setters are never invoked on it.
type Value struct {
	class    string
	instance any
}

// NewValue returns a Value lifecycle whose class is the dynamic type of instance.
func NewValue(instance any) *Value { return &Value{class: KeyOf(instance), instance: instance} }

func (v *Value) Class() string                    { return v.class }
func (v *Value) IsOneOf(candidates []string) bool { return slices.Contains(candidates, v.class) }
func (v *Value) ShouldInvokeSetters() bool        { return false }

func (v *Value) Instantiate(Builder, []any) (any, error) { return v.instance, nil }
