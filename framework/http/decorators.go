package http

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Decorator transforms response content. Decorators run in the order they
// were added; each receives the output of the previous one.
type Decorator interface {
	Name() string
	Decorate(res *Response, content string) (string, error)
}

// DecoratorFactory builds a decorator from its configured options.
type DecoratorFactory func(options map[string]any) (Decorator, error)

// DecoratorRegistry maps decorator names to factories. Names are case
// insensitive.
type DecoratorRegistry struct {
	mu        sync.RWMutex
	factories map[string]DecoratorFactory
}

// NewDecoratorRegistry returns a registry holding the httpHeaders and json
// decorators.
func NewDecoratorRegistry() *DecoratorRegistry {
	r := &DecoratorRegistry{factories: make(map[string]DecoratorFactory)}
	r.Register(HeadersDecoratorName, func(options map[string]any) (Decorator, error) {
		return NewHeadersDecorator(stringList(options["headers"])...), nil
	})
	r.Register(JSONDecoratorName, func(map[string]any) (Decorator, error) {
		return &JSONDecorator{}, nil
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *DecoratorRegistry) Register(name string, f DecoratorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[decoratorKey(name)] = f
}

// Build creates the decorator registered as name.
func (r *DecoratorRegistry) Build(name string, options map[string]any) (Decorator, error) {
	r.mu.RLock()
	f, ok := r.factories[decoratorKey(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("http: unknown decorator %q", name)
	}
	return f(options)
}

// Names lists the registered decorator names.
func (r *DecoratorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ── httpHeaders ──────────────────────────────────────────────────────────────

const HeadersDecoratorName = "httpHeaders"

// HeadersDecorator copies "Name: value" header lines onto the response.
// Content passes through unchanged.
type HeadersDecorator struct {
	lines []string
}

func NewHeadersDecorator(lines ...string) *HeadersDecorator {
	return &HeadersDecorator{lines: append([]string(nil), lines...)}
}

func (d *HeadersDecorator) Name() string { return HeadersDecoratorName }

// SetHeader adds a header line. A later line for the same header wins.
func (d *HeadersDecorator) SetHeader(line string) *HeadersDecorator {
	d.lines = append(d.lines, line)
	return d
}

// Lines returns the header lines in order.
func (d *HeadersDecorator) Lines() []string { return append([]string(nil), d.lines...) }

func (d *HeadersDecorator) Decorate(res *Response, content string) (string, error) {
	for _, line := range d.lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return "", fmt.Errorf("malformed header line %q", line)
		}
		res.Header().Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return content, nil
}

// ── json ─────────────────────────────────────────────────────────────────────

const JSONDecoratorName = "json"

// JSONDecorator replaces the content with the JSON encoding of the response
// params and, when an httpHeaders decorator is present, adds JSON headers.
type JSONDecorator struct{}

func (d *JSONDecorator) Name() string { return JSONDecoratorName }

func (d *JSONDecorator) Decorate(res *Response, _ string) (string, error) {
	if h, ok := res.Decorator(HeadersDecoratorName); ok {
		if headers, ok := h.(*HeadersDecorator); ok {
			headers.SetHeader("Cache-Control: no-cache, must-revalidate").
				SetHeader("Expires: Mon, 26 Jul 1997 05:00:00 GMT").
				SetHeader("Content-Type: application/json")
		}
	}
	b, err := json.Marshal(res.Params())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// stringList reads a YAML list of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
