package http

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response collects what a controller produces: status, headers, view
// params, the view script and an ordered chain of decorators. Nothing is
// written until Output.
//
//	res.SetParam("cities", rows).SetScript("cities/index")
//	res.Output(w)
type Response struct {
	registry *DecoratorRegistry

	status       int
	header       http.Header
	params       map[string]any
	script       string
	instructions map[string]string

	decorators []Decorator
}

// NewResponse creates a Response whose decorator chain is built from decorators.
// Each entry is a decorator name or a single-entry map of name to options,
// as found in definition files:
//
//	decorators:
//	  - httpHeaders: {headers: ["Content-Type: text/html"]}
//	  - renderer
//	  - layout: {params: {title: Galanthus}}
func NewResponse(registry *DecoratorRegistry, decorators []any, instructions map[string]string) (*Response, error) {
	res := &Response{
		registry:     registry,
		status:       http.StatusOK,
		header:       http.Header{},
		params:       make(map[string]any),
		instructions: make(map[string]string),
	}
	maps.Copy(res.instructions, instructions)

	for _, entry := range decorators {
		name, options, err := decoratorEntry(entry)
		if err != nil {
			return nil, err
		}
		if err := res.AddDecorator(name, options); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func decoratorEntry(entry any) (string, map[string]any, error) {
	switch s := entry.(type) {
	case string:
		return s, nil, nil
	case map[string]any:
		if len(s) == 1 {
			for name, opts := range s {
				options, _ := opts.(map[string]any)
				return name, options, nil
			}
		}
	}
	return "", nil, fmt.Errorf("http: invalid decorator entry %v", entry)
}

// ── Status & headers ─────────────────────────────────────────────────────────

func (res *Response) Status() int { return res.status }

func (res *Response) SetStatus(status int) *Response {
	res.status = status
	return res
}

// Header returns the headers written by Output.
func (res *Response) Header() http.Header { return res.header }

// ── Params ───────────────────────────────────────────────────────────────────

func (res *Response) Param(name string) (any, bool) {
	v, ok := res.params[name]
	return v, ok
}

func (res *Response) SetParam(name string, value any) *Response {
	res.params[name] = value
	return res
}

// SetParams merges params into the current ones.
func (res *Response) SetParams(params map[string]any) *Response {
	maps.Copy(res.params, params)
	return res
}

// Params returns a copy of the params.
func (res *Response) Params() map[string]any { return maps.Clone(res.params) }

func (res *Response) ClearParams() *Response {
	res.params = make(map[string]any)
	return res
}

// ── Script & instructions ────────────────────────────────────────────────────

// Script is the view script rendered for this response.
func (res *Response) Script() string { return res.script }

func (res *Response) SetScript(script string) *Response {
	res.script = script
	return res
}

// Instruction returns a named rendering instruction, such as "_layout".
func (res *Response) Instruction(name string) string { return res.instructions[name] }

func (res *Response) SetInstruction(name, value string) *Response {
	res.instructions[name] = value
	return res
}

// ── Decorators ───────────────────────────────────────────────────────────────

// AddDecorator appends the decorator registered as name.
func (res *Response) AddDecorator(name string, options map[string]any) error {
	if res.registry == nil {
		return fmt.Errorf("http: no decorator registry for %q", name)
	}
	d, err := res.registry.Build(name, options)
	if err != nil {
		return err
	}
	res.decorators = append(res.decorators, d)
	return nil
}

// Decorator returns the first decorator registered as name.
func (res *Response) Decorator(name string) (Decorator, bool) {
	key := decoratorKey(name)
	for _, d := range res.decorators {
		if decoratorKey(d.Name()) == key {
			return d, true
		}
	}
	return nil, false
}

func (res *Response) HasDecorator(name string) bool {
	_, ok := res.Decorator(name)
	return ok
}

// Decorators returns the chain in application order.
func (res *Response) Decorators() []Decorator {
	return append([]Decorator(nil), res.decorators...)
}

func (res *Response) ClearDecorators() *Response {
	res.decorators = nil
	return res
}

// ── Output ───────────────────────────────────────────────────────────────────

// Render runs the decorator chain over an empty body.
func (res *Response) Render() (string, error) {
	var content string
	for _, d := range res.decorators {
		out, err := d.Decorate(res, content)
		if err != nil {
			return "", fmt.Errorf("http: decorator %s: %w", d.Name(), err)
		}
		content = out
	}
	return content, nil
}

// Output renders the response and writes it to w.
func (res *Response) Output(w http.ResponseWriter) error {
	content, err := res.Render()
	if err != nil {
		return err
	}
	for name, values := range res.header {
		w.Header()[name] = values
	}
	w.WriteHeader(res.status)
	_, err = io.WriteString(w, content)
	return err
}

func decoratorKey(name string) string { return strings.ToLower(name) }
