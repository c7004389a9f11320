// Package view renders html/template view scripts for responses.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"os"
	"path/filepath"

	"github.com/km-arc/galanthus/framework/broker"
)

// DefaultExtension is appended to script names.
const DefaultExtension = ".html"

var (
	ErrScriptNotFound = errors.New("view: script not found")
	ErrHelper         = errors.New("view: helper")
)

// Helper is a view helper callable from templates by its camel case name.
//
//	{{ partial "cities/row" . }}
type Helper interface {
	Direct(r *Renderer, args ...any) (any, error)
}

// Renderer renders view scripts found on its search paths. Paths are tried
// in order; the first one holding the script wins.
type Renderer struct {
	paths   []string
	ext     string
	params  map[string]any
	helpers *broker.HelperBroker
}

// NewRenderer creates a Renderer searching paths.
func NewRenderer(paths []string) *Renderer {
	return &Renderer{
		paths:  append([]string(nil), paths...),
		ext:    DefaultExtension,
		params: make(map[string]any),
	}
}

func (r *Renderer) Paths() []string { return append([]string(nil), r.paths...) }

// SetExtension changes the script file extension.
func (r *Renderer) SetExtension(ext string) *Renderer {
	r.ext = ext
	return r
}

// SetHelpers sets the broker template helpers are looked up in.
func (r *Renderer) SetHelpers(helpers *broker.HelperBroker) {
	r.helpers = helpers
}

func (r *Renderer) Helpers() *broker.HelperBroker { return r.helpers }

// ── Params ───────────────────────────────────────────────────────────────────

func (r *Renderer) SetParam(name string, value any) *Renderer {
	r.params[name] = value
	return r
}

func (r *Renderer) SetParams(params map[string]any) *Renderer {
	maps.Copy(r.params, params)
	return r
}

func (r *Renderer) Params() map[string]any { return maps.Clone(r.params) }

func (r *Renderer) ClearParams() *Renderer {
	r.params = make(map[string]any)
	return r
}

// Clone returns a copy sharing paths and helpers but not params.
func (r *Renderer) Clone() *Renderer {
	c := *r
	c.paths = append([]string(nil), r.paths...)
	c.params = maps.Clone(r.params)
	return &c
}

// ── Rendering ────────────────────────────────────────────────────────────────

// Find returns the file holding script.
func (r *Renderer) Find(script string) (string, error) {
	for _, dir := range r.paths {
		file := filepath.Join(dir, filepath.FromSlash(script)+r.ext)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return file, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %v", ErrScriptNotFound, script, r.paths)
}

// Render executes script with the current params.
func (r *Renderer) Render(script string) (string, error) {
	file, err := r.Find(script)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(filepath.Base(file)).Funcs(r.funcs()).ParseFiles(file)
	if err != nil {
		return "", fmt.Errorf("view: parse %s: %w", script, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.params); err != nil {
		return "", fmt.Errorf("view: render %s: %w", script, err)
	}
	return buf.String(), nil
}

func (r *Renderer) funcs() template.FuncMap {
	fm := template.FuncMap{}
	if r.helpers == nil {
		return fm
	}
	for _, name := range r.helpers.Names() {
		fm[name] = func(args ...any) (any, error) {
			return r.helper(name, args)
		}
	}
	return fm
}

func (r *Renderer) helper(name string, args []any) (any, error) {
	h, err := r.helpers.Get(name)
	if err != nil {
		return nil, err
	}
	vh, ok := h.(Helper)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%T) is not a view helper", ErrHelper, name, h)
	}
	return vh.Direct(r, args...)
}
