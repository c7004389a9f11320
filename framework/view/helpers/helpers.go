// Package helpers holds the built-in view helpers.
package helpers

import (
	"fmt"
	"html/template"
	"reflect"

	"github.com/km-arc/galanthus/framework/di"
	"github.com/km-arc/galanthus/framework/view"
)

// Namespace is the helper broker namespace of this package.
const Namespace = "github.com/km-arc/galanthus/framework/view/helpers"

// Register adds the built-in view helpers to c.
func Register(c *di.Container) {
	c.MustRegister(NewPartial)
	c.MustRegister(NewEscape)
}

// Partial renders another script with its own params.
//
//	{{ partial "cities/row" . }}
type Partial struct{}

func NewPartial() *Partial { return &Partial{} }

func (p *Partial) Direct(r *view.Renderer, args ...any) (any, error) {
	if len(args) == 0 {
		return template.HTML(""), nil
	}
	script, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: view script path must be a string, got %T", view.ErrHelper, args[0])
	}

	partial := r.Clone().ClearParams()
	if len(args) > 1 {
		partial.SetParams(paramsOf(args[1]))
	}
	out, err := partial.Render(script)
	if err != nil {
		return nil, err
	}
	return template.HTML(out), nil
}

// Escape HTML-escapes its arguments, joined like fmt.Sprint.
type Escape struct{}

func NewEscape() *Escape { return &Escape{} }

func (e *Escape) Direct(_ *view.Renderer, args ...any) (any, error) {
	return template.HTML(template.HTMLEscapeString(fmt.Sprint(args...))), nil
}

// paramsOf reads a map with string keys, named map types included.
func paramsOf(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}
