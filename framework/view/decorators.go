package view

import (
	"html/template"

	gohttp "github.com/km-arc/galanthus/framework/http"
)

const (
	RendererDecoratorName = "renderer"
	LayoutDecoratorName   = "layout"

	// LayoutInstruction names the response instruction holding the layout
	// script.
	LayoutInstruction = "_layout"
	DefaultLayout     = "layout"
)

// RendererDecorator appends the rendered response script to the content.
// Responses without a script pass through.
type RendererDecorator struct {
	renderer *Renderer
}

func NewRendererDecorator(r *Renderer) *RendererDecorator {
	return &RendererDecorator{renderer: r}
}

func (d *RendererDecorator) Name() string { return RendererDecoratorName }

func (d *RendererDecorator) Decorate(res *gohttp.Response, content string) (string, error) {
	if res.Script() == "" {
		return content, nil
	}
	r := d.renderer.Clone().ClearParams().SetParams(res.Params())
	out, err := r.Render(res.Script())
	if err != nil {
		return "", err
	}
	return content + out, nil
}

// LayoutDecorator renders the layout script around the content, which the
// layout reads as {{ .content }}. Configured params are overridden by the
// response params.
type LayoutDecorator struct {
	renderer *Renderer
	params   map[string]any
}

func NewLayoutDecorator(r *Renderer, params map[string]any) *LayoutDecorator {
	return &LayoutDecorator{renderer: r, params: params}
}

func (d *LayoutDecorator) Name() string { return LayoutDecoratorName }

func (d *LayoutDecorator) Decorate(res *gohttp.Response, content string) (string, error) {
	layout := res.Instruction(LayoutInstruction)
	if layout == "" {
		layout = DefaultLayout
	}
	r := d.renderer.Clone().ClearParams().
		SetParams(d.params).
		SetParams(res.Params()).
		SetParam("content", template.HTML(content))
	return r.Render(layout)
}

// ── Factories ────────────────────────────────────────────────────────────────

// RendererFactory builds renderer decorators around a renderer obtained from
// resolve, usually the container.
func RendererFactory(resolve func() (*Renderer, error)) gohttp.DecoratorFactory {
	return func(map[string]any) (gohttp.Decorator, error) {
		r, err := resolve()
		if err != nil {
			return nil, err
		}
		return NewRendererDecorator(r), nil
	}
}

// LayoutFactory builds layout decorators. The "params" option holds default
// layout params such as the page title.
func LayoutFactory(resolve func() (*Renderer, error)) gohttp.DecoratorFactory {
	return func(options map[string]any) (gohttp.Decorator, error) {
		r, err := resolve()
		if err != nil {
			return nil, err
		}
		params, _ := options["params"].(map[string]any)
		return NewLayoutDecorator(r, params), nil
	}
}
