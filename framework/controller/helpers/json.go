// Package helpers holds the built-in controller helpers.
package helpers

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/km-arc/galanthus/framework/di"
	gohttp "github.com/km-arc/galanthus/framework/http"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Namespace is the helper broker namespace of this package.
const Namespace = "github.com/km-arc/galanthus/framework/controller/helpers"

// Register adds the built-in controller helpers to c.
func Register(c *di.Container) {
	c.MustRegister(NewJSON)
}

// JSON switches responses to JSON output.
type JSON struct{}

func NewJSON() *JSON { return &JSON{} }

// Enable replaces the response decorators with json followed by httpHeaders,
// so the params are sent as a JSON document.
func (j *JSON) Enable(res *gohttp.Response) error {
	res.ClearDecorators()
	if err := res.AddDecorator(gohttp.JSONDecoratorName, nil); err != nil {
		return err
	}
	return res.AddDecorator(gohttp.HeadersDecoratorName, nil)
}

// Encode returns the JSON encoding of v.
func (j *JSON) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
