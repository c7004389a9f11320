// Package http provides the request and response types controllers work
// with.
//
// # Request
//
// Request wraps *http.Request with input helpers.
//
//	req := gohttp.NewRequest(r)
//
//	var city struct {
//	    Name string `json:"name"`
//	}
//	if err := req.Bind(&city); errors.Is(err, gohttp.ErrMalformedBody) { ... }
//
//	name := req.Input("name", "default")
//	min  := req.Query("min", "0")
//	errs := req.Validate(validation.Rules{"min": "sometimes|integer"})
//
//	// Dispatch segments: /{controller}/{action}
//	req.Controller()   // "cities"
//	req.Action()       // "index" when absent
//	req.ID()           // request id assigned by the dispatcher
//
// # Response
//
// Response is buffered: controllers set params and a view script, and the
// decorator chain turns them into the body when Output is called.
//
//	res.SetParam("cities", rows).SetScript("cities/index")
//
//	// Switch to JSON
//	res.ClearDecorators()
//	res.AddDecorator("json", nil)
//	res.AddDecorator("httpHeaders", nil)
//
//	err := res.Output(w)
//
// # Decorators
//
// A DecoratorRegistry maps names to factories. httpHeaders and json are
// built in; the view package adds renderer and layout.
//
//	reg := gohttp.NewDecoratorRegistry()
//	reg.Register("renderer", view.RendererFactory(resolve))
package http
