// Package controller defines what the dispatcher executes.
package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/broker"
	"github.com/km-arc/galanthus/framework/controller/helpers"
	gohttp "github.com/km-arc/galanthus/framework/http"
)

// Controller handles one dispatched request. The action is available as
// req.Action(); the response is output by the dispatcher afterwards.
type Controller interface {
	Execute(req *gohttp.Request, res *gohttp.Response) error
}

// Func adapts a function to Controller.
type Func func(req *gohttp.Request, res *gohttp.Response) error

func (f Func) Execute(req *gohttp.Request, res *gohttp.Response) error { return f(req, res) }

// Base is embedded by controllers for helper and logger access.
//
//	type Cities struct {
//	    controller.Base
//	    cities *tablegateway.TableGateway
//	}
type Base struct {
	helpers *broker.HelperBroker
	log     *zap.Logger
}

// SetHelpers is called by the dispatcher with its controller helper broker.
func (b *Base) SetHelpers(h *broker.HelperBroker) { b.helpers = h }

// SetLogger is injected by the container.
func (b *Base) SetLogger(log *zap.Logger) { b.log = log }

func (b *Base) Logger() *zap.Logger {
	if b.log == nil {
		return zap.NewNop()
	}
	return b.log
}

// Helper returns the controller helper called name.
func (b *Base) Helper(name string) (any, error) {
	if b.helpers == nil {
		return nil, fmt.Errorf("controller: no helper broker for %q", name)
	}
	return b.helpers.Get(name)
}

// JSON returns the json helper.
func (b *Base) JSON() (*helpers.JSON, error) {
	h, err := b.Helper("json")
	if err != nil {
		return nil, err
	}
	j, ok := h.(*helpers.JSON)
	if !ok {
		return nil, fmt.Errorf("controller: json helper is %T", h)
	}
	return j, nil
}
