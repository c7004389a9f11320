// Package controllers holds the example application's controllers.
package controllers

import (
	"github.com/km-arc/galanthus/framework/controller"
	"github.com/km-arc/galanthus/framework/di"
	gohttp "github.com/km-arc/galanthus/framework/http"
)

// Namespace is the dispatcher namespace of this package.
const Namespace = "github.com/km-arc/galanthus/app/controllers"

// Register adds the controllers to c.
func Register(c *di.Container) {
	c.MustRegister(NewRoot)
	c.MustRegister(NewCities, di.Params("cities"))
}

// Root serves "/".
type Root struct {
	controller.Base
}

func NewRoot() *Root { return &Root{} }

func (c *Root) Execute(_ *gohttp.Request, res *gohttp.Response) error {
	res.SetParam("message", "Welcome to Galanthus!")
	return nil
}
