package controller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/broker"
	"github.com/km-arc/galanthus/framework/controller"
	"github.com/km-arc/galanthus/framework/controller/helpers"
	"github.com/km-arc/galanthus/framework/di"
	gohttp "github.com/km-arc/galanthus/framework/http"
)

type cities struct {
	controller.Base
}

func newCities() *cities { return &cities{} }

func (c *cities) Execute(_ *gohttp.Request, res *gohttp.Response) error {
	res.SetParam("ok", true)
	return nil
}

func TestBase_WithoutBroker(t *testing.T) {
	var b controller.Base
	_, err := b.Helper("json")
	assert.Error(t, err)
	assert.NotNil(t, b.Logger())
}

func TestBase_JSONHelper(t *testing.T) {
	c := di.New()
	helpers.Register(c)

	var b controller.Base
	b.SetHelpers(broker.New(c, []string{helpers.Namespace}))

	j, err := b.JSON()
	require.NoError(t, err)
	assert.NotNil(t, j)
}

func TestBase_SetterInjection(t *testing.T) {
	log := zap.NewExample()
	c := di.New()
	c.UseInstance(log)
	di.RegisterInterface[controller.Controller](c)
	id := c.MustRegister(newCities)
	c.ForType(di.TypeOf[controller.Controller]()).Call("SetLogger")

	got, err := di.Resolve[*cities](c, id)
	require.NoError(t, err)
	assert.Same(t, log, got.Logger())
}

func TestFunc(t *testing.T) {
	called := false
	var ctrl controller.Controller = controller.Func(func(*gohttp.Request, *gohttp.Response) error {
		called = true
		return nil
	})
	require.NoError(t, ctrl.Execute(nil, nil))
	assert.True(t, called)
}
