// Package di is a hierarchical dependency injection container.
//
// # Overview
//
// Types are identified by strings: the package-qualified type name returned
// by TypeOf, or an alias. Constructors are recorded in a Repository at
// startup; resolution reads their parameters by reflection and creates each
// dependency recursively.
//
// Resolution happens in a tree of Contexts. The Container is the root; a
// child context is registered per type with WhenCreating and applies while
// that type (or anything implementing it) is being built. Lookups walk from
// the current context to the root, so the nearest configuration wins.
//
// # Container Lifecycle
//
//  1. Create: c := di.New(di.WithLogger(log))
//  2. Register constructors and preferences, or providers
//  3. Configure from YAML definitions: c.Configure(defs)
//  4. Resolve: gw, err := di.Resolve[*tablegateway.TableGateway](c, "cities")
//
// # Lifecycles
//
//	// Factory: a new instance on every resolution (the default)
//	c.Prefer(di.TypeOf[*FileLogger]())
//
//	// Shared: built once, reused
//	c.Share(di.TypeOf[*Database]())
//
//	// Value: a pre-built instance, never re-injected
//	c.UseInstance(cfg)
//
// # Interfaces
//
//	di.RegisterInterface[Logger](c)
//	c.MustRegister(NewFileLogger, di.Params("path"))
//	c.MustRegister(NewConsoleLogger)
//
//	// two candidates: pick one, or Create fails with ErrAmbiguousType
//	c.Prefer(di.TypeOf[*ConsoleLogger]())
//
// # Variables
//
// Parameters without a type hint (strings, numbers, slices, maps) are bound
// by name. Typed parameters may be bound too, overriding the hint.
//
//	c.WhenCreating(di.TypeOf[*FileLogger]()).
//	    ForVariable("path").UseString("/var/log/app.log")
//
//	c.WhenCreating(di.TypeOf[*TableGateway]()).
//	    ForVariable("db").UseType("db-driver")
//
// # Setter Injection
//
//	c.ForType(di.TypeOf[controller.Controller]()).Call("SetHelpers")
//
// Setter parameters are resolved like constructor parameters; the first one
// is named after the setter (SetHelpers takes "helpers").
//
// # Wrappers
//
// A wrapper registered on a context is created in place of the types built
// there. Its own dependency of the wrapped type resolves to the original.
//
//	c.WhenCreating(di.TypeOf[Logger]()).WrapWith(di.TypeOf[*TimestampLogger]())
//
// # Deferred Providers
//
//	c.Defer([]string{"heavy"}, func(c *di.Container) error {
//	    c.MustRegister(newHeavy, di.As("heavy"))
//	    return nil
//	})
//
// # Concurrency
//
// The tree is meant to be built at bootstrap and read concurrently after.
// A Shared instance is built by one resolution while concurrent ones wait
// for it. A resolution whose wait would close a cycle through other
// goroutines fails with ErrCircularDependency instead of blocking.
package di
