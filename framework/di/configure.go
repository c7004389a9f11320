package di

import (
	"fmt"
	"sort"

	"github.com/km-arc/galanthus/framework/config"
)

// Configure applies definitions to c. Aliases are registered first so that
// definitions may be keyed by alias; the remaining entries are applied in
// key order.
//
// A definition with params, instances, setters or wrappers gets a child
// context through WhenCreating. Param values map to preferences:
//
//	{use: <id>}       deferred type reference
//	"text"            plain string (UseString)
//	anything else     literal value
func (c *Context) Configure(defs config.Definitions) error {
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	repo := c.core.repo
	for _, id := range ids {
		if alias := defs[id].Alias; alias != "" {
			if alias == id {
				return fmt.Errorf("di: configure %q: aliased to itself", id)
			}
			repo.Alias(alias, id)
		}
	}

	for _, id := range ids {
		if err := c.configureType(repo.Canonical(id), defs[id]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) configureType(id string, def config.Definition) error {
	switch {
	case def.Prefer != "" && def.Shared:
		c.Share(def.Prefer)
	case def.Prefer != "":
		c.Prefer(def.Prefer)
	case def.Shared:
		c.Share(id)
	}

	if len(def.Params) == 0 && len(def.Instances) == 0 && len(def.Setters) == 0 && len(def.Wrappers) == 0 {
		return nil
	}

	child := c.WhenCreating(id)

	names := make([]string, 0, len(def.Params))
	for name := range def.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child.ForVariable(name).Use(paramPreference(def.Params[name]))
	}

	if len(def.Setters) > 0 {
		child.ForType(id).Call(def.Setters...)
	}
	for _, w := range def.Wrappers {
		child.WrapWith(w)
	}
	if len(def.Instances) > 0 {
		return child.Configure(def.Instances)
	}
	return nil
}

func paramPreference(v any) Preference {
	switch t := v.(type) {
	case string:
		return Strategy(NewValue(t))
	case map[string]any:
		if use, ok := t["use"].(string); ok && len(t) == 1 {
			return Deferred(use)
		}
	}
	return Literal(v)
}
