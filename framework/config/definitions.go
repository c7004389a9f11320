package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Definition configures one type identifier of the container.
//
//	github.com/km-arc/galanthus/framework/db/tablegateway.TableGateway:
//	  params:
//	    table: cities
//	    db: {use: db-driver}
type Definition struct {
	Alias     string         `yaml:"alias,omitempty"`
	Prefer    string         `yaml:"prefer,omitempty"`
	Shared    bool           `yaml:"shared,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
	Instances Definitions    `yaml:"instances,omitempty"`
	Setters   []string       `yaml:"setters,omitempty"`
	Wrappers  []string       `yaml:"wrappers,omitempty"`
}

// Definitions maps type identifiers (or aliases) to their definition.
type Definitions map[string]Definition

// LoadDefinitions reads YAML definition files in order. Environment
// references such as ${ROOT_PATH} are expanded before parsing, and later
// files override earlier ones per key.
func LoadDefinitions(paths ...string) (Definitions, error) {
	defs := Definitions{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read definitions: %w", err)
		}
		parsed, err := ParseDefinitions(data)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		defs.Merge(parsed)
	}
	return defs, nil
}

// ParseDefinitions parses one YAML document of definitions.
func ParseDefinitions(data []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if defs == nil {
		defs = Definitions{}
	}
	return defs, nil
}

// Merge applies other on top of d. Scalars set in other win, params and
// instances merge per name, setters and wrappers are appended once.
func (d Definitions) Merge(other Definitions) {
	for id, def := range other {
		cur, ok := d[id]
		if !ok {
			d[id] = def
			continue
		}
		d[id] = cur.merge(def)
	}
}

func (def Definition) merge(o Definition) Definition {
	if o.Alias != "" {
		def.Alias = o.Alias
	}
	if o.Prefer != "" {
		def.Prefer = o.Prefer
	}
	def.Shared = def.Shared || o.Shared

	if len(o.Params) > 0 {
		params := make(map[string]any, len(def.Params)+len(o.Params))
		for k, v := range def.Params {
			params[k] = v
		}
		for k, v := range o.Params {
			params[k] = v
		}
		def.Params = params
	}
	if len(o.Instances) > 0 {
		instances := Definitions{}
		instances.Merge(def.Instances)
		instances.Merge(o.Instances)
		def.Instances = instances
	}
	def.Setters = appendUnique(def.Setters, o.Setters)
	def.Wrappers = appendUnique(def.Wrappers, o.Wrappers)
	return def
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
