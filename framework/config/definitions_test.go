package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/km-arc/galanthus/framework/config"
)

const globalDefs = `
acme/db.Connection:
  alias: db-driver
  shared: true
  params:
    host: localhost
    port: 3306
  setters: [SetLogger]

acme/view.Renderer:
  params:
    paths:
      - ${ROOT_PATH}/templates
  instances:
    acme/broker.HelperBroker:
      params:
        namespaces: [acme/view/helpers]
`

const commonDefs = `
acme/db.Connection:
  params:
    host: db.internal
    driver: {use: acme/db.MySQL}
  setters: [SetLogger, SetClock]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDefinitions(t *testing.T) {
	setEnv(t, "ROOT_PATH", "/srv/app")

	defs, err := config.ParseDefinitions([]byte(globalDefs))
	if err != nil {
		t.Fatalf("ParseDefinitions: %v", err)
	}

	conn := defs["acme/db.Connection"]
	if conn.Alias != "db-driver" || !conn.Shared {
		t.Errorf("Connection: got alias %q shared %v", conn.Alias, conn.Shared)
	}
	if conn.Params["port"] != 3306 {
		t.Errorf("port: got %v (%T)", conn.Params["port"], conn.Params["port"])
	}

	paths, _ := defs["acme/view.Renderer"].Params["paths"].([]any)
	if len(paths) != 1 || paths[0] != "/srv/app/templates" {
		t.Errorf("paths: got %v", paths)
	}
	broker := defs["acme/view.Renderer"].Instances["acme/broker.HelperBroker"]
	if ns, _ := broker.Params["namespaces"].([]any); len(ns) != 1 || ns[0] != "acme/view/helpers" {
		t.Errorf("namespaces: got %v", broker.Params["namespaces"])
	}
}

func TestParseDefinitions_Empty(t *testing.T) {
	defs, err := config.ParseDefinitions(nil)
	if err != nil || defs == nil || len(defs) != 0 {
		t.Errorf("empty document: got %v, %v", defs, err)
	}
}

func TestParseDefinitions_Invalid(t *testing.T) {
	if _, err := config.ParseDefinitions([]byte("a: [")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadDefinitions_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", globalDefs)
	common := writeFile(t, dir, "common.yaml", commonDefs)

	defs, err := config.LoadDefinitions(global, common)
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}

	conn := defs["acme/db.Connection"]
	if conn.Params["host"] != "db.internal" {
		t.Errorf("host: got %v want db.internal", conn.Params["host"])
	}
	if conn.Params["port"] != 3306 {
		t.Errorf("port should survive the merge, got %v", conn.Params["port"])
	}
	if conn.Alias != "db-driver" || !conn.Shared {
		t.Error("alias and shared should survive the merge")
	}
	if len(conn.Setters) != 2 || conn.Setters[0] != "SetLogger" || conn.Setters[1] != "SetClock" {
		t.Errorf("setters: got %v", conn.Setters)
	}
	use, _ := conn.Params["driver"].(map[string]any)
	if use["use"] != "acme/db.MySQL" {
		t.Errorf("driver: got %v", conn.Params["driver"])
	}
}

func TestLoadDefinitions_MissingFile(t *testing.T) {
	if _, err := config.LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
