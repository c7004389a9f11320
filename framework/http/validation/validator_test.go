package validation_test

import (
	"testing"

	"github.com/km-arc/galanthus/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		if errs := validation.Check(data, rules); errs.Has() {
			t.Errorf("expected PASS, got errors: %+v", errs.Bag)
		}
	})
}

func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		errs := validation.Check(data, rules)
		if errs.First(field) == "" {
			t.Errorf("expected an error on %q, got %+v", field, errs.Bag)
		}
	})
}

// ── presence ─────────────────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"name": "required"}

	pass(t, "non-empty value", map[string]string{"name": "Sofia"}, r)
	fail(t, "empty string", "name", map[string]string{"name": ""}, r)
	fail(t, "whitespace only", "name", map[string]string{"name": "   "}, r)
	fail(t, "missing key", "name", map[string]string{}, r)
}

func TestValidation_Required_MessageFormat(t *testing.T) {
	errs := validation.Check(map[string]string{}, validation.Rules{"name": "required"})
	if got := errs.First("name"); got != "The name field is required." {
		t.Errorf("message: got %q", got)
	}
}

func TestValidation_Sometimes(t *testing.T) {
	r := validation.Rules{"min": "sometimes|integer"}

	pass(t, "absent", map[string]string{}, r)
	pass(t, "integer", map[string]string{"min": "42"}, r)
	fail(t, "not an integer", "min", map[string]string{"min": "many"}, r)
}

// ── numbers ──────────────────────────────────────────────────────────────────

func TestValidation_Numeric(t *testing.T) {
	pass(t, "float", map[string]string{"n": "1.5"}, validation.Rules{"n": "numeric"})
	fail(t, "word", "n", map[string]string{"n": "one"}, validation.Rules{"n": "numeric"})
	fail(t, "float is not integer", "n", map[string]string{"n": "1.5"}, validation.Rules{"n": "integer"})
}

func TestValidation_Comparisons(t *testing.T) {
	pass(t, "gt", map[string]string{"n": "5"}, validation.Rules{"n": "gt:4"})
	fail(t, "gt equal", "n", map[string]string{"n": "4"}, validation.Rules{"n": "gt:4"})
	pass(t, "gte equal", map[string]string{"n": "4"}, validation.Rules{"n": "gte:4"})
	pass(t, "lt", map[string]string{"n": "3"}, validation.Rules{"n": "lt:4"})
	fail(t, "lte above", "n", map[string]string{"n": "5"}, validation.Rules{"n": "lte:4"})
	fail(t, "not a number", "n", map[string]string{"n": "x"}, validation.Rules{"n": "gte:0"})

	errs := validation.Check(map[string]string{"n": "-1"}, validation.Rules{"n": "gte:0"})
	if got := errs.First("n"); got != "The n must be greater than or equal to 0." {
		t.Errorf("message: got %q", got)
	}
}

func TestValidation_Boolean(t *testing.T) {
	for _, v := range []string{"true", "FALSE", "1", "0", "yes", "no"} {
		pass(t, v, map[string]string{"b": v}, validation.Rules{"b": "boolean"})
	}
	fail(t, "maybe", "b", map[string]string{"b": "maybe"}, validation.Rules{"b": "boolean"})
}

// ── strings ──────────────────────────────────────────────────────────────────

func TestValidation_Length(t *testing.T) {
	pass(t, "min exact", map[string]string{"s": "abc"}, validation.Rules{"s": "min:3"})
	fail(t, "min short", "s", map[string]string{"s": "ab"}, validation.Rules{"s": "min:3"})
	pass(t, "max counts runes", map[string]string{"s": "Плов"}, validation.Rules{"s": "max:4"})
	fail(t, "max long", "s", map[string]string{"s": "abcdef"}, validation.Rules{"s": "max:5"})
	pass(t, "between", map[string]string{"s": "abcd"}, validation.Rules{"s": "between:2,5"})
	fail(t, "between short", "s", map[string]string{"s": "a"}, validation.Rules{"s": "between:2,5"})
}

func TestValidation_Lists(t *testing.T) {
	r := validation.Rules{"order": "in:name, population"}

	pass(t, "in", map[string]string{"order": "population"}, r)
	fail(t, "not in", "order", map[string]string{"order": "id"}, r)
	fail(t, "not_in", "s", map[string]string{"s": "root"}, validation.Rules{"s": "not_in:root,admin"})
}

func TestValidation_Patterns(t *testing.T) {
	pass(t, "alpha", map[string]string{"s": "Varna"}, validation.Rules{"s": "alpha"})
	fail(t, "alpha digits", "s", map[string]string{"s": "Varna1"}, validation.Rules{"s": "alpha"})
	pass(t, "alpha_num", map[string]string{"s": "v2"}, validation.Rules{"s": "alpha_num"})
	pass(t, "alpha_dash", map[string]string{"s": "city-list_2"}, validation.Rules{"s": "alpha_dash"})
	pass(t, "regex", map[string]string{"s": "BG-01"}, validation.Rules{"s": `regex:^[A-Z]{2}-\d+$`})
	fail(t, "bad regex", "s", map[string]string{"s": "x"}, validation.Rules{"s": "regex:("})
}

// ── bag ──────────────────────────────────────────────────────────────────────

func TestErrors_StopsAtFirstFailure(t *testing.T) {
	errs := validation.Check(map[string]string{}, validation.Rules{"n": "required|integer"})
	if len(errs.Bag["n"]) != 1 {
		t.Errorf("expected one message, got %v", errs.Bag["n"])
	}
}

func TestErrors_FieldsAndParams(t *testing.T) {
	errs := validation.Check(map[string]string{"b": "x"}, validation.Rules{
		"b": "integer",
		"a": "required",
	})

	fields := errs.Fields()
	if len(fields) != 2 || fields[0] != "a" || fields[1] != "b" {
		t.Errorf("Fields: got %v", fields)
	}
	bag, ok := errs.Params()["errors"].(map[string]any)
	if !ok || len(bag) != 2 {
		t.Fatalf("Params: got %v", errs.Params())
	}
	if msgs, _ := bag["b"].([]string); len(msgs) != 1 {
		t.Errorf("Params[b]: got %v", bag["b"])
	}

	var none *validation.Errors
	if none.Has() || none.First("a") != "" || none.Fields() != nil {
		t.Error("nil Errors should be empty")
	}
}
