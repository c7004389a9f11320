package validation

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors collects messages per field.
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has reports whether any rule failed.
func (e *Errors) Has() bool { return e != nil && len(e.Bag) > 0 }

// First returns the first message for field.
func (e *Errors) First(field string) string {
	if e == nil || len(e.Bag[field]) == 0 {
		return ""
	}
	return e.Bag[field][0]
}

// Fields returns the failing fields in sorted order.
func (e *Errors) Fields() []string {
	if e == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.Bag))
}

// Params returns the errors as response params: {"errors": {field: [msg]}}.
func (e *Errors) Params() map[string]any {
	bag := make(map[string]any, len(e.Bag))
	for field, msgs := range e.Bag {
		bag[field] = slices.Clone(msgs)
	}
	return map[string]any{"errors": bag}
}

// Rules maps a field to its pipe separated rules, e.g. "required|integer|gte:0".
type Rules map[string]string

// Check validates data against rules. The result is never nil.
func Check(data map[string]string, rules Rules) *Errors {
	errs := &Errors{}
	for _, field := range slices.Sorted(maps.Keys(rules)) {
		value := data[field]
		for rule := range strings.SplitSeq(rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")
			if stop := apply(errs, field, value, name, param); stop {
				break
			}
		}
	}
	return errs
}

var (
	alpha     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNum  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// apply runs one rule and reports whether the remaining rules are skipped.
func apply(errs *Errors, field, value, rule, param string) bool {
	fail := func(format string, args ...any) bool {
		errs.add(field, fmt.Sprintf(format, append([]any{field}, args...)...))
		return true
	}

	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fail("The %s field is required.")
		}
	case "sometimes", "nullable":
		return value == ""
	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fail("The %s must be a number.")
		}
	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fail("The %s must be an integer.")
		}
	case "boolean":
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no":
		default:
			return fail("The %s field must be true or false.")
		}
	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return fail("The %s must be at least %d characters.", n)
		}
	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return fail("The %s may not be greater than %d characters.", n)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			break
		}
		minLen, _ := strconv.Atoi(strings.TrimSpace(lo))
		maxLen, _ := strconv.Atoi(strings.TrimSpace(hi))
		if l := utf8.RuneCountInString(value); l < minLen || l > maxLen {
			return fail("The %s must be between %d and %d characters.", minLen, maxLen)
		}
	case "in":
		if !slices.Contains(splitList(param), value) {
			return fail("The selected %s is invalid.")
		}
	case "not_in":
		if slices.Contains(splitList(param), value) {
			return fail("The selected %s is invalid.")
		}
	case "alpha":
		if !alpha.MatchString(value) {
			return fail("The %s may only contain letters.")
		}
	case "alpha_num":
		if !alphaNum.MatchString(value) {
			return fail("The %s may only contain letters and numbers.")
		}
	case "alpha_dash":
		if !alphaDash.MatchString(value) {
			return fail("The %s may only contain letters, numbers, dashes and underscores.")
		}
	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return fail("The %s format is invalid.")
		}
	case "gt", "gte", "lt", "lte":
		if !compare(value, param, rule) {
			return fail("The %s must be %s %s.", comparisons[rule], param)
		}
	}
	return false
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}

// compare reports whether value satisfies the numeric comparison against param.
func compare(value, param, op string) bool {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	t, _ := strconv.ParseFloat(param, 64)
	switch op {
	case "gt":
		return f > t
	case "gte":
		return f >= t
	case "lt":
		return f < t
	}
	return f <= t
}

func splitList(param string) []string {
	parts := strings.Split(param, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
