// Package broker finds and caches helpers by short name.
package broker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/km-arc/galanthus/framework/di"
)

// ErrHelperNotFound is returned when no namespace holds a helper.
var ErrHelperNotFound = errors.New("broker: helper not found")

// HelperBroker resolves helpers registered in the container under one of its
// namespaces. "partial" in namespace "acme/view/helpers" is the type
// "acme/view/helpers.Partial". Helpers are created once per broker.
type HelperBroker struct {
	container  *di.Container
	namespaces []string

	mu      sync.Mutex
	helpers map[string]any
}

// New creates a broker searching namespaces in order.
func New(container *di.Container, namespaces []string) *HelperBroker {
	return &HelperBroker{
		container:  container,
		namespaces: append([]string(nil), namespaces...),
		helpers:    make(map[string]any),
	}
}

func (b *HelperBroker) Namespaces() []string { return append([]string(nil), b.namespaces...) }

// Get returns the helper called name.
func (b *HelperBroker) Get(name string) (any, error) {
	key := strings.ToLower(name)

	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := b.helpers[key]; ok {
		return h, nil
	}

	id, ok := b.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %v", ErrHelperNotFound, name, b.namespaces)
	}
	h, err := b.container.Create(id)
	if err != nil {
		return nil, fmt.Errorf("broker: helper %q: %w", name, err)
	}
	b.helpers[key] = h
	return h, nil
}

// Has reports whether a helper called name is registered.
func (b *HelperBroker) Has(name string) bool {
	_, ok := b.lookup(name)
	return ok
}

// Names lists the helpers available in the broker's namespaces, as lower
// camel case names.
func (b *HelperBroker) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, id := range b.container.Repository().Classes() {
		for _, ns := range b.namespaces {
			short, ok := strings.CutPrefix(id, ns+".")
			if !ok || strings.Contains(short, ".") {
				continue
			}
			name := camel(short)
			if !seen[strings.ToLower(name)] {
				seen[strings.ToLower(name)] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (b *HelperBroker) lookup(name string) (string, bool) {
	return Lookup(b.container.Repository(), b.namespaces, name)
}

// Lookup finds the type called name in the first namespace holding it. The
// capitalised name is tried first, then a case-insensitive match so that
// "json" finds JSON.
func Lookup(repo *di.Repository, namespaces []string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, ns := range namespaces {
		if id := ns + "." + Pascal(name); repo.Known(id) {
			return id, true
		}
	}
	classes := repo.Classes()
	for _, ns := range namespaces {
		want := ns + "." + name
		for _, id := range classes {
			if strings.EqualFold(id, want) {
				return id, true
			}
		}
	}
	return "", false
}

// Pascal upper-cases the first letter of each dash or underscore separated
// word: "city-list" becomes "CityList".
func Pascal(name string) string {
	var sb strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' }) {
		r, n := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(word[n:])
	}
	return sb.String()
}

// camel lower-cases the leading upper case run of a type name: "Partial"
// becomes "partial", "JSON" becomes "json" and "HTMLEscape" "htmlEscape".
func camel(s string) string {
	rs := []rune(s)
	for i := range rs {
		if !unicode.IsUpper(rs[i]) {
			break
		}
		if i > 0 && i+1 < len(rs) && unicode.IsLower(rs[i+1]) {
			break
		}
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}
