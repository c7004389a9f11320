package di

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface{ Greet() string }

type english struct{ name string }

func newEnglish(name string) *english    { return &english{name: name} }
func (e *english) Greet() string         { return "hello " + e.name }
func (e *english) SetName(name string)   { e.name = name }
func (e *english) SetLoud(on bool) error { return nil }

func TestRepository_RegisterRejectsInvalidConstructors(t *testing.T) {
	r := NewRepository()

	for name, ctor := range map[string]any{
		"not a func": 42,
		"variadic":   func(xs ...int) *english { return nil },
		"no result":  func() {},
		"interface":  func() greeter { return nil },
		"bad second": func() (*english, int) { return nil, 0 },
		"nil":        nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Register(ctor)
			assert.ErrorIs(t, err, ErrInvalidConstructor)
		})
	}

	_, err := r.Register(newEnglish, Params("a", "b"))
	assert.ErrorIs(t, err, ErrInvalidConstructor)
}

func TestRepository_Metadata(t *testing.T) {
	r := NewRepository()
	gid := Interface[greeter](r)
	id := r.MustRegister(newEnglish, Params("name"), As("english"))

	assert.Equal(t, id, r.Canonical("english"))
	assert.True(t, r.Known("english"))
	assert.Equal(t, []string{id}, r.Candidates(gid))
	assert.Equal(t, []string{id}, r.Candidates(id))
	assert.Nil(t, r.Candidates("missing"))
	assert.Equal(t, []string{gid}, r.Interfaces(id))
	assert.True(t, r.IsSupertype(id, gid))
	assert.False(t, r.IsSupertype(gid, id))
	assert.Equal(t, []string{"SetLoud", "SetName"}, r.Setters(id))

	params := r.ConstructorParameters(id)
	require.Len(t, params, 1)
	assert.Equal(t, "name", params[0].Name)
	assert.Empty(t, params[0].Type)

	sp, err := r.SetterParameters(id, "SetName")
	require.NoError(t, err)
	require.Len(t, sp, 1)
	assert.Equal(t, "name", sp[0].Name)

	_, err = r.SetterParameters(id, "SetMissing")
	assert.ErrorIs(t, err, ErrConstruction)
}

func TestRepository_ConstructAndInvoke(t *testing.T) {
	r := NewRepository()
	id := r.MustRegister(newEnglish, Params("name"))

	v, err := r.Construct(id, []any{"ann"})
	require.NoError(t, err)
	e := v.(*english)
	assert.Equal(t, "hello ann", e.Greet())

	require.NoError(t, r.Invoke(e, "SetName", []any{"bob"}))
	assert.Equal(t, "hello bob", e.Greet())

	_, err = r.Construct(id, nil)
	assert.ErrorIs(t, err, ErrConstruction)

	_, err = r.Construct(id, []any{3.5})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRepository_SelfAliasPanics(t *testing.T) {
	r := NewRepository()
	assert.Panics(t, func() { r.Alias("x", "x") })
}

func TestCoerce(t *testing.T) {
	v, err := coerce([]any{"a", "b"}, reflect.TypeOf([]string(nil)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Interface())

	v, err = coerce(map[string]any{"k": 1}, reflect.TypeOf(map[string]int(nil)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"k": 1}, v.Interface())

	v, err = coerce(30, reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.Interface())

	v, err = coerce(nil, reflect.TypeOf((*english)(nil)))
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	_, err = coerce("x", reflect.TypeOf(0))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestCoerce_Numbers(t *testing.T) {
	for name, tc := range map[string]struct {
		in   any
		to   reflect.Type
		want any
	}{
		"whole float to int":   {3.0, reflect.TypeOf(0), 3},
		"int to uint8":         {255, reflect.TypeOf(uint8(0)), uint8(255)},
		"int to float":         {2, reflect.TypeOf(0.0), 2.0},
		"uint to int":          {uint(7), reflect.TypeOf(int32(0)), int32(7)},
		"float64 to float32":   {1.5, reflect.TypeOf(float32(0)), float32(1.5)},
		"negative int to int8": {-128, reflect.TypeOf(int8(0)), int8(-128)},
	} {
		t.Run(name, func(t *testing.T) {
			v, err := coerce(tc.in, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Interface())
		})
	}

	for name, tc := range map[string]struct {
		in any
		to reflect.Type
	}{
		"fraction to int":     {2.9, reflect.TypeOf(0)},
		"negative to uint":    {-1, reflect.TypeOf(uint(0))},
		"negative float uint": {-2.0, reflect.TypeOf(uint16(0))},
		"int overflows int8":  {300, reflect.TypeOf(int8(0))},
		"uint overflows int":  {uint64(math.MaxUint64), reflect.TypeOf(int64(0))},
		"huge float to int":   {1e20, reflect.TypeOf(int64(0))},
		"float32 overflow":    {1e300, reflect.TypeOf(float32(0))},
		"in a slice":          {[]any{1, 2.5}, reflect.TypeOf([]int(nil))},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := coerce(tc.in, tc.to)
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestNesting(t *testing.T) {
	var root *nesting
	assert.Equal(t, 0, root.len())
	assert.Nil(t, root.ids())

	p := root.push("a").pushWrapper("w").push("b")
	assert.Equal(t, 3, p.len())
	assert.Equal(t, []string{"b", "w", "a"}, p.ids())
	assert.True(t, p.contains("w"))
	assert.False(t, p.building("w"))
	assert.True(t, p.building("a"))
	assert.False(t, p.contains("c"))
	assert.Nil(t, p.resolution())

	s := start()
	assert.Equal(t, 0, s.len())
	assert.Nil(t, s.ids())
	assert.False(t, s.contains(""))

	q := s.push("a").pushWrapper("w")
	assert.Equal(t, []string{"w", "a"}, q.ids())
	assert.Equal(t, 2, q.len())
	assert.Same(t, s.resolution(), q.resolution())
	assert.NotSame(t, s.resolution(), start().resolution())
}

func TestKeyOfAndHints(t *testing.T) {
	assert.Equal(t, "string", KeyOf("x"))
	assert.Equal(t, "", KeyOf(nil))
	assert.Equal(t, TypeOf[*english](), TypeOf[english]())
	assert.Equal(t, "", hintOf(reflect.TypeOf([]string(nil))))
	assert.Equal(t, "", hintOf(reflect.TypeOf((*error)(nil)).Elem()))
	assert.Equal(t, TypeOf[greeter](), hintOf(reflect.TypeOf((*greeter)(nil)).Elem()))
	assert.Equal(t, "logger", lowerFirst("Logger"))
}
