package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/galanthus/framework/http"
	"github.com/km-arc/galanthus/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newFormRequest(t *testing.T, values url.Values) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return gohttp.NewRequest(req)
}

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

// ── Bind JSON ────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	type user struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	req := newJSONRequest(t, `{"name":"Alice","email":"alice@example.com"}`)

	var u user
	if err := req.Bind(&u); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if u.Name != "Alice" {
		t.Errorf("Name: got %q want %q", u.Name, "Alice")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("Email: got %q want %q", u.Email, "alice@example.com")
	}
}

func TestRequest_BindJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	r := gohttp.NewRequest(req)

	var v any
	if err := r.Bind(&v); !errors.Is(err, gohttp.ErrMalformedBody) {
		t.Errorf("expected ErrMalformedBody for empty body, got %v", err)
	}
}

func TestRequest_BindJSON_InvalidJSON(t *testing.T) {
	req := newJSONRequest(t, `{bad json}`)
	var v map[string]any
	if err := req.Bind(&v); !errors.Is(err, gohttp.ErrMalformedBody) {
		t.Errorf("expected ErrMalformedBody for invalid JSON, got %v", err)
	}
}

// ── Bind Form ────────────────────────────────────────────────────────────────

func TestRequest_BindForm(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	vals := url.Values{"name": {"Bob"}}
	req := newFormRequest(t, vals)

	var p payload
	if err := req.Bind(&p); err != nil {
		t.Fatalf("Bind form error: %v", err)
	}
	if p.Name != "Bob" {
		t.Errorf("Name: got %q want %q", p.Name, "Bob")
	}
}

// ── Input / Query ─────────────────────────────────────────────────────────────

func TestRequest_Input(t *testing.T) {
	vals := url.Values{"username": {"charlie"}}
	req := newFormRequest(t, vals)

	if got := req.Input("username"); got != "charlie" {
		t.Errorf("Input: got %q want %q", got, "charlie")
	}
}

func TestRequest_Input_Fallback(t *testing.T) {
	req := newGetRequest(t, "")
	if got := req.Input("missing", "default"); got != "default" {
		t.Errorf("Input fallback: got %q want %q", got, "default")
	}
}

func TestRequest_Query(t *testing.T) {
	req := newGetRequest(t, "page=2&limit=10")

	if got := req.Query("page"); got != "2" {
		t.Errorf("Query page: got %q want %q", got, "2")
	}
	if got := req.Query("limit"); got != "10" {
		t.Errorf("Query limit: got %q want %q", got, "10")
	}
}

func TestRequest_Query_Fallback(t *testing.T) {
	req := newGetRequest(t, "")
	if got := req.Query("missing", "1"); got != "1" {
		t.Errorf("Query fallback: got %q want %q", got, "1")
	}
}

func TestRequest_All(t *testing.T) {
	vals := url.Values{"a": {"1"}, "b": {"2"}}
	req := newFormRequest(t, vals)
	all := req.All()

	if all["a"] != "1" {
		t.Errorf("All[a]: got %q want %q", all["a"], "1")
	}
	if all["b"] != "2" {
		t.Errorf("All[b]: got %q want %q", all["b"], "2")
	}
}

func TestRequest_Has(t *testing.T) {
	vals := url.Values{"name": {"Alice"}, "empty": {""}}
	req := newFormRequest(t, vals)

	if !req.Has("name") {
		t.Error("Has('name') should be true")
	}
	if req.Has("empty") {
		t.Error("Has('empty') should be false for blank value")
	}
	if req.Has("missing") {
		t.Error("Has('missing') should be false")
	}
}

// ── Headers ───────────────────────────────────────────────────────────────────

func TestRequest_Header(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Custom", "value123")
	req := gohttp.NewRequest(r)

	if got := req.Header("X-Custom"); got != "value123" {
		t.Errorf("Header: got %q want %q", got, "value123")
	}
}

// ── IsJSON / WantsJSON ────────────────────────────────────────────────────────

func TestRequest_IsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	if !gohttp.NewRequest(r).IsJSON() {
		t.Error("IsJSON should ignore media type parameters")
	}

	r.Header.Set("Content-Type", "text/plain")
	if gohttp.NewRequest(r).IsJSON() {
		t.Error("IsJSON should be false for text/plain")
	}
}

func TestRequest_WantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	req := gohttp.NewRequest(r)
	if !req.WantsJSON() {
		t.Error("WantsJSON should be true when Accept is application/json")
	}
	if req.IsJSON() {
		t.Error("IsJSON should look at Content-Type, not Accept")
	}
}

// ── Body ──────────────────────────────────────────────────────────────────────

func TestRequest_Body_ReadOnce(t *testing.T) {
	req := newJSONRequest(t, `{"name":"Varna"}`)

	first, err := req.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	second, _ := req.Body()
	if string(first) != `{"name":"Varna"}` || string(second) != string(first) {
		t.Errorf("Body: got %q then %q", first, second)
	}

	var city struct {
		Name string `json:"name"`
	}
	if err := req.Bind(&city); err != nil || city.Name != "Varna" {
		t.Errorf("Bind after Body: got %+v, %v", city, err)
	}
}

// ── Route segments ────────────────────────────────────────────────────────────

func TestRequest_ControllerAndAction(t *testing.T) {
	var got [3]string
	r := chi.NewRouter()
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r.WithContext(gohttp.WithRequestID(r.Context(), "req-1")))
		got = [3]string{req.Controller(), req.Action(), req.ID()}
	}
	r.Get("/{controller}", handler)
	r.Get("/{controller}/{action}", handler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cities/show", nil))
	if got != [3]string{"cities", "show", "req-1"} {
		t.Errorf("segments: got %v", got)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cities", nil))
	if got[1] != "index" {
		t.Errorf("Action default: got %q want index", got[1])
	}
}

func TestRequest_Validate(t *testing.T) {
	req := newGetRequest(t, "min=abc&order=name")

	errs := req.Validate(validation.Rules{
		"min":   "sometimes|integer",
		"order": "in:name,population",
	})
	if errs.First("min") == "" {
		t.Error("min should fail the integer rule")
	}
	if errs.First("order") != "" {
		t.Errorf("order should pass, got %q", errs.First("order"))
	}
}
