package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/km-arc/galanthus/framework/http/validation"
)

// MaxBodySize bounds the bytes Body reads.
const MaxBodySize = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformedBody is returned by Bind for an empty or undecodable body.
var ErrMalformedBody = errors.New("http: malformed request body")

type requestIDKey struct{}

// WithRequestID stores id in ctx; Request.ID reads it back.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Request wraps *http.Request with the helpers controllers use.
type Request struct {
	raw *http.Request

	read    bool
	body    []byte
	bodyErr error
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// ID returns the request id assigned by the dispatcher, if any.
func (req *Request) ID() string {
	id, _ := req.raw.Context().Value(requestIDKey{}).(string)
	return id
}

func (req *Request) Context() context.Context { return req.raw.Context() }
func (req *Request) Raw() *http.Request       { return req.raw }

// Controller returns the {controller} route segment.
func (req *Request) Controller() string { return req.RouteParam("controller") }

// Action returns the {action} route segment, "index" when absent.
func (req *Request) Action() string {
	if a := req.RouteParam("action"); a != "" {
		return a
	}
	return "index"
}

// RouteParam returns a chi URL parameter.
func (req *Request) RouteParam(key string) string { return chi.URLParam(req.raw, key) }

func (req *Request) Header(key string) string { return req.raw.Header.Get(key) }

// IsJSON reports whether the body is declared as JSON.
func (req *Request) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(req.Header("Content-Type"))
	return err == nil && mt == "application/json"
}

// WantsJSON reports whether the client accepts JSON.
func (req *Request) WantsJSON() bool {
	return strings.Contains(req.Header("Accept"), "application/json")
}

// ── Body ─────────────────────────────────────────────────────────────────────

// Body reads up to MaxBodySize bytes of the body once; later calls return
// the same bytes.
func (req *Request) Body() ([]byte, error) {
	if req.read {
		return req.body, req.bodyErr
	}
	req.read = true
	if req.raw.Body == nil {
		return nil, nil
	}
	defer req.raw.Body.Close()
	req.body, req.bodyErr = io.ReadAll(io.LimitReader(req.raw.Body, MaxBodySize))
	return req.body, req.bodyErr
}

// Bind decodes the body into v. JSON bodies are decoded as they are; form
// bodies map onto v through its json tags, with every value a string.
func (req *Request) Bind(v any) error {
	var data []byte
	if req.IsJSON() {
		body, err := req.Body()
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return fmt.Errorf("%w: empty body", ErrMalformedBody)
		}
		data = body
	} else {
		b, err := json.Marshal(req.All())
		if err != nil {
			return err
		}
		data = b
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// ── Input ────────────────────────────────────────────────────────────────────

// Input returns a query or form value, or fallback when it is empty.
func (req *Request) Input(key string, fallback ...string) string {
	_ = req.raw.ParseForm()
	return orFallback(req.raw.FormValue(key), fallback)
}

// Query returns a query-string value, or fallback when it is empty.
func (req *Request) Query(key string, fallback ...string) string {
	return orFallback(req.raw.URL.Query().Get(key), fallback)
}

// All returns the first value of every query and form field.
func (req *Request) All() map[string]string {
	_ = req.raw.ParseForm()
	out := make(map[string]string, len(req.raw.Form))
	for k, v := range req.raw.Form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has reports whether key has a non-empty value.
func (req *Request) Has(key string) bool { return req.Input(key) != "" }

// Validate checks All() against rules.
func (req *Request) Validate(rules validation.Rules) *validation.Errors {
	return validation.Check(req.All(), rules)
}

func orFallback(v string, fallback []string) string {
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}
