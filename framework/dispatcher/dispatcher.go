// Package dispatcher maps /{controller}/{action} requests onto controllers
// created by the container.
package dispatcher

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/broker"
	"github.com/km-arc/galanthus/framework/controller"
	"github.com/km-arc/galanthus/framework/di"
	gohttp "github.com/km-arc/galanthus/framework/http"
	"github.com/km-arc/galanthus/framework/metrics"
	"github.com/km-arc/galanthus/framework/routing"
)

// DefaultRoot is the controller dispatched for "/".
const DefaultRoot = "root"

// RequestIDHeader carries the id assigned to each dispatched request.
const RequestIDHeader = "X-Request-Id"

var ErrControllerNotFound = errors.New("dispatcher: controller not found")

// Dispatcher creates the controller named by the route, a fresh Response
// configured in the container, executes the controller and outputs the
// response.
//
//	/                -> root, action index
//	/cities          -> cities, action index
//	/cities/show     -> cities, action show
type Dispatcher struct {
	container  *di.Container
	helpers    *broker.HelperBroker
	namespaces []string
	root       string

	log     *zap.Logger
	metrics *metrics.Collector
}

// New creates a Dispatcher looking controllers up in namespaces. helpers is
// handed to controllers that accept one. An empty root means DefaultRoot.
func New(container *di.Container, helpers *broker.HelperBroker, namespaces []string, root string) *Dispatcher {
	if root == "" {
		root = DefaultRoot
	}
	return &Dispatcher{
		container:  container,
		helpers:    helpers,
		namespaces: append([]string(nil), namespaces...),
		root:       root,
		log:        zap.NewNop(),
	}
}

func (d *Dispatcher) SetLogger(log *zap.Logger) {
	if log != nil {
		d.log = log
	}
}

func (d *Dispatcher) SetMetrics(m *metrics.Collector) { d.metrics = m }

func (d *Dispatcher) Root() string { return d.root }

// Mount registers the dispatch routes on r.
func (d *Dispatcher) Mount(r *routing.Router) {
	r.Handle("/", d)
	r.Handle("/{controller}", d)
	r.Handle("/{controller}/{action}", d)
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

// Controller creates the controller called name.
func (d *Dispatcher) Controller(name string) (controller.Controller, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrControllerNotFound, name)
	}
	id, ok := broker.Lookup(d.container.Repository(), d.namespaces, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrControllerNotFound, name)
	}
	v, err := d.container.Create(id)
	if err != nil {
		return nil, err
	}
	ctrl, ok := v.(controller.Controller)
	if !ok {
		return nil, fmt.Errorf("dispatcher: %s is not a controller", id)
	}
	if h, ok := v.(interface{ SetHelpers(*broker.HelperBroker) }); ok && d.helpers != nil {
		h.SetHelpers(d.helpers)
	}
	return ctrl, nil
}

// Dispatch executes the controller for req and returns its response. The
// response script defaults to "controller/action".
func (d *Dispatcher) Dispatch(req *gohttp.Request) (*gohttp.Response, error) {
	name := d.controllerName(req)
	ctrl, err := d.Controller(name)
	if err != nil {
		return nil, err
	}
	res, err := di.ResolveType[*gohttp.Response](d.container)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: response: %w", err)
	}
	res.SetScript(name + "/" + req.Action())
	if err := ctrl.Execute(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ServeHTTP dispatches and outputs. Unknown controllers are 404, any other
// failure is 500.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	r = r.WithContext(gohttp.WithRequestID(r.Context(), id))
	w.Header().Set(RequestIDHeader, id)

	req := gohttp.NewRequest(r)
	name := d.controllerName(req)

	status, err := d.serve(w, req)
	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, ErrControllerNotFound) {
			status = http.StatusNotFound
			name = "unknown"
		} else {
			d.log.Error("dispatch failed",
				zap.String("request_id", id),
				zap.String("controller", name),
				zap.String("action", req.Action()),
				zap.Error(err),
			)
		}
		http.Error(w, http.StatusText(status), status)
	}
	if d.metrics != nil {
		d.metrics.ObserveRequest(name, status)
	}
}

func (d *Dispatcher) serve(w http.ResponseWriter, req *gohttp.Request) (int, error) {
	res, err := d.Dispatch(req)
	if err != nil {
		return 0, err
	}
	if err := res.Output(w); err != nil {
		return 0, err
	}
	return res.Status(), nil
}

func (d *Dispatcher) controllerName(req *gohttp.Request) string {
	if name := req.Controller(); name != "" {
		return name
	}
	return d.root
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
