package di_test

import (
	"errors"
	"sync/atomic"

	"github.com/km-arc/galanthus/framework/di"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Logger interface {
	Log(msg string) string
}

type FileLogger struct{ Path string }

func NewFileLogger(path string) *FileLogger { return &FileLogger{Path: path} }
func (l *FileLogger) Log(msg string) string { return l.Path + ": " + msg }

type ConsoleLogger struct{ Prefix string }

func NewConsoleLogger() *ConsoleLogger         { return &ConsoleLogger{Prefix: "console"} }
func (l *ConsoleLogger) Log(msg string) string { return l.Prefix + ": " + msg }

// TimestampLogger wraps another Logger.
type TimestampLogger struct{ Inner Logger }

func NewTimestampLogger(inner Logger) *TimestampLogger { return &TimestampLogger{Inner: inner} }
func (l *TimestampLogger) Log(msg string) string       { return "[ts] " + l.Inner.Log(msg) }

type Service struct{ Logger Logger }

func NewService(logger Logger) *Service { return &Service{Logger: logger} }

type Cache struct {
	TTL  int
	Tags []string
}

func NewCache(ttl int, tags []string) *Cache { return &Cache{TTL: ttl, Tags: tags} }

// Notifier is satisfied by types accepting a logger through a setter.
type Notifier interface {
	SetLogger(l Logger)
}

type Mailer struct {
	Logger Logger
	From   string
}

func NewMailer() *Mailer                { return &Mailer{} }
func (m *Mailer) SetLogger(l Logger)    { m.Logger = l }
func (m *Mailer) SetFrom(from string)   { m.From = from }
func (m *Mailer) Send(to string) string { return m.From + " -> " + to }

type Left struct{ Right *Right }
type Right struct{ Left *Left }

func NewLeft(r *Right) *Left  { return &Left{Right: r} }
func NewRight(l *Left) *Right { return &Right{Left: l} }

// Upstream and Downstream need each other, each behind a Gate.
type Upstream struct{ Down *Downstream }
type Downstream struct{ Up *Upstream }

func NewUpstream(_ *Gate, d *Downstream) *Upstream   { return &Upstream{Down: d} }
func NewDownstream(_ *Gate, u *Upstream) *Downstream { return &Downstream{Up: u} }

type Gate struct{}

// gateBarrier builds Gates, holding the first two constructions until both
// have started.
type gateBarrier struct {
	arrived atomic.Int32
	open    chan struct{}
}

func newGateBarrier() *gateBarrier { return &gateBarrier{open: make(chan struct{})} }

func (b *gateBarrier) NewGate() *Gate {
	if b.arrived.Add(1) == 2 {
		close(b.open)
	}
	<-b.open
	return &Gate{}
}

var errBroken = errors.New("broken")

type Broken struct{}

func NewBroken() (*Broken, error) { return nil, errBroken }

var (
	loggerID  = di.TypeOf[Logger]()
	fileID    = di.TypeOf[*FileLogger]()
	consoleID = di.TypeOf[*ConsoleLogger]()
	tsID      = di.TypeOf[*TimestampLogger]()
	serviceID = di.TypeOf[*Service]()
	cacheID   = di.TypeOf[*Cache]()
	mailerID  = di.TypeOf[*Mailer]()

	upstreamID   = di.TypeOf[*Upstream]()
	downstreamID = di.TypeOf[*Downstream]()
)

// newLoggers returns a container with Logger and both implementations.
func newLoggers() *di.Container {
	c := di.New()
	di.RegisterInterface[Logger](c)
	c.MustRegister(NewFileLogger, di.Params("path"))
	c.MustRegister(NewConsoleLogger)
	c.MustRegister(NewService, di.Params("logger"))
	return c
}
