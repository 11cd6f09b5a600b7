package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logf is the package-level diagnostic logger used by the command mains.
// It defaults to log.Printf and may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogWriters holds the io.Writers for each logging stream. A nil writer
// disables that stream.
type LogWriters struct {
	Ops   io.Writer // lifecycle events, skipped items, warnings
	Diag  io.Writer // per-polygon and per-tile diagnostics
	Trace io.Writer // per-cluster and per-segment detail
}

// DefaultLogWriters sends ops to stderr and silences diag and trace.
func DefaultLogWriters() LogWriters {
	return LogWriters{Ops: os.Stderr}
}

// LevelWriters routes streams up to level ("ops", "diag" or "trace") to w
// and silences the rest. "quiet" silences everything.
func LevelWriters(w io.Writer, level string) (LogWriters, error) {
	switch strings.ToLower(level) {
	case "quiet":
		return LogWriters{}, nil
	case "", "ops":
		return LogWriters{Ops: w}, nil
	case "diag":
		return LogWriters{Ops: w, Diag: w}, nil
	case "trace":
		return LogWriters{Ops: w, Diag: w, Trace: w}, nil
	}
	return LogWriters{}, fmt.Errorf("unknown log level %q", level)
}

// Streams is a component-scoped set of ops/diag/trace loggers. Packages
// create one with NewStreams at init time and log through it.
type Streams struct {
	prefix string

	mu    sync.RWMutex
	ops   *log.Logger
	diag  *log.Logger
	trace *log.Logger
}

var (
	registryMu sync.Mutex
	registry   []*Streams
	current    = DefaultLogWriters()
)

// NewStreams registers a stream set whose lines are prefixed with
// "[component] ". It starts with the writers from the last SetLogWriters
// call.
func NewStreams(component string) *Streams {
	s := &Streams{prefix: "[" + component + "] "}
	registryMu.Lock()
	registry = append(registry, s)
	w := current
	registryMu.Unlock()
	s.SetWriters(w)
	return s
}

// SetLogWriters reconfigures every registered stream set.
func SetLogWriters(w LogWriters) {
	registryMu.Lock()
	current = w
	all := append([]*Streams(nil), registry...)
	registryMu.Unlock()
	for _, s := range all {
		s.SetWriters(w)
	}
}

// SetWriters reconfigures this stream set only.
func (s *Streams) SetWriters(w LogWriters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = newLogger(s.prefix, w.Ops)
	s.diag = newLogger(s.prefix, w.Diag)
	s.trace = newLogger(s.prefix, w.Trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func (s *Streams) Opsf(format string, args ...interface{}) {
	s.mu.RLock()
	l := s.ops
	s.mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Diagf logs to the diag stream.
func (s *Streams) Diagf(format string, args ...interface{}) {
	s.mu.RLock()
	l := s.diag
	s.mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func (s *Streams) Tracef(format string, args ...interface{}) {
	s.mu.RLock()
	l := s.trace
	s.mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
