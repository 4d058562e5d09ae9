// Package telemetry records what the hunt controller saw and decided. Events
// go to the structured logger and, when a sink is configured, to compressed
// JSONL files that `huntbot telemetry cat` can decode.
package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultInterval = 10 * time.Second

type Kind string

const (
	KindSnapshot   Kind = "snapshot"
	KindTransition Kind = "transition"
	KindFault      Kind = "fault"
)

type Snapshot struct {
	State      string    `json:"state"`
	StateSince time.Time `json:"state_since"`
	HostMode   string    `json:"host_mode"`
	Filter     string    `json:"filter"`
	FarmTool   string    `json:"farm_tool,omitempty"`

	Tokens         int64 `json:"tokens"`
	SafariCurrency int64 `json:"safari_currency"`

	Encounter string `json:"encounter,omitempty"`
	Shiny     bool   `json:"shiny,omitempty"`
	Catching  bool   `json:"catching,omitempty"`

	Route string `json:"route,omitempty"`
	Town  string `json:"town,omitempty"`

	TargetRun   string `json:"target_run,omitempty"`
	TargetRoute string `json:"target_route,omitempty"`
	FarmRoute   string `json:"farm_route,omitempty"`
}

type Event struct {
	Kind    Kind      `json:"kind"`
	Session string    `json:"session"`
	At      time.Time `json:"at"`

	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`

	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`

	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Sink persists events. *JSONLZstdWriter satisfies it.
type Sink interface {
	Write(ev Event) error
	Close() error
}

// Limiter lets one event through per interval.
type Limiter struct {
	interval time.Duration
	last     time.Time
}

func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

func (l *Limiter) Allow(now time.Time) bool {
	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return false
	}
	l.last = now
	return true
}

func (l *Limiter) Reset() { l.last = time.Time{} }

type Recorder struct {
	session string
	log     *zap.Logger
	sink    Sink

	mu      sync.Mutex
	limiter *Limiter
}

// NewRecorder builds a recorder with a fresh session id. sink may be nil.
func NewRecorder(log *zap.Logger, sink Sink, interval time.Duration) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Recorder{
		session: uuid.NewString(),
		log:     log,
		sink:    sink,
		limiter: NewLimiter(interval),
	}
}

func (r *Recorder) Session() string { return r.session }

// Snapshot records s unless another snapshot was recorded within the interval.
func (r *Recorder) Snapshot(now time.Time, s Snapshot) bool {
	r.mu.Lock()
	ok := r.limiter.Allow(now)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.log.Info("hunt snapshot",
		zap.String("state", s.State),
		zap.Time("state_since", s.StateSince),
		zap.String("host_mode", s.HostMode),
		zap.String("filter", s.Filter),
		zap.Int64("tokens", s.Tokens),
		zap.Int64("safari_currency", s.SafariCurrency),
		zap.String("encounter", s.Encounter),
		zap.Bool("shiny", s.Shiny),
		zap.String("route", s.Route),
		zap.String("town", s.Town),
		zap.String("target_run", s.TargetRun),
		zap.String("target_route", s.TargetRoute),
		zap.String("farm_route", s.FarmRoute),
	)
	r.write(Event{Kind: KindSnapshot, At: now, Snapshot: &s})
	return true
}

// Transition is always recorded.
func (r *Recorder) Transition(now time.Time, from, to, reason string, s Snapshot) {
	r.log.Info("hunt transition",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason),
		zap.Int64("tokens", s.Tokens),
		zap.Int64("safari_currency", s.SafariCurrency),
	)
	r.write(Event{Kind: KindTransition, At: now, From: from, To: to, Reason: reason, Snapshot: &s})
}

func (r *Recorder) Fault(now time.Time, target string, err error) {
	r.log.Warn("completion query failed", zap.String("target", target), zap.Error(err))
	r.write(Event{Kind: KindFault, At: now, Target: target, Error: err.Error()})
}

// Reset lets the next snapshot through immediately.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.limiter.Reset()
	r.mu.Unlock()
}

func (r *Recorder) Close() error {
	if r.sink == nil {
		return nil
	}
	return r.sink.Close()
}

func (r *Recorder) write(ev Event) {
	if r.sink == nil {
		return
	}
	ev.Session = r.session
	if err := r.sink.Write(ev); err != nil {
		r.log.Warn("telemetry sink write failed", zap.Error(err))
	}
}
