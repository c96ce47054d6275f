// Package notify holds short-lived user-facing messages and hands them to a [Renderer].
//
// Records auto-expire after their duration; a duration of 0 keeps them until removed.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/shared"
)

// DefaultDuration applies to the severity helpers.
const DefaultDuration = 5 * time.Second

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is one message.
type Notification struct {
	ID              string   `json:"id"`
	Severity        Severity `json:"severity"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	CreatedAtMillis int64    `json:"createdAtMillis"`
	DurationMillis  int64    `json:"durationMillis"`
}

// Renderer displays and withdraws notifications.
type Renderer interface {
	Render(n Notification)
	Dismiss(id string)
}

type Options struct {
	// DefaultDuration is used by Success, Error, Warning and Info. Zero means [DefaultDuration].
	DefaultDuration time.Duration
	Logger          *log.Logger
}

type record struct {
	n     Notification
	timer *time.Timer
}

// Broadcaster owns the live notifications of a session.
type Broadcaster struct {
	renderer Renderer
	duration time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

// New returns a broadcaster rendering through r. A nil r renders nothing.
func New(r Renderer, opts Options) *Broadcaster {
	if r == nil {
		r = Renderers{}
	}
	d := opts.DefaultDuration
	if d <= 0 {
		d = DefaultDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &Broadcaster{
		renderer: r,
		duration: d,
		logger:   logger,
		now:      time.Now,
		records:  make(map[string]*record),
	}
}

// Show renders a notification and returns its id without blocking.
// A positive duration schedules removal; zero keeps it until [Broadcaster.Remove].
func (b *Broadcaster) Show(severity Severity, title, message string, duration time.Duration) string {
	now := b.now()
	n := Notification{
		ID:              shared.GenerateTimestampedID(now),
		Severity:        severity,
		Title:           title,
		Message:         message,
		CreatedAtMillis: now.UnixMilli(),
		DurationMillis:  max(duration, 0).Milliseconds(),
	}

	rec := &record{n: n}
	b.mu.Lock()
	b.records[n.ID] = rec
	b.mu.Unlock()

	b.logger.Debug("notification shown", "id", n.ID, "severity", severity, "title", title)
	b.renderer.Render(n)

	// The timer starts after Render so a renderer never sees Dismiss before Render.
	if duration > 0 {
		b.mu.Lock()
		if b.records[n.ID] == rec {
			rec.timer = time.AfterFunc(duration, func() { b.Remove(n.ID) })
		}
		b.mu.Unlock()
	}
	return n.ID
}

// Success, Error, Warning and Info show with the default duration unless one is given.
func (b *Broadcaster) Success(title, message string, duration ...time.Duration) string {
	return b.Show(SeveritySuccess, title, message, b.durationOr(duration))
}

func (b *Broadcaster) Error(title, message string, duration ...time.Duration) string {
	return b.Show(SeverityError, title, message, b.durationOr(duration))
}

func (b *Broadcaster) Warning(title, message string, duration ...time.Duration) string {
	return b.Show(SeverityWarning, title, message, b.durationOr(duration))
}

func (b *Broadcaster) Info(title, message string, duration ...time.Duration) string {
	return b.Show(SeverityInfo, title, message, b.durationOr(duration))
}

func (b *Broadcaster) durationOr(d []time.Duration) time.Duration {
	if len(d) > 0 {
		return d[0]
	}
	return b.duration
}

// Get returns the live notification with id.
func (b *Broadcaster) Get(id string) (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[id]
	if !ok {
		return Notification{}, false
	}
	return rec.n, true
}

// List returns live notifications, oldest first.
func (b *Broadcaster) List() []Notification {
	b.mu.Lock()
	out := make([]Notification, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, rec.n)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtMillis != out[j].CreatedAtMillis {
			return out[i].CreatedAtMillis < out[j].CreatedAtMillis
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove withdraws a notification. Unknown ids are ignored.
func (b *Broadcaster) Remove(id string) {
	b.mu.Lock()
	rec, ok := b.records[id]
	if ok {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(b.records, id)
	}
	b.mu.Unlock()

	if ok {
		b.renderer.Dismiss(id)
	}
}

// Clear withdraws everything.
func (b *Broadcaster) Clear() {
	b.mu.Lock()
	ids := make([]string, 0, len(b.records))
	for id, rec := range b.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		ids = append(ids, id)
	}
	clear(b.records)
	b.mu.Unlock()

	for _, id := range ids {
		b.renderer.Dismiss(id)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
