package notify

import (
	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"
)

// Renderers fans out to every renderer in order.
type Renderers []Renderer

func (rs Renderers) Render(n Notification) {
	for _, r := range rs {
		r.Render(n)
	}
}

func (rs Renderers) Dismiss(id string) {
	for _, r := range rs {
		r.Dismiss(id)
	}
}

// LogRenderer writes notifications to a logger at a level matching their severity.
type LogRenderer struct {
	Logger *log.Logger
}

func (r LogRenderer) Render(n Notification) {
	kv := []any{"id", n.ID, "title", n.Title, "message", n.Message}
	switch n.Severity {
	case SeverityError:
		r.Logger.Error("notification", kv...)
	case SeverityWarning:
		r.Logger.Warn("notification", kv...)
	default:
		r.Logger.Info("notification", kv...)
	}
}

func (r LogRenderer) Dismiss(id string) {
	r.Logger.Debug("notification dismissed", "id", id)
}

// DesktopRenderer raises OS notifications. Errors use an alert with sound.
// Desktop notifications cannot be withdrawn, so Dismiss does nothing.
type DesktopRenderer struct {
	Logger *log.Logger
}

func NewDesktopRenderer(appName string, logger *log.Logger) DesktopRenderer {
	if appName != "" {
		beeep.AppName = appName
	}
	return DesktopRenderer{Logger: logger}
}

func (r DesktopRenderer) Render(n Notification) {
	notify := beeep.Notify
	if n.Severity == SeverityError {
		notify = beeep.Alert
	}
	if err := notify(n.Title, n.Message, ""); err != nil && r.Logger != nil {
		r.Logger.Warn("desktop notification failed", "id", n.ID, "error", err)
	}
}

func (DesktopRenderer) Dismiss(string) {}

// Event is what [ChannelRenderer] delivers.
type Event struct {
	Notification Notification
	Dismissed    bool
}

// ChannelRenderer forwards to a buffered channel, dropping events when the reader falls behind.
type ChannelRenderer struct {
	C chan Event
}

func NewChannelRenderer(size int) ChannelRenderer {
	return ChannelRenderer{C: make(chan Event, size)}
}

func (r ChannelRenderer) Render(n Notification) {
	select {
	case r.C <- Event{Notification: n}:
	default:
	}
}

func (r ChannelRenderer) Dismiss(id string) {
	select {
	case r.C <- Event{Notification: Notification{ID: id}, Dismissed: true}:
	default:
	}
}
