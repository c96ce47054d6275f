package notify

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type memRenderer struct {
	mu        sync.Mutex
	rendered  []Notification
	dismissed []string
}

func (m *memRenderer) Render(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered = append(m.rendered, n)
}

func (m *memRenderer) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissed = append(m.dismissed, id)
}

func (m *memRenderer) dismissals() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dismissed)
}

// slowRenderer takes delay to render and logs the order of calls.
type slowRenderer struct {
	delay time.Duration

	mu    sync.Mutex
	calls []string
}

func (s *slowRenderer) Render(Notification) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "render")
}

func (s *slowRenderer) Dismiss(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "dismiss")
}

func (s *slowRenderer) log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestBroadcaster(t *testing.T) {
	t.Run("auto-removes after its duration", func(t *testing.T) {
		r := &memRenderer{}
		b := New(r, Options{})

		id := b.Show(SeverityError, "Oops", "failed", 100*time.Millisecond)
		if _, ok := b.Get(id); !ok {
			t.Fatal("notification missing right after Show")
		}

		time.Sleep(150 * time.Millisecond)
		if _, ok := b.Get(id); ok {
			t.Error("notification still present after 150ms")
		}

		b.Remove(id)
		if got := r.dismissals(); got != 1 {
			t.Errorf("dismissals = %d, want 1", got)
		}
	})

	t.Run("zero duration is sticky", func(t *testing.T) {
		b := New(nil, Options{})
		id := b.Show(SeverityInfo, "Pinned", "", 0)

		time.Sleep(20 * time.Millisecond)
		n, ok := b.Get(id)
		if !ok {
			t.Fatal("sticky notification removed")
		}
		if n.DurationMillis != 0 {
			t.Errorf("DurationMillis = %d, want 0", n.DurationMillis)
		}
	})

	t.Run("remove cancels the timer and unknown ids are ignored", func(t *testing.T) {
		r := &memRenderer{}
		b := New(r, Options{})
		id := b.Show(SeverityWarning, "Soon", "", 30*time.Millisecond)

		b.Remove(id)
		b.Remove("nope")
		time.Sleep(60 * time.Millisecond)

		if got := r.dismissals(); got != 1 {
			t.Errorf("dismissals = %d, want 1", got)
		}
	})

	t.Run("helpers fix severity and default duration", func(t *testing.T) {
		b := New(nil, Options{DefaultDuration: time.Minute})
		tests := []struct {
			show func(string, string, ...time.Duration) string
			want Severity
		}{
			{b.Success, SeveritySuccess},
			{b.Error, SeverityError},
			{b.Warning, SeverityWarning},
			{b.Info, SeverityInfo},
		}
		for _, tt := range tests {
			n, _ := b.Get(tt.show("t", "m"))
			if n.Severity != tt.want {
				t.Errorf("severity = %q, want %q", n.Severity, tt.want)
			}
			if n.DurationMillis != time.Minute.Milliseconds() {
				t.Errorf("DurationMillis = %d, want %d", n.DurationMillis, time.Minute.Milliseconds())
			}
		}
		b.Clear()
	})

	t.Run("helpers accept an explicit duration", func(t *testing.T) {
		b := New(nil, Options{DefaultDuration: time.Minute})

		n, _ := b.Get(b.Error("t", "m", 40*time.Millisecond))
		if n.DurationMillis != 40 {
			t.Errorf("DurationMillis = %d, want 40", n.DurationMillis)
		}
		sticky, _ := b.Get(b.Info("t", "m", 0))
		if sticky.DurationMillis != 0 {
			t.Errorf("DurationMillis = %d, want 0", sticky.DurationMillis)
		}

		time.Sleep(80 * time.Millisecond)
		if _, ok := b.Get(n.ID); ok {
			t.Error("explicit duration was not honored")
		}
		if _, ok := b.Get(sticky.ID); !ok {
			t.Error("zero duration notification was removed")
		}
		b.Clear()
	})

	t.Run("render always precedes dismiss", func(t *testing.T) {
		r := &slowRenderer{delay: 30 * time.Millisecond}
		b := New(r, Options{})

		b.Show(SeverityError, "Fast", "", time.Millisecond)
		time.Sleep(60 * time.Millisecond)

		if got := r.log(); len(got) != 2 || got[0] != "render" || got[1] != "dismiss" {
			t.Errorf("renderer calls = %v, want [render dismiss]", got)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		b := New(nil, Options{})
		seen := make(map[string]bool)
		for range 500 {
			id := b.Show(SeverityInfo, "x", "", 0)
			if seen[id] {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = true
		}
	})

	t.Run("clear removes everything", func(t *testing.T) {
		r := &memRenderer{}
		b := New(r, Options{})
		b.Info("a", "")
		b.Info("b", "")
		b.Show(SeverityInfo, "c", "", 0)

		b.Clear()

		if got := len(b.List()); got != 0 {
			t.Errorf("List() = %d, want 0", got)
		}
		if got := r.dismissals(); got != 3 {
			t.Errorf("dismissals = %d, want 3", got)
		}
	})

	t.Run("list is oldest first", func(t *testing.T) {
		b := New(nil, Options{})
		base := time.UnixMilli(1_700_000_000_000)
		tick := 0
		b.now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		}
		first := b.Show(SeverityInfo, "first", "", 0)
		second := b.Show(SeverityInfo, "second", "", 0)

		list := b.List()
		if len(list) != 2 || list[0].ID != first || list[1].ID != second {
			t.Errorf("List() = %+v", list)
		}
	})
}

func TestRenderers(t *testing.T) {
	t.Run("fan-out reaches every renderer", func(t *testing.T) {
		a, b := &memRenderer{}, &memRenderer{}
		br := New(Renderers{a, b}, Options{})
		id := br.Info("hello", "")
		br.Remove(id)

		if len(a.rendered) != 1 || len(b.rendered) != 1 || a.dismissals() != 1 || b.dismissals() != 1 {
			t.Errorf("a=%d/%d b=%d/%d", len(a.rendered), a.dismissals(), len(b.rendered), b.dismissals())
		}
	})

	t.Run("log renderer uses severity levels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		r := LogRenderer{Logger: logger}

		r.Render(Notification{ID: "1", Severity: SeverityError, Title: "Boom"})
		r.Render(Notification{ID: "2", Severity: SeveritySuccess, Title: "Saved"})

		out := buf.String()
		if !strings.Contains(out, "ERRO") || !strings.Contains(out, "Boom") {
			t.Errorf("missing error line: %q", out)
		}
		if !strings.Contains(out, "INFO") || !strings.Contains(out, "Saved") {
			t.Errorf("missing info line: %q", out)
		}
	})

	t.Run("channel renderer drops when full", func(t *testing.T) {
		r := NewChannelRenderer(1)
		r.Render(Notification{ID: "1"})
		r.Render(Notification{ID: "2"})
		r.Dismiss("1")

		ev := <-r.C
		if ev.Notification.ID != "1" || ev.Dismissed {
			t.Errorf("event = %+v", ev)
		}
		select {
		case ev := <-r.C:
			t.Errorf("unexpected event %+v", ev)
		default:
		}
	})
}
