package ui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/notify"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	tu "github.com/desertthunder/ytplay/internal/testing"
)

var queue = &models.Playlist{
	ID:    "PL1",
	Title: "Road Trip",
	Tracks: []models.Track{
		{ID: "s1", Title: "One", PrimaryArtistName: "A", DurationLabel: "3:00"},
		{ID: "s2", Title: "Two", PrimaryArtistName: "B"},
	},
	TrackCount: 2,
}

type stubCatalog struct{}

func (stubCatalog) Search(context.Context, string, string) ([]models.Track, error) { return nil, nil }

func (stubCatalog) GetPlaylist(context.Context, string) (*models.Playlist, error) { return queue, nil }

func (stubCatalog) LibraryPlaylists(context.Context) ([]models.Playlist, error) {
	return []models.Playlist{{ID: queue.ID, Title: queue.Title, TrackCount: 2}}, nil
}

func (stubCatalog) StreamURL(id string) string { return "mem://" + id }

func (stubCatalog) OpenStream(context.Context, string) (*services.Stream, error) {
	return nil, shared.ErrStreamFailed
}

func newTestModel(t *testing.T) (*Model, *app.App) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, ":memory:", 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := shared.DefaultConfig()
	cfg.Storage.Driver = "memory"
	cfg.Settings.AutosaveIntervalMS = 0

	a, err := app.New(context.Background(), app.Options{
		Config:  cfg,
		Logger:  shared.NewLogger(io.Discard),
		DB:      db,
		Catalog: stubCatalog{},
		Engine:  tu.NewFakeEngine(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	m := NewModel(context.Background(), a, nil, false)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("library listing", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(playlistsFetchedMsg{playlists: []models.Playlist{{ID: "PL1", Title: "Road Trip"}}})

		if got := len(m.playlistList.Items()); got != 1 {
			t.Fatalf("expected 1 playlist item, got %d", got)
		}
		if !strings.Contains(m.View(), "Road Trip") {
			t.Error("expected playlist title in view")
		}
	})

	t.Run("enter loads the queue then plays the selection", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(playlistsFetchedMsg{playlists: []models.Playlist{{ID: "PL1", Title: "Road Trip"}}})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Fatal("expected a load command")
		}
		m.Update(cmd())

		if m.view != QueueView {
			t.Fatalf("expected queue view, got %v", m.view)
		}
		if got := a.Settings.State().ActivePlaylistID; got != "PL1" {
			t.Errorf("active playlist = %q", got)
		}

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if msg, ok := cmd().(playResultMsg); !ok || msg.err != nil {
			t.Fatalf("unexpected play result %#v", msg)
		}

		st := a.Playback.State()
		if !st.IsPlaying || st.CurrentIndex != 0 {
			t.Errorf("expected index 0 playing, got %d/%v", st.CurrentIndex, st.IsPlaying)
		}
		if !strings.Contains(m.View(), "A - One") {
			t.Error("expected now-playing label in view")
		}
	})

	t.Run("esc returns to the library", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(playlistLoadedMsg{playlist: queue})
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != LibraryView {
			t.Errorf("expected library view, got %v", m.view)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestTransportKeys(t *testing.T) {
	t.Run("repeat cycles settings", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(runes("r"))
		if got := a.Settings.RepeatMode(); got != models.RepeatOne {
			t.Errorf("repeat = %s, want one", got)
		}
		if !strings.Contains(m.View(), "repeat: one") {
			t.Error("expected repeat label in view")
		}
	})

	t.Run("tab toggles the side panel", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if got := a.Settings.State().ActiveTab; got != models.TabLyrics {
			t.Errorf("tab = %s, want lyrics", got)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if got := a.Settings.State().ActiveTab; got != models.TabInfo {
			t.Errorf("tab = %s, want info", got)
		}
	})

	t.Run("brackets resize the panel", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(runes("]"))
		if got := a.Settings.State().SidePanelWidth; got != 375 {
			t.Errorf("width = %d, want 375", got)
		}
		m.Update(runes("["))
		m.Update(runes("["))
		if got := a.Settings.State().SidePanelWidth; got != 325 {
			t.Errorf("width = %d, want 325", got)
		}
	})

	t.Run("volume keys clamp", func(t *testing.T) {
		m, a := newTestModel(t)
		for range 10 {
			m.Update(runes("+"))
		}
		if got := a.Playback.State().Volume; got != 1 {
			t.Errorf("volume = %v, want 1", got)
		}
	})

	t.Run("space toggles playback", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(playlistLoadedMsg{playlist: queue})
		a.Playback.SetPlaylistSongs(queue.Tracks)
		if err := a.PlayIndex(context.Background(), 1); err != nil {
			t.Fatalf("PlayIndex failed: %v", err)
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
		cmd()
		if a.Playback.State().IsPlaying {
			t.Error("expected paused after toggle")
		}
	})
}

func TestNotifications(t *testing.T) {
	m, _ := newTestModel(t)

	for i, title := range []string{"a", "b", "c", "d"} {
		m.Update(notificationMsg{Notification: notify.Notification{ID: title, Title: title, Severity: notify.SeverityInfo}})
		if len(m.toasts) > maxToasts {
			t.Fatalf("step %d: %d toasts exceed the cap", i, len(m.toasts))
		}
	}
	if m.toasts[0].ID != "b" {
		t.Errorf("expected oldest toast dropped, first is %q", m.toasts[0].ID)
	}

	m.Update(notificationMsg{Notification: notify.Notification{ID: "c"}, Dismissed: true})
	if len(m.toasts) != 2 {
		t.Errorf("expected 2 toasts after dismissal, got %d", len(m.toasts))
	}
}

func TestPlayResult(t *testing.T) {
	t.Run("nothing to play is surfaced", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(playResultMsg{err: shared.ErrNothingToPlay})

		list := a.Notifications.List()
		if len(list) != 1 || list[0].Severity != notify.SeverityInfo {
			t.Errorf("expected one info notification, got %+v", list)
		}
	})

	t.Run("superseded plays stay quiet", func(t *testing.T) {
		m, a := newTestModel(t)
		m.Update(playResultMsg{err: shared.ErrSuperseded})
		if got := len(a.Notifications.List()); got != 0 {
			t.Errorf("expected no notifications, got %d", got)
		}
	})
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{65.9, "1:05"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.seconds); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}

	if got := progressBar(5, 10, 10); got != "━━━━━─────" {
		t.Errorf("progressBar half = %q", got)
	}
	if got := progressBar(5, 0, 4); got != "────" {
		t.Errorf("progressBar unknown duration = %q", got)
	}
}
