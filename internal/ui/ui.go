package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytplay/internal/app"
	"github.com/desertthunder/ytplay/internal/events"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/notify"
	"github.com/desertthunder/ytplay/internal/playback"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/lo"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	QueueView
)

const (
	seekStep    = 5.0
	volumeStep  = 0.05
	widthStep   = 25
	columnWidth = 10 // side panel pixels per terminal column
	eventBuffer = 128
	maxToasts   = 3
)

var forwardedEvents = []string{
	playback.EventPlay,
	playback.EventPause,
	playback.EventStop,
	playback.EventSongEnd,
	playback.EventPlaybackError,
	playback.EventTimeUpdate,
	playback.EventVolumeChange,
	playback.EventPlaylistChange,
}

// Model represents the player state. It renders the coordinators and forwards keys to them.
type Model struct {
	ctx    context.Context
	app    *app.App
	view   ViewState
	width  int
	height int

	playlistList list.Model
	trackList    list.Model
	playlist     *models.Playlist
	restore      bool

	events        chan playbackMsg
	listeners     map[string]events.ListenerID
	notifications <-chan notify.Event
	toasts        []notify.Notification

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a player over a. notifications may be nil.
// With restore set, Init resumes the playlist and song stored in settings.
func NewModel(ctx context.Context, a *app.App, notifications <-chan notify.Event, restore bool) *Model {
	m := &Model{
		ctx:           ctx,
		app:           a,
		view:          LibraryView,
		restore:       restore,
		events:        make(chan playbackMsg, eventBuffer),
		listeners:     make(map[string]events.ListenerID),
		notifications: notifications,
		help:          help.New(),
		keys:          newKeyMap(),
		playlistList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
	}
	m.playlistList.Title = "Library"
	m.trackList.Title = "Queue"

	for _, name := range forwardedEvents {
		m.listeners[name] = a.Playback.On(name, func(payload any) {
			select {
			case m.events <- playbackMsg{name: name, payload: payload}:
			default:
			}
		})
	}
	return m
}

// Close detaches the model from the playback bus.
func (m *Model) Close() {
	for name, id := range m.listeners {
		m.app.Playback.Off(name, id)
	}
	clear(m.listeners)
}

// Init fetches the library and starts listening for coordinator events.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchPlaylists(), m.waitForPlayback(), m.waitForNotification()}
	if m.restore {
		cmds = append(cmds, m.restoreSession())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.filtering() {
			return m.updateLists(msg)
		}
		if cmd, handled := m.handleTransportKeys(msg); handled {
			return m, cmd
		}
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case QueueView:
			return m.handleQueueKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := lo.Map(msg.playlists, func(p models.Playlist, _ int) list.Item { return playlistItem{playlist: p} })
		cmd := m.playlistList.SetItems(items)
		return m, cmd

	case playlistLoadedMsg:
		if msg.err != nil {
			m.app.Notifications.Error("Playlist unavailable", msg.err.Error())
			return m, nil
		}
		m.playlist = msg.playlist
		m.trackList.Title = msg.playlist.Title
		m.refreshQueue()
		m.view = QueueView
		return m, nil

	case restoredMsg:
		if msg.err != nil {
			m.app.Logger.Warn("session restore failed", "error", msg.err)
			return m, nil
		}
		m.view = QueueView
		m.refreshQueue()
		return m, nil

	case playResultMsg:
		switch {
		case errors.Is(msg.err, shared.ErrNothingToPlay):
			m.app.Notifications.Info("Nothing to play", "Pick a playlist first")
		case msg.err != nil:
			// Start failures already reach the user as a playback error notification.
			m.app.Logger.Debug("play request ended", "error", msg.err)
		}
		return m, nil

	case playbackMsg:
		switch msg.name {
		case playback.EventPlay, playback.EventStop, playback.EventPlaylistChange:
			m.refreshQueue()
		}
		return m, m.waitForPlayback()

	case notificationMsg:
		m.applyNotification(notify.Event(msg))
		return m, m.waitForNotification()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var main string
	switch m.view {
	case LibraryView:
		main = m.playlistList.View()
	case QueueView:
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.trackList.View(), m.renderSidePanel())
	}

	sections := []string{main, m.renderNowPlaying()}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, m.help.ShortHelpView(m.helpKeys()))
	return strings.Join(sections, "\n")
}

func (m *Model) filtering() bool {
	switch m.view {
	case LibraryView:
		return m.playlistList.FilterState() == list.Filtering
	case QueueView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

// handleTransportKeys handles the keys that work in every view.
func (m *Model) handleTransportKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	pb := m.app.Playback
	st := m.app.Settings

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.toggle):
		return m.async(pb.TogglePlay), true
	case key.Matches(msg, m.keys.next):
		return m.async(pb.Next), true
	case key.Matches(msg, m.keys.previous):
		return m.async(pb.Previous), true
	case key.Matches(msg, m.keys.stop):
		pb.Stop()
		return nil, true
	case key.Matches(msg, m.keys.forward):
		pb.Seek(pb.State().Position + seekStep)
		return nil, true
	case key.Matches(msg, m.keys.rewind):
		pb.Seek(pb.State().Position - seekStep)
		return nil, true
	case key.Matches(msg, m.keys.louder):
		pb.SetVolume(pb.State().Volume + volumeStep)
		return nil, true
	case key.Matches(msg, m.keys.quieter):
		pb.SetVolume(pb.State().Volume - volumeStep)
		return nil, true
	case key.Matches(msg, m.keys.repeat):
		mode := st.CycleRepeatMode()
		m.app.Notifications.Info("Repeat", string(mode))
		return nil, true
	case key.Matches(msg, m.keys.tab):
		st.SetActiveTab(lo.Ternary(st.State().ActiveTab == models.TabInfo, models.TabLyrics, models.TabInfo))
		return nil, true
	case key.Matches(msg, m.keys.wider):
		st.SetSidebarSplit(st.State().SidePanelWidth + widthStep)
		m.resize()
		return nil, true
	case key.Matches(msg, m.keys.narrower):
		st.SetSidebarSplit(max(widthStep, st.State().SidePanelWidth-widthStep))
		m.resize()
		return nil, true
	}
	return nil, false
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.loadPlaylist(pl.playlist.ID)
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.back) && m.playlist != nil {
		m.view = QueueView
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = LibraryView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		index := m.trackList.Index()
		return m, m.async(func(ctx context.Context) error { return m.app.PlayIndex(ctx, index) })
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case QueueView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// refreshQueue redraws the queue from the coordinator, keeping the cursor.
func (m *Model) refreshQueue() {
	state := m.app.Playback.State()
	cursor := m.trackList.Index()
	m.trackList.SetItems(trackItems(state.Playlist, state.CurrentIndex))
	if cursor < len(state.Playlist) {
		m.trackList.Select(cursor)
	}
}

func (m *Model) applyNotification(ev notify.Event) {
	if ev.Dismissed {
		m.toasts = lo.Filter(m.toasts, func(n notify.Notification, _ int) bool { return n.ID != ev.Notification.ID })
		return
	}
	m.toasts = append(m.toasts, ev.Notification)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

// panelColumns converts the stored pixel width into terminal columns, leaving room for the queue.
func (m *Model) panelColumns() int {
	cols := m.app.Settings.State().SidePanelWidth / columnWidth
	upper := max(20, m.width/2)
	return lo.Clamp(cols, 20, upper)
}

func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	listHeight := max(5, m.height-8)
	m.playlistList.SetSize(m.width-4, listHeight)
	m.trackList.SetSize(max(20, m.width-m.panelColumns()-6), listHeight)
}

func (m *Model) async(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return playResultMsg{err: fn(m.ctx)}
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.app.Catalog.LibraryPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) loadPlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.app.LoadPlaylist(m.ctx, id)
		return playlistLoadedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) restoreSession() tea.Cmd {
	return func() tea.Msg {
		resumed, err := m.app.Restore(m.ctx)
		return restoredMsg{resumed: resumed, err: err}
	}
}

func (m *Model) waitForPlayback() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	if m.notifications == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev, ok := <-m.notifications:
			if !ok {
				return nil
			}
			return notificationMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) helpKeys() []key.Binding {
	switch m.view {
	case LibraryView:
		return []key.Binding{m.keys.enter, m.keys.toggle, m.keys.next, m.keys.quit}
	default:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.toggle, m.keys.repeat, m.keys.tab, m.keys.quit}
	}
}

func (m *Model) renderSidePanel() string {
	s := m.app.Settings.State()
	track := m.app.Playback.State().CurrentTrack

	tabs := lo.Map([]models.Tab{models.TabInfo, models.TabLyrics}, func(t models.Tab, _ int) string {
		if t == s.ActiveTab {
			return styles.ok.Render(string(t))
		}
		return styles.help.Render(string(t))
	})

	var body string
	switch {
	case track.ID == "":
		body = styles.help.Render("Nothing loaded")
	case s.ActiveTab == models.TabLyrics:
		body = styles.help.Render("Lyrics are not available for this track")
	default:
		body = strings.Join([]string{
			styles.title.Render(track.Title),
			track.PrimaryArtistName,
			track.AlbumName,
			lo.CoalesceOrEmpty(track.DurationLabel, "?:??"),
		}, "\n")
	}

	content := strings.Join(tabs, " | ") + "\n\n" + body
	return styles.panel.Width(m.panelColumns()).Render(content)
}

func (m *Model) renderNowPlaying() string {
	state := m.app.Playback.State()
	repeat := m.app.Settings.RepeatMode()

	if !state.HasTrack() {
		return styles.bar.Render(styles.help.Render("Stopped") + "  " + repeatLabel(repeat))
	}

	// Until the stream reports a duration, use the catalog's label.
	duration := state.Duration
	if duration <= 0 {
		duration = float64(shared.ParseDurationLabel(state.CurrentTrack.DurationLabel))
	}

	icon := lo.Ternary(state.IsPlaying, "▶", "⏸")
	line := fmt.Sprintf("%s %s  %s  %s / %s  vol %d%%  %s",
		icon,
		state.CurrentTrack.Label(),
		progressBar(state.Position, duration, 20),
		formatClock(state.Position),
		formatClock(duration),
		int(math.Round(state.Volume*100)),
		repeatLabel(repeat),
	)
	if state.RecoveryPending {
		line += "  " + styles.warn.Render("skipping…")
	}
	return styles.bar.Render(line)
}

func (m *Model) renderToasts() string {
	lines := lo.Map(m.toasts, func(n notify.Notification, _ int) string {
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		return styles.severity(n.Severity).Render(text)
	})
	return strings.Join(lines, "\n")
}

func repeatLabel(mode models.RepeatMode) string {
	switch mode {
	case models.RepeatOne:
		return "repeat: one"
	case models.RepeatAll:
		return "repeat: all"
	default:
		return "repeat: off"
	}
}

// formatClock renders seconds as m:ss; unknown or negative values render as 0:00.
func formatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	return shared.FormatDuration(int(seconds))
}

func progressBar(position, duration float64, width int) string {
	filled := 0
	if duration > 0 && !math.IsNaN(position) {
		filled = int(lo.Clamp(position/duration, 0, 1) * float64(width))
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// Run starts the player and blocks until the user quits.
func Run(ctx context.Context, a *app.App, notifications <-chan notify.Event, restore bool) error {
	m := NewModel(ctx, a, notifications, restore)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("player exited: %w", err)
	}
	return nil
}
