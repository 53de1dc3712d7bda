package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tmholter/lgbar/internal/protocol"
	"github.com/tmholter/lgbar/internal/soundbar"
	"github.com/tmholter/lgbar/internal/ui"
)

// callTimeout bounds each device round trip issued from the dashboard.
const callTimeout = 5 * time.Second

// Messages for async operations
type deviceEventMsg struct {
	msg protocol.Message
}

type refreshDoneMsg struct {
	state       soundbar.State
	supportedEq []soundbar.Equalizer
	err         error
}

type opDoneMsg struct {
	action string
	err    error
}

type disconnectedMsg struct {
	err error
}

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Mute       key.Binding
	Input      key.Binding
	Sound      key.Binding
	Refresh    key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.VolumeUp, k.VolumeDown, k.Mute, k.Input, k.Sound, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.VolumeUp, k.VolumeDown, k.Mute},
		{k.Input, k.Sound, k.Refresh, k.Quit},
	}
}

func newKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		VolumeUp: key.NewBinding(
			key.WithKeys("up", "+", "="),
			key.WithHelp("↑/+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("↓/-", "volume down"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Input: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "next input"),
		),
		Sound: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sound mode"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel is the single-screen dashboard
type DashboardModel struct {
	Client *soundbar.Client
	Host   string
	Events <-chan protocol.Message

	// Device state
	State       soundbar.State
	SupportedEq []soundbar.Equalizer

	// UI state
	Width      int
	Height     int
	Refreshing bool
	Busy       bool
	LastAction string
	LastError  error
	Closed     bool

	Spinner   spinner.Model
	VolumeBar progress.Model
	Help      help.Model
	Keys      dashboardKeyMap
}

// NewDashboardModel creates a dashboard bound to a connected client.
func NewDashboardModel(client *soundbar.Client, host string, events <-chan protocol.Message) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return DashboardModel{
		Client:     client,
		Host:       host,
		Events:     events,
		Refreshing: true,
		Spinner:    s,
		VolumeBar:  bar,
		Help:       help.New(),
		Keys:       newKeyMap(),
	}
}

// Init kicks off the first refresh and starts listening for pushes.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		refreshCmd(m.Client),
		waitForEvent(m.Events),
		watchDisconnect(m.Client),
	)
}

// Update handles all messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case deviceEventMsg:
		// State absorption already happened in the client; just resync
		// the snapshot and keep listening.
		m.State = m.Client.State()
		return m, waitForEvent(m.Events)

	case refreshDoneMsg:
		m.Refreshing = false
		if msg.err != nil {
			m.LastError = msg.err
			return m, nil
		}
		m.State = msg.state
		if len(msg.supportedEq) > 0 {
			m.SupportedEq = msg.supportedEq
		}
		m.LastError = nil
		return m, nil

	case opDoneMsg:
		m.Busy = false
		m.LastAction = msg.action
		m.LastError = msg.err
		m.State = m.Client.State()
		return m, nil

	case disconnectedMsg:
		m.Closed = true
		m.LastError = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m DashboardModel) handleKey(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(keyMsg, m.Keys.Quit) {
		m.Closed = true
		return m, tea.Quit
	}

	// One device operation at a time keeps the status line honest.
	if m.Busy || m.Refreshing {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.VolumeUp):
		return m.startOp("volume", func(ctx context.Context) error {
			return m.Client.SetVolume(ctx, clampVolume(m.State.Volume+1))
		})

	case key.Matches(keyMsg, m.Keys.VolumeDown):
		return m.startOp("volume", func(ctx context.Context) error {
			return m.Client.SetVolume(ctx, clampVolume(m.State.Volume-1))
		})

	case key.Matches(keyMsg, m.Keys.Mute):
		muted := !m.State.Muted
		return m.startOp("mute", func(ctx context.Context) error {
			return m.Client.SetMute(ctx, muted)
		})

	case key.Matches(keyMsg, m.Keys.Input):
		next := nextFunction(m.State.Function)
		return m.startOp("input", func(ctx context.Context) error {
			return m.Client.SetFunction(ctx, next)
		})

	case key.Matches(keyMsg, m.Keys.Sound):
		next := nextEqualizer(m.State.Equalizer, m.SupportedEq)
		return m.startOp("sound mode", func(ctx context.Context) error {
			return m.Client.SetEqualizer(ctx, next)
		})

	case key.Matches(keyMsg, m.Keys.Refresh):
		m.Refreshing = true
		return m, tea.Batch(m.Spinner.Tick, refreshCmd(m.Client))
	}

	return m, nil
}

func (m DashboardModel) startOp(action string, op func(context.Context) error) (tea.Model, tea.Cmd) {
	m.Busy = true
	m.LastAction = action
	m.LastError = nil
	return m, tea.Batch(m.Spinner.Tick, opCmd(action, op))
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.Closed {
		return ""
	}

	width := m.Width
	if width < ui.MinTerminalWidth {
		width = ui.MinTerminalWidth
	}

	var b strings.Builder

	name := m.State.Name
	if name == "" {
		name = m.Host
	}
	title := ui.TitleStyle.Render(strings.ToUpper(name))
	addr := ui.SubtleStyle.Render(m.Host)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", addr))
	b.WriteString("\n\n")

	percent := float64(m.State.Volume) / float64(soundbar.MaxVolume)
	volumeLine := fmt.Sprintf("%s %s %2d/%d",
		ui.KeyStyle.Render("Volume:"),
		m.VolumeBar.ViewAs(percent),
		m.State.Volume,
		soundbar.MaxVolume,
	)
	b.WriteString(volumeLine)
	b.WriteString("\n")

	b.WriteString(ui.KeyStyle.Render("Mute:") + " " + ui.ValueStyle.Render(ui.FormatMuted(m.State.Muted)))
	b.WriteString("\n")
	b.WriteString(ui.KeyStyle.Render("Input:") + " " + ui.ValueStyle.Render(m.State.Function.String()))
	b.WriteString("\n")
	b.WriteString(ui.KeyStyle.Render("Sound mode:") + " " + ui.ValueStyle.Render(m.State.Equalizer.String()))
	b.WriteString("\n\n")

	switch {
	case m.Refreshing:
		b.WriteString(m.Spinner.View() + ui.SubtleStyle.Render(" refreshing..."))
	case m.Busy:
		b.WriteString(m.Spinner.View() + ui.SubtleStyle.Render(" applying "+m.LastAction+"..."))
	case m.LastError != nil:
		b.WriteString(ui.RenderError(m.LastError))
	case m.LastAction != "":
		b.WriteString(ui.RenderSuccess("%s updated", m.LastAction))
	}
	b.WriteString("\n\n")

	b.WriteString(m.Help.View(m.Keys))

	return ui.BoxStyle(width).Render(b.String())
}

// clampVolume keeps keyboard adjustments inside the device range.
func clampVolume(v int) int {
	if v < soundbar.MinVolume {
		return soundbar.MinVolume
	}
	if v > soundbar.MaxVolume {
		return soundbar.MaxVolume
	}
	return v
}

// nextFunction cycles to the next input source.
func nextFunction(f soundbar.Function) soundbar.Function {
	next := f + 1
	if !next.Valid() {
		next = 0
	}
	return next
}

// nextEqualizer cycles through the device's supported modes when known,
// otherwise through every defined mode.
func nextEqualizer(eq soundbar.Equalizer, supported []soundbar.Equalizer) soundbar.Equalizer {
	if len(supported) > 0 {
		for i, s := range supported {
			if s == eq {
				return supported[(i+1)%len(supported)]
			}
		}
		return supported[0]
	}
	next := eq + 1
	if !next.Valid() {
		next = 0
	}
	return next
}

// waitForEvent blocks for the next device push.
func waitForEvent(events <-chan protocol.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return deviceEventMsg{msg: msg}
	}
}

// watchDisconnect surfaces connection loss as a message.
func watchDisconnect(client *soundbar.Client) tea.Cmd {
	return func() tea.Msg {
		<-client.Done()
		return disconnectedMsg{err: client.Err()}
	}
}

// refreshCmd pulls the panels the dashboard renders.
func refreshCmd(client *soundbar.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if _, err := client.SpeakerInfo(ctx); err != nil {
			return refreshDoneMsg{err: err}
		}
		eqInfo, err := client.EqualizerInfo(ctx)
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		if _, err := client.FunctionInfo(ctx); err != nil {
			return refreshDoneMsg{err: err}
		}
		if _, err := client.Settings(ctx); err != nil {
			return refreshDoneMsg{err: err}
		}

		supported := make([]soundbar.Equalizer, 0, len(eqInfo.Supported))
		for _, v := range eqInfo.Supported {
			supported = append(supported, soundbar.Equalizer(v))
		}
		return refreshDoneMsg{state: client.State(), supportedEq: supported}
	}
}

// opCmd runs one device operation off the update loop.
func opCmd(action string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return opDoneMsg{action: action, err: op(ctx)}
	}
}

// Run connects to the device and drives the dashboard until the user
// quits or the connection drops.
func Run(host string, opts ...soundbar.Option) error {
	events := make(chan protocol.Message, 16)
	opts = append(opts, soundbar.WithEventHandler(func(msg protocol.Message) {
		select {
		case events <- msg:
		default:
			// A stalled UI must not stall the receive loop.
		}
	}))

	client, err := soundbar.Connect(host, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	model := NewDashboardModel(client, host, events)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
