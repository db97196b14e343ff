package tui

import (
	"github.com/charmbracelet/bubbles/help"
	list "github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	table "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pointview/internal/config"
	"pointview/internal/controller"
	"pointview/internal/view"
)

// noFocus means keys drive the view instead of a form field.
const noFocus = -1

type Model struct {
	width  int
	height int

	ctrl *controller.Controller
	// reconfigure applies a reloaded config to the clients behind ctrl.
	reconfigure func(config.Config)

	showSidebar bool
	helpVisible bool

	status string

	// form fields: rotation, distance, focal_length
	inputs [3]textinput.Model
	focus  int

	// point-data radio group
	l list.Model

	// point table
	showPoints bool
	tbl        table.Model

	inspectPopup string

	spin    spinner.Model
	help    help.Model
	loading bool

	canvas *canvasCache
}

type Option func(*Model)

// WithReconfigure sets the hook run when the config file is reloaded.
func WithReconfigure(fn func(config.Config)) Option {
	return func(m *Model) { m.reconfigure = fn }
}

func New(ctrl *controller.Controller, opts ...Option) Model {
	m := Model{
		ctrl:        ctrl,
		helpVisible: true,
		status:      "pointview ready",
		focus:       noFocus,
		loading:     true,
		canvas:      &canvasCache{},
	}
	for _, o := range opts {
		o(&m)
	}
	for _, f := range view.Fields {
		ti := textinput.New()
		ti.Prompt = f.Label() + ": "
		ti.CharLimit = 32
		ti.Width = 12
		ti.SetValue(ctrl.Field(f))
		m.inputs[f] = ti
	}
	// dataset list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "point-data"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// point table setup
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.help = help.New()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(runJob(m.ctrl.Refresh()), m.spin.Tick)
}

// renderDoneMsg carries a finished refresh back into the update loop.
type renderDoneMsg struct {
	res controller.Result
}

// ConfigReloadedMsg is sent by the config watcher.
type ConfigReloadedMsg struct {
	Config config.Config
	Err    error
}

func runJob(j *controller.Job) tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg {
		return renderDoneMsg{res: j.Run()}
	}
}
