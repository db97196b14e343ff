package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pointview/internal/controller"
	"pointview/internal/view"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.height-headerHeight-footerHeight-2)
		}
	case renderDoneMsg:
		if !m.ctrl.Complete(msg.res) {
			// superseded; a newer refresh is still in flight
			return m, nil
		}
		m.loading = false
		m.syncDatasets()
		m.status = m.refreshStatus()
		if m.showPoints {
			m.refreshPointsTable()
		}
		return m, nil
	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.status = "config error: " + msg.Err.Error()
			return m, nil
		}
		if m.reconfigure != nil {
			m.reconfigure(msg.Config)
		}
		m.ctrl.SetTimeout(msg.Config.RenderTimeout)
		m.ctrl.SetStep(msg.Config.Step)
		m.status = "config reloaded"
		return m.startJob(m.ctrl.Reload())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.focus != noFocus {
			return m.updateField(msg)
		}
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.showPoints {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "home", "end":
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Fields):
			step := 1
			if msg.String() == "shift+tab" {
				step = -1
			}
			return m.focusField(firstField(step, len(m.inputs)))
		case key.Matches(msg, keys.Datasets):
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.syncDatasets()
				m.l.SetSize(sidebarWidth-2, m.height-headerHeight-footerHeight-2)
			}
			return m, nil
		case key.Matches(msg, keys.Reload):
			m.status = "reloading point-data"
			return m.startJob(m.ctrl.Reload())
		case key.Matches(msg, keys.Points):
			m.showPoints = !m.showPoints
			if m.showPoints {
				m.refreshPointsTable()
			}
			return m, nil
		case key.Matches(msg, keys.Inspect):
			if m.inspectPopup != "" {
				m.inspectPopup = ""
			} else {
				m.inspectPopup = m.inspect()
			}
			return m, nil
		case key.Matches(msg, keys.Help):
			m.helpVisible = !m.helpVisible
			return m, nil
		}
		if m.showSidebar {
			switch msg.String() {
			case "enter", " ":
				if it, ok := m.l.SelectedItem().(datasetItem); ok {
					return m.selectDataset(it.index)
				}
				return m, nil
			case "up", "down", "k", "j", "/":
				var cmd tea.Cmd
				m.l, cmd = m.l.Update(msg)
				return m, cmd
			}
		}
		if a, ok := view.KeyAction(msg.String()); ok {
			return m.apply(a)
		}
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		switch m.hitButton(msg.X, msg.Y) {
		case "left-turn":
			return m.apply(view.RotateLeft)
		case "right-turn":
			return m.apply(view.RotateRight)
		}
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) apply(a view.Action) (tea.Model, tea.Cmd) {
	j := m.ctrl.Apply(a)
	f := a.Field()
	m.status = fmt.Sprintf("%s: %s", f.ID(), m.ctrl.Field(f))
	return m.startJob(j)
}

func (m Model) selectDataset(index int) (tea.Model, tea.Cmd) {
	j, err := m.ctrl.Select(index)
	if err != nil {
		m.status = "select error: " + err.Error()
		return m, nil
	}
	m.syncDatasets()
	m.status = fmt.Sprintf("point-data: %d", index+1)
	return m.startJob(j)
}

// startJob mirrors the controller into the form and runs the job.
func (m Model) startJob(j *controller.Job) (tea.Model, tea.Cmd) {
	m.syncInputs()
	m.loading = true
	return m, runJob(j)
}

// updateField handles keys while a form field has focus. Enter commits the
// edit, Esc abandons it, Tab commits and moves on.
func (m Model) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := view.Field(m.focus)
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.inputs[f].SetValue(m.ctrl.Field(f))
		m.inputs[f].Blur()
		m.focus = noFocus
		m.status = "view mode"
		return m, nil
	case "enter":
		m.inputs[f].Blur()
		m.focus = noFocus
		return m.commit(f, nil)
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		next := m.focus + step
		m.inputs[f].Blur()
		m.focus = noFocus
		var focusCmd tea.Cmd
		if next >= 0 && next < len(m.inputs) {
			m.focus = next
			focusCmd = m.inputs[next].Focus()
		}
		return m.commit(f, focusCmd)
	}
	var cmd tea.Cmd
	m.inputs[f], cmd = m.inputs[f].Update(msg)
	return m, cmd
}

// commit pushes field text into the controller. Unchanged text does not
// trigger a refresh.
func (m Model) commit(f view.Field, extra tea.Cmd) (tea.Model, tea.Cmd) {
	text := m.inputs[f].Value()
	if text == m.ctrl.Field(f) {
		return m, extra
	}
	j, err := m.ctrl.Edit(f, text)
	if err != nil {
		if errors.Is(err, view.ErrInvalidNumber) {
			m.status = fmt.Sprintf("%s: %q is not a number, kept %s", f.ID(), text, m.ctrl.Field(f))
		} else {
			m.status = err.Error()
		}
	} else {
		m.status = fmt.Sprintf("%s: %s", f.ID(), m.ctrl.Field(f))
	}
	next, cmd := m.startJob(j)
	return next, tea.Batch(cmd, extra)
}

func (m Model) focusField(i int) (tea.Model, tea.Cmd) {
	m.focus = i
	m.status = "editing " + view.Field(i).ID() + " (enter to apply, esc to cancel)"
	return m, m.inputs[i].Focus()
}

// firstField is where tabbing into the form lands.
func firstField(step, n int) int {
	if step < 0 {
		return n - 1
	}
	return 0
}

// syncInputs writes the controller's field text into every unfocused input.
func (m *Model) syncInputs() {
	for _, f := range view.Fields {
		if int(f) == m.focus {
			continue
		}
		m.inputs[f].SetValue(m.ctrl.Field(f))
	}
}

func (m Model) refreshStatus() string {
	switch m.ctrl.State() {
	case controller.StateDatasetError:
		return "dataset error: " + m.ctrl.Err().Error()
	case controller.StateRenderError:
		return "render error: " + m.ctrl.Err().Error() + " (showing placeholder)"
	}
	img := m.ctrl.Image()
	name := ""
	if s := m.ctrl.Current(); s != nil {
		name = s.Name
	}
	b := img.Bounds()
	return fmt.Sprintf("rendered %s  %dx%d %s", name, b.Dx(), b.Dy(), img.ContentType)
}
