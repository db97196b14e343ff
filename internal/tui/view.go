package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pointview/internal/controller"
	"pointview/internal/view"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	// form row + status row
	footerHeight = 2
)

const (
	leftTurnLabel  = "[◀ left-turn]"
	rightTurnLabel = "[right-turn ▶]"
)

// frame returns the rendered header and the content area size. The header
// may wrap on narrow terminals and the content area never shrinks below four
// rows, so the form row is not always at a fixed offset from the bottom.
func (m Model) frame() (header string, width, height int) {
	width = max(10, m.width)
	height = max(4, m.height-headerHeight-footerHeight)
	header = titleStyle.Render(" pointview ─ point cloud render client ")
	header = lipgloss.NewStyle().Width(width).Padding(0).Render(header)
	return header, width, height
}

// formRow is the screen row of the buttons and parameter fields.
func (m Model) formRow() int {
	header, _, contentHeight := m.frame()
	return lipgloss.Height(header) + contentHeight
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header, contentWidth, contentHeight := m.frame()

	// Sidebar
	var sidebar string
	sbw := 0
	if m.showSidebar {
		sbw = sidebarWidth
		m.l.SetSize(sidebarWidth-2, contentHeight-2)
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	// render-image canvas
	canvasWidth := max(10, contentWidth-sbw-1)
	canvasHeight := contentHeight
	var canvasView string
	if m.showPoints {
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, contentWidth-6)
		}
		maxW := min(canvasWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(canvasHeight-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		canvasView = lipgloss.Place(canvasWidth, canvasHeight, lipgloss.Center, lipgloss.Center, box)
	} else {
		canvasView = lipgloss.NewStyle().Width(canvasWidth).Height(canvasHeight).
			Render(m.canvas.render(m.ctrl.Image(), m.ctrl.Params().Rotation, canvasWidth, canvasHeight))
	}

	var body string
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", canvasView)
	} else {
		body = canvasView
	}
	// the inspect popup takes over the body so the form row never moves
	if m.inspectPopup != "" && !m.showPoints {
		maxPopupW := max(20, min(52, contentWidth/2))
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MaxWidth(maxPopupW).Render(m.inspectPopup)
		body = lipgloss.Place(contentWidth, contentHeight, lipgloss.Left, lipgloss.Center, box)
	}

	// the body holds exactly contentHeight rows; hitButton depends on it
	body = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(body)

	form := lipgloss.NewStyle().Width(contentWidth).MaxHeight(1).Render(m.renderForm())
	footer := lipgloss.NewStyle().Width(contentWidth).MaxHeight(1).Render(m.renderStatus())

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, form, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderForm draws the turn buttons and the three parameter fields.
func (m Model) renderForm() string {
	parts := []string{buttonStyle.Render(leftTurnLabel), " ", buttonStyle.Render(rightTurnLabel), "  "}
	for _, f := range view.Fields {
		st := fieldStyle
		if int(f) == m.focus {
			st = focusStyle
		}
		parts = append(parts, st.Render(m.inputs[f].View()), " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m Model) renderStatus() string {
	var b strings.Builder
	if m.loading {
		b.WriteString(m.spin.View())
	}
	st := dimStyle
	switch m.ctrl.State() {
	case controller.StateDatasetError, controller.StateRenderError:
		st = errStyle
	}
	b.WriteString(st.Render(" " + m.status + " "))
	if m.helpVisible {
		b.WriteString("  " + m.help.ShortHelpView(keys.ShortHelp()))
	}
	return b.String()
}

// hitButton maps a click to the button under it. The buttons open the form
// row.
func (m Model) hitButton(x, y int) string {
	if y != m.formRow() {
		return ""
	}
	lw := lipgloss.Width(leftTurnLabel)
	rw := lipgloss.Width(rightTurnLabel)
	switch {
	case x >= 0 && x < lw:
		return "left-turn"
	case x > lw && x <= lw+rw:
		return "right-turn"
	}
	return ""
}
