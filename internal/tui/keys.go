package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap drives the help line. Parameter keys are dispatched through
// view.KeyAction so the same names work in the headless command.
type keyMap struct {
	Rotate   key.Binding
	Distance key.Binding
	Focal    key.Binding
	Fields   key.Binding
	Datasets key.Binding
	Reload   key.Binding
	Points   key.Binding
	Inspect  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Rotate:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "rotate")),
	Distance: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "distance")),
	Focal:    key.NewBinding(key.WithKeys("+", "=", "-", "_"), key.WithHelp("+/-", "focal")),
	Fields:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "edit")),
	Datasets: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "datasets")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Points:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "points")),
	Inspect:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inspect")),
	Help:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rotate, k.Distance, k.Focal, k.Fields, k.Datasets, k.Reload, k.Points, k.Inspect, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
