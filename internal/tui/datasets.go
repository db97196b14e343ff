package tui

import (
	"fmt"

	list "github.com/charmbracelet/bubbles/list"
)

// datasetItem is one entry of the point-data radio group.
type datasetItem struct {
	title    string
	index    int
	selected bool
}

func (d datasetItem) Title() string {
	mark := "( )"
	if d.selected {
		mark = "(•)"
	}
	return fmt.Sprintf("%s %d. %s", mark, d.index+1, d.title)
}
func (d datasetItem) Description() string { return "" }
func (d datasetItem) FilterValue() string { return d.title }

// syncDatasets rebuilds the radio group from the controller's dataset names.
func (m *Model) syncDatasets() {
	names := m.ctrl.Datasets()
	items := make([]list.Item, 0, len(names))
	for i, n := range names {
		items = append(items, datasetItem{title: n, index: i, selected: i == m.ctrl.Selected()})
	}
	cursor := m.l.Index()
	m.l.SetItems(items)
	if cursor < len(items) {
		m.l.Select(cursor)
	}
}
