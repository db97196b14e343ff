package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	table "github.com/charmbracelet/bubbles/table"

	"pointview/internal/dataset"
	"pointview/internal/view"
)

// maxTableRows bounds the point table; larger sets are truncated.
const maxTableRows = 5000

// refreshPointsTable rebuilds the table from the current dataset.
func (m *Model) refreshPointsTable() {
	set := m.ctrl.Current()
	if set == nil {
		m.showPoints = false
		m.status = "no point-data loaded"
		return
	}
	pts, err := dataset.Decode(set.Points)
	if err != nil || len(pts) == 0 {
		// Do not touch table internals here to avoid re-render during SetColumns
		m.showPoints = false
		if errors.Is(err, dataset.ErrOpaque) {
			m.status = "points are opaque to this client: " + err.Error()
		} else {
			m.status = "no points in " + set.Name
		}
		return
	}
	cols := []table.Column{
		{Title: "#", Width: 6},
		{Title: "x", Width: 12},
		{Title: "y", Width: 12},
		{Title: "z", Width: 12},
	}
	rows := make([]table.Row, 0, min(len(pts), maxTableRows))
	for i, p := range pts {
		if i == maxTableRows {
			break
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			fmtCoord(p[0]), fmtCoord(p[1]), fmtCoord(p[2]),
		})
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	m.status = fmt.Sprintf("%s: %d points", set.Name, len(pts))
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// inspect builds the popup describing the current view and dataset.
func (m Model) inspect() string {
	p := m.ctrl.Params()
	meta := []string{
		fmt.Sprintf("%s: %s", view.Rotation.ID(), view.Format(p.Rotation)),
		fmt.Sprintf("%s: %s", view.Distance.ID(), view.Format(p.Distance)),
		fmt.Sprintf("%s: %s", view.FocalLength.ID(), view.Format(p.FocalLength)),
		fmt.Sprintf("state: %s", m.ctrl.State()),
	}
	names := m.ctrl.Datasets()
	if set := m.ctrl.Current(); set != nil {
		meta = append(meta, fmt.Sprintf("point-data: %d/%d %s", m.ctrl.Selected()+1, len(names), set.Name))
		if s, err := dataset.Summarize(set.Points); err == nil {
			meta = append(meta,
				fmt.Sprintf("points: %d", s.Count),
				fmt.Sprintf("centroid: [%.3f, %.3f, %.3f]", s.Centroid[0], s.Centroid[1], s.Centroid[2]),
				fmt.Sprintf("min: [%.3f, %.3f, %.3f]", s.Min[0], s.Min[1], s.Min[2]),
				fmt.Sprintf("max: [%.3f, %.3f, %.3f]", s.Max[0], s.Max[1], s.Max[2]),
			)
		} else {
			meta = append(meta, "points: opaque")
		}
	} else {
		meta = append(meta, "point-data: not loaded")
	}
	if img := m.ctrl.Image(); img != nil {
		b := img.Bounds()
		kind := "render"
		if img.Fallback {
			kind = "placeholder"
		}
		meta = append(meta, fmt.Sprintf("render-image: %s %dx%d %s (#%d)", kind, b.Dx(), b.Dy(), img.ContentType, img.Seq))
	}
	if err := m.ctrl.Err(); err != nil {
		meta = append(meta, "error: "+err.Error())
	}
	return strings.Join(meta, "\n")
}
