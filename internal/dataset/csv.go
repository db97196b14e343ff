package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCSV reads a point table with x, y and z columns (case-insensitive)
// into a single set. An optional "set" or "name" column splits rows into
// named sets, in order of first appearance. Rows with unparseable
// coordinates are skipped.
func ParseCSV(data []byte) (*Document, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", ErrMalformed, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrMalformed)
	}
	idx := [3]int{-1, -1, -1}
	idxSet := -1
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "x":
			idx[0] = i
		case "y":
			idx[1] = i
		case "z":
			idx[2] = i
		case "set", "name":
			if idxSet == -1 {
				idxSet = i
			}
		}
	}
	if idx[0] == -1 || idx[1] == -1 || idx[2] == -1 {
		return nil, fmt.Errorf("%w: csv: x/y/z columns not found", ErrMalformed)
	}

	var order []string
	points := map[string][][3]float64{}
	for _, row := range recs[1:] {
		var pt [3]float64
		ok := true
		for k, c := range idx {
			if c >= len(row) {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
			pt[k] = v
		}
		if !ok {
			continue
		}
		name := "points"
		if idxSet >= 0 && idxSet < len(row) && strings.TrimSpace(row[idxSet]) != "" {
			name = strings.TrimSpace(row[idxSet])
		}
		if _, seen := points[name]; !seen {
			order = append(order, name)
		}
		points[name] = append(points[name], pt)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: csv: no valid points parsed", ErrMalformed)
	}

	d := &Document{}
	for _, name := range order {
		raw, err := json.Marshal(points[name])
		if err != nil {
			return nil, err
		}
		d.Sets = append(d.Sets, Set{Name: name, Points: raw})
	}
	return d, nil
}
