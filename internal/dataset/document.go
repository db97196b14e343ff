package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed = errors.New("malformed dataset document")
	ErrNoSuchSet = errors.New("no such dataset")
)

// Set is one named point dataset. Points is forwarded to the renderer untouched.
type Set struct {
	Name   string
	Points json.RawMessage
}

// Document is the ordered list of sets served by the dataset provider.
type Document struct {
	Sets []Set
}

// Parse accepts three document shapes:
//
//	{"points": [...]}                                 single set
//	{"datasets": [{"name": "a", "points": [...]}]}    named sets
//	[[...], [...]]                                    unnamed sets
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	var d Document
	switch data[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if ds, ok := raw["datasets"]; ok {
			var named []struct {
				Name   string          `json:"name"`
				Points json.RawMessage `json:"points"`
			}
			if err := json.Unmarshal(ds, &named); err != nil {
				return nil, fmt.Errorf("%w: datasets: %v", ErrMalformed, err)
			}
			for i, n := range named {
				if !isArray(n.Points) {
					return nil, fmt.Errorf("%w: datasets[%d]: points is not an array", ErrMalformed, i)
				}
				name := n.Name
				if name == "" {
					name = fmt.Sprintf("set %d", i+1)
				}
				d.Sets = append(d.Sets, Set{Name: name, Points: n.Points})
			}
		} else if pts, ok := raw["points"]; ok {
			if !isArray(pts) {
				return nil, fmt.Errorf("%w: points is not an array", ErrMalformed)
			}
			d.Sets = []Set{{Name: "points", Points: pts}}
		} else {
			return nil, fmt.Errorf("%w: neither \"points\" nor \"datasets\" present", ErrMalformed)
		}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if !isSetList(elems) {
			// a bare list of points
			d.Sets = []Set{{Name: "points", Points: json.RawMessage(data)}}
			break
		}
		for i, e := range elems {
			d.Sets = append(d.Sets, Set{Name: fmt.Sprintf("set %d", i+1), Points: e})
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, data[0])
	}
	if len(d.Sets) == 0 {
		return nil, fmt.Errorf("%w: no datasets", ErrMalformed)
	}
	return &d, nil
}

// Set returns the set at the 0-based index.
func (d *Document) Set(index int) (*Set, error) {
	if d == nil || index < 0 || index >= len(d.Sets) {
		n := 0
		if d != nil {
			n = len(d.Sets)
		}
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchSet, index, n)
	}
	s := d.Sets[index]
	return &s, nil
}

func (d *Document) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Sets))
	for i, s := range d.Sets {
		names[i] = s.Name
	}
	return names
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// isSetList reports whether elems are sets of points rather than points.
// A point is a flat tuple of numbers; a set is an array of tuples or objects.
func isSetList(elems []json.RawMessage) bool {
	if len(elems) == 0 {
		return false
	}
	for _, e := range elems {
		if !isArray(e) {
			return false
		}
	}
	var inner []json.RawMessage
	if err := json.Unmarshal(elems[0], &inner); err != nil || len(inner) == 0 {
		return false
	}
	first := bytes.TrimSpace(inner[0])
	return len(first) > 0 && (first[0] == '[' || first[0] == '{')
}
