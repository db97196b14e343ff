package dataset

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrOpaque means the points payload is not a list of 3D coordinates.
// The renderer may still accept it; only local inspection is unavailable.
var ErrOpaque = errors.New("points are not [x,y,z] coordinates")

// Summary describes a decoded point set.
type Summary struct {
	Count    int
	Centroid [3]float64
	Min      [3]float64
	Max      [3]float64
}

// Decode reads points as [x,y,z] tuples or {"x":..,"y":..,"z":..} objects.
func Decode(points json.RawMessage) ([][3]float64, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(points, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaque, err)
	}
	out := make([][3]float64, 0, len(elems))
	for i, e := range elems {
		var tuple []float64
		if err := json.Unmarshal(e, &tuple); err == nil {
			if len(tuple) < 3 {
				return nil, fmt.Errorf("%w: point %d has %d coordinates", ErrOpaque, i, len(tuple))
			}
			out = append(out, [3]float64{tuple[0], tuple[1], tuple[2]})
			continue
		}
		var obj struct {
			X, Y, Z *float64
		}
		if err := json.Unmarshal(e, &obj); err != nil || obj.X == nil || obj.Y == nil || obj.Z == nil {
			return nil, fmt.Errorf("%w: point %d", ErrOpaque, i)
		}
		out = append(out, [3]float64{*obj.X, *obj.Y, *obj.Z})
	}
	return out, nil
}

func Summarize(points json.RawMessage) (Summary, error) {
	pts, err := Decode(points)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Count: len(pts)}
	if len(pts) == 0 {
		return s, nil
	}
	for axis := 0; axis < 3; axis++ {
		col := make([]float64, len(pts))
		for i, p := range pts {
			col[i] = p[axis]
		}
		s.Centroid[axis] = stat.Mean(col, nil)
		s.Min[axis] = floats.Min(col)
		s.Max[axis] = floats.Max(col)
	}
	return s, nil
}
