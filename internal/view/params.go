package view

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultStep is the amount a single key press or button click moves a parameter.
const DefaultStep = 0.1

var ErrInvalidNumber = errors.New("invalid number")

// Params is the camera view sent with every render request.
type Params struct {
	Rotation    float64 `json:"rotation" yaml:"rotation"`
	Distance    float64 `json:"distance" yaml:"distance"`
	FocalLength float64 `json:"focal_length" yaml:"focal_length"`
}

func Default() Params {
	return Params{Rotation: 0.0, Distance: 2.0, FocalLength: 50.0}
}

// Field identifies one of the three form fields.
type Field int

const (
	Rotation Field = iota
	Distance
	FocalLength
)

// Fields lists the form fields in display order.
var Fields = []Field{Rotation, Distance, FocalLength}

// ID is the form field identifier (also the JSON key in a render request).
func (f Field) ID() string {
	switch f {
	case Rotation:
		return "rotation"
	case Distance:
		return "distance"
	case FocalLength:
		return "focal_length"
	}
	return "unknown"
}

func (f Field) Label() string {
	switch f {
	case Rotation:
		return "Rotation"
	case Distance:
		return "Distance"
	case FocalLength:
		return "Focal length"
	}
	return "?"
}

func (p Params) Get(f Field) float64 {
	switch f {
	case Rotation:
		return p.Rotation
	case Distance:
		return p.Distance
	case FocalLength:
		return p.FocalLength
	}
	return 0
}

func (p Params) With(f Field, v float64) Params {
	switch f {
	case Rotation:
		p.Rotation = v
	case Distance:
		p.Distance = v
	case FocalLength:
		p.FocalLength = v
	}
	return p
}

// Valid reports whether every parameter is a finite number.
func (p Params) Valid() bool {
	for _, f := range Fields {
		if !finite(p.Get(f)) {
			return false
		}
	}
	return true
}

// Format renders v as field text. The shortest representation that parses
// back to exactly v is used, so field text and memory never diverge.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseField parses hand-edited field text. Empty, non-numeric and
// non-finite input yields lastGood together with ErrInvalidNumber.
func ParseField(text string, lastGood float64) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return lastGood, ErrInvalidNumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return lastGood, ErrInvalidNumber
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
