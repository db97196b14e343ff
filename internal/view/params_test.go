package view

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestApply_ArrowRightFromDefault(t *testing.T) {
	a, ok := KeyAction("ArrowRight")
	if !ok {
		t.Fatal("ArrowRight not bound")
	}
	p := Default().Apply(a, DefaultStep)
	if p.Rotation != 0.1 {
		t.Errorf("rotation = %v, want 0.1", p.Rotation)
	}
	if p.Distance != 2.0 || p.FocalLength != 50.0 {
		t.Errorf("unrelated params changed: %+v", p)
	}
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  string
		want Action
	}{
		{"left", RotateLeft},
		{"Left", RotateLeft},
		{"ArrowLeft", RotateLeft},
		{"right", RotateRight},
		{"ArrowUp", DistanceUp},
		{"Down", DistanceDown},
		{"+", FocalUp},
		{"-", FocalDown},
		{"Minus", FocalDown},
		{"Dash", FocalDown},
	}
	for _, tt := range tests {
		got, ok := KeyAction(tt.key)
		if !ok {
			t.Errorf("%q: not bound", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.key, got, tt.want)
		}
	}
	if _, ok := KeyAction("x"); ok {
		t.Error("x should not be bound")
	}
}

func TestApply_Directions(t *testing.T) {
	p := Default()
	p = p.Apply(RotateLeft, 0.5)
	p = p.Apply(DistanceUp, 0.5)
	p = p.Apply(FocalDown, 0.5)
	want := Params{Rotation: -0.5, Distance: 2.5, FocalLength: 49.5}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}
}

func TestFormat_RoundTrips(t *testing.T) {
	p := Default()
	actions := []Action{RotateRight, RotateRight, RotateRight, DistanceDown, FocalUp, RotateLeft, FocalDown, FocalDown}
	for i, a := range actions {
		p = p.Apply(a, DefaultStep)
		for _, f := range Fields {
			text := Format(p.Get(f))
			back, err := strconv.ParseFloat(text, 64)
			if err != nil {
				t.Fatalf("step %d: %s text %q does not parse: %v", i, f.ID(), text, err)
			}
			if back != p.Get(f) {
				t.Errorf("step %d: %s text %q != %v", i, f.ID(), text, p.Get(f))
			}
		}
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		text    string
		want    float64
		wantErr bool
	}{
		{"1.5", 1.5, false},
		{"  -2 ", -2, false},
		{"", 7, true},
		{"abc", 7, true},
		{"NaN", 7, true},
		{"Inf", 7, true},
		{"1e400", 7, true},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.text, 7)
		if tt.wantErr != (err != nil) {
			t.Errorf("%q: err = %v, wantErr %v", tt.text, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("%q: err = %v, want ErrInvalidNumber", tt.text, err)
		}
		if got != tt.want || math.IsNaN(got) {
			t.Errorf("%q: got %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParams_Valid(t *testing.T) {
	if !Default().Valid() {
		t.Error("default params should be valid")
	}
	if Default().With(Distance, math.NaN()).Valid() {
		t.Error("NaN distance should be invalid")
	}
}
