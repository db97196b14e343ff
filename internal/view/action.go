package view

// Action is a discrete user input that nudges one parameter by one step.
type Action int

const (
	RotateLeft Action = iota
	RotateRight
	DistanceUp
	DistanceDown
	FocalUp
	FocalDown
)

func (a Action) String() string {
	switch a {
	case RotateLeft:
		return "rotate-left"
	case RotateRight:
		return "rotate-right"
	case DistanceUp:
		return "distance-up"
	case DistanceDown:
		return "distance-down"
	case FocalUp:
		return "focal-up"
	case FocalDown:
		return "focal-down"
	}
	return "unknown"
}

// Field returns the parameter the action changes.
func (a Action) Field() Field {
	switch a {
	case DistanceUp, DistanceDown:
		return Distance
	case FocalUp, FocalDown:
		return FocalLength
	}
	return Rotation
}

// Sign is +1 for actions that increase their parameter and -1 otherwise.
func (a Action) Sign() float64 {
	switch a {
	case RotateRight, DistanceUp, FocalUp:
		return 1
	}
	return -1
}

// Apply returns p with the action applied using the given step.
func (p Params) Apply(a Action, step float64) Params {
	f := a.Field()
	return p.With(f, p.Get(f)+a.Sign()*step)
}

// KeyAction maps key names to actions. Both the short and the Arrow-prefixed
// names are accepted, as are Minus/Dash for the focal length.
func KeyAction(key string) (Action, bool) {
	switch key {
	case "left", "Left", "ArrowLeft":
		return RotateLeft, true
	case "right", "Right", "ArrowRight":
		return RotateRight, true
	case "up", "Up", "ArrowUp":
		return DistanceUp, true
	case "down", "Down", "ArrowDown":
		return DistanceDown, true
	case "+", "=", "Plus":
		return FocalUp, true
	case "-", "_", "Minus", "Dash":
		return FocalDown, true
	}
	return 0, false
}
