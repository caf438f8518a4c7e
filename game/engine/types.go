package engine

import (
	"errors"
	"fmt"
)

// Marker is the single thing a grid cell shows
type Marker byte

const (
	Empty Marker = '.'
	Goal  Marker = 'F' // the mountain
	Item  Marker = 'C' // a carrot

	// Default rules
	DefaultSize          = 5
	DefaultItems         = 2
	DefaultWinThreshold  = 2
	DefaultRelocateEvery = 3
	DefaultMaxSteps      = 100

	// Validation constants
	MinGridSize = 2
	MaxGridSize = 50
	ActorCount  = 4
)

var (
	ErrInvalidRules   = errors.New("invalid rules")
	ErrBoardTooSmall  = errors.New("board too small")
	ErrInvalidLayout  = errors.New("invalid layout")
	ErrAlreadyStarted = errors.New("race already started")
)

// String returns the marker as a one-character string
func (m Marker) String() string {
	return string([]byte{byte(m)})
}

// MarshalText encodes the marker as its character
func (m Marker) MarshalText() ([]byte, error) {
	return []byte{byte(m)}, nil
}

// UnmarshalText decodes a one-character marker
func (m *Marker) UnmarshalText(text []byte) error {
	switch len(text) {
	case 0:
		*m = 0
	case 1:
		*m = Marker(text[0])
	default:
		return fmt.Errorf("marker must be a single character, got %q", text)
	}
	return nil
}

// IsActor reports whether the marker is an actor symbol
func (m Marker) IsActor() bool {
	return m != Empty && m != Goal && m != Item && m != 0
}

// Position represents row,col coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is one of the four orthogonal moves
type Direction int

// Order matches the random draw: 0 right, 1 left, 2 down, 3 up.
const (
	Right Direction = iota
	Left
	Down
	Up
)

// Directions lists every direction in draw order
var Directions = []Direction{Right, Left, Down, Up}

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	case Up:
		return "up"
	}
	return "unknown"
}

// Delta returns the row and column offsets of the direction
func (d Direction) Delta() (int, int) {
	switch d {
	case Right:
		return 0, 1
	case Left:
		return 0, -1
	case Down:
		return 1, 0
	case Up:
		return -1, 0
	}
	return 0, 0
}

// Actor is one racing character
type Actor struct {
	ID         int      `json:"id"`
	Symbol     Marker   `json:"symbol"`
	Name       string   `json:"name"`
	Pos        Position `json:"pos"`
	Carrying   bool     `json:"carrying"`
	Alive      bool     `json:"alive"`
	Privileged bool     `json:"privileged"`
}

// Cast describes the four characters in ID order. The last one is Marvin,
// the privileged actor.
var Cast = []struct {
	Symbol     Marker
	Name       string
	Privileged bool
}{
	{'B', "Bugs Bunny", false},
	{'D', "Daffy Duck", false},
	{'T', "Tweety", false},
	{'M', "Marvin", true},
}

// Rules holds the race constants
type Rules struct {
	Size          int `json:"size"`
	Items         int `json:"items"`
	WinThreshold  int `json:"win_threshold"`
	RelocateEvery int `json:"relocate_every"`
	// MaxSteps caps the number of cycles. Zero means unbounded.
	MaxSteps int `json:"max_steps"`
}

// DefaultRules returns the rules every race is played with
func DefaultRules() Rules {
	return Rules{
		Size:          DefaultSize,
		Items:         DefaultItems,
		WinThreshold:  DefaultWinThreshold,
		RelocateEvery: DefaultRelocateEvery,
		MaxSteps:      DefaultMaxSteps,
	}
}

// Reason explains why a race finished
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonDelivered Reason = "delivered"
	ReasonStepCap   Reason = "step_cap"
	ReasonStopped   Reason = "stopped"
)

// EventType classifies an Event
type EventType string

const (
	EventStart       EventType = "start"
	EventMove        EventType = "move"
	EventBlocked     EventType = "blocked"
	EventPickup      EventType = "pickup"
	EventDelivery    EventType = "delivery"
	EventElimination EventType = "elimination"
	EventTheft       EventType = "theft"
	EventDrop        EventType = "drop"
	EventRelocation  EventType = "relocation"
	EventVictory     EventType = "victory"
	EventStepCap     EventType = "step_cap"
	EventStopped     EventType = "stopped"
)

// Event is one entry of the race history
type Event struct {
	Seq       int       `json:"seq"`
	Type      EventType `json:"type"`
	Cycle     int       `json:"cycle"`
	Actor     Marker    `json:"actor,omitempty"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

// Snapshot is a consistent copy of the race state taken under the lock
type Snapshot struct {
	Rows      []string `json:"rows"`
	Goal      Position `json:"goal"`
	Actors    []Actor  `json:"actors"`
	Delivered int      `json:"delivered"`
	Cycles    int      `json:"cycles"`
	GameOver  bool     `json:"game_over"`
	Winner    *Actor   `json:"winner,omitempty"`
	Reason    Reason   `json:"reason,omitempty"`
}

// Result summarizes a finished race
type Result struct {
	Winner    *Actor `json:"winner,omitempty"`
	Reason    Reason `json:"reason"`
	Delivered int    `json:"delivered"`
	Cycles    int    `json:"cycles"`
}
