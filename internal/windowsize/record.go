package windowsize

import (
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// WildcardPattern is the title pattern that matches every window title of a process.
const WildcardPattern = "*"

// ErrInvalidRect is returned when a rectangle has right < left or bottom < top.
var ErrInvalidRect = errors.New("invalid window rect")

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	Left   int32 `yaml:"left" json:"left"`
	Top    int32 `yaml:"top" json:"top"`
	Right  int32 `yaml:"right" json:"right"`
	Bottom int32 `yaml:"bottom" json:"bottom"`
}

// Width returns Right - Left.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// Valid reports whether the rectangle is not inverted.
func (r Rect) Valid() bool {
	return r.Right >= r.Left && r.Bottom >= r.Top
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// State is the show state of a window.
type State int

const (
	StateNormal State = iota
	StateMaximized
	StateMinimized
)

var stateNames = map[State]string{
	StateNormal:    "normal",
	StateMaximized: "maximized",
	StateMinimized: "minimized",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState parses a state name case-insensitively.
func ParseState(raw string) (State, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return StateNormal, nil
	}
	for state, stateName := range stateNames {
		if stateName == name {
			return state, nil
		}
	}
	return StateNormal, fmt.Errorf("unknown window state %q", raw)
}

// MarshalYAML writes the state as its lowercase name.
func (s State) MarshalYAML() (any, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("unknown window state %d", int(s))
	}
	return s.String(), nil
}

// UnmarshalYAML accepts the lowercase name in any case.
func (s *State) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Record is a saved window geometry for a (process, title pattern) pair.
//
// Title semantics depend on its shape:
//   - "*" matches every title (wildcard)
//   - "*text" matches titles ending with "text"
//   - "text*" matches titles starting with "text"
//   - anything else must equal the title exactly
type Record struct {
	Name       string `yaml:"name" json:"name"`
	Title      string `yaml:"title" json:"title"`
	Rect       Rect   `yaml:"rect" json:"rect"`
	State      State  `yaml:"state" json:"state"`
	AutoResize bool   `yaml:"auto_resize" json:"auto_resize"`
}

// less orders records by (Name, Title) with ordinal comparison.
func less(a, b Record) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Title < b.Title
}

func compare(a, b Record) int {
	switch {
	case less(a, b):
		return -1
	case less(b, a):
		return 1
	default:
		return 0
	}
}
