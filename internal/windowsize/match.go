package windowsize

import (
	"strings"

	"github.com/samber/lo"
)

// Category identifies which kind of title pattern produced a match.
// Categories are listed in restore precedence order.
type Category int

const (
	// Exact: the pattern equals the title.
	Exact Category = iota
	// EndsWith: "*text" patterns, the title ends with "text".
	EndsWith
	// StartsWith: "text*" patterns, the title starts with "text".
	StartsWith
	// Wildcard: the "*" pattern.
	Wildcard

	categoryCount
)

var categoryNames = [categoryCount]string{
	Exact:      "exact",
	EndsWith:   "ends-with",
	StartsWith: "starts-with",
	Wildcard:   "wildcard",
}

func (c Category) String() string {
	if c < 0 || c >= categoryCount {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories returns all categories in restore precedence order.
func Categories() []Category {
	return []Category{Exact, EndsWith, StartsWith, Wildcard}
}

// Match holds at most one record per category. The zero value is an empty match.
type Match struct {
	slots [categoryCount]*Record
}

// Get returns the record matched in category c.
func (m Match) Get(c Category) (*Record, bool) {
	if c < 0 || c >= categoryCount {
		return nil, false
	}
	r := m.slots[c]
	return r, r != nil
}

// Empty reports whether no category matched.
func (m Match) Empty() bool {
	for _, r := range m.slots {
		if r != nil {
			return false
		}
	}
	return true
}

// Best returns the highest-precedence record:
// Exact > EndsWith > StartsWith > Wildcard.
func (m Match) Best() (*Record, Category, bool) {
	for _, c := range Categories() {
		if r := m.slots[c]; r != nil {
			return r, c, true
		}
	}
	return nil, 0, false
}

// MatchWindow finds the records of process that apply to a window titled title.
// The process name is compared case-insensitively; titles are case-sensitive.
// When autoOnly is set only records opted into automatic resizing are considered.
// Within each category the first record in store order wins.
func MatchWindow(s *Store, process string, title string, autoOnly bool) Match {
	candidates := lo.Filter(s.all(), func(r *Record, _ int) bool {
		if !strings.EqualFold(r.Name, process) {
			return false
		}
		return !autoOnly || r.AutoResize
	})

	var m Match
	for _, c := range Categories() {
		if r, ok := lo.Find(candidates, func(r *Record) bool {
			return patternMatches(c, r.Title, title)
		}); ok {
			m.slots[c] = r
		}
	}
	return m
}

// CategoryOf returns the category a pattern can match under, ignoring
// whether it matches a particular title. Exact is returned for plain text.
func CategoryOf(pattern string) Category {
	switch {
	case pattern == WildcardPattern:
		return Wildcard
	case isEndsWithPattern(pattern):
		return EndsWith
	case isStartsWithPattern(pattern):
		return StartsWith
	default:
		return Exact
	}
}

func patternMatches(c Category, pattern string, title string) bool {
	switch c {
	case Exact:
		return pattern == title
	case EndsWith:
		return isEndsWithPattern(pattern) && strings.HasSuffix(title, strings.TrimLeft(pattern, "*"))
	case StartsWith:
		return isStartsWithPattern(pattern) && strings.HasPrefix(title, strings.TrimRight(pattern, "*"))
	case Wildcard:
		return pattern == WildcardPattern
	default:
		return false
	}
}

// isEndsWithPattern: leading '*', longer than one rune, and something left
// after removing the leading stars. "**" is not a suffix pattern.
func isEndsWithPattern(pattern string) bool {
	return len(pattern) > 1 && strings.HasPrefix(pattern, "*") && strings.TrimLeft(pattern, "*") != ""
}

func isStartsWithPattern(pattern string) bool {
	return len(pattern) > 1 && strings.HasSuffix(pattern, "*") && strings.TrimRight(pattern, "*") != ""
}
