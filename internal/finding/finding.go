// Package finding implements the textual grammar used to persist tracked items
// inside issue bodies and issue titles.
//
// A tracked body line has the form
//
//	- [ ] <marker> [E123] message text
//	- [x] <marker> [E123] message text
//
// The checkbox encodes the resolved state and the key is everything from the
// first severity code token to the end of the line. Markers are decoration only
// and are ignored when parsing. Lines that do not match are prose and are
// skipped, which lets the body carry arbitrary surrounding text.
package finding

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// GrammarVersion identifies the line grammar written by RenderLine.
const GrammarVersion = 1

// Severity classifies a finding by its code prefix
type Severity string

const (
	// SeverityError marks findings with an E code
	SeverityError Severity = "E"
	// SeverityWarning marks findings with a W code
	SeverityWarning Severity = "W"
	// SeveritySuggestion marks findings with an S code
	SeveritySuggestion Severity = "S"
	// SeverityNone is used for keys without a severity code, e.g. promotion requests
	SeverityNone Severity = ""
)

// State is the lifecycle state of a tracked item after one reconciliation pass
type State string

const (
	// StateNew indicates the item is present now and was unknown before
	StateNew State = "new"
	// StateOpen indicates the item is present now and was unresolved before
	StateOpen State = "open"
	// StateReopened indicates the item is present now but was marked resolved before
	StateReopened State = "reopened"
	// StateResolved indicates the item was known before and is absent now
	StateResolved State = "resolved"
)

// Item is one tracked key with its computed state
type Item struct {
	Key   string
	State State
	// WasChecked is the checkbox state read from the previous body.
	WasChecked bool
}

// Active reports whether the item is currently present in the source
func (i Item) Active() bool {
	return i.State != StateResolved
}

// Changed reports whether the item differs from what the previous body showed.
func (i Item) Changed() bool {
	switch i.State {
	case StateNew, StateReopened:
		return true
	case StateResolved:
		return !i.WasChecked
	default:
		return false
	}
}

// Severity returns the severity encoded in the item key
func (i Item) Severity() Severity {
	return SeverityOf(i.Key)
}

const (
	markerError      = ":heavy_exclamation_mark:"
	markerWarning    = ":eyes:"
	markerSuggestion = ":pushpin:"
)

var (
	linePattern = regexp.MustCompile(`^-\s\[([ xX])\]\s.*?(\[[EWS]\d{3}\].*)$`)
	codePattern = regexp.MustCompile(`^\[([EWS])(\d{3})\]`)
)

// Code is the parsed severity code token of a key
type Code struct {
	Severity Severity
	Number   int
}

// String renders the code without brackets, e.g. "E123"
func (c Code) String() string {
	return fmt.Sprintf("%s%03d", c.Severity, c.Number)
}

// ParseCode extracts the leading code token of a key
func ParseCode(key string) (Code, bool) {
	m := codePattern.FindStringSubmatch(key)
	if m == nil {
		return Code{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Code{}, false
	}
	return Code{Severity: Severity(m[1]), Number: n}, true
}

// SeverityOf returns the severity of a key or SeverityNone
func SeverityOf(key string) Severity {
	code, ok := ParseCode(key)
	if !ok {
		return SeverityNone
	}
	return code.Severity
}

// NormalizeKey makes raw finding text safe for the line grammar.
// Line breaks are folded into spaces and surrounding whitespace is trimmed.
func NormalizeKey(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}

// Marker returns the visual marker rendered in front of a key
func Marker(s Severity) string {
	switch s {
	case SeverityError:
		return markerError
	case SeverityWarning:
		return markerWarning
	case SeveritySuggestion:
		return markerSuggestion
	default:
		return ""
	}
}

// RenderLine renders one tracked body line
func RenderLine(key string, resolved bool) string {
	box := "[ ]"
	if resolved {
		box = "[x]"
	}
	if marker := Marker(SeverityOf(key)); marker != "" {
		return "- " + box + " " + marker + " " + key
	}
	return "- " + box + " " + key
}

// ParseLine parses a single body line into its key and resolved flag
func ParseLine(line string) (key string, resolved bool, ok bool) {
	line = strings.TrimRight(line, "\r")
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false, false
	}
	return strings.TrimSpace(m[2]), m[1] != " ", true
}

// ParseBody returns the previous state of every tracked line in a body.
// The value is true for lines whose checkbox is checked.
func ParseBody(body string) map[string]bool {
	previous := make(map[string]bool)
	for _, line := range strings.Split(body, "\n") {
		key, resolved, ok := ParseLine(line)
		if !ok {
			continue
		}
		previous[key] = resolved
	}
	return previous
}

// SortKeys sorts keys in place, errors first, then warnings, then suggestions
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := severityRank(SeverityOf(keys[i])), severityRank(SeverityOf(keys[j]))
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
}

func severityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeveritySuggestion:
		return 2
	default:
		return 3
	}
}
