package finding

import (
	"regexp"
	"strings"
)

// Direction distinguishes the two kinds of stable promotion request
type Direction string

const (
	// DirectionAdd requests adding an adapter to the stable repository
	DirectionAdd Direction = "add"
	// DirectionUpdate requests moving the stable version forward
	DirectionUpdate Direction = "update"
)

const (
	// CheckerTitle is the title of the repository checker tracking issue
	CheckerTitle = "Please consider fixing issues detected by repository checker"

	requestEmoji       = "🚀 "
	addTitlePrefix     = "Please add adapter to stable repository -"
	updateTitlePrefix  = "Consider updating stable version in repo"
	requestVersionExpr = `(\d+\.\d+\.\d+[0-9A-Za-z.+\-]*)`
)

var (
	addTitlePattern    = regexp.MustCompile(`^(?:🚀\s*)?` + regexp.QuoteMeta(addTitlePrefix) + `\s+` + requestVersionExpr + `\s*$`)
	updateTitlePattern = regexp.MustCompile(`^(?:🚀\s*)?` + regexp.QuoteMeta(updateTitlePrefix) + `\s+from\s+` + requestVersionExpr + `\s+to\s+` + requestVersionExpr + `\s*$`)
)

// Request is a stable promotion request. Its rendered title is also its key.
type Request struct {
	Direction Direction
	// From is the current stable version; empty for add requests.
	From string
	To   string
}

// Title renders the canonical issue title for the request
func (r Request) Title() string {
	if r.Direction == DirectionAdd {
		return requestEmoji + addTitlePrefix + " " + r.To
	}
	return requestEmoji + updateTitlePrefix + " from " + r.From + " to " + r.To
}

// ParseRequestTitle recovers a request from an issue title.
// Titles written without the leading emoji or with extra whitespace are accepted.
func ParseRequestTitle(title string) (Request, bool) {
	title = strings.TrimSpace(title)
	if m := addTitlePattern.FindStringSubmatch(title); m != nil {
		return Request{Direction: DirectionAdd, To: m[1]}, true
	}
	if m := updateTitlePattern.FindStringSubmatch(title); m != nil {
		return Request{Direction: DirectionUpdate, From: m[1], To: m[2]}, true
	}
	return Request{}, false
}

// MatchesDirection reports whether a title belongs to the given request kind,
// even when the version part cannot be parsed.
func MatchesDirection(title string, d Direction) bool {
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(title), strings.TrimSpace(requestEmoji)))
	switch d {
	case DirectionAdd:
		return strings.HasPrefix(title, addTitlePrefix)
	case DirectionUpdate:
		return strings.HasPrefix(title, updateTitlePrefix)
	default:
		return false
	}
}

// IsCheckerTitle reports whether a title belongs to a repository checker issue
func IsCheckerTitle(title string) bool {
	return strings.Contains(title, CheckerTitle)
}

// TitleState returns the previous state for subjects whose single item is encoded in the title.
// Unparseable titles yield an empty state.
func TitleState(title string) map[string]bool {
	previous := make(map[string]bool)
	if r, ok := ParseRequestTitle(title); ok {
		previous[r.Title()] = false
	}
	return previous
}
