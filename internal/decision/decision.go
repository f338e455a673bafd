// Package decision turns classified items and the current tracking issue into
// exactly one action and applies it to an issue store.
package decision

import (
	"fmt"

	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Action is the single outcome of one reconciliation pass
type Action string

const (
	// ActionNone leaves the store untouched
	ActionNone Action = "none"
	// ActionCreate opens a new tracking issue
	ActionCreate Action = "create"
	// ActionUpdate rewrites the existing issue and optionally comments on it
	ActionUpdate Action = "update"
	// ActionRecreate opens a successor issue and closes the existing one
	ActionRecreate Action = "recreate"
	// ActionClose comments on and closes the existing issue
	ActionClose Action = "close"
)

// Policy controls how items translate into actions
type Policy struct {
	// ErrorsOnly restricts issue creation to subjects with errors.
	ErrorsOnly bool
	// Suggestions lets suggestions alone trigger issue creation.
	Suggestions bool
	// Recreate replaces the existing issue with a fresh one.
	Recreate bool
	// Recheck forces an update with an acknowledgement comment.
	Recheck bool
	// Cleanup drops resolved lines from the rendered body.
	Cleanup bool
	// SingleItem marks subjects whose item is encoded in the issue title.
	// A new item supersedes the issue instead of updating it.
	SingleItem bool
	// RefreshStale updates issues labelled stale to keep them alive.
	RefreshStale bool
}

// CommentOptions describes why an update comment is rendered
type CommentOptions struct {
	Recheck bool
	Stale   bool
}

// Renderer produces the human readable texts of a subject
type Renderer interface {
	Title(items []finding.Item) string
	// Body renders the issue body; replaces is the number of a superseded issue or 0.
	Body(items []finding.Item, replaces int) string
	// UpdateComment returns "" when the update needs no comment.
	UpdateComment(items []finding.Item, opts CommentOptions) string
	CloseComment(items []finding.Item) string
	SupersededComment(items []finding.Item, successor int) string
}

// Input is everything Decide looks at
type Input struct {
	Existing *tracking.Issue
	Items    []finding.Item
	Fatal    bool
}

// Decision is the outcome of Decide
type Decision struct {
	Action  Action
	Title   string
	Body    string
	Comment string
	// Replaces is the issue superseded by a recreate.
	Replaces int
	Fatal    bool
	Reason   string
	Items    []finding.Item

	supersede func(successor int) string
}

// IssueRef renders an issue reference, "(new issue)" when the number is not known yet
func IssueRef(number int) string {
	if number <= 0 {
		return "(new issue)"
	}
	return fmt.Sprintf("#%d", number)
}

// SupersededComment renders the comment posted on the issue replaced by a recreate
func (d Decision) SupersededComment(successor int) string {
	if d.supersede == nil {
		return ""
	}
	return d.supersede(successor)
}

// Decide computes the single action for one subject. It has no side effects.
func Decide(in Input, policy Policy, r Renderer) Decision {
	if in.Fatal {
		return Decision{Action: ActionNone, Fatal: true, Reason: "check run failed, tracking issue left untouched", Items: in.Items}
	}

	active := activeItems(in.Items)

	if in.Existing == nil {
		if !anyActionable(active, policy) {
			return Decision{Action: ActionNone, Reason: "nothing actionable", Items: in.Items}
		}
		return Decision{
			Action: ActionCreate,
			Title:  r.Title(active),
			Body:   r.Body(active, 0),
			Reason: "new items detected",
			Items:  in.Items,
		}
	}

	if len(active) == 0 {
		d := Decision{
			Action:  ActionClose,
			Comment: r.CloseComment(in.Items),
			Reason:  "all items resolved",
			Items:   in.Items,
		}
		// A title-encoded item has no body lines to tick off, the issue keeps its text.
		if !policy.SingleItem {
			d.Title = r.Title(in.Items)
			d.Body = r.Body(in.Items, 0)
		}
		return d
	}

	if policy.Recreate || (policy.SingleItem && hasState(in.Items, finding.StateNew)) {
		fresh := renew(active)
		items := in.Items
		return Decision{
			Action:   ActionRecreate,
			Title:    r.Title(fresh),
			Body:     r.Body(fresh, in.Existing.Number),
			Replaces: in.Existing.Number,
			Reason:   "issue superseded",
			Items:    in.Items,
			supersede: func(successor int) string {
				return r.SupersededComment(items, successor)
			},
		}
	}

	stale := policy.RefreshStale && in.Existing.HasLabel(tracking.StaleLabel)
	changed := anyChanged(in.Items)
	cleanup := policy.Cleanup && hasState(in.Items, finding.StateResolved)
	if !changed && !cleanup && !policy.Recheck && !stale {
		return Decision{Action: ActionNone, Reason: "no changes", Items: in.Items}
	}

	bodyItems := in.Items
	if policy.Cleanup {
		bodyItems = active
	}
	reason := "items changed"
	switch {
	case policy.Recheck && !changed:
		reason = "recheck requested"
	case stale && !changed:
		reason = "stale label refresh"
	case cleanup && !changed:
		reason = "cleanup of resolved items"
	}
	return Decision{
		Action:  ActionUpdate,
		Title:   r.Title(active),
		Body:    r.Body(bodyItems, 0),
		Comment: r.UpdateComment(in.Items, CommentOptions{Recheck: policy.Recheck, Stale: stale}),
		Reason:  reason,
		Items:   in.Items,
	}
}

func activeItems(items []finding.Item) []finding.Item {
	var active []finding.Item
	for _, item := range items {
		if item.Active() {
			active = append(active, item)
		}
	}
	return active
}

// renew presents present items as they appear on a freshly created issue
func renew(items []finding.Item) []finding.Item {
	fresh := make([]finding.Item, 0, len(items))
	for _, item := range items {
		fresh = append(fresh, finding.Item{Key: item.Key, State: finding.StateNew})
	}
	return fresh
}

func anyActionable(items []finding.Item, policy Policy) bool {
	for _, item := range items {
		switch item.Severity() {
		case finding.SeverityError, finding.SeverityNone:
			return true
		case finding.SeverityWarning:
			if !policy.ErrorsOnly {
				return true
			}
		case finding.SeveritySuggestion:
			if policy.Suggestions && !policy.ErrorsOnly {
				return true
			}
		}
	}
	return false
}

func anyChanged(items []finding.Item) bool {
	for _, item := range items {
		if item.Changed() {
			return true
		}
	}
	return false
}

func hasState(items []finding.Item, state finding.State) bool {
	for _, item := range items {
		if item.State == state {
			return true
		}
	}
	return false
}
