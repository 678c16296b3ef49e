package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ItemKind distinguishes issues from pull requests.
type ItemKind string

// ItemKind values.
const (
	KindIssue       ItemKind = "issue"
	KindPullRequest ItemKind = "pr"
)

// Status is the board lifecycle column of a work item.
type Status string

// Canonical statuses in board display order.
const (
	StatusBacklog    Status = "Backlog"
	StatusReady      Status = "Ready"
	StatusInProgress Status = "In Progress"
	StatusInReview   Status = "In Review"
	StatusDone       Status = "Done"
)

var canonicalStatuses = []Status{
	StatusBacklog,
	StatusReady,
	StatusInProgress,
	StatusInReview,
	StatusDone,
}

// CanonicalStatuses returns the five board statuses in display order.
func CanonicalStatuses() []Status {
	return append([]Status(nil), canonicalStatuses...)
}

// IsCanonical reports whether the status is one of the five board statuses.
func (s Status) IsCanonical() bool {
	return s.Index() >= 0
}

// Index returns the canonical position of the status, or -1 when unrecognized.
func (s Status) Index() int {
	return slices.Index(canonicalStatuses, s)
}

// Priority is the triage priority of a work item.
type Priority string

// Priority values.
const (
	PriorityHigh   Priority = "High"
	PriorityNormal Priority = "Normal"
	PriorityLow    Priority = "Low"
)

var validPriorities = []Priority{PriorityHigh, PriorityNormal, PriorityLow}

// Priorities returns the priority vocabulary in picker order.
func Priorities() []Priority {
	return append([]Priority(nil), validPriorities...)
}

var defaultDomains = []string{"Frontend", "Backend", "DevOps", "Docs", "General"}

// DefaultDomains returns the suggested domain vocabulary.
func DefaultDomains() []string {
	return append([]string(nil), defaultDomains...)
}

// Assignee identifies the person working an item.
type Assignee struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// WorkItem is one issue or pull request shown on the board.
type WorkItem struct {
	ID           string    `json:"id"`
	Number       int       `json:"number,omitempty"`
	Kind         ItemKind  `json:"type"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	Domain       string    `json:"domain"`
	Assignee     *Assignee `json:"assignee"`
	Labels       []string  `json:"labels"`
	URL          string    `json:"url"`
	UpdatedAt    time.Time `json:"updated_at"`
	SourceBranch string    `json:"source_branch,omitempty"`
}

// WorkItemInput holds the raw values used to construct a WorkItem.
type WorkItemInput struct {
	ID           string
	Number       int
	Kind         ItemKind
	Title        string
	Status       Status
	Priority     Priority
	Domain       string
	Assignee     *Assignee
	Labels       []string
	URL          string
	UpdatedAt    time.Time
	SourceBranch string
}

// NewWorkItem validates input and returns a normalized WorkItem.
// Status is kept verbatim so unrecognized values survive import.
func NewWorkItem(in WorkItemInput) (WorkItem, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Domain = strings.TrimSpace(in.Domain)
	in.URL = strings.TrimSpace(in.URL)
	in.SourceBranch = strings.TrimSpace(in.SourceBranch)

	if in.ID == "" {
		return WorkItem{}, ErrInvalidID
	}
	if in.Title == "" {
		return WorkItem{}, ErrInvalidTitle
	}
	if in.Kind == "" {
		in.Kind = KindIssue
	}
	if in.Kind != KindIssue && in.Kind != KindPullRequest {
		return WorkItem{}, ErrInvalidKind
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return WorkItem{}, ErrInvalidPriority
	}
	if in.Number < 0 {
		in.Number = 0
	}

	var assignee *Assignee
	if in.Assignee != nil {
		login := strings.TrimSpace(in.Assignee.Login)
		if login != "" {
			assignee = &Assignee{Login: login, AvatarURL: strings.TrimSpace(in.Assignee.AvatarURL)}
		}
	}

	return WorkItem{
		ID:           in.ID,
		Number:       in.Number,
		Kind:         in.Kind,
		Title:        in.Title,
		Status:       Status(strings.TrimSpace(string(in.Status))),
		Priority:     in.Priority,
		Domain:       in.Domain,
		Assignee:     assignee,
		Labels:       normalizeLabels(in.Labels),
		URL:          in.URL,
		UpdatedAt:    in.UpdatedAt.UTC(),
		SourceBranch: in.SourceBranch,
	}, nil
}

// DisplayNumber renders "#N" when the item has a number, otherwise its id.
func (w WorkItem) DisplayNumber() string {
	if w.Number > 0 {
		return fmt.Sprintf("#%d", w.Number)
	}
	return w.ID
}

// AssigneeLogin returns the assignee login or "unassigned".
func (w WorkItem) AssigneeLogin() string {
	if w.Assignee == nil || strings.TrimSpace(w.Assignee.Login) == "" {
		return "unassigned"
	}
	return w.Assignee.Login
}

// VisibleLabels returns at most n labels and the count of the hidden remainder.
func (w WorkItem) VisibleLabels(n int) ([]string, int) {
	if n < 0 {
		n = 0
	}
	if len(w.Labels) <= n {
		return append([]string(nil), w.Labels...), 0
	}
	return append([]string(nil), w.Labels[:n]...), len(w.Labels) - n
}

func (w WorkItem) IsPullRequest() bool {
	return w.Kind == KindPullRequest
}

func (w WorkItem) IsDone() bool {
	return w.Status == StatusDone
}

// normalizeLabels trims labels and drops blanks and duplicates, keeping first-seen order.
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
