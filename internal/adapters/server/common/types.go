// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/evanschultz/missionctl/internal/domain"
)

// DefaultPulseLimit bounds pulse reads when callers pass no limit.
const DefaultPulseLimit = 20

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrServiceUnavailable reports a missing backing service.
var ErrServiceUnavailable = errors.New("service unavailable")

// BoardRequest captures one search plus multi-select filter query.
type BoardRequest struct {
	Query      string   `json:"q,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	Domains    []string `json:"domains,omitempty"`
}

// ItemView is one work item as rendered by transport surfaces.
type ItemView struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Kind        string    `json:"type"`
	Glyph       string    `json:"glyph"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Domain      string    `json:"domain,omitempty"`
	Assignee    string    `json:"assignee"`
	Labels      []string  `json:"labels"`
	HiddenLabel int       `json:"hidden_labels,omitempty"`
	URL         string    `json:"url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ColumnView is one ordered status column of a board response.
type ColumnView struct {
	Status string     `json:"status"`
	Label  string     `json:"label"`
	Count  int        `json:"count"`
	Items  []ItemView `json:"items"`
}

// FilterSummary echoes the applied filter back to the caller.
type FilterSummary struct {
	Query       string   `json:"q"`
	Priorities  []string `json:"priorities"`
	Statuses    []string `json:"statuses"`
	Domains     []string `json:"domains"`
	ActiveCount int      `json:"active_count"`
}

// BoardView is the board payload shared by HTTP and MCP callers.
type BoardView struct {
	Filters       FilterSummary       `json:"filters"`
	Columns       []ColumnView        `json:"columns"`
	Excluded      []ItemView          `json:"excluded"`
	Matched       int                 `json:"matched"`
	Stats         domain.MissionStats `json:"stats"`
	FilteredStats domain.MissionStats `json:"filtered_stats"`
}

// ReviewersView is reviewer metrics plus derived sentiment.
type ReviewersView struct {
	TopReviewers       []domain.Reviewer `json:"top_reviewers"`
	CommunityHappiness int               `json:"community_happiness"`
	AnalyzedComments   int               `json:"analyzed_comments"`
	Sentiment          string            `json:"sentiment"`
}

// PulseEventView is one activity event with its relative labels resolved.
type PulseEventView struct {
	domain.PulseEvent
	Ago   string `json:"ago"`
	Badge string `json:"badge"`
}

// Vocabulary lists the values each filter picker offers.
type Vocabulary struct {
	Priorities []string `json:"priorities"`
	Statuses   []string `json:"statuses"`
	Domains    []string `json:"domains"`
}

// MissionService is the read surface consumed by HTTP and MCP adapters.
type MissionService interface {
	Board(context.Context, BoardRequest) (BoardView, error)
	Items(context.Context, BoardRequest) ([]ItemView, error)
	Stats(context.Context) (domain.MissionStats, error)
	Reviewers(context.Context) (ReviewersView, error)
	Contributor(context.Context, string) (domain.Contributor, error)
	Pulse(context.Context, int) ([]PulseEventView, error)
	Vocabulary(context.Context) (Vocabulary, error)
}
