package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EventType classifies one activity pulse event.
type EventType string

// EventType values.
const (
	EventPush    EventType = "push"
	EventPR      EventType = "pr"
	EventIssue   EventType = "issue"
	EventComment EventType = "comment"
	EventStar    EventType = "star"
	EventFork    EventType = "fork"
	EventSystem  EventType = "system"
)

// PulseEvent is one entry in the rotating activity feed.
// Time is kept as the raw feed string so malformed values degrade at render time.
type PulseEvent struct {
	ID     string    `json:"id,omitempty"`
	User   string    `json:"user"`
	Action string    `json:"action"`
	Time   string    `json:"time"`
	Type   EventType `json:"type"`
	Avatar string    `json:"avatar,omitempty"`
}

var pulseTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePulseTime parses the timestamp formats accepted in activity feeds.
func ParsePulseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range pulseTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// TimeAgo renders a compact relative label: "now", "Nm", "Nh" or "Nd".
// Unparseable timestamps yield an empty label.
func TimeAgo(raw string, now time.Time) string {
	ts, ok := ParsePulseTime(raw)
	if !ok {
		return ""
	}
	mins := roundHalfUp(now.Sub(ts).Minutes())
	switch {
	case mins < 1:
		return "now"
	case mins < 60:
		return fmt.Sprintf("%dm", int(mins))
	case mins < 1440:
		return fmt.Sprintf("%dh", int(roundHalfUp(mins/60)))
	default:
		return fmt.Sprintf("%dd", int(roundHalfUp(mins/1440)))
	}
}

// LiveLabel is the ticker badge: STANDBY for system events, LIVE_<ago> otherwise.
func (e PulseEvent) LiveLabel(now time.Time) string {
	if e.Type == EventSystem {
		return "STANDBY"
	}
	return "LIVE_" + TimeAgo(e.Time, now)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
