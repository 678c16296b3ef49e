package domain

// Glyph tables keyed by enum value. Unknown keys fall back to a neutral glyph.

const fallbackGlyph = "•"

var kindGlyphs = map[ItemKind]string{
	KindIssue:       "◌",
	KindPullRequest: "⇄",
}

var eventGlyphs = map[EventType]string{
	EventPush:    "↑",
	EventPR:      "⇄",
	EventIssue:   "◉",
	EventComment: "✎",
	EventStar:    "★",
	EventFork:    "⑂",
	EventSystem:  "◇",
}

var statusLabels = map[Status]string{
	StatusBacklog:    "Backlog",
	StatusReady:      "Ready / Todo",
	StatusInProgress: "In Progress",
	StatusInReview:   "In Review",
	StatusDone:       "Done",
}

var prStateGlyphs = map[PRState]string{
	PRStateOpen:   "○",
	PRStateClosed: "✕",
	PRStateMerged: "⑃",
}

func lookupGlyph[K comparable](table map[K]string, key K, fallback string) string {
	if glyph, ok := table[key]; ok {
		return glyph
	}
	return fallback
}

// KindGlyph returns the glyph for an item kind.
func KindGlyph(kind ItemKind) string {
	return lookupGlyph(kindGlyphs, kind, fallbackGlyph)
}

// ItemGlyph returns the grid status glyph: done items show a check, PRs their kind glyph, issues a dashed circle.
func ItemGlyph(item WorkItem) string {
	if item.IsDone() {
		return "✔"
	}
	return KindGlyph(item.Kind)
}

// EventGlyph returns the glyph for an activity event type.
func EventGlyph(eventType EventType) string {
	return lookupGlyph(eventGlyphs, eventType, fallbackGlyph)
}

// PRStateGlyph returns the glyph for a pull request state.
func PRStateGlyph(state PRState) string {
	return lookupGlyph(prStateGlyphs, state, fallbackGlyph)
}

// SentimentGlyph returns a face for a happiness score.
func SentimentGlyph(score int) string {
	switch {
	case score >= 70:
		return "☺"
	case score >= 40:
		return "◦"
	default:
		return "☹"
	}
}

// StatusLabel returns the default column heading for a status.
func StatusLabel(status Status) string {
	return lookupGlyph(statusLabels, status, string(status))
}
