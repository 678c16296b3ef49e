package tui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/missionctl/internal/board"
	"github.com/evanschultz/missionctl/internal/domain"
)

// EmptyReviewersMessage fills the reviewers panel before any review data exists.
const EmptyReviewersMessage = "Scanning repository for recent peer reviews..."

// meterWidth is the cell width of the community happiness bar.
const meterWidth = 24

// statTrend is a stat card's movement since the previous load.
type statTrend int

const (
	trendNeutral statTrend = iota
	trendUp
	trendDown
)

var trendGlyphs = map[statTrend]string{
	trendUp:   "↑",
	trendDown: "↓",
}

var trendColors = map[statTrend]color.Color{
	trendUp:   lipgloss.Color("114"),
	trendDown: lipgloss.Color("203"),
}

var cardThemes = map[string]color.Color{
	"purple": lipgloss.Color("135"),
	"cyan":   lipgloss.Color("44"),
}

// defaultCardTheme is used for cards with no or unknown theme name.
var defaultCardTheme = lipgloss.Color("69")

// statCard is one headline count rendered above the board.
type statCard struct {
	title    string
	value    int
	filtered int
	previous int
	theme    string
}

func trendFor(current, previous int) statTrend {
	switch {
	case current > previous:
		return trendUp
	case current < previous:
		return trendDown
	default:
		return trendNeutral
	}
}

func trendGlyph(t statTrend) string {
	if glyph, ok := trendGlyphs[t]; ok {
		return glyph
	}
	return "–"
}

func trendColor(t statTrend, fallback color.Color) color.Color {
	if c, ok := trendColors[t]; ok {
		return c
	}
	return fallback
}

func cardTheme(name string) color.Color {
	if c, ok := cardThemes[name]; ok {
		return c
	}
	return defaultCardTheme
}

// statCards pairs whole-dataset counts with the filtered view.
func (m Model) statCards() []statCard {
	filtered := domain.MissionStats{}
	if !m.filter.IsZero() {
		filtered = board.Stats(m.board.Items)
	}
	return []statCard{
		{title: "Total", value: m.stats.Total, filtered: filtered.Total, previous: m.prevStats.Total},
		{title: "Backlog", value: m.stats.Backlog, filtered: filtered.Backlog, previous: m.prevStats.Backlog, theme: "cyan"},
		{title: "In Progress", value: m.stats.InProgress, filtered: filtered.InProgress, previous: m.prevStats.InProgress, theme: "purple"},
		{title: "Done", value: m.stats.Done, filtered: filtered.Done, previous: m.prevStats.Done},
	}
}

// renderStatCards renders the stat cards in one row.
func (m Model) renderStatCards(muted, dim color.Color) string {
	cards := m.statCards()
	cardWidth := clamp((m.width-len(cards))/len(cards)-2, 14, 30)
	showFiltered := !m.filter.IsZero()
	views := make([]string, 0, len(cards))
	for _, card := range cards {
		theme := cardTheme(card.theme)
		trend := trendFor(card.value, card.previous)
		title := lipgloss.NewStyle().Foreground(muted).Render(strings.ToUpper(card.title))
		arrow := lipgloss.NewStyle().Foreground(trendColor(trend, muted)).Render(trendGlyph(trend))
		head := title + strings.Repeat(" ", max(1, cardWidth-2-lipgloss.Width(title)-lipgloss.Width(arrow))) + arrow
		value := lipgloss.NewStyle().Bold(true).Foreground(theme).Render(strconv.Itoa(card.value))
		desc := "all items"
		if showFiltered {
			desc = fmt.Sprintf("%d shown", card.filtered)
		}
		body := strings.Join([]string{head, value, lipgloss.NewStyle().Foreground(muted).Render(desc)}, "\n")
		views = append(views, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1).
			MarginRight(1).
			Width(cardWidth).
			Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderReviewers renders the reviewer leaderboard with the happiness meter.
func (m Model) renderReviewers(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 44, 72)
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Top reviewers")
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	badge := lipgloss.NewStyle().Foreground(lipgloss.Color("221")).Render("★ maintainer")

	lines := []string{title, ""}
	if len(m.reviewers.TopReviewers) == 0 {
		lines = append(lines, mutedStyle.Render(EmptyReviewersMessage))
	}
	for idx, reviewer := range m.reviewers.TopReviewers {
		name := truncate(reviewer.Name, 20)
		line := fmt.Sprintf("#%d %s", idx+1, name)
		if idx == m.reviewerIndex {
			line = selectedStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		if reviewer.IsMaintainer {
			line += " " + badge
		}
		count := mutedStyle.Render(fmt.Sprintf("%d reviews", reviewer.Count))
		pad := max(1, width-4-lipgloss.Width(line)-lipgloss.Width(count))
		lines = append(lines, line+strings.Repeat(" ", pad)+count)
	}

	score := clamp(m.reviewers.CommunityHappiness, 0, 100)
	sentiment := domain.SentimentGlyph(score) + " " + string(domain.SentimentFor(score))
	lines = append(lines,
		"",
		lipgloss.NewStyle().Bold(true).Render("Community happiness")+"  "+sentiment+"  "+strconv.Itoa(score)+"%",
		renderMeter(score, meterWidth, sentimentColor(score), dim),
		mutedStyle.Render(fmt.Sprintf("%d comments analyzed", m.reviewers.AnalyzedComments)),
		"",
		mutedStyle.Render("enter details • esc close"),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderContributor renders the contributor modal body through glamour.
func (m Model) renderContributor(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 44, 90)
	body := m.markdown.render(contributorMarkdown(m.contributor), width-4)
	if m.height > 0 {
		body = fitLines(body, max(4, m.height-8))
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Contributor"),
		body,
		lipgloss.NewStyle().Foreground(muted).Render("esc close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderMeter draws a filled bar for a 0-100 score.
func renderMeter(score, width int, fill, empty color.Color) string {
	filled := clamp(score*width/100, 0, width)
	return lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(empty).Render(strings.Repeat("░", width-filled))
}

func sentimentColor(score int) color.Color {
	switch domain.SentimentFor(score) {
	case domain.SentimentThriving, domain.SentimentHealthy:
		return lipgloss.Color("114")
	case domain.SentimentNeutral:
		return lipgloss.Color("221")
	default:
		return lipgloss.Color("203")
	}
}
