package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/evanschultz/missionctl/internal/domain"
)

// minMarkdownWrap keeps glamour from wrapping narrower than a readable line.
const minMarkdownWrap = 24

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, minMarkdownWrap)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// contributorMarkdown formats a contributor's recent pull requests as a markdown list.
func contributorMarkdown(c domain.Contributor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", c.Login)
	fmt.Fprintf(&b, "**%d** pull requests\n\n", c.PRCount)
	if len(c.RecentPRs) == 0 {
		b.WriteString("_No recent pull requests._\n")
		return b.String()
	}
	b.WriteString("### Recent pull requests\n\n")
	for _, pr := range c.RecentPRs {
		title := strings.TrimSpace(pr.Title)
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("- %s **#%d** %s `%s`", domain.PRStateGlyph(pr.State), pr.Number, title, pr.State)
		if !pr.CreatedAt.IsZero() {
			line += " " + pr.CreatedAt.Format("2006-01-02")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
