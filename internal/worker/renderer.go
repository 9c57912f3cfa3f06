package worker

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/finbrief/finbrief/internal/models"
)

// Renderer turns analyzed announcements into the briefing HTML artifact.
type Renderer struct {
	markdown goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// RenderBriefing builds the briefing page for a date window. Announcements
// below the importance threshold are listed in a low-priority appendix;
// the main body carries the important ones, highest importance first.
func (r *Renderer) RenderBriefing(startDate, endDate string, analyzed []models.AnalyzedAnnouncement) (string, error) {
	source := r.buildMarkdown(startDate, endDate, analyzed)

	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &body); err != nil {
		return "", fmt.Errorf("failed to render briefing markdown: %w", err)
	}

	title := briefingTitle(startDate, endDate)
	return wrapPage(title, body.String()), nil
}

func (r *Renderer) buildMarkdown(startDate, endDate string, analyzed []models.AnalyzedAnnouncement) string {
	sorted := make([]models.AnalyzedAnnouncement, len(analyzed))
	copy(sorted, analyzed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Analysis.Importance > sorted[j].Analysis.Importance
	})

	var important, minor []models.AnalyzedAnnouncement
	for _, item := range sorted {
		if item.Analysis.Importance >= models.BriefingImportanceThreshold {
			important = append(important, item)
		} else {
			minor = append(minor, item)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", briefingTitle(startDate, endDate))

	if len(important) == 0 {
		b.WriteString("No significant announcements in this period.\n\n")
	}
	for _, item := range important {
		fmt.Fprintf(&b, "## %s: %s\n\n", item.Announcement.SecName, item.Announcement.ReportTitle)
		fmt.Fprintf(&b, "**Importance: %d/5** | %s\n\n", item.Analysis.Importance, item.Announcement.ReportDate)
		fmt.Fprintf(&b, "%s\n\n", item.Analysis.Summary)
		fmt.Fprintf(&b, "*%s*\n\n", item.Analysis.Reason)
		fmt.Fprintf(&b, "[Original announcement](%s)\n\n", item.Announcement.DocumentURL)
	}

	if len(minor) > 0 {
		b.WriteString("---\n\n### Lower-priority announcements\n\n")
		for _, item := range minor {
			fmt.Fprintf(&b, "- %s: [%s](%s) (importance %d/5)\n",
				item.Announcement.SecName,
				item.Announcement.ReportTitle,
				item.Announcement.DocumentURL,
				item.Analysis.Importance)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func briefingTitle(startDate, endDate string) string {
	if endDate == "" || endDate == startDate {
		return fmt.Sprintf("Daily Briefing %s", startDate)
	}
	return fmt.Sprintf("Briefing %s to %s", startDate, endDate)
}

func wrapPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; line-height: 1.6; }
h1 { border-bottom: 2px solid #2c5282; padding-bottom: .4rem; }
h2 { margin-top: 2rem; }
a { color: #2c5282; }
hr { border: none; border-top: 1px solid #ddd; margin: 2rem 0; }
</style>
</head>
<body>
%s</body>
</html>
`, title, body)
}
