package tui

import (
	_ "embed"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

//go:embed help.md
var helpMarkdown string

var (
	mdRendererMu sync.Mutex
	// Cache renderers by wrap width + style. Creating a renderer with
	// WithAutoStyle can trigger terminal capability queries that block on
	// some terminals, so we pick the style ourselves and cache per width.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	mdRendererMu.Lock()
	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// renderHelp draws the help screen full-frame with simple line scrolling.
func renderHelp(v View) string {
	width := v.Width - 4
	if width > 100 {
		width = 100
	}
	body := renderMarkdown(helpMarkdown, width)
	lines := strings.Split(body, "\n")

	visible := v.Height - 2
	if visible < 1 {
		visible = 1
	}
	maxScroll := len(lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	scroll := 0
	if v.Help != nil {
		scroll = v.Help.Scroll
	}
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + visible
	if end > len(lines) {
		end = len(lines)
	}

	content := strings.Join(lines[scroll:end], "\n")
	footer := styleMuted().Render("j/k scroll   esc/q close")
	return normalizePane(content, v.Width, v.Height-1) + "\n" + truncateLine(footer, v.Width)
}

// HelpLineCount reports how many rendered help lines exist at the given
// terminal size so the session can clamp its scroll offset.
func HelpLineCount(termWidth int) int {
	width := termWidth - 4
	if width > 100 {
		width = 100
	}
	return len(strings.Split(renderMarkdown(helpMarkdown, width), "\n"))
}
