package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func modalBodyWidth(termWidth int) int {
	w := termWidth - 16
	if w > 64 {
		w = 64
	}
	if w < 24 {
		w = 24
	}
	return w
}

// renderModalBox draws a bordered modal with a header line. Borders nested
// inside background-colored components show artifacts on some terminals, so
// the body itself stays border-free.
func renderModalBox(termWidth int, title, content string) string {
	bodyW := modalBodyWidth(termWidth)

	header := lipgloss.NewStyle().
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Bold(true).
		Width(bodyW).
		Padding(0, 1).
		Render(title)

	body := lipgloss.NewStyle().
		Width(bodyW).
		Padding(0, 1).
		Render(content)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorActiveBorder).
		Render(header + "\n" + body)
}

// renderInputLine keeps a textinput view to a single visual line. Newlines
// (or ANSI overflow from cursor styling) would otherwise trigger wrapping
// that looks like inserted newlines while typing.
func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

func renderPromptModal(termWidth int, p *PromptView) string {
	bodyW := modalBodyWidth(termWidth)

	var parts []string
	parts = append(parts, renderInputLine(bodyW-2, p.Input))
	if p.Error != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorOverdue).Width(bodyW-2).Render(p.Error))
	}
	hint := p.Hint
	if hint == "" {
		hint = "enter: accept   esc/ctrl+g: cancel"
	}
	parts = append(parts, "", styleMuted().Width(bodyW-2).Render(hint))

	return renderModalBox(termWidth, p.Title, strings.Join(parts, "\n"))
}

func renderConfirmModal(termWidth int, c *ConfirmView) string {
	bodyW := modalBodyWidth(termWidth)

	body := lipgloss.NewStyle().Width(bodyW - 2).Render(c.Body)
	help := styleMuted().Width(bodyW - 2).Render("y/enter: confirm   n/esc: cancel")
	return renderModalBox(termWidth, c.Title, body+"\n\n"+help)
}
