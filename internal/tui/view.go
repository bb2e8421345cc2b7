// Package tui renders application state into terminal frames. Everything
// here is a pure function from a View snapshot to a string: no channels, no
// tree access, no globals beyond the theme.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"todotree-cli/internal/model"
)

// Pane indices for View.ActivePane.
const (
	PaneWorkspace = iota
	PaneTodoList
	PaneArchived
)

// Row is one rendered tree line.
type Row struct {
	Depth       int
	Label       string
	Glyph       string // status glyph for tasks, "" for workspaces
	Due         *model.Date
	Urgency     model.Urgency
	Done        bool
	Selected    bool
	Expanded    bool
	HasChildren bool
}

type PromptView struct {
	Title string
	Input string // pre-rendered textinput view
	Hint  string
	Error string
}

type ConfirmView struct {
	Title string
	Body  string
}

type HelpView struct {
	Scroll int
}

// View is the complete input to a frame render.
type View struct {
	Width, Height int
	Now           time.Time

	ActivePane int
	ModeLabel  string
	Filter     string
	Status     string

	Workspaces []Row
	Archived   []Row
	Tasks      []Row
	TaskTitle  string // label of the open workspace, "" when none

	Prompt  *PromptView
	Confirm *ConfirmView
	Help    *HelpView
}

// Render produces one full frame.
func Render(v View) string {
	if v.Width <= 0 {
		v.Width = 80
	}
	if v.Height <= 0 {
		v.Height = 24
	}
	if v.Now.IsZero() {
		v.Now = time.Now()
	}

	if v.Help != nil {
		return renderHelp(v)
	}

	base := renderPanes(v)
	switch {
	case v.Prompt != nil:
		return placeCentered(v.Width, v.Height, renderPromptModal(v.Width, v.Prompt))
	case v.Confirm != nil:
		return placeCentered(v.Width, v.Height, renderConfirmModal(v.Width, v.Confirm))
	}
	return base
}

func renderPanes(v View) string {
	bodyH := v.Height - 1 // reserve the status line
	if bodyH < 3 {
		bodyH = 3
	}
	leftW := v.Width / 3
	if leftW < 20 {
		leftW = 20
	}
	rightW := v.Width - leftW
	if rightW < 20 {
		rightW = 20
	}

	wsH := bodyH * 2 / 3
	archH := bodyH - wsH

	ws := renderPane("Workspaces", v.Workspaces, v.Now, leftW, wsH, v.ActivePane == PaneWorkspace)
	arch := renderPane("Archived", v.Archived, v.Now, leftW, archH, v.ActivePane == PaneArchived)

	taskTitle := "Todo"
	if v.TaskTitle != "" {
		taskTitle = "Todo: " + v.TaskTitle
	}
	tasks := renderPane(taskTitle, v.Tasks, v.Now, rightW, bodyH, v.ActivePane == PaneTodoList)

	left := lipgloss.JoinVertical(lipgloss.Left, ws, arch)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, tasks)
	return body + "\n" + renderStatusLine(v)
}

func renderPane(title string, rows []Row, now time.Time, width, height int, active bool) string {
	border := lipgloss.NormalBorder()
	borderColor := colorPaneBorder
	if active {
		border = lipgloss.ThickBorder()
		borderColor = colorActiveBorder
	}
	// One title line plus two border lines around the content.
	innerW := width - 2
	innerH := height - 3
	if innerW < 4 {
		innerW = 4
	}
	if innerH < 1 {
		innerH = 1
	}

	var b strings.Builder
	if len(rows) == 0 {
		b.WriteString(styleMuted().Render("(empty)"))
	}
	// Keep the selection visible: scroll the window so the selected row is
	// always inside the pane.
	start := 0
	sel := -1
	for i, r := range rows {
		if r.Selected {
			sel = i
			break
		}
	}
	if sel >= innerH {
		start = sel - innerH + 1
	}
	end := start + innerH
	if end > len(rows) {
		end = len(rows)
	}
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(renderRow(rows[i], now, innerW))
	}

	content := normalizePane(b.String(), innerW, innerH)
	st := lipgloss.NewStyle().
		Border(border).
		BorderForeground(borderColor).
		Width(innerW)
	titled := lipgloss.NewStyle().Foreground(colorChromeFg).Bold(active).Render(" " + title + " ")
	return titled + "\n" + st.Render(content)
}

func renderRow(r Row, now time.Time, width int) string {
	indent := strings.Repeat("  ", r.Depth)

	marker := "  "
	if r.HasChildren {
		if r.Expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}

	var parts []string
	parts = append(parts, indent+marker)
	if r.Glyph != "" {
		parts = append(parts, r.Glyph+" ")
	}
	parts = append(parts, r.Label)
	line := strings.Join(parts, "")

	var meta string
	if r.Due != nil {
		meta = " " + renderDue(*r.Due, now, r.Done)
	}
	if r.Urgency == model.UrgencyCritical && !r.Done {
		meta += " " + lipgloss.NewStyle().Foreground(colorCritical).Render("!")
	}

	st := lipgloss.NewStyle()
	switch {
	case r.Selected:
		st = st.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	case r.Done:
		st = styleMuted().Strikethrough(true)
	default:
		st = st.Foreground(colorSurfaceFg)
	}
	return truncateLine(st.Render(line)+meta, width)
}

// renderDue renders a due date with urgency coloring and a days-left hint.
func renderDue(d model.Date, now time.Time, done bool) string {
	if done {
		return styleMuted().Render(d.String())
	}
	days := d.DaysUntil(now)
	switch {
	case days < 0:
		return lipgloss.NewStyle().Foreground(colorOverdue).Bold(true).
			Render(fmt.Sprintf("%s (%dd over)", d, -days))
	case days == 0:
		return lipgloss.NewStyle().Foreground(colorOverdue).Render(d.String() + " (today)")
	case days <= 7:
		return lipgloss.NewStyle().Foreground(colorDueSoon).
			Render(fmt.Sprintf("%s (%dd left)", d, days))
	default:
		return styleMuted().Render(d.String())
	}
}

func renderStatusLine(v View) string {
	mode := lipgloss.NewStyle().
		Foreground(colorSelectedFg).
		Background(colorAccent).
		Padding(0, 1).
		Render(strings.ToUpper(v.ModeLabel))

	var mid string
	if v.Filter != "" {
		mid = " filter: " + v.Filter
	}
	if v.Status != "" {
		mid += " " + v.Status
	}

	hint := styleMuted().Render(keymapHint(v.ActivePane, v.ModeLabel))
	line := mode + mid + " " + hint
	return truncateLine(line, v.Width)
}

func keymapHint(pane int, mode string) string {
	switch mode {
	case "search":
		return "j/k move  enter open  esc clear filter"
	case "sort":
		return "l label  d due  u urgency  s status  esc cancel"
	case "insert":
		return "enter accept  esc cancel"
	}
	switch pane {
	case PaneTodoList:
		return "a add  i child  t/p/c/D status  d due  s sort  f filter  h help  q quit"
	case PaneArchived:
		return "enter recover  x delete  tab focus  h help  q quit"
	default:
		return "a add  i child  enter open  A archive  f filter  h help  q quit"
	}
}
