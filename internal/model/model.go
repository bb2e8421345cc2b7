package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a task. Statuses apply to whole subtrees:
// marking a task also marks every descendant.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProcess  Status = "inprocess"
	StatusFinished   Status = "finished"
	StatusDeprecated Status = "deprecated"
)

func NormalizeStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todo":
		return StatusTodo, nil
	case "inprocess", "in-process", "doing":
		return StatusInProcess, nil
	case "finished", "done":
		return StatusFinished, nil
	case "deprecated":
		return StatusDeprecated, nil
	default:
		return "", fmt.Errorf("invalid status: %q (expected todo|inprocess|finished|deprecated)", s)
	}
}

// Closed reports whether the status is an end state.
func (s Status) Closed() bool {
	return s == StatusFinished || s == StatusDeprecated
}

func (s Status) Glyph() string {
	switch s {
	case StatusInProcess:
		return "▣"
	case StatusFinished:
		return "✓"
	case StatusDeprecated:
		return "✗"
	default:
		return "▢"
	}
}

// Urgency is a coarse priority band used for sorting and row styling.
type Urgency string

const (
	UrgencyCritical  Urgency = "critical"
	UrgencyImportant Urgency = "important"
	UrgencyCommon    Urgency = "common"
)

func NormalizeUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "common":
		return UrgencyCommon, nil
	case "important":
		return UrgencyImportant, nil
	case "critical":
		return UrgencyCritical, nil
	default:
		return "", fmt.Errorf("invalid urgency: %q (expected critical|important|common)", s)
	}
}

// Rank orders urgencies for sorting, most urgent first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyImportant:
		return 1
	default:
		return 2
	}
}

// Date is a calendar date without a time component. The JSON form is
// "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Time().AddDate(0, 0, n))
}

func (d Date) AddMonths(n int) Date {
	return NewDate(d.Time().AddDate(0, n, 0))
}

// DaysUntil returns the whole days from now's calendar date until d.
// Negative means overdue.
func (d Date) DaysUntil(now time.Time) int {
	today := NewDate(now)
	return int(d.Time().Sub(today.Time()).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Workspace is the payload carried on workspace tree nodes. The label lives
// on the node itself; the payload is empty but keeps workspace forests a
// distinct type from task forests.
type Workspace struct{}

// Task is the payload carried on todo tree nodes.
type Task struct {
	Status  Status  `json:"status"`
	Due     *Date   `json:"due,omitempty"`
	Urgency Urgency `json:"urgency,omitempty"`
}
