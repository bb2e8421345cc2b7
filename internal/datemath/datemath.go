// Package datemath parses the short date expressions accepted by the
// due-date prompt.
package datemath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"todotree-cli/internal/model"
)

var (
	reDays   = regexp.MustCompile(`^(\d+) ?d(ays?)?$`)
	reWeeks  = regexp.MustCompile(`^(\d+) ?w(eeks?)?$`)
	reMonths = regexp.MustCompile(`^(\d+) ?m(onths?)?$`)
)

// Parse evaluates a due-date expression relative to now.
//
// Accepted forms:
//
//	""            clear the due date (nil)
//	"none"        clear the due date (nil)
//	"2026-01-31"  literal date
//	"today", "tomorrow"
//	"3 days", "2w", "1 month"
//
// Anything else is an error; the caller re-prompts.
func Parse(s string, now time.Time) (*model.Date, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return nil, nil
	case "today":
		d := model.NewDate(now)
		return &d, nil
	case "tomorrow":
		d := model.NewDate(now).AddDays(1)
		return &d, nil
	}

	if m := reDays.FindStringSubmatch(s); m != nil {
		return offset(now, m[1], 1, false)
	}
	if m := reWeeks.FindStringSubmatch(s); m != nil {
		return offset(now, m[1], 7, false)
	}
	if m := reMonths.FindStringSubmatch(s); m != nil {
		return offset(now, m[1], 1, true)
	}

	d, err := model.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q as a date (try 2006-01-02, today, tomorrow, or \"3 days\")", s)
	}
	return &d, nil
}

func offset(now time.Time, digits string, unit int, months bool) (*model.Date, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid offset %q: %w", digits, err)
	}
	base := model.NewDate(now)
	var d model.Date
	if months {
		d = base.AddMonths(n)
	} else {
		d = base.AddDays(n * unit)
	}
	return &d, nil
}
