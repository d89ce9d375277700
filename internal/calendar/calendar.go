// Package calendar maps calendar dates to trading sessions.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradecalendar/config"
	"tradecalendar/internal/domain"
)

type Calendar struct {
	loc      *time.Location
	open     time.Duration // offset from local midnight
	close    time.Duration
	weekends bool
}

func New(cfg config.CalendarConfig) (*Calendar, error) {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("calendar location %q: %w", cfg.Location, err)
	}
	openAt, err := parseClock(cfg.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	closeAt, err := parseClock(cfg.SessionClose)
	if err != nil {
		return nil, fmt.Errorf("session close: %w", err)
	}
	if closeAt == openAt {
		return nil, fmt.Errorf("session open and close are both %s", cfg.SessionOpen)
	}
	// A close before the open ends on the next day.
	if closeAt < openAt {
		closeAt += 24 * time.Hour
	}
	return &Calendar{loc: loc, open: openAt, close: closeAt, weekends: cfg.Weekends}, nil
}

// parseClock reads "HH:MM"; "24:00" is accepted as end of day.
func parseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Session returns the detached trading day that opens on date's calendar day
// in the calendar's location.
func (c *Calendar) Session(date time.Time) *domain.Tradingday {
	y, m, d := date.In(c.loc).Date()
	return domain.NewTradingday(c.at(y, m, d, c.open), c.at(y, m, d, c.close))
}

// at applies offset as a wall clock so DST days keep their local open and close.
func (c *Calendar) at(y int, m time.Month, d int, offset time.Duration) time.Time {
	days := int(offset / (24 * time.Hour))
	rest := offset % (24 * time.Hour)
	return time.Date(y, m, d+days, int(rest/time.Hour), int(rest%time.Hour/time.Minute), 0, 0, c.loc)
}

// Sessions lists the sessions opening on each day from..to inclusive.
func (c *Calendar) Sessions(from, to time.Time) []*domain.Tradingday {
	var out []*domain.Tradingday
	first := c.Session(from)
	last := c.Session(to)
	for day := first; !day.Open.After(last.Open); {
		if c.weekends || !isWeekend(day.Open.In(c.loc)) {
			out = append(out, day)
		}
		day = c.Session(day.Open.In(c.loc).AddDate(0, 0, 1))
	}
	return out
}

// SessionOf returns the session containing t, or nil when t falls between
// sessions or on an excluded weekend.
func (c *Calendar) SessionOf(t time.Time) *domain.Tradingday {
	local := t.In(c.loc)
	for _, day := range []*domain.Tradingday{c.Session(local), c.Session(local.AddDate(0, 0, -1))} {
		if t.Before(day.Open) || !t.Before(day.Close) {
			continue
		}
		if !c.weekends && isWeekend(day.Open.In(c.loc)) {
			return nil
		}
		return day
	}
	return nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
