package alerts

import (
	"sort"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// PastDueLimit caps the past-due list.
const PastDueLimit = 100

// DayBucket holds the milestones falling on one calendar day. Date is rendered
// at midday in the anchor's location.
type DayBucket struct {
	Date   time.Time               `json:"date"`
	Events []models.MilestoneEvent `json:"events"`
}

// CalendarView is the week, month and past-due projection of a milestone set.
// Week and MonthDue bucket by due date; WeekAlerts and Month by alert date.
type CalendarView struct {
	Anchor           time.Time               `json:"anchor"`
	WeekStart        time.Time               `json:"week_start"`
	MonthStart       time.Time               `json:"month_start"`
	Week             []DayBucket             `json:"week"`
	WeekAlerts       []DayBucket             `json:"week_alerts"`
	Month            []DayBucket             `json:"month"`
	MonthDue         []DayBucket             `json:"month_due"`
	PastDue          []models.MilestoneEvent `json:"past_due"`
	PastDueTruncated bool                    `json:"past_due_truncated"`
}

// BuildCalendarView projects events around anchor. Weeks start on Sunday.
// PastDue is always relative to now, whatever anchor is browsed.
func BuildCalendarView(events []models.MilestoneEvent, anchor, now time.Time) CalendarView {
	loc := anchor.Location()
	weekStart := dates.WeekStart(anchor)
	monthStart := dates.MonthStart(anchor)
	monthDays := dates.DaysInMonth(anchor)

	view := CalendarView{
		Anchor:     dates.Midday(anchor, loc),
		WeekStart:  dates.Midday(weekStart, loc),
		MonthStart: dates.Midday(monthStart, loc),
		Week:       buckets(weekStart, 7, loc),
		WeekAlerts: buckets(weekStart, 7, loc),
		Month:      buckets(monthStart, monthDays, loc),
		MonthDue:   buckets(monthStart, monthDays, loc),
	}

	for _, ev := range events {
		place(view.Week, weekStart, ev.When, ev)
		place(view.WeekAlerts, weekStart, ev.AlertDate, ev)
		place(view.Month, monthStart, ev.AlertDate, ev)
		place(view.MonthDue, monthStart, ev.When, ev)
	}
	for _, group := range [][]DayBucket{view.Week, view.WeekAlerts, view.Month, view.MonthDue} {
		for i := range group {
			sortBucket(group[i].Events)
		}
	}

	view.PastDue, view.PastDueTruncated = pastDue(events, now)
	return view
}

// PastDue returns events whose alert date precedes today's date, oldest alert
// first, capped at PastDueLimit.
func PastDue(events []models.MilestoneEvent, now time.Time) []models.MilestoneEvent {
	out, _ := pastDue(events, now)
	return out
}

func pastDue(events []models.MilestoneEvent, now time.Time) ([]models.MilestoneEvent, bool) {
	today := dates.Today(now)
	out := make([]models.MilestoneEvent, 0)
	for _, ev := range events {
		if dates.Day(ev.AlertDate).Before(today) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.AlertDate.Equal(b.AlertDate) {
			return a.AlertDate.Before(b.AlertDate)
		}
		return less(a, b)
	})
	if len(out) > PastDueLimit {
		return out[:PastDueLimit], true
	}
	return out, false
}

func buckets(start time.Time, n int, loc *time.Location) []DayBucket {
	out := make([]DayBucket, n)
	for i := range out {
		out[i] = DayBucket{
			Date:   dates.Midday(dates.AddDays(start, i), loc),
			Events: []models.MilestoneEvent{},
		}
	}
	return out
}

func place(group []DayBucket, start, at time.Time, ev models.MilestoneEvent) {
	idx := dates.DaysBetween(start, at)
	if idx < 0 || idx >= len(group) {
		return
	}
	group[idx].Events = append(group[idx].Events, ev)
}

func sortBucket(events []models.MilestoneEvent) {
	sort.SliceStable(events, func(i, j int) bool { return less(events[i], events[j]) })
}

func less(a, b models.MilestoneEvent) bool {
	if !a.When.Equal(b.When) {
		return a.When.Before(b.When)
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.Entity.Name != b.Entity.Name {
		return a.Entity.Name < b.Entity.Name
	}
	return a.Entity.ID < b.Entity.ID
}
