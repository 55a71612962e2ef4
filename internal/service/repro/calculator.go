// Package repro derives a cow's reproductive cycle state and projected
// milestone dates from its breeding history, and the maturity and weaning
// targets of calves. Everything here is pure: the same snapshot and clock
// always produce the same result.
package repro

import (
	"sort"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// ReproState is the derived reproductive view of a single cow. Date fields are
// nil unless the branch that projects them applies.
type ReproState struct {
	CowID       string                `json:"cow_id"`
	State       State                 `json:"state"`
	LatestEvent *models.BreedingEvent `json:"latest_event,omitempty"`
	LastCalving *time.Time            `json:"last_calving,omitempty"`
	Reopened    bool                  `json:"reopened"`

	ConceptionDate           *time.Time `json:"conception_date,omitempty"`
	EstCalving               *time.Time `json:"est_calving,omitempty"`
	DryOffDate               *time.Time `json:"dry_off_date,omitempty"`
	ChangeFeedDate           *time.Time `json:"change_feed_date,omitempty"`
	NextInseminationEarliest *time.Time `json:"next_insemination_earliest,omitempty"`
	RetryWindowEnd           *time.Time `json:"retry_window_end,omitempty"`

	DaysPregnant              *int `json:"days_pregnant,omitempty"`
	DaysUntilCalving          *int `json:"days_until_calving,omitempty"`
	DaysUntilDryOff           *int `json:"days_until_dry_off,omitempty"`
	DaysUntilChangeFeed       *int `json:"days_until_change_feed,omitempty"`
	DaysUntilNextInsemination *int `json:"days_until_next_insemination,omitempty"`
	DaysUntilRetryWindowEnd   *int `json:"days_until_retry_window_end,omitempty"`

	CanAddInseminationNow bool `json:"can_add_insemination_now"`
	CanRetryNow           bool `json:"can_retry_now"`
	CanConfirmNow         bool `json:"can_confirm_now"`
}

// Compute derives the reproductive state of cow. events may be unsorted and
// may include events of other cows or with a zero date; those are ignored.
func Compute(cow models.Cow, cfg models.TimingConfig, events []models.BreedingEvent, now time.Time) ReproState {
	cfg = cfg.Normalized()
	today := dates.Today(now)

	out := ReproState{CowID: cow.ID, State: StateOpen}
	if cow.LastCalving != nil && !cow.LastCalving.IsZero() {
		out.LastCalving = dates.Ptr(dates.Day(*cow.LastCalving))
	}

	latest := Latest(events, cow.ID)
	if latest != nil {
		ev := *latest
		out.LatestEvent = &ev
	}
	out.State = Transition(StateOpen, latest, out.LastCalving)

	var postpartum *time.Time
	if out.LastCalving != nil {
		postpartum = dates.Ptr(dates.AddDays(*out.LastCalving, cfg.PostpartumInseminationStartDays))
	}

	switch {
	case latest == nil:
		out.NextInseminationEarliest = postpartum

	case out.State == StatePregnant:
		conception := dates.Day(latest.Date)
		out.ConceptionDate = &conception
		out.EstCalving = dates.Ptr(dates.AddDays(conception, cfg.GestationDays))
		out.DryOffDate = dates.Ptr(dates.AddDays(conception, cfg.DryOffAfterSuccessfulInsemDays))
		out.ChangeFeedDate = dates.Ptr(dates.AddDays(conception, cfg.ChangeFeedAfterSuccessfulInsemDays))
		pregnant := dates.DaysBetween(conception, today)
		out.DaysPregnant = &pregnant

	case latest.ConfirmedPregnant:
		// Calving after conception: the cycle completed and a new one started.
		out.Reopened = true
		out.NextInseminationEarliest = postpartum

	case latest.Failed:
		retry := dates.AddDays(latest.Date, cfg.InseminationIntervalDays)
		if postpartum != nil {
			retry = dates.Later(retry, *postpartum)
		}
		out.NextInseminationEarliest = &retry

	default:
		out.RetryWindowEnd = dates.Ptr(dates.AddDays(latest.Date, cfg.InseminationIntervalDays))
	}

	out.DaysUntilCalving = dates.DaysUntil(today, out.EstCalving)
	out.DaysUntilDryOff = dates.DaysUntil(today, out.DryOffDate)
	out.DaysUntilChangeFeed = dates.DaysUntil(today, out.ChangeFeedDate)
	out.DaysUntilNextInsemination = dates.DaysUntil(today, out.NextInseminationEarliest)
	out.DaysUntilRetryWindowEnd = dates.DaysUntil(today, out.RetryWindowEnd)

	if out.State == StateOpen {
		out.CanAddInseminationNow = out.NextInseminationEarliest == nil || !today.Before(*out.NextInseminationEarliest)
	}
	if out.State == StatePending && out.RetryWindowEnd != nil {
		ready := !today.Before(*out.RetryWindowEnd)
		out.CanRetryNow = ready
		out.CanConfirmNow = ready
	}

	return out
}

// Latest returns the most recent valid event belonging to cowID, or nil. An
// empty cowID accepts every event. Events on the same calendar day are ordered
// by CreatedAt and then ID.
func Latest(events []models.BreedingEvent, cowID string) *models.BreedingEvent {
	ordered := sortEvents(validEvents(events, cowID))
	if len(ordered) == 0 {
		return nil
	}
	return &ordered[0]
}

func validEvents(events []models.BreedingEvent, cowID string) []models.BreedingEvent {
	out := make([]models.BreedingEvent, 0, len(events))
	for _, ev := range events {
		if ev.Date.IsZero() {
			continue
		}
		if cowID != "" && ev.CowID != cowID {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// sortEvents orders events newest first.
func sortEvents(events []models.BreedingEvent) []models.BreedingEvent {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		da, db := dates.Day(a.Date), dates.Day(b.Date)
		if !da.Equal(db) {
			return da.After(db)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return events
}
