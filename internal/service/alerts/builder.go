// Package alerts turns projected animal milestones into dated alert events,
// hides acknowledged ones, and buckets the rest into calendar views.
package alerts

import (
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

// Input is the snapshot milestones are built from.
type Input struct {
	Cows   []models.Cow
	Calves []models.Calf
	Config models.TimingConfig
	Events []models.BreedingEvent
	Now    time.Time
}

// Skip records why a record contributed nothing.
type Skip struct {
	Entity models.EntityRef `json:"entity"`
	Reason string           `json:"reason"`
}

// Skip reasons.
const (
	ReasonInvalidDate   = "invalid date"
	ReasonUnknownCow    = "unknown cow"
	ReasonMissingBirth  = "missing birth date"
	ReasonUnknownGender = "unknown gender"
)

// Result is the output of Build.
type Result struct {
	Events  []models.MilestoneEvent
	Skipped []Skip
}

// BuildMilestones returns every projected milestone for the herd. Output order
// carries no meaning.
func BuildMilestones(cows []models.Cow, calves []models.Calf, cfg models.TimingConfig, events []models.BreedingEvent, now time.Time) []models.MilestoneEvent {
	return Build(Input{Cows: cows, Calves: calves, Config: cfg, Events: events, Now: now}).Events
}

// Build is BuildMilestones that also reports the records it skipped. A
// malformed record never prevents the others from producing milestones.
func Build(in Input) Result {
	cfg := in.Config.Normalized()
	var res Result

	known := make(map[string]bool, len(in.Cows))
	for _, cow := range in.Cows {
		known[cow.ID] = true
	}

	byCow := make(map[string][]models.BreedingEvent)
	for _, ev := range in.Events {
		ref := models.EntityRef{Type: models.EntityCow, ID: ev.CowID}
		switch {
		case !known[ev.CowID]:
			res.Skipped = append(res.Skipped, Skip{Entity: ref, Reason: ReasonUnknownCow})
		case ev.Date.IsZero():
			res.Skipped = append(res.Skipped, Skip{Entity: ref, Reason: ReasonInvalidDate})
		default:
			byCow[ev.CowID] = append(byCow[ev.CowID], ev)
		}
	}

	for _, cow := range in.Cows {
		ref := models.EntityRef{Type: models.EntityCow, ID: cow.ID, Name: cow.DisplayName()}
		if cow.LastCalving != nil && cow.LastCalving.IsZero() {
			res.Skipped = append(res.Skipped, Skip{Entity: ref, Reason: ReasonInvalidDate})
			continue
		}
		res.Events = append(res.Events, cowMilestones(ref, cow, cfg, byCow[cow.ID], in.Now)...)
	}

	for _, calf := range in.Calves {
		if calf.Graduated || !calf.IsAlive() {
			continue
		}
		ref := models.EntityRef{Type: models.EntityCalf, ID: calf.ID, Name: calf.DisplayName()}
		events, reason := calfMilestones(ref, calf, cfg, in.Now)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skip{Entity: ref, Reason: reason})
			continue
		}
		res.Events = append(res.Events, events...)
	}

	return res
}

func cowMilestones(ref models.EntityRef, cow models.Cow, cfg models.TimingConfig, events []models.BreedingEvent, now time.Time) []models.MilestoneEvent {
	st := repro.Compute(cow, cfg, events, now)

	base := map[string]any{"state": string(st.State)}
	if st.LatestEvent != nil {
		base["breeding_event_id"] = st.LatestEvent.ID
	}

	var out []models.MilestoneEvent
	add := func(t models.MilestoneType, when *time.Time) {
		if when == nil {
			return
		}
		meta := make(map[string]any, len(base)+1)
		for k, v := range base {
			meta[k] = v
		}
		if st.ConceptionDate != nil {
			meta["conception_date"] = st.ConceptionDate.Format(dates.Layout)
		}
		out = append(out, milestone(ref, t, *when, cfg, meta))
	}

	add(models.MilestoneCalving, st.EstCalving)
	add(models.MilestoneDryOff, st.DryOffDate)
	add(models.MilestoneChangeFeed, st.ChangeFeedDate)
	add(models.MilestoneInsemination, st.NextInseminationEarliest)
	add(models.MilestonePregnancyCheck, st.RetryWindowEnd)
	return out
}

func calfMilestones(ref models.EntityRef, calf models.Calf, cfg models.TimingConfig, now time.Time) ([]models.MilestoneEvent, string) {
	if calf.BirthDate == nil {
		return nil, ReasonMissingBirth
	}
	if calf.BirthDate.IsZero() {
		return nil, ReasonInvalidDate
	}
	adult, ok := repro.AdultType(calf.Gender)
	if !ok {
		return nil, ReasonUnknownGender
	}

	var out []models.MilestoneEvent
	if w := repro.Weaning(calf, cfg, now); w.Applicable {
		out = append(out, milestone(ref, models.MilestoneWeaning, *w.TargetDate, cfg, map[string]any{
			"gender": string(calf.Gender),
		}))
	}
	if m := repro.Maturity(calf, cfg, now); m.Applicable {
		out = append(out, milestone(ref, models.MilestoneGraduation, *m.TargetDate, cfg, map[string]any{
			"gender":     string(calf.Gender),
			"adult_type": string(adult),
			"ready":      m.Ready,
		}))
	}
	return out, ""
}

func milestone(ref models.EntityRef, t models.MilestoneType, when time.Time, cfg models.TimingConfig, meta map[string]any) models.MilestoneEvent {
	when = dates.Day(when)
	return models.MilestoneEvent{
		Entity:    ref,
		Type:      t,
		When:      when,
		AlertDate: dates.AddDays(when, -cfg.LeadTime(t)),
		Meta:      meta,
	}
}
