package models

import "time"

// LegacyDaysPerMonth converts the month-based intervals of schema version 1.
const LegacyDaysPerMonth = 30

// SettingsVersion is the current stored schema version of SettingsDocument.
const SettingsVersion = 2

// TimingConfig is the canonical per-farm timing configuration consumed by the
// calculators. Every field is populated; obtain one through
// SettingsDocument.Canonicalize or DefaultTiming.
type TimingConfig struct {
	GestationDays                      int `json:"gestation_days"`
	DryOffAfterSuccessfulInsemDays     int `json:"dry_off_after_successful_insem_days"`
	ChangeFeedAfterSuccessfulInsemDays int `json:"change_feed_after_successful_insem_days"`
	PostpartumInseminationStartDays    int `json:"postpartum_insemination_start_days"`
	InseminationIntervalDays           int `json:"insemination_interval_days"`

	LeadTimes map[MilestoneType]int `json:"lead_times"`

	MaleWeaningDays      int `json:"male_weaning_days"`
	FemaleWeaningDays    int `json:"female_weaning_days"`
	MaleMaturityMonths   int `json:"male_maturity_months"`
	FemaleMaturityMonths int `json:"female_maturity_months"`
}

// DefaultTiming returns the single default table every consumer falls back to.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		GestationDays:                      283,
		DryOffAfterSuccessfulInsemDays:     220,
		ChangeFeedAfterSuccessfulInsemDays: 260,
		PostpartumInseminationStartDays:    45,
		InseminationIntervalDays:           21,
		LeadTimes: map[MilestoneType]int{
			MilestoneCalving:        14,
			MilestoneDryOff:         7,
			MilestoneChangeFeed:     7,
			MilestonePregnancyCheck: 3,
			MilestoneInsemination:   3,
			MilestoneGraduation:     14,
			MilestoneWeaning:        7,
		},
		MaleWeaningDays:      120,
		FemaleWeaningDays:    90,
		MaleMaturityMonths:   18,
		FemaleMaturityMonths: 24,
	}
}

// LeadTime returns the alert lead time for t, falling back to the default table.
func (c TimingConfig) LeadTime(t MilestoneType) int {
	if v, ok := c.LeadTimes[t]; ok && v >= 0 {
		return v
	}
	return DefaultTiming().LeadTimes[t]
}

// WeaningDays returns the weaning threshold for g. ok is false for an unknown gender.
func (c TimingConfig) WeaningDays(g Gender) (days int, ok bool) {
	switch g {
	case GenderMale:
		return c.MaleWeaningDays, true
	case GenderFemale:
		return c.FemaleWeaningDays, true
	}
	return 0, false
}

// MaturityMonths returns the graduation threshold for g. ok is false for an unknown gender.
func (c TimingConfig) MaturityMonths(g Gender) (months int, ok bool) {
	switch g {
	case GenderMale:
		return c.MaleMaturityMonths, true
	case GenderFemale:
		return c.FemaleMaturityMonths, true
	}
	return 0, false
}

// SettingsDocument is the stored shape of a farm's timing settings. Any field
// may be absent. Version 1 documents carried month-based intervals.
type SettingsDocument struct {
	FarmID  string `bson:"_id" json:"farm_id"`
	Version int    `bson:"version" json:"version"`

	GestationDays                      *int `bson:"gestation_days,omitempty" json:"gestation_days,omitempty"`
	DryOffAfterSuccessfulInsemDays     *int `bson:"dry_off_after_successful_insem_days,omitempty" json:"dry_off_after_successful_insem_days,omitempty"`
	ChangeFeedAfterSuccessfulInsemDays *int `bson:"change_feed_after_successful_insem_days,omitempty" json:"change_feed_after_successful_insem_days,omitempty"`
	PostpartumInseminationStartDays    *int `bson:"postpartum_insemination_start_days,omitempty" json:"postpartum_insemination_start_days,omitempty"`
	InseminationIntervalDays           *int `bson:"insemination_interval_days,omitempty" json:"insemination_interval_days,omitempty"`

	// Schema version 1 fields.
	PostpartumInseminationStartMonths *int `bson:"postpartum_insemination_start_months,omitempty" json:"postpartum_insemination_start_months,omitempty"`
	InseminationIntervalMonths        *int `bson:"insemination_interval_months,omitempty" json:"insemination_interval_months,omitempty"`

	CalvingAlertDays        *int `bson:"calving_alert_days,omitempty" json:"calving_alert_days,omitempty"`
	DryOffAlertDays         *int `bson:"dry_off_alert_days,omitempty" json:"dry_off_alert_days,omitempty"`
	ChangeFeedAlertDays     *int `bson:"change_feed_alert_days,omitempty" json:"change_feed_alert_days,omitempty"`
	PregnancyCheckAlertDays *int `bson:"pregnancy_check_alert_days,omitempty" json:"pregnancy_check_alert_days,omitempty"`
	InseminationAlertDays   *int `bson:"insemination_alert_days,omitempty" json:"insemination_alert_days,omitempty"`
	GraduationAlertDays     *int `bson:"graduation_alert_days,omitempty" json:"graduation_alert_days,omitempty"`
	WeaningAlertDays        *int `bson:"weaning_alert_days,omitempty" json:"weaning_alert_days,omitempty"`

	MaleWeaningDays      *int `bson:"male_weaning_days,omitempty" json:"male_weaning_days,omitempty"`
	FemaleWeaningDays    *int `bson:"female_weaning_days,omitempty" json:"female_weaning_days,omitempty"`
	MaleMaturityMonths   *int `bson:"male_maturity_months,omitempty" json:"male_maturity_months,omitempty"`
	FemaleMaturityMonths *int `bson:"female_maturity_months,omitempty" json:"female_maturity_months,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Canonicalize migrates legacy fields and fills every absent or negative value
// from DefaultTiming. A nil document yields the defaults.
func (d *SettingsDocument) Canonicalize() TimingConfig {
	cfg := DefaultTiming()
	if d == nil {
		return cfg
	}

	postpartum := d.PostpartumInseminationStartDays
	if postpartum == nil {
		postpartum = monthsToDays(d.PostpartumInseminationStartMonths)
	}
	interval := d.InseminationIntervalDays
	if interval == nil {
		interval = monthsToDays(d.InseminationIntervalMonths)
	}

	apply(&cfg.GestationDays, d.GestationDays)
	apply(&cfg.DryOffAfterSuccessfulInsemDays, d.DryOffAfterSuccessfulInsemDays)
	apply(&cfg.ChangeFeedAfterSuccessfulInsemDays, d.ChangeFeedAfterSuccessfulInsemDays)
	apply(&cfg.PostpartumInseminationStartDays, postpartum)
	apply(&cfg.InseminationIntervalDays, interval)
	apply(&cfg.MaleWeaningDays, d.MaleWeaningDays)
	apply(&cfg.FemaleWeaningDays, d.FemaleWeaningDays)
	apply(&cfg.MaleMaturityMonths, d.MaleMaturityMonths)
	apply(&cfg.FemaleMaturityMonths, d.FemaleMaturityMonths)

	leads := map[MilestoneType]*int{
		MilestoneCalving:        d.CalvingAlertDays,
		MilestoneDryOff:         d.DryOffAlertDays,
		MilestoneChangeFeed:     d.ChangeFeedAlertDays,
		MilestonePregnancyCheck: d.PregnancyCheckAlertDays,
		MilestoneInsemination:   d.InseminationAlertDays,
		MilestoneGraduation:     d.GraduationAlertDays,
		MilestoneWeaning:        d.WeaningAlertDays,
	}
	for t, v := range leads {
		lead := cfg.LeadTimes[t]
		apply(&lead, v)
		cfg.LeadTimes[t] = lead
	}

	return cfg
}

func apply(dst *int, v *int) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}

func monthsToDays(months *int) *int {
	if months == nil {
		return nil
	}
	days := *months * LegacyDaysPerMonth
	return &days
}

// Normalized replaces negative values with their defaults. The calculators call
// it so a hand-built TimingConfig behaves like a canonicalized one.
func (c TimingConfig) Normalized() TimingConfig {
	def := DefaultTiming()
	fix := func(v *int, fallback int) {
		if *v < 0 {
			*v = fallback
		}
	}
	fix(&c.GestationDays, def.GestationDays)
	fix(&c.DryOffAfterSuccessfulInsemDays, def.DryOffAfterSuccessfulInsemDays)
	fix(&c.ChangeFeedAfterSuccessfulInsemDays, def.ChangeFeedAfterSuccessfulInsemDays)
	fix(&c.PostpartumInseminationStartDays, def.PostpartumInseminationStartDays)
	fix(&c.InseminationIntervalDays, def.InseminationIntervalDays)
	fix(&c.MaleWeaningDays, def.MaleWeaningDays)
	fix(&c.FemaleWeaningDays, def.FemaleWeaningDays)
	fix(&c.MaleMaturityMonths, def.MaleMaturityMonths)
	fix(&c.FemaleMaturityMonths, def.FemaleMaturityMonths)

	leads := make(map[MilestoneType]int, len(def.LeadTimes))
	for _, t := range MilestoneTypes {
		leads[t] = c.LeadTime(t)
	}
	c.LeadTimes = leads
	return c
}
