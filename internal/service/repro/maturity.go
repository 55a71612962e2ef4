package repro

import (
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// Target is a calf's projected weaning or graduation date. Applicable is false
// when the calf lacks a birth date or a known gender.
type Target struct {
	Applicable bool       `json:"applicable"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	DaysLeft   *int       `json:"days_left,omitempty"`
	Ready      bool       `json:"ready"`
}

// Maturity projects graduation at birth date plus the gender's maturity months,
// incrementing the calendar month rather than counting days.
func Maturity(calf models.Calf, cfg models.TimingConfig, now time.Time) Target {
	if !hasBirth(calf) {
		return Target{}
	}
	months, ok := cfg.Normalized().MaturityMonths(calf.Gender)
	if !ok {
		return Target{}
	}
	return target(dates.AddMonths(*calf.BirthDate, months), now)
}

// Weaning projects weaning at birth date plus the gender's weaning days.
func Weaning(calf models.Calf, cfg models.TimingConfig, now time.Time) Target {
	if !hasBirth(calf) {
		return Target{}
	}
	days, ok := cfg.Normalized().WeaningDays(calf.Gender)
	if !ok {
		return Target{}
	}
	return target(dates.AddDays(*calf.BirthDate, days), now)
}

// AdultType is the adult record a calf of gender g graduates into.
func AdultType(g models.Gender) (models.EntityType, bool) {
	switch g {
	case models.GenderFemale:
		return models.EntityCow, true
	case models.GenderMale:
		return models.EntityBull, true
	}
	return "", false
}

func hasBirth(calf models.Calf) bool {
	return calf.BirthDate != nil && !calf.BirthDate.IsZero()
}

func target(date time.Time, now time.Time) Target {
	today := dates.Today(now)
	left := dates.DaysBetween(today, date)
	return Target{
		Applicable: true,
		TargetDate: &date,
		DaysLeft:   &left,
		Ready:      !today.Before(date),
	}
}
