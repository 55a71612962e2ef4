package models

import "time"

// MilestoneType enumerates the dated milestones projected for an animal.
type MilestoneType string

const (
	MilestoneCalving        MilestoneType = "calving"
	MilestoneDryOff         MilestoneType = "dryOff"
	MilestoneChangeFeed     MilestoneType = "changeFeed"
	MilestonePregnancyCheck MilestoneType = "pregnancyCheck"
	MilestoneInsemination   MilestoneType = "insemination"
	MilestoneGraduation     MilestoneType = "graduation"
	MilestoneWeaning        MilestoneType = "weaning"
)

// MilestoneTypes lists every milestone type.
var MilestoneTypes = []MilestoneType{
	MilestoneCalving,
	MilestoneDryOff,
	MilestoneChangeFeed,
	MilestonePregnancyCheck,
	MilestoneInsemination,
	MilestoneGraduation,
	MilestoneWeaning,
}

// Valid reports whether t is a known milestone type.
func (t MilestoneType) Valid() bool {
	for _, known := range MilestoneTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EntityRef identifies the animal a milestone belongs to.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}

// MilestoneEvent is a projected, dated milestone. It is derived on every query
// and never stored.
type MilestoneEvent struct {
	Entity    EntityRef      `json:"entity"`
	Type      MilestoneType  `json:"type"`
	When      time.Time      `json:"when"`
	AlertDate time.Time      `json:"alert_date"`
	Meta      map[string]any `json:"meta,omitempty"`
}
