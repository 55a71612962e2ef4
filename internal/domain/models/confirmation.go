package models

import "time"

// Confirmation acknowledges one milestone occurrence so it stops alerting.
// Records are never removed; undo flips Undone.
type Confirmation struct {
	ID         string        `bson:"_id" json:"id"`
	FarmID     string        `bson:"farm_id" json:"farm_id"`
	EntityType EntityType    `bson:"entity_type" json:"entity_type"`
	EntityID   string        `bson:"entity_id" json:"entity_id"`
	Type       MilestoneType `bson:"type" json:"type"`
	When       time.Time     `bson:"when" json:"when"`
	AlertOn    *time.Time    `bson:"alert_on,omitempty" json:"alert_on,omitempty"`
	Note       string        `bson:"note,omitempty" json:"note,omitempty"`
	Undone     bool          `bson:"undone" json:"undone"`
	UndoneAt   *time.Time    `bson:"undone_at,omitempty" json:"undone_at,omitempty"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
}
