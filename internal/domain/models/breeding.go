package models

import "time"

// BreedingEvent is a single insemination attempt on a cow. ConfirmedPregnant and
// Failed are never both set; both false means the attempt awaits evaluation.
type BreedingEvent struct {
	ID                string    `bson:"_id" json:"id"`
	FarmID            string    `bson:"farm_id" json:"farm_id"`
	CowID             string    `bson:"cow_id" json:"cow_id"`
	Date              time.Time `bson:"date" json:"date"`
	ConfirmedPregnant bool      `bson:"confirmed_pregnant" json:"confirmed_pregnant"`
	Failed            bool      `bson:"failed" json:"failed"`
	Forced            bool      `bson:"forced" json:"forced"`
	Notes             string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPending reports whether the attempt has not been evaluated yet.
func (e BreedingEvent) IsPending() bool {
	return !e.ConfirmedPregnant && !e.Failed
}
