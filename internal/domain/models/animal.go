package models

import (
	"strings"
	"time"
)

// EntityType names the kind of record a milestone or confirmation points at.
type EntityType string

const (
	EntityCow  EntityType = "cow"
	EntityBull EntityType = "bull"
	EntityCalf EntityType = "calf"
)

// Gender of a calf.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// CalfStatus tracks whether a calf is still in the herd.
type CalfStatus string

const (
	CalfAlive       CalfStatus = "alive"
	CalfMiscarriage CalfStatus = "miscarriage"
	CalfDied        CalfStatus = "died"
)

// Identity is the identity and lineage block shared by every animal record.
// Lineage points at other animals by their herd number, not by id.
type Identity struct {
	ID           string     `bson:"_id" json:"id"`
	FarmID       string     `bson:"farm_id" json:"farm_id"`
	Number       string     `bson:"number" json:"number"`
	Name         string     `bson:"name,omitempty" json:"name,omitempty"`
	Breed        string     `bson:"breed,omitempty" json:"breed,omitempty"`
	BirthDate    *time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	MotherNumber string     `bson:"mother_number,omitempty" json:"mother_number,omitempty"`
	SireNumber   string     `bson:"sire_number,omitempty" json:"sire_number,omitempty"`
	Notes        string     `bson:"notes,omitempty" json:"notes,omitempty"`
	ImageRef     string     `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName renders "number name" or whichever part is set.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(strings.Join([]string{i.Number, i.Name}, " "))
}

// Animal is implemented by Cow, Bull and Calf.
type Animal interface {
	Kind() EntityType
	Ident() Identity
}

// Cow is an adult female.
type Cow struct {
	Identity    `bson:",inline"`
	LastCalving *time.Time `bson:"last_calving,omitempty" json:"last_calving,omitempty"`
}

// Kind implements Animal.
func (Cow) Kind() EntityType { return EntityCow }

// Ident implements Animal.
func (c Cow) Ident() Identity { return c.Identity }

// Bull is an adult male.
type Bull struct {
	Identity `bson:",inline"`
}

// Kind implements Animal.
func (Bull) Kind() EntityType { return EntityBull }

// Ident implements Animal.
func (b Bull) Ident() Identity { return b.Identity }

// AdultRef is the one-way link from a graduated calf to the adult it produced.
type AdultRef struct {
	Type EntityType `bson:"type" json:"type"`
	ID   string     `bson:"id" json:"id"`
}

// Calf is an immature animal awaiting weaning and graduation.
type Calf struct {
	Identity    `bson:",inline"`
	Gender      Gender     `bson:"gender,omitempty" json:"gender,omitempty"`
	Status      CalfStatus `bson:"status" json:"status"`
	Graduated   bool       `bson:"graduated" json:"graduated"`
	GraduatedAt *time.Time `bson:"graduated_at,omitempty" json:"graduated_at,omitempty"`
	GraduatedTo *AdultRef  `bson:"graduated_to,omitempty" json:"graduated_to,omitempty"`
}

// Kind implements Animal.
func (Calf) Kind() EntityType { return EntityCalf }

// Ident implements Animal.
func (c Calf) Ident() Identity { return c.Identity }

// IsAlive treats an unset status as alive.
func (c Calf) IsAlive() bool {
	return c.Status == "" || c.Status == CalfAlive
}
