package alerts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// ErrInvalidConfirmation is returned when a confirmation request is incomplete.
var ErrInvalidConfirmation = errors.New("invalid confirmation")

// Key identifies one milestone occurrence at whole-day precision.
type Key struct {
	EntityType models.EntityType
	EntityID   string
	Type       models.MilestoneType
	Day        time.Time
}

// KeyOf returns the matching key of a milestone.
func KeyOf(ev models.MilestoneEvent) Key {
	return Key{EntityType: ev.Entity.Type, EntityID: ev.Entity.ID, Type: ev.Type, Day: dates.Day(ev.When)}
}

// ConfirmationKey returns the matching key of a confirmation.
func ConfirmationKey(c models.Confirmation) Key {
	return Key{EntityType: c.EntityType, EntityID: c.EntityID, Type: c.Type, Day: dates.Day(c.When)}
}

// ConfirmationRequest carries the caller-supplied fields of a new confirmation.
type ConfirmationRequest struct {
	EntityType models.EntityType    `json:"entity_type"`
	EntityID   string               `json:"entity_id"`
	Type       models.MilestoneType `json:"type"`
	When       time.Time            `json:"when"`
	AlertOn    *time.Time           `json:"alert_on,omitempty"`
	Note       string               `json:"note,omitempty"`
}

// NewConfirmation builds a fresh confirmation record. It never merges with an
// existing one.
func NewConfirmation(farmID, id string, req ConfirmationRequest, now time.Time) (models.Confirmation, error) {
	switch {
	case strings.TrimSpace(req.EntityID) == "":
		return models.Confirmation{}, fmt.Errorf("%w: entity id is required", ErrInvalidConfirmation)
	case req.EntityType != models.EntityCow && req.EntityType != models.EntityCalf && req.EntityType != models.EntityBull:
		return models.Confirmation{}, fmt.Errorf("%w: unknown entity type %q", ErrInvalidConfirmation, req.EntityType)
	case !req.Type.Valid():
		return models.Confirmation{}, fmt.Errorf("%w: unknown milestone type %q", ErrInvalidConfirmation, req.Type)
	case req.When.IsZero():
		return models.Confirmation{}, fmt.Errorf("%w: when is required", ErrInvalidConfirmation)
	}

	return models.Confirmation{
		ID:         id,
		FarmID:     farmID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Type:       req.Type,
		When:       req.When,
		AlertOn:    req.AlertOn,
		Note:       strings.TrimSpace(req.Note),
		CreatedAt:  now,
	}, nil
}

// Undo marks c undone. Undoing an undone confirmation changes nothing.
func Undo(c models.Confirmation, now time.Time) models.Confirmation {
	if c.Undone {
		return c
	}
	c.Undone = true
	c.UndoneAt = &now
	return c
}

// Index maps each occurrence to the confirmation covering it, ignoring undone
// confirmations.
func Index(confirmations []models.Confirmation) map[Key]models.Confirmation {
	out := make(map[Key]models.Confirmation, len(confirmations))
	for _, c := range confirmations {
		if c.Undone {
			continue
		}
		out[ConfirmationKey(c)] = c
	}
	return out
}

// FilterActive drops every milestone matched by a confirmation that has not
// been undone.
func FilterActive(events []models.MilestoneEvent, confirmations []models.Confirmation) []models.MilestoneEvent {
	confirmed := Index(confirmations)

	out := make([]models.MilestoneEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := confirmed[KeyOf(ev)]; ok {
			continue
		}
		out = append(out, ev)
	}
	return out
}
