package alerts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

func calvingOf(id string, when time.Time) models.MilestoneEvent {
	return models.MilestoneEvent{
		Entity:    models.EntityRef{Type: models.EntityCow, ID: id},
		Type:      models.MilestoneCalving,
		When:      when,
		AlertDate: when.AddDate(0, 0, -14),
	}
}

func TestFilterActive_DayTruncatedMatch(t *testing.T) {
	events := []models.MilestoneEvent{
		calvingOf("c1", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)),
		calvingOf("c2", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)),
	}
	confirmations := []models.Confirmation{{
		ID:         "k1",
		EntityType: models.EntityCow,
		EntityID:   "c1",
		Type:       models.MilestoneCalving,
		When:       time.Date(2024, 3, 5, 0, 10, 0, 0, time.UTC),
	}}

	got := FilterActive(events, confirmations)

	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].Entity.ID)
}

func TestFilterActive_KeyDimensions(t *testing.T) {
	ev := calvingOf("c1", day("2024-03-05"))
	base := models.Confirmation{EntityType: models.EntityCow, EntityID: "c1", Type: models.MilestoneCalving, When: day("2024-03-05")}

	otherType := base
	otherType.Type = models.MilestoneDryOff
	otherDay := base
	otherDay.When = day("2024-03-06")
	otherEntity := base
	otherEntity.EntityType = models.EntityCalf

	for _, c := range []models.Confirmation{otherType, otherDay, otherEntity} {
		assert.Len(t, FilterActive([]models.MilestoneEvent{ev}, []models.Confirmation{c}), 1)
	}
	assert.Empty(t, FilterActive([]models.MilestoneEvent{ev}, []models.Confirmation{base}))
}

func TestUndo_RestoresMilestone(t *testing.T) {
	now := day("2024-03-01")
	ev := calvingOf("c1", day("2024-03-05"))

	c, err := NewConfirmation("farm-1", "k1", ConfirmationRequest{
		EntityType: models.EntityCow,
		EntityID:   "c1",
		Type:       models.MilestoneCalving,
		When:       day("2024-03-05"),
		Note:       "  calved early ",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "calved early", c.Note)
	assert.Empty(t, FilterActive([]models.MilestoneEvent{ev}, []models.Confirmation{c}))

	undone := Undo(c, now.Add(time.Hour))
	assert.True(t, undone.Undone)
	require.NotNil(t, undone.UndoneAt)
	assert.Len(t, FilterActive([]models.MilestoneEvent{ev}, []models.Confirmation{undone}), 1)

	again := Undo(undone, now.Add(2*time.Hour))
	assert.Equal(t, undone, again)
}

func TestNewConfirmation_Validation(t *testing.T) {
	valid := ConfirmationRequest{EntityType: models.EntityCow, EntityID: "c1", Type: models.MilestoneCalving, When: day("2024-03-05")}

	missingID := valid
	missingID.EntityID = " "
	badType := valid
	badType.Type = "birthday"
	badEntity := valid
	badEntity.EntityType = "horse"
	noWhen := valid
	noWhen.When = time.Time{}

	for _, req := range []ConfirmationRequest{missingID, badType, badEntity, noWhen} {
		_, err := NewConfirmation("farm-1", "k", req, day("2024-03-01"))
		assert.True(t, errors.Is(err, ErrInvalidConfirmation), "request %+v", req)
	}
}
