package repro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

func TestTransition(t *testing.T) {
	confirmed := event("e", "2024-01-01", true, false)
	failed := event("e", "2024-01-01", false, true)
	pending := event("e", "2024-01-01", false, false)

	tests := []struct {
		name        string
		from        State
		latest      *models.BreedingEvent
		lastCalving *time.Time
		want        State
	}{
		{"no event keeps open", StateOpen, nil, nil, StateOpen},
		{"no event keeps pending", StatePending, nil, nil, StatePending},
		{"pending attempt", StateOpen, &pending, nil, StatePending},
		{"failed attempt", StatePending, &failed, nil, StateOpen},
		{"confirmed attempt", StatePending, &confirmed, nil, StatePregnant},
		{"calving before conception", StatePending, &confirmed, ptr(day("2023-06-01")), StatePregnant},
		{"calving after conception", StatePregnant, &confirmed, ptr(day("2024-10-01")), StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.latest, tt.lastCalving))
		})
	}
}

func TestReplayMatchesLatest(t *testing.T) {
	histories := [][]models.BreedingEvent{
		nil,
		{event("a", "2024-01-01", false, true), event("b", "2024-02-01", true, false)},
		{event("b", "2024-02-01", false, false), event("a", "2024-01-01", false, true)},
		{event("a", "2024-01-01", true, false)},
	}
	calvings := []*time.Time{nil, ptr(day("2024-09-01"))}

	for _, events := range histories {
		for _, calving := range calvings {
			want := Transition(StateOpen, Latest(events, ""), calving)
			assert.Equal(t, want, Replay(events, calving))
		}
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(StateOpen, ActionInseminate))
	assert.False(t, Allows(StateOpen, ActionConfirm))
	assert.True(t, Allows(StatePending, ActionConfirm))
	assert.True(t, Allows(StatePending, ActionFail))
	assert.False(t, Allows(StatePending, ActionInseminate))
	assert.True(t, Allows(StatePregnant, ActionUnconfirm))
	assert.False(t, Allows(StatePregnant, ActionFail))
}

func TestAllowsOn(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	failed := models.BreedingEvent{ID: "e1", Date: d, Failed: true}
	pending := models.BreedingEvent{ID: "e1", Date: d}
	confirmed := models.BreedingEvent{ID: "e1", Date: d, ConfirmedPregnant: true}
	calved := d.AddDate(0, 9, 0)

	assert.True(t, AllowsOn(failed, nil, ActionUnconfirm))
	assert.False(t, AllowsOn(failed, nil, ActionConfirm))
	assert.False(t, AllowsOn(failed, nil, ActionFail))
	assert.False(t, AllowsOn(failed, &calved, ActionUnconfirm))

	assert.True(t, AllowsOn(pending, nil, ActionConfirm))
	assert.True(t, AllowsOn(pending, nil, ActionFail))
	assert.False(t, AllowsOn(pending, nil, ActionUnconfirm))

	assert.True(t, AllowsOn(confirmed, nil, ActionUnconfirm))
	assert.False(t, AllowsOn(confirmed, &calved, ActionUnconfirm))
}
