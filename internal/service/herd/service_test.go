package herd

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/alerts"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

const farm = "farm-1"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

func newTestService(store *memStore, now string) *Service {
	n := 0
	return NewService(store, nil,
		WithClock(func() time.Time { return day(now).Add(9 * time.Hour) }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func addCow(store *memStore, id string, lastCalving *time.Time) models.Cow {
	cow := models.Cow{
		Identity:    models.Identity{ID: id, FarmID: farm, Number: "N-" + id, Breed: "Holstein"},
		LastCalving: lastCalving,
	}
	store.cows[id] = cow
	return cow
}

func addEvent(store *memStore, id, cowID, date string, confirmed, failed bool) {
	store.events[id] = models.BreedingEvent{
		ID: id, FarmID: farm, CowID: cowID, Date: day(date),
		ConfirmedPregnant: confirmed, Failed: failed,
	}
}

func TestSnapshot_CanonicalizesSettings(t *testing.T) {
	store := newMemStore()
	store.settings[farm] = &models.SettingsDocument{
		FarmID:                     farm,
		Version:                    1,
		InseminationIntervalMonths: intPtr(1),
		GestationDays:              intPtr(280),
	}
	svc := newTestService(store, "2024-06-01")

	snap, err := svc.Snapshot(context.Background(), farm)
	require.NoError(t, err)
	assert.Equal(t, 30, snap.Config.InseminationIntervalDays)
	assert.Equal(t, 280, snap.Config.GestationDays)
	assert.Equal(t, 45, snap.Config.PostpartumInseminationStartDays)
}

func TestSnapshot_PropagatesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection reset")
	svc := newTestService(store, "2024-06-01")

	_, err := svc.Snapshot(context.Background(), farm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list cows")
}

func TestMilestones_FiltersConfirmedAndSorts(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addCow(store, "c2", ptr(day("2024-05-01")))
	addEvent(store, "e1", "c1", "2024-01-01", true, false)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	set, err := svc.Milestones(ctx, farm)
	require.NoError(t, err)
	require.Len(t, set.All, 4)
	require.Len(t, set.Active, 4)
	for i := 1; i < len(set.Active); i++ {
		assert.False(t, set.Active[i].AlertDate.Before(set.Active[i-1].AlertDate))
	}

	c, err := svc.CreateConfirmation(ctx, farm, alerts.ConfirmationRequest{
		EntityType: models.EntityCow,
		EntityID:   "c1",
		Type:       models.MilestoneDryOff,
		When:       day("2024-08-08").Add(15 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", c.ID)

	set, err = svc.Milestones(ctx, farm)
	require.NoError(t, err)
	assert.Len(t, set.All, 4)
	assert.Len(t, set.Active, 3)
	for _, ev := range set.All {
		_, confirmed := set.Confirmation(ev)
		assert.Equal(t, ev.Entity.ID == "c1" && ev.Type == models.MilestoneDryOff, confirmed)
	}

	undone, err := svc.UndoConfirmation(ctx, farm, c.ID)
	require.NoError(t, err)
	assert.True(t, undone.Undone)

	set, err = svc.Milestones(ctx, farm)
	require.NoError(t, err)
	assert.Len(t, set.Active, 4)
}

func TestCreateConfirmation_NeverOverwrites(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "2024-06-01")
	req := alerts.ConfirmationRequest{EntityType: models.EntityCalf, EntityID: "k1", Type: models.MilestoneWeaning, When: day("2024-06-10")}

	first, err := svc.CreateConfirmation(context.Background(), farm, req)
	require.NoError(t, err)
	second, err := svc.CreateConfirmation(context.Background(), farm, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.confirmations, 2)
}

func TestCreateConfirmation_InvalidInput(t *testing.T) {
	svc := newTestService(newMemStore(), "2024-06-01")
	_, err := svc.CreateConfirmation(context.Background(), farm, alerts.ConfirmationRequest{EntityType: models.EntityCow})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUndoConfirmation_IdempotentAndScoped(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	c, err := svc.CreateConfirmation(ctx, farm, alerts.ConfirmationRequest{EntityType: models.EntityCow, EntityID: "c1", Type: models.MilestoneCalving, When: day("2024-06-10")})
	require.NoError(t, err)

	first, err := svc.UndoConfirmation(ctx, farm, c.ID)
	require.NoError(t, err)
	second, err := svc.UndoConfirmation(ctx, farm, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, store.confirmations, 1)

	_, err = svc.UndoConfirmation(ctx, "farm-2", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalendar_DefaultsAnchorToToday(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", ptr(day("2024-05-01")))
	svc := newTestService(store, "2024-06-12")

	view, err := svc.Calendar(context.Background(), farm, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, day("2024-06-09").Add(12*time.Hour), view.WeekStart)

	// postpartum insemination due 2024-06-15, alert 2024-06-12
	require.Len(t, view.WeekAlerts[3].Events, 1)
	require.Len(t, view.Week[6].Events, 1)
	assert.Empty(t, view.PastDue)
}

func TestCalendar_ExplicitAnchorUsesServiceLocation(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", ptr(day("2024-05-01")))
	loc := time.FixedZone("WAT", 3600)
	svc := NewService(store, nil,
		WithClock(func() time.Time { return day("2024-06-12").Add(9 * time.Hour) }),
		WithLocation(loc),
	)

	today, err := svc.Calendar(context.Background(), farm, time.Time{})
	require.NoError(t, err)
	explicit, err := svc.Calendar(context.Background(), farm, day("2024-06-12"))
	require.NoError(t, err)

	assert.Equal(t, loc, explicit.Anchor.Location())
	assert.Equal(t, time.Date(2024, 6, 9, 12, 0, 0, 0, loc), explicit.WeekStart)
	assert.Equal(t, today, explicit)
}

func TestReproState(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e1", "c1", "2024-01-01", true, false)
	svc := newTestService(store, "2024-06-01")

	st, err := svc.ReproState(context.Background(), farm, "c1")
	require.NoError(t, err)
	assert.Equal(t, repro.StatePregnant, st.State)
	assert.Equal(t, day("2024-10-10"), *st.EstCalving)

	_, err = svc.ReproState(context.Background(), farm, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSettings(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	cfg, err := svc.Settings(ctx, farm)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTiming(), cfg)

	cfg, err = svc.UpdateSettings(ctx, farm, models.SettingsDocument{
		GestationDays:     intPtr(285),
		WeaningAlertDays:  intPtr(10),
		FemaleWeaningDays: intPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 285, cfg.GestationDays)
	assert.Equal(t, 10, cfg.LeadTime(models.MilestoneWeaning))
	assert.Equal(t, 100, cfg.FemaleWeaningDays)
	assert.Equal(t, models.SettingsVersion, store.settings[farm].Version)
	assert.Equal(t, farm, store.settings[farm].FarmID)

	_, err = svc.UpdateSettings(ctx, farm, models.SettingsDocument{CalvingAlertDays: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "calving_alert_days")
}
