package herd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

func TestRecordInsemination_OpenCow(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	svc := newTestService(store, "2024-06-01")

	ev, err := svc.RecordInsemination(context.Background(), farm, "c1", InseminationRequest{Notes: " straw 42 "})
	require.NoError(t, err)
	assert.Equal(t, day("2024-06-01"), ev.Date)
	assert.Equal(t, "straw 42", ev.Notes)
	assert.False(t, ev.Forced)
	assert.True(t, ev.IsPending())
	assert.Contains(t, store.events, ev.ID)
}

func TestRecordInsemination_PostpartumWindowRequiresForce(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", ptr(day("2024-05-01")))
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	_, err := svc.RecordInsemination(ctx, farm, "c1", InseminationRequest{})
	assert.ErrorIs(t, err, ErrInseminationNotAllowed)
	assert.Empty(t, store.events)

	ev, err := svc.RecordInsemination(ctx, farm, "c1", InseminationRequest{Force: true})
	require.NoError(t, err)
	assert.True(t, ev.Forced)
}

func TestRecordInsemination_RetryAfterPendingWindow(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e1", "c1", "2024-05-01", false, false)
	svc := newTestService(store, "2024-06-01")

	ev, err := svc.RecordInsemination(context.Background(), farm, "c1", InseminationRequest{})
	require.NoError(t, err)
	assert.False(t, ev.Forced)

	_, err = svc.RecordInsemination(context.Background(), farm, "c1", InseminationRequest{Date: day("2024-06-01")})
	assert.ErrorIs(t, err, ErrInseminationNotAllowed)
}

func TestRecordInsemination_Rejections(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e1", "c1", "2024-05-01", true, false)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	_, err := svc.RecordInsemination(ctx, farm, "c1", InseminationRequest{Force: true})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.RecordInsemination(ctx, farm, "c1", InseminationRequest{Date: day("2024-04-01"), Force: true})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordInsemination(ctx, farm, "c1", InseminationRequest{Date: day("2024-07-01")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordInsemination(ctx, farm, "ghost", InseminationRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreedingTransitions(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e0", "c1", "2024-03-01", false, true)
	addEvent(store, "e1", "c1", "2024-05-01", false, false)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	_, err := svc.UnconfirmPregnancy(ctx, farm, "e1", "vet")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.ConfirmPregnancy(ctx, farm, "e0", "vet")
	assert.ErrorIs(t, err, ErrInvalidTransition, "superseded events are immutable")

	ev, err := svc.ConfirmPregnancy(ctx, farm, "e1", "vet")
	require.NoError(t, err)
	assert.True(t, ev.ConfirmedPregnant)
	assert.False(t, ev.Failed)

	_, err = svc.MarkFailed(ctx, farm, "e1", "vet")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ev, err = svc.UnconfirmPregnancy(ctx, farm, "e1", "vet")
	require.NoError(t, err)
	assert.True(t, ev.IsPending())

	ev, err = svc.MarkFailed(ctx, farm, "e1", "vet")
	require.NoError(t, err)
	assert.True(t, ev.Failed)
	assert.False(t, ev.ConfirmedPregnant)

	st, err := svc.ReproState(ctx, farm, "c1")
	require.NoError(t, err)
	assert.Equal(t, repro.StateOpen, st.State)

	_, err = svc.MarkFailed(ctx, farm, "missing", "vet")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreedingTransitions_FailedAttemptIsReversible(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e1", "c1", "2024-05-01", false, false)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	_, err := svc.MarkFailed(ctx, farm, "e1", "vet")
	require.NoError(t, err)

	_, err = svc.ConfirmPregnancy(ctx, farm, "e1", "vet")
	assert.ErrorIs(t, err, ErrInvalidTransition, "a failed attempt is reverted before it is confirmed")

	ev, err := svc.UnconfirmPregnancy(ctx, farm, "e1", "vet")
	require.NoError(t, err)
	assert.True(t, ev.IsPending())
	assert.True(t, store.events["e1"].IsPending())

	st, err := svc.ReproState(ctx, farm, "c1")
	require.NoError(t, err)
	assert.Equal(t, repro.StatePending, st.State)

	ev, err = svc.ConfirmPregnancy(ctx, farm, "e1", "vet")
	require.NoError(t, err)
	assert.True(t, ev.ConfirmedPregnant)
}

func TestBreedingTransitions_FailedAttemptClosedByCalving(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", ptr(day("2024-05-20")))
	addEvent(store, "e1", "c1", "2024-05-01", false, true)
	svc := newTestService(store, "2024-06-01")

	_, err := svc.UnconfirmPregnancy(context.Background(), farm, "e1", "vet")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordCalving_ReopensAndRegistersCalf(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	addEvent(store, "e1", "c1", "2023-08-20", true, false)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	res, err := svc.RecordCalving(ctx, farm, "c1", CalvingRequest{
		Date: day("2024-05-30"),
		Calf: &NewCalf{Number: "K-9", Gender: models.GenderFemale, SireNumber: "B-1"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Calf)
	assert.Equal(t, day("2024-05-30"), *res.Cow.LastCalving)
	assert.Equal(t, "N-c1", res.Calf.MotherNumber)
	assert.Equal(t, "B-1", res.Calf.SireNumber)
	assert.Equal(t, "Holstein", res.Calf.Breed)
	assert.Equal(t, models.CalfAlive, res.Calf.Status)
	assert.Equal(t, day("2024-05-30"), *res.Calf.BirthDate)
	assert.Contains(t, store.calves, res.Calf.ID)

	st, err := svc.ReproState(ctx, farm, "c1")
	require.NoError(t, err)
	assert.Equal(t, repro.StateOpen, st.State)
	assert.True(t, st.Reopened)
	assert.Nil(t, st.EstCalving)
	assert.Equal(t, day("2024-07-14"), *st.NextInseminationEarliest)
}

func TestRecordCalving_Validation(t *testing.T) {
	store := newMemStore()
	addCow(store, "c1", nil)
	svc := newTestService(store, "2024-06-01")
	ctx := context.Background()

	_, err := svc.RecordCalving(ctx, farm, "c1", CalvingRequest{Date: day("2024-06-02")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordCalving(ctx, farm, "c1", CalvingRequest{Calf: &NewCalf{}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordCalving(ctx, farm, "c1", CalvingRequest{Calf: &NewCalf{Number: "K", Gender: "other"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Nil(t, store.cows["c1"].LastCalving)
}
