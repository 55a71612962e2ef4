package herd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

// InseminationRequest records a new insemination attempt. A zero Date means today.
type InseminationRequest struct {
	Date  time.Time `json:"date"`
	Notes string    `json:"notes"`
	Force bool      `json:"force"`
	Actor string    `json:"-"`
}

// RecordInsemination adds an insemination attempt for cowID. The attempt is
// evaluated against the cow's state on its own date: it must fall inside the
// insemination or retry window unless Force is set, in which case it is
// stored with Forced. A pregnant cow cannot be inseminated.
func (s *Service) RecordInsemination(ctx context.Context, farmID, cowID string, req InseminationRequest) (models.BreedingEvent, error) {
	cow, events, cfg, err := s.cowHistory(ctx, farmID, cowID)
	if err != nil {
		return models.BreedingEvent{}, err
	}

	now := s.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	date = dates.Day(date)
	if date.After(dates.Today(now)) {
		return models.BreedingEvent{}, fmt.Errorf("%w: insemination date %s is in the future", ErrInvalidInput, date.Format(dates.Layout))
	}
	if latest := repro.Latest(events, cowID); latest != nil && date.Before(dates.Day(latest.Date)) {
		return models.BreedingEvent{}, fmt.Errorf("%w: insemination date precedes the latest attempt on %s", ErrInvalidInput, dates.Day(latest.Date).Format(dates.Layout))
	}

	st := repro.Compute(cow, cfg, events, date)
	if st.State == repro.StatePregnant {
		return models.BreedingEvent{}, fmt.Errorf("%w: cow %s is pregnant", ErrInvalidTransition, cow.DisplayName())
	}
	early := !st.CanAddInseminationNow && !st.CanRetryNow
	if early && !req.Force {
		return models.BreedingEvent{}, fmt.Errorf("%w: cow %s is %s", ErrInseminationNotAllowed, cow.DisplayName(), st.State)
	}

	ev := models.BreedingEvent{
		ID:        s.newID(),
		FarmID:    farmID,
		CowID:     cowID,
		Date:      date,
		Forced:    early,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertBreedingEvent(ctx, ev); err != nil {
		return models.BreedingEvent{}, fmt.Errorf("insert breeding event: %w", err)
	}

	s.logger.Info("insemination recorded",
		zap.String("farm_id", farmID),
		zap.String("cow_id", cowID),
		zap.String("event_id", ev.ID),
		zap.Bool("forced", ev.Forced),
		zap.String("actor", req.Actor))
	return ev, nil
}

// ConfirmPregnancy marks the cow's pending attempt as a confirmed pregnancy.
func (s *Service) ConfirmPregnancy(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error) {
	return s.transition(ctx, farmID, eventID, actor, repro.ActionConfirm)
}

// MarkFailed marks the cow's pending attempt as failed.
func (s *Service) MarkFailed(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error) {
	return s.transition(ctx, farmID, eventID, actor, repro.ActionFail)
}

// UnconfirmPregnancy returns a confirmed or failed attempt to pending evaluation.
func (s *Service) UnconfirmPregnancy(ctx context.Context, farmID, eventID, actor string) (models.BreedingEvent, error) {
	return s.transition(ctx, farmID, eventID, actor, repro.ActionUnconfirm)
}

// transition applies action to eventID. Only the cow's latest attempt may
// change, and only when its recorded outcome admits the action.
func (s *Service) transition(ctx context.Context, farmID, eventID, actor string, action repro.Action) (models.BreedingEvent, error) {
	ev, err := s.store.GetBreedingEvent(ctx, farmID, eventID)
	if err != nil {
		return models.BreedingEvent{}, fmt.Errorf("load breeding event: %w", err)
	}

	cow, events, cfg, err := s.cowHistory(ctx, farmID, ev.CowID)
	if err != nil {
		return models.BreedingEvent{}, err
	}

	latest := repro.Latest(events, cow.ID)
	if latest == nil || latest.ID != ev.ID {
		return models.BreedingEvent{}, fmt.Errorf("%w: event %s is not the latest attempt of cow %s", ErrInvalidTransition, ev.ID, cow.DisplayName())
	}

	st := repro.Compute(cow, cfg, events, s.Now())
	if !repro.AllowsOn(*latest, cow.LastCalving, action) {
		return models.BreedingEvent{}, fmt.Errorf("%w: cannot %s attempt %s of a %s cow", ErrInvalidTransition, action, ev.ID, st.State)
	}

	from := st.State
	switch action {
	case repro.ActionConfirm:
		ev.ConfirmedPregnant, ev.Failed = true, false
	case repro.ActionFail:
		ev.ConfirmedPregnant, ev.Failed = false, true
	case repro.ActionUnconfirm:
		ev.ConfirmedPregnant, ev.Failed = false, false
	}
	ev.UpdatedAt = s.Now()

	if err := s.store.UpdateBreedingEvent(ctx, ev); err != nil {
		return models.BreedingEvent{}, fmt.Errorf("update breeding event: %w", err)
	}

	s.logger.Info("breeding event transition",
		zap.String("farm_id", farmID),
		zap.String("cow_id", cow.ID),
		zap.String("event_id", ev.ID),
		zap.String("transition", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(repro.Transition(from, &ev, cow.LastCalving))),
		zap.String("actor", actor))
	return ev, nil
}

// NewCalf describes a calf born at a recorded calving.
type NewCalf struct {
	Number     string            `json:"number"`
	Name       string            `json:"name"`
	Gender     models.Gender     `json:"gender"`
	Status     models.CalfStatus `json:"status"`
	Breed      string            `json:"breed"`
	SireNumber string            `json:"sire_number"`
	Notes      string            `json:"notes"`
}

// CalvingRequest records a calving. A zero Date means today.
type CalvingRequest struct {
	Date  time.Time `json:"date"`
	Calf  *NewCalf  `json:"calf,omitempty"`
	Actor string    `json:"-"`
}

// CalvingResult is the outcome of RecordCalving.
type CalvingResult struct {
	Cow  models.Cow   `json:"cow"`
	Calf *models.Calf `json:"calf,omitempty"`
}

// RecordCalving sets the cow's last calving date, which reopens a completed
// pregnancy, and optionally registers the newborn with the cow as mother.
func (s *Service) RecordCalving(ctx context.Context, farmID, cowID string, req CalvingRequest) (CalvingResult, error) {
	cow, err := s.store.GetCow(ctx, farmID, cowID)
	if err != nil {
		return CalvingResult{}, fmt.Errorf("load cow: %w", err)
	}

	now := s.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	date = dates.Day(date)
	if date.After(dates.Today(now)) {
		return CalvingResult{}, fmt.Errorf("%w: calving date %s is in the future", ErrInvalidInput, date.Format(dates.Layout))
	}

	cow.LastCalving = &date
	cow.UpdatedAt = now

	var calf *models.Calf
	if req.Calf != nil {
		c, err := s.newborn(cow, date, *req.Calf, now)
		if err != nil {
			return CalvingResult{}, err
		}
		calf = &c
	}

	if err := s.store.RecordCalving(ctx, cow, calf); err != nil {
		return CalvingResult{}, fmt.Errorf("record calving: %w", err)
	}

	fields := []zap.Field{
		zap.String("farm_id", farmID),
		zap.String("cow_id", cow.ID),
		zap.Time("date", date),
		zap.String("actor", req.Actor),
	}
	if calf != nil {
		fields = append(fields, zap.String("calf_id", calf.ID))
	}
	s.logger.Info("calving recorded", fields...)

	return CalvingResult{Cow: cow, Calf: calf}, nil
}

func (s *Service) newborn(mother models.Cow, born time.Time, in NewCalf, now time.Time) (models.Calf, error) {
	if strings.TrimSpace(in.Number) == "" {
		return models.Calf{}, fmt.Errorf("%w: calf number is required", ErrInvalidInput)
	}
	if in.Gender != "" && in.Gender != models.GenderMale && in.Gender != models.GenderFemale {
		return models.Calf{}, fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, in.Gender)
	}

	status := in.Status
	switch status {
	case "":
		status = models.CalfAlive
	case models.CalfAlive, models.CalfDied, models.CalfMiscarriage:
	default:
		return models.Calf{}, fmt.Errorf("%w: unknown calf status %q", ErrInvalidInput, in.Status)
	}

	breed := in.Breed
	if breed == "" {
		breed = mother.Breed
	}

	return models.Calf{
		Identity: models.Identity{
			ID:           s.newID(),
			FarmID:       mother.FarmID,
			Number:       strings.TrimSpace(in.Number),
			Name:         strings.TrimSpace(in.Name),
			Breed:        breed,
			BirthDate:    &born,
			MotherNumber: mother.Number,
			SireNumber:   in.SireNumber,
			Notes:        in.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Gender: in.Gender,
		Status: status,
	}, nil
}
