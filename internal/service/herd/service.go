// Package herd orchestrates the record store around the pure reproduction and
// alerting calculators: it fetches per-farm snapshots, projects milestones and
// calendar views, and applies the few writes the core exposes.
package herd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/alerts"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

// Service exposes herd queries and breeding operations for one record store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	loc    *time.Location
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLocation sets the farm's local timezone used to decide "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService wires a new herd service instance.
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Snapshot is everything a farm's milestone projection is computed from.
type Snapshot struct {
	FarmID        string
	Cows          []models.Cow
	Bulls         []models.Bull
	Calves        []models.Calf
	Events        []models.BreedingEvent
	Config        models.TimingConfig
	Confirmations []models.Confirmation
}

// Snapshot fetches the farm's records in parallel. Settings are canonicalized
// here so the calculators only ever see a complete TimingConfig.
func (s *Service) Snapshot(ctx context.Context, farmID string) (Snapshot, error) {
	snap := Snapshot{FarmID: farmID}
	var settings *models.SettingsDocument

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Cows, err = s.store.ListCows(gCtx, farmID)
		return wrap(err, "list cows")
	})
	g.Go(func() (err error) {
		snap.Bulls, err = s.store.ListBulls(gCtx, farmID)
		return wrap(err, "list bulls")
	})
	g.Go(func() (err error) {
		snap.Calves, err = s.store.ListCalves(gCtx, farmID)
		return wrap(err, "list calves")
	})
	g.Go(func() (err error) {
		snap.Events, err = s.store.ListBreedingEvents(gCtx, farmID, "")
		return wrap(err, "list breeding events")
	})
	g.Go(func() (err error) {
		settings, err = s.store.GetSettings(gCtx, farmID)
		return wrap(err, "load settings")
	})
	g.Go(func() (err error) {
		snap.Confirmations, err = s.store.ListConfirmations(gCtx, farmID, true)
		return wrap(err, "list confirmations")
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap.Config = settings.Canonicalize()
	return snap, nil
}

// MilestoneSet is the projected milestones of a farm.
type MilestoneSet struct {
	// All holds every projected milestone, confirmed or not.
	All []models.MilestoneEvent `json:"-"`
	// Active omits confirmed milestones and is ordered by alert date.
	Active  []models.MilestoneEvent `json:"milestones"`
	Skipped []alerts.Skip           `json:"skipped,omitempty"`

	confirmed map[alerts.Key]models.Confirmation
}

// Confirmation returns the active confirmation covering ev, if any.
func (m MilestoneSet) Confirmation(ev models.MilestoneEvent) (models.Confirmation, bool) {
	c, ok := m.confirmed[alerts.KeyOf(ev)]
	return c, ok
}

// Milestones projects the farm's milestones from a fresh snapshot.
func (s *Service) Milestones(ctx context.Context, farmID string) (MilestoneSet, error) {
	snap, err := s.Snapshot(ctx, farmID)
	if err != nil {
		return MilestoneSet{}, err
	}
	return s.project(snap), nil
}

func (s *Service) project(snap Snapshot) MilestoneSet {
	res := alerts.Build(alerts.Input{
		Cows:   snap.Cows,
		Calves: snap.Calves,
		Config: snap.Config,
		Events: snap.Events,
		Now:    s.Now(),
	})
	for _, skip := range res.Skipped {
		s.logger.Debug("record skipped from milestones",
			zap.String("farm_id", snap.FarmID),
			zap.String("entity_type", string(skip.Entity.Type)),
			zap.String("entity_id", skip.Entity.ID),
			zap.String("reason", skip.Reason))
	}

	return NewMilestoneSet(res.Events, snap.Confirmations, res.Skipped)
}

// NewMilestoneSet hides the milestones covered by confirmations and orders the
// remaining ones by alert date.
func NewMilestoneSet(all []models.MilestoneEvent, confirmations []models.Confirmation, skipped []alerts.Skip) MilestoneSet {
	active := alerts.FilterActive(all, confirmations)
	sort.SliceStable(active, func(i, j int) bool {
		if !active[i].AlertDate.Equal(active[j].AlertDate) {
			return active[i].AlertDate.Before(active[j].AlertDate)
		}
		return active[i].When.Before(active[j].When)
	})

	return MilestoneSet{
		All:       all,
		Active:    active,
		Skipped:   skipped,
		confirmed: alerts.Index(confirmations),
	}
}

// Calendar buckets the farm's active milestones around anchor's calendar date,
// rendered in the service location. A zero anchor means today. Past-due entries are always relative to the real current day.
func (s *Service) Calendar(ctx context.Context, farmID string, anchor time.Time) (alerts.CalendarView, error) {
	set, err := s.Milestones(ctx, farmID)
	if err != nil {
		return alerts.CalendarView{}, err
	}
	now := s.Now()
	if anchor.IsZero() {
		anchor = now
	} else {
		anchor = dates.Midday(anchor, s.loc)
	}
	return alerts.BuildCalendarView(set.Active, anchor, now), nil
}

// ReproState computes the reproductive state of one cow.
func (s *Service) ReproState(ctx context.Context, farmID, cowID string) (repro.ReproState, error) {
	cow, events, cfg, err := s.cowHistory(ctx, farmID, cowID)
	if err != nil {
		return repro.ReproState{}, err
	}
	return repro.Compute(cow, cfg, events, s.Now()), nil
}

func (s *Service) cowHistory(ctx context.Context, farmID, cowID string) (models.Cow, []models.BreedingEvent, models.TimingConfig, error) {
	var (
		cow      models.Cow
		events   []models.BreedingEvent
		settings *models.SettingsDocument
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cow, err = s.store.GetCow(gCtx, farmID, cowID)
		return wrap(err, "load cow")
	})
	g.Go(func() (err error) {
		events, err = s.store.ListBreedingEvents(gCtx, farmID, cowID)
		return wrap(err, "list breeding events")
	})
	g.Go(func() (err error) {
		settings, err = s.store.GetSettings(gCtx, farmID)
		return wrap(err, "load settings")
	})
	if err := g.Wait(); err != nil {
		return models.Cow{}, nil, models.TimingConfig{}, err
	}

	return cow, events, settings.Canonicalize(), nil
}

// CreateConfirmation stores a new acknowledgement for one milestone
// occurrence. An existing confirmation for the same occurrence is left as is.
func (s *Service) CreateConfirmation(ctx context.Context, farmID string, req alerts.ConfirmationRequest) (models.Confirmation, error) {
	c, err := alerts.NewConfirmation(farmID, s.newID(), req, s.Now())
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if err := s.store.InsertConfirmation(ctx, c); err != nil {
		return models.Confirmation{}, fmt.Errorf("insert confirmation: %w", err)
	}

	s.logger.Info("milestone confirmed",
		zap.String("farm_id", farmID),
		zap.String("confirmation_id", c.ID),
		zap.String("entity_type", string(c.EntityType)),
		zap.String("entity_id", c.EntityID),
		zap.String("type", string(c.Type)),
		zap.Time("when", c.When))
	return c, nil
}

// UndoConfirmation soft-deletes a confirmation. Undoing twice is a no-op.
func (s *Service) UndoConfirmation(ctx context.Context, farmID, id string) (models.Confirmation, error) {
	c, err := s.store.GetConfirmation(ctx, farmID, id)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("load confirmation: %w", err)
	}
	if c.Undone {
		return c, nil
	}

	c = alerts.Undo(c, s.Now())
	if err := s.store.UpdateConfirmation(ctx, c); err != nil {
		return models.Confirmation{}, fmt.Errorf("update confirmation: %w", err)
	}

	s.logger.Info("milestone confirmation undone",
		zap.String("farm_id", farmID),
		zap.String("confirmation_id", c.ID))
	return c, nil
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
