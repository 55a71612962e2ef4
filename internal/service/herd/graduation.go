package herd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/repro"
)

// Graduation links a graduated calf to the adult it became.
type Graduation struct {
	CalfID    string            `json:"calf_id"`
	Calf      string            `json:"calf"`
	AdultType models.EntityType `json:"adult_type"`
	AdultID   string            `json:"adult_id"`
}

// GraduationFailure reports a calf whose graduation write failed.
type GraduationFailure struct {
	CalfID string `json:"calf_id"`
	Error  string `json:"error"`
}

// GraduationReport is the outcome of one graduation batch.
type GraduationReport struct {
	FarmID    string              `json:"farm_id"`
	Graduated []Graduation        `json:"graduated"`
	Failed    []GraduationFailure `json:"failed,omitempty"`
}

// GraduateDue converts every alive, non-graduated calf that has reached its
// maturity date into a Cow or Bull. Each calf is written atomically on its own,
// so a failure leaves the other graduations in place.
func (s *Service) GraduateDue(ctx context.Context, farmID string) (GraduationReport, error) {
	calves, err := s.store.ListCalves(ctx, farmID)
	if err != nil {
		return GraduationReport{}, fmt.Errorf("list calves: %w", err)
	}
	settings, err := s.store.GetSettings(ctx, farmID)
	if err != nil {
		return GraduationReport{}, fmt.Errorf("load settings: %w", err)
	}
	cfg := settings.Canonicalize()

	now := s.Now()
	report := GraduationReport{FarmID: farmID, Graduated: []Graduation{}}
	for _, calf := range calves {
		if calf.Graduated || !calf.IsAlive() {
			continue
		}
		if m := repro.Maturity(calf, cfg, now); !m.Applicable || !m.Ready {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		adult, ok := s.adultOf(calf)
		if !ok {
			continue
		}
		ref := models.AdultRef{Type: adult.Kind(), ID: adult.Ident().ID}
		graduated := calf
		graduated.Graduated = true
		graduated.GraduatedAt = &now
		graduated.GraduatedTo = &ref
		graduated.UpdatedAt = now

		if err := s.store.Graduate(ctx, graduated, adult); err != nil {
			s.logger.Error("calf graduation failed",
				zap.String("farm_id", farmID),
				zap.String("calf_id", calf.ID),
				zap.Error(err))
			report.Failed = append(report.Failed, GraduationFailure{CalfID: calf.ID, Error: err.Error()})
			continue
		}

		s.logger.Info("calf graduated",
			zap.String("farm_id", farmID),
			zap.String("calf_id", calf.ID),
			zap.String("adult_type", string(ref.Type)),
			zap.String("adult_id", ref.ID))
		report.Graduated = append(report.Graduated, Graduation{
			CalfID:    calf.ID,
			Calf:      calf.DisplayName(),
			AdultType: ref.Type,
			AdultID:   ref.ID,
		})
	}

	return report, nil
}

// GraduateAll runs GraduateDue for every farm in the store.
func (s *Service) GraduateAll(ctx context.Context) ([]GraduationReport, error) {
	farmIDs, err := s.store.ListFarmIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}

	reports := make([]GraduationReport, 0, len(farmIDs))
	var firstErr error
	for _, farmID := range farmIDs {
		report, err := s.GraduateDue(ctx, farmID)
		if err != nil {
			s.logger.Error("graduation batch failed", zap.String("farm_id", farmID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reports = append(reports, report)
	}
	return reports, firstErr
}

// adultOf builds the independent adult record a calf graduates into. It carries
// the calf's identity and lineage under a new id.
func (s *Service) adultOf(calf models.Calf) (models.Animal, bool) {
	kind, ok := repro.AdultType(calf.Gender)
	if !ok {
		return nil, false
	}

	now := s.Now()
	ident := calf.Identity
	ident.ID = s.newID()
	ident.CreatedAt = now
	ident.UpdatedAt = now

	if kind == models.EntityCow {
		return models.Cow{Identity: ident}, true
	}
	return models.Bull{Identity: ident}, true
}
