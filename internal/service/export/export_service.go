// Package export writes a farm's projected milestones to a spreadsheet.
package export

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	repo "github.com/mamadbah2/herdbook/internal/repository/sheets"
	"github.com/mamadbah2/herdbook/internal/service/herd"
)

const milestonesRange = "Milestones!A:G"

var header = []interface{}{"Entity type", "Entity", "Milestone", "Due", "Alert", "Status", "Note"}

// MilestoneSource yields a farm's milestones.
type MilestoneSource interface {
	Milestones(ctx context.Context, farmID string) (herd.MilestoneSet, error)
}

// Service exports milestones to Google Sheets.
type Service struct {
	source MilestoneSource
	sheet  repo.Repository
	logger *zap.Logger
}

// NewService wires a new export service instance.
func NewService(source MilestoneSource, sheet repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, sheet: sheet, logger: logger}
}

// ExportMilestones replaces the Milestones sheet with every projected
// milestone of the farm, confirmed ones included, and returns the row count.
func (s *Service) ExportMilestones(ctx context.Context, farmID string) (int, error) {
	set, err := s.source.Milestones(ctx, farmID)
	if err != nil {
		return 0, fmt.Errorf("load milestones: %w", err)
	}

	rows := Rows(set)
	if err := s.sheet.ClearRange(ctx, milestonesRange); err != nil {
		return 0, err
	}
	if err := s.sheet.WriteRows(ctx, milestonesRange, rows); err != nil {
		return 0, err
	}

	s.logger.Info("milestones exported", zap.String("farm_id", farmID), zap.Int("rows", len(rows)-1))
	return len(rows) - 1, nil
}

// Rows renders set as a header row followed by one row per milestone, ordered
// by due date.
func Rows(set herd.MilestoneSet) [][]interface{} {
	events := append([]models.MilestoneEvent(nil), set.All...)
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].When.Equal(events[j].When) {
			return events[i].When.Before(events[j].When)
		}
		return events[i].Entity.ID < events[j].Entity.ID
	})

	rows := make([][]interface{}, 0, len(events)+1)
	rows = append(rows, header)
	for _, ev := range events {
		status, note := "pending", ""
		if c, ok := set.Confirmation(ev); ok {
			status, note = "confirmed", c.Note
		}
		rows = append(rows, []interface{}{
			string(ev.Entity.Type),
			ev.Entity.Name,
			string(ev.Type),
			ev.When.Format(dates.Layout),
			ev.AlertDate.Format(dates.Layout),
			status,
			note,
		})
	}
	return rows
}
