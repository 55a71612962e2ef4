package herd

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// Settings returns the farm's canonical timing configuration.
func (s *Service) Settings(ctx context.Context, farmID string) (models.TimingConfig, error) {
	doc, err := s.store.GetSettings(ctx, farmID)
	if err != nil {
		return models.TimingConfig{}, fmt.Errorf("load settings: %w", err)
	}
	return doc.Canonicalize(), nil
}

// UpdateSettings stores doc as the farm's settings at the current schema
// version and returns the canonical configuration it yields. Legacy
// month-based fields are accepted and migrated on read.
func (s *Service) UpdateSettings(ctx context.Context, farmID string, doc models.SettingsDocument) (models.TimingConfig, error) {
	if field, ok := negativeField(doc); ok {
		return models.TimingConfig{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
	}

	doc.FarmID = farmID
	doc.Version = models.SettingsVersion
	doc.UpdatedAt = s.Now()
	if err := s.store.SaveSettings(ctx, doc); err != nil {
		return models.TimingConfig{}, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("timing settings updated", zap.String("farm_id", farmID))
	return doc.Canonicalize(), nil
}

// negativeField returns the json name of the first negative *int field of doc.
func negativeField(doc models.SettingsDocument) (string, bool) {
	v := reflect.ValueOf(doc)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f, ok := v.Field(i).Interface().(*int)
		if !ok || f == nil || *f >= 0 {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		return name, true
	}
	return "", false
}
