package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/alerts"
	"github.com/mamadbah2/herdbook/internal/service/whatsapp"
)

// pastDueListed caps how many past-due lines the digest spells out.
const pastDueListed = 10

var milestoneLabels = map[models.MilestoneType]string{
	models.MilestoneCalving:        "Calving",
	models.MilestoneDryOff:         "Dry-off",
	models.MilestoneChangeFeed:     "Feed change",
	models.MilestonePregnancyCheck: "Pregnancy check",
	models.MilestoneInsemination:   "Insemination",
	models.MilestoneGraduation:     "Graduation",
	models.MilestoneWeaning:        "Weaning",
}

// CalendarSource yields a farm's calendar view.
type CalendarSource interface {
	Calendar(ctx context.Context, farmID string, anchor time.Time) (alerts.CalendarView, error)
	Now() time.Time
}

// Service builds and sends the daily alert digest.
type Service struct {
	source   CalendarSource
	notifier whatsapp.Notifier
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. notifier may be nil when
// delivery is not configured; SendDigest then fails.
func NewService(source CalendarSource, notifier whatsapp.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, notifier: notifier, logger: logger}
}

// Digest renders today's digest for the farm.
func (s *Service) Digest(ctx context.Context, farmID string) (string, error) {
	now := s.source.Now()
	view, err := s.source.Calendar(ctx, farmID, now)
	if err != nil {
		return "", fmt.Errorf("load calendar: %w", err)
	}
	return BuildDigest(farmID, view, now), nil
}

// SendDigest renders today's digest and delivers it to the recipient.
func (s *Service) SendDigest(ctx context.Context, farmID, to string) (string, error) {
	if s.notifier == nil {
		return "", fmt.Errorf("digest delivery is not configured")
	}

	digest, err := s.Digest(ctx, farmID)
	if err != nil {
		return "", err
	}
	if err := s.notifier.Notify(ctx, to, digest); err != nil {
		return "", fmt.Errorf("deliver digest: %w", err)
	}

	s.logger.Info("digest sent", zap.String("farm_id", farmID), zap.String("to", to))
	return digest, nil
}

// BuildDigest lists the alerts raised today and the milestones due today,
// followed by the past-due backlog. view must be anchored on now.
func BuildDigest(farmID string, view alerts.CalendarView, now time.Time) string {
	today := dates.Today(now)
	alerting := bucketOn(view.WeekAlerts, today)
	due := bucketOn(view.Week, today)

	var b strings.Builder
	fmt.Fprintf(&b, "Herd alerts for %s, %s\n", farmID, today.Format(dates.Layout))

	if len(alerting) == 0 && len(due) == 0 && len(view.PastDue) == 0 {
		b.WriteString("Nothing to report today.")
		return b.String()
	}

	if len(alerting) > 0 {
		fmt.Fprintf(&b, "\nNew alerts (%d):\n", len(alerting))
		for _, ev := range alerting {
			fmt.Fprintf(&b, "- %s: %s due %s\n", label(ev.Type), ev.Entity.Name, ev.When.Format(dates.Layout))
		}
	}

	if len(due) > 0 {
		fmt.Fprintf(&b, "\nDue today (%d):\n", len(due))
		for _, ev := range due {
			fmt.Fprintf(&b, "- %s: %s\n", label(ev.Type), ev.Entity.Name)
		}
	}

	if n := len(view.PastDue); n > 0 {
		more := ""
		if view.PastDueTruncated {
			more = "+"
		}
		fmt.Fprintf(&b, "\nPast due (%d%s):\n", n, more)
		for i, ev := range view.PastDue {
			if i == pastDueListed {
				fmt.Fprintf(&b, "... and %d more\n", n-pastDueListed)
				break
			}
			late := dates.DaysBetween(ev.When, today)
			if late > 0 {
				fmt.Fprintf(&b, "- %s: %s due %s (%d days late)\n", label(ev.Type), ev.Entity.Name, ev.When.Format(dates.Layout), late)
			} else {
				fmt.Fprintf(&b, "- %s: %s due %s\n", label(ev.Type), ev.Entity.Name, ev.When.Format(dates.Layout))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func bucketOn(buckets []alerts.DayBucket, day time.Time) []models.MilestoneEvent {
	for _, bucket := range buckets {
		if dates.SameDay(bucket.Date, day) {
			return bucket.Events
		}
	}
	return nil
}

func label(t models.MilestoneType) string {
	if l, ok := milestoneLabels[t]; ok {
		return l
	}
	return string(t)
}
