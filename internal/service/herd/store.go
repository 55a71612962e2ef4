package herd

import (
	"context"
	"errors"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist in the farm.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a breeding operation is not admitted
	// by the cow's current cycle state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInseminationNotAllowed is returned for an early insemination without force.
	ErrInseminationNotAllowed = errors.New("insemination not allowed yet")
	// ErrInvalidInput is returned when a request is incomplete or inconsistent.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the record store the herd service reads snapshots from and writes
// single-record changes to. Every query is scoped to one farm. Lookups of a
// missing record return an error wrapping ErrNotFound.
type Store interface {
	ListFarmIDs(ctx context.Context) ([]string, error)

	ListCows(ctx context.Context, farmID string) ([]models.Cow, error)
	ListBulls(ctx context.Context, farmID string) ([]models.Bull, error)
	ListCalves(ctx context.Context, farmID string) ([]models.Calf, error)
	GetCow(ctx context.Context, farmID, cowID string) (models.Cow, error)

	// ListBreedingEvents returns the farm's events, or only cowID's when it is set.
	ListBreedingEvents(ctx context.Context, farmID, cowID string) ([]models.BreedingEvent, error)
	GetBreedingEvent(ctx context.Context, farmID, eventID string) (models.BreedingEvent, error)
	InsertBreedingEvent(ctx context.Context, ev models.BreedingEvent) error
	UpdateBreedingEvent(ctx context.Context, ev models.BreedingEvent) error

	// GetSettings returns nil without error when the farm has no settings.
	GetSettings(ctx context.Context, farmID string) (*models.SettingsDocument, error)
	SaveSettings(ctx context.Context, doc models.SettingsDocument) error

	ListConfirmations(ctx context.Context, farmID string, activeOnly bool) ([]models.Confirmation, error)
	GetConfirmation(ctx context.Context, farmID, id string) (models.Confirmation, error)
	InsertConfirmation(ctx context.Context, c models.Confirmation) error
	UpdateConfirmation(ctx context.Context, c models.Confirmation) error

	// RecordCalving stores the cow's new last calving date and, when calf is
	// set, registers the newborn, as one atomic write.
	RecordCalving(ctx context.Context, cow models.Cow, calf *models.Calf) error
	// Graduate stores the adult produced by calf and marks calf graduated, as
	// one atomic write.
	Graduate(ctx context.Context, calf models.Calf, adult models.Animal) error
}
