package herd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// memStore is an in-memory Store used by the service tests.
type memStore struct {
	mu            sync.Mutex
	cows          map[string]models.Cow
	bulls         map[string]models.Bull
	calves        map[string]models.Calf
	events        map[string]models.BreedingEvent
	settings      map[string]*models.SettingsDocument
	confirmations map[string]models.Confirmation

	listErr     error
	graduateErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		cows:          map[string]models.Cow{},
		bulls:         map[string]models.Bull{},
		calves:        map[string]models.Calf{},
		events:        map[string]models.BreedingEvent{},
		settings:      map[string]*models.SettingsDocument{},
		confirmations: map[string]models.Confirmation{},
		graduateErr:   map[string]error{},
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func (m *memStore) ListFarmIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, c := range m.calves {
		seen[c.FarmID] = true
	}
	for _, c := range m.cows {
		seen[c.FarmID] = true
	}
	var out []string
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) ListCows(_ context.Context, farmID string) ([]models.Cow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Cow
	for _, c := range m.cows {
		if c.FarmID == farmID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListBulls(_ context.Context, farmID string) ([]models.Bull, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Bull
	for _, b := range m.bulls {
		if b.FarmID == farmID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListCalves(_ context.Context, farmID string) ([]models.Calf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Calf
	for _, c := range m.calves {
		if c.FarmID == farmID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetCow(_ context.Context, farmID, cowID string) (models.Cow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cows[cowID]
	if !ok || c.FarmID != farmID {
		return models.Cow{}, notFound("cow", cowID)
	}
	return c, nil
}

func (m *memStore) ListBreedingEvents(_ context.Context, farmID, cowID string) ([]models.BreedingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BreedingEvent
	for _, ev := range m.events {
		if ev.FarmID != farmID || (cowID != "" && ev.CowID != cowID) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memStore) GetBreedingEvent(_ context.Context, farmID, eventID string) (models.BreedingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok || ev.FarmID != farmID {
		return models.BreedingEvent{}, notFound("breeding event", eventID)
	}
	return ev, nil
}

func (m *memStore) InsertBreedingEvent(_ context.Context, ev models.BreedingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
	return nil
}

func (m *memStore) UpdateBreedingEvent(_ context.Context, ev models.BreedingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.ID]; !ok {
		return notFound("breeding event", ev.ID)
	}
	m.events[ev.ID] = ev
	return nil
}

func (m *memStore) GetSettings(_ context.Context, farmID string) (*models.SettingsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[farmID], nil
}

func (m *memStore) SaveSettings(_ context.Context, doc models.SettingsDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[doc.FarmID] = &doc
	return nil
}

func (m *memStore) ListConfirmations(_ context.Context, farmID string, activeOnly bool) ([]models.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Confirmation
	for _, c := range m.confirmations {
		if c.FarmID != farmID || (activeOnly && c.Undone) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) GetConfirmation(_ context.Context, farmID, id string) (models.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.confirmations[id]
	if !ok || c.FarmID != farmID {
		return models.Confirmation{}, notFound("confirmation", id)
	}
	return c, nil
}

func (m *memStore) InsertConfirmation(_ context.Context, c models.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.confirmations[c.ID]; ok {
		return errors.New("duplicate confirmation id")
	}
	m.confirmations[c.ID] = c
	return nil
}

func (m *memStore) UpdateConfirmation(_ context.Context, c models.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations[c.ID] = c
	return nil
}

func (m *memStore) RecordCalving(_ context.Context, cow models.Cow, calf *models.Calf) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cows[cow.ID] = cow
	if calf != nil {
		m.calves[calf.ID] = *calf
	}
	return nil
}

func (m *memStore) Graduate(_ context.Context, calf models.Calf, adult models.Animal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.graduateErr[calf.ID]; err != nil {
		return err
	}
	switch a := adult.(type) {
	case models.Cow:
		m.cows[a.ID] = a
	case models.Bull:
		m.bulls[a.ID] = a
	default:
		return fmt.Errorf("unexpected adult %T", adult)
	}
	m.calves[calf.ID] = calf
	return nil
}
