package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/herd"
)

const (
	cowsCollection          = "cows"
	bullsCollection         = "bulls"
	calvesCollection        = "calves"
	eventsCollection        = "breeding_events"
	settingsCollection      = "settings"
	confirmationsCollection = "confirmations"
)

// MongoDBRepository implements herd.Store on MongoDB. Calving and graduation
// writes run in a multi-document transaction and need a replica set.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

var _ herd.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the farm-scoped indexes every query relies on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	byFarm := mongo.IndexModel{Keys: bson.D{{Key: "farm_id", Value: 1}}}
	indexes := map[string][]mongo.IndexModel{
		cowsCollection:   {byFarm, {Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "number", Value: 1}}}},
		bullsCollection:  {byFarm},
		calvesCollection: {byFarm},
		eventsCollection: {{Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "cow_id", Value: 1}, {Key: "date", Value: -1}}}},
		confirmationsCollection: {
			{Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "undone", Value: 1}}},
			{Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "type", Value: 1}, {Key: "when", Value: 1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	r.logger.Debug("mongodb indexes ensured")
	return nil
}

// ListFarmIDs returns every farm that owns an animal.
func (r *MongoDBRepository) ListFarmIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range []string{cowsCollection, calvesCollection} {
		values, err := r.db.Collection(name).Distinct(ctx, "farm_id", bson.M{})
		if err != nil {
			return nil, fmt.Errorf("distinct farm ids in %s: %w", name, err)
		}
		for _, v := range values {
			id, ok := v.(string)
			if !ok || id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// ListCows returns the farm's cows.
func (r *MongoDBRepository) ListCows(ctx context.Context, farmID string) ([]models.Cow, error) {
	var out []models.Cow
	if err := r.findAll(ctx, cowsCollection, bson.M{"farm_id": farmID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBulls returns the farm's bulls.
func (r *MongoDBRepository) ListBulls(ctx context.Context, farmID string) ([]models.Bull, error) {
	var out []models.Bull
	if err := r.findAll(ctx, bullsCollection, bson.M{"farm_id": farmID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCalves returns the farm's calves, graduated ones included.
func (r *MongoDBRepository) ListCalves(ctx context.Context, farmID string) ([]models.Calf, error) {
	var out []models.Calf
	if err := r.findAll(ctx, calvesCollection, bson.M{"farm_id": farmID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCow loads one cow.
func (r *MongoDBRepository) GetCow(ctx context.Context, farmID, cowID string) (models.Cow, error) {
	var cow models.Cow
	if err := r.findOne(ctx, cowsCollection, farmID, cowID, &cow); err != nil {
		return models.Cow{}, err
	}
	return cow, nil
}

// ListBreedingEvents returns the farm's breeding events, newest first,
// optionally restricted to one cow.
func (r *MongoDBRepository) ListBreedingEvents(ctx context.Context, farmID, cowID string) ([]models.BreedingEvent, error) {
	filter := bson.M{"farm_id": farmID}
	if cowID != "" {
		filter["cow_id"] = cowID
	}
	sort := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})

	var out []models.BreedingEvent
	if err := r.findAll(ctx, eventsCollection, filter, sort, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBreedingEvent loads one breeding event.
func (r *MongoDBRepository) GetBreedingEvent(ctx context.Context, farmID, eventID string) (models.BreedingEvent, error) {
	var ev models.BreedingEvent
	if err := r.findOne(ctx, eventsCollection, farmID, eventID, &ev); err != nil {
		return models.BreedingEvent{}, err
	}
	return ev, nil
}

// InsertBreedingEvent stores a new breeding event.
func (r *MongoDBRepository) InsertBreedingEvent(ctx context.Context, ev models.BreedingEvent) error {
	if _, err := r.db.Collection(eventsCollection).InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("failed to insert breeding event: %w", err)
	}
	return nil
}

// UpdateBreedingEvent replaces a stored breeding event.
func (r *MongoDBRepository) UpdateBreedingEvent(ctx context.Context, ev models.BreedingEvent) error {
	return r.replace(ctx, r.db.Collection(eventsCollection), ev.FarmID, ev.ID, ev)
}

// GetSettings loads the farm's settings document, or nil when there is none.
func (r *MongoDBRepository) GetSettings(ctx context.Context, farmID string) (*models.SettingsDocument, error) {
	var doc models.SettingsDocument
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": farmID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &doc, nil
}

// SaveSettings upserts the farm's settings document.
func (r *MongoDBRepository) SaveSettings(ctx context.Context, doc models.SettingsDocument) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.db.Collection(settingsCollection).ReplaceOne(ctx, bson.M{"_id": doc.FarmID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ListConfirmations returns the farm's confirmations, optionally only those
// not undone.
func (r *MongoDBRepository) ListConfirmations(ctx context.Context, farmID string, activeOnly bool) ([]models.Confirmation, error) {
	filter := bson.M{"farm_id": farmID}
	if activeOnly {
		filter["undone"] = false
	}
	var out []models.Confirmation
	if err := r.findAll(ctx, confirmationsCollection, filter, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConfirmation loads one confirmation.
func (r *MongoDBRepository) GetConfirmation(ctx context.Context, farmID, id string) (models.Confirmation, error) {
	var c models.Confirmation
	if err := r.findOne(ctx, confirmationsCollection, farmID, id, &c); err != nil {
		return models.Confirmation{}, err
	}
	return c, nil
}

// InsertConfirmation stores a new confirmation.
func (r *MongoDBRepository) InsertConfirmation(ctx context.Context, c models.Confirmation) error {
	if _, err := r.db.Collection(confirmationsCollection).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert confirmation: %w", err)
	}
	return nil
}

// UpdateConfirmation replaces a stored confirmation.
func (r *MongoDBRepository) UpdateConfirmation(ctx context.Context, c models.Confirmation) error {
	return r.replace(ctx, r.db.Collection(confirmationsCollection), c.FarmID, c.ID, c)
}

// RecordCalving updates the cow and inserts the newborn in one transaction.
func (r *MongoDBRepository) RecordCalving(ctx context.Context, cow models.Cow, calf *models.Calf) error {
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.replace(sc, r.db.Collection(cowsCollection), cow.FarmID, cow.ID, cow); err != nil {
			return err
		}
		if calf == nil {
			return nil
		}
		if _, err := r.db.Collection(calvesCollection).InsertOne(sc, calf); err != nil {
			return fmt.Errorf("failed to insert calf: %w", err)
		}
		return nil
	})
}

// Graduate inserts the adult and updates the calf in one transaction.
func (r *MongoDBRepository) Graduate(ctx context.Context, calf models.Calf, adult models.Animal) error {
	var coll *mongo.Collection
	switch adult.Kind() {
	case models.EntityCow:
		coll = r.db.Collection(cowsCollection)
	case models.EntityBull:
		coll = r.db.Collection(bullsCollection)
	default:
		return fmt.Errorf("cannot graduate calf %s into %s", calf.ID, adult.Kind())
	}

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := coll.InsertOne(sc, adult); err != nil {
			return fmt.Errorf("failed to insert %s: %w", adult.Kind(), err)
		}
		return r.replace(sc, r.db.Collection(calvesCollection), calf.FarmID, calf.ID, calf)
	})
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoDBRepository) findAll(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions, out interface{}) error {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	cursor, err := r.db.Collection(collection).Find(ctx, filter, findOpts...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func (r *MongoDBRepository) findOne(ctx context.Context, collection, farmID, id string, out interface{}) error {
	err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": id, "farm_id": farmID}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", collection, id, herd.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", collection, id, err)
	}
	return nil
}

func (r *MongoDBRepository) replace(ctx context.Context, coll *mongo.Collection, farmID, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "farm_id": farmID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll.Name(), id, herd.ErrNotFound)
	}
	return nil
}
