package implementation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoReadTimeout  = 5 * time.Second
	mongoWriteTimeout = 3 * time.Second
)

var (
	mongoDeviceFields  = map[string]bool{"nombre": true, "tipo": true, "ubicacion": true, "ip": true, "estado": true, "automatico": true}
	mongoReadingFields = map[string]bool{"dispositivo_id": true, "dosificador_activado": true, "timestamp": true}
	mongoCommandFields = map[string]bool{"dispositivo": true, "accion": true, "fecha": true, "estado": true, "usuario": true}
	mongoBoolFields    = map[string]bool{"automatico": true, "dosificador_activado": true}
)

// newMongoID returns a time-ordered UUID so that sorting by id follows creation order
func newMongoID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// mongoFind translates a ListQuery into a filter document and find options
func mongoFind(q interfaces.ListQuery, fields map[string]bool) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	for name, value := range q.Filters {
		if name == "id" {
			filter["_id"] = value
			continue
		}
		if !fields[name] {
			continue
		}
		if mongoBoolFields[name] {
			if b, err := strconv.ParseBool(value); err == nil {
				filter[name] = b
				continue
			}
		}
		filter[name] = value
	}

	direction := 1
	if q.Descending() {
		direction = -1
	}
	opts := options.Find()
	switch {
	case q.SortBy == "id":
		opts.SetSort(bson.D{{Key: "_id", Value: direction}})
	case fields[q.SortBy]:
		opts.SetSort(bson.D{{Key: q.SortBy, Value: direction}, {Key: "_id", Value: direction}})
	case direction < 0:
		opts.SetSort(bson.D{{Key: "_id", Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

func mongoList[T any](ctx context.Context, coll *mongo.Collection, q interfaces.ListQuery, fields map[string]bool) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoReadTimeout)
	defer cancel()

	filter, opts := mongoFind(q, fields)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mongoGet[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoReadTimeout)
	defer cancel()

	var out T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func mongoInsert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return nil
}

// MongoDeviceRepository stores devices in the dispositivos collection
type MongoDeviceRepository struct {
	coll *mongo.Collection
}

func NewMongoDeviceRepository(db *mongo.Database) *MongoDeviceRepository {
	return &MongoDeviceRepository{coll: db.Collection("dispositivos")}
}

func (r *MongoDeviceRepository) ListDevices(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Device, error) {
	return mongoList[mqtmodels.Device](ctx, r.coll, q, mongoDeviceFields)
}

func (r *MongoDeviceRepository) GetDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	return mongoGet[mqtmodels.Device](ctx, r.coll, id)
}

func (r *MongoDeviceRepository) CreateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	device.ID = newMongoID()
	if err := mongoInsert(ctx, r.coll, device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *MongoDeviceRepository) UpdateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": device.ID}, device)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &device, nil
}

func (r *MongoDeviceRepository) DeleteDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	var deleted mqtmodels.Device
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// MongoReadingRepository appends readings to the registros collection
type MongoReadingRepository struct {
	coll *mongo.Collection
}

func NewMongoReadingRepository(db *mongo.Database) *MongoReadingRepository {
	return &MongoReadingRepository{coll: db.Collection("registros")}
}

// EnsureIndexes creates the indexes the dashboard queries rely on
func (r *MongoReadingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dispositivo_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *MongoReadingRepository) ListReadings(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Reading, error) {
	return mongoList[mqtmodels.Reading](ctx, r.coll, q, mongoReadingFields)
}

func (r *MongoReadingRepository) GetReading(ctx context.Context, id string) (*mqtmodels.Reading, error) {
	return mongoGet[mqtmodels.Reading](ctx, r.coll, id)
}

func (r *MongoReadingRepository) CreateReading(ctx context.Context, reading mqtmodels.Reading) (*mqtmodels.Reading, error) {
	reading.ID = newMongoID()
	if err := mongoInsert(ctx, r.coll, reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// MongoCommandRepository keeps one collection per equipment kind
type MongoCommandRepository struct {
	db *mongo.Database
}

func NewMongoCommandRepository(db *mongo.Database) *MongoCommandRepository {
	return &MongoCommandRepository{db: db}
}

func (r *MongoCommandRepository) ListCommands(ctx context.Context, kind mqtmodels.EquipmentKind, q interfaces.ListQuery) ([]mqtmodels.Command, error) {
	return mongoList[mqtmodels.Command](ctx, r.db.Collection(string(kind)), q, mongoCommandFields)
}

func (r *MongoCommandRepository) CreateCommand(ctx context.Context, kind mqtmodels.EquipmentKind, cmd mqtmodels.Command) (*mqtmodels.Command, error) {
	cmd.ID = newMongoID()
	if err := mongoInsert(ctx, r.db.Collection(string(kind)), cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}
