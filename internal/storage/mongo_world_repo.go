package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// MongoConfig contains connection settings for the MongoDB world store.
type MongoConfig struct {
	URI      string // e.g. mongodb://localhost:27017
	Database string // e.g. worldgen
}

// MongoWorldStore persists the world in MongoDB, one collection per kind.
type MongoWorldStore struct {
	client     *mongo.Client
	zones      *mongo.Collection
	rooms      *mongo.Collection
	biomes     *mongo.Collection
	grid       *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoWorldStore connects and ensures indexes.
func NewMongoWorldStore(cfg MongoConfig) (*MongoWorldStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "worldgen"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &MongoWorldStore{
		client:     client,
		zones:      db.Collection("zones"),
		rooms:      db.Collection("rooms"),
		biomes:     db.Collection("biomes"),
		grid:       db.Collection("whittaker_grid"),
		ctxTimeout: 5 * time.Second,
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return store, nil
}

func (m *MongoWorldStore) ensureIndexes(ctx context.Context) error {
	zoneIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "z", Value: 1},
			{Key: "rect.min_x", Value: 1},
			{Key: "rect.max_x", Value: 1},
		},
		Options: options.Index().SetName("zone_plane"),
	}
	if _, err := m.zones.Indexes().CreateOne(ctx, zoneIdx); err != nil {
		return err
	}

	roomIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "location.z", Value: 1},
			{Key: "location.x", Value: 1},
			{Key: "location.y", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("room_location_unique"),
	}
	if _, err := m.rooms.Indexes().CreateOne(ctx, roomIdx); err != nil {
		return err
	}

	biomeIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("biome_name_unique"),
	}
	if _, err := m.biomes.Indexes().CreateOne(ctx, biomeIdx); err != nil {
		return err
	}

	gridIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "elevation", Value: 1}, {Key: "moisture", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("grid_pair_unique"),
	}
	_, err := m.grid.Indexes().CreateOne(ctx, gridIdx)
	return err
}

// withTimeout bounds a single call unless ctx already carries a deadline.
func (m *MongoWorldStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.ctxTimeout)
}

func overlapFilter(rect world.Rect, z int) bson.M {
	return bson.M{
		"z":          z,
		"rect.min_x": bson.M{"$lte": rect.MaxX},
		"rect.max_x": bson.M{"$gte": rect.MinX},
		"rect.min_y": bson.M{"$lte": rect.MaxY},
		"rect.max_y": bson.M{"$gte": rect.MinY},
	}
}

func (m *MongoWorldStore) FindZoneContaining(ctx context.Context, x, y, z int) (*world.Zone, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var zone world.Zone
	err := m.zones.FindOne(ctx, overlapFilter(world.PointRect(x, y), z)).Decode(&zone)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find zone at (%d, %d, %d): %w", x, y, z, err)
	}
	return &zone, nil
}

func (m *MongoWorldStore) FindZonesOverlapping(ctx context.Context, rect world.Rect, z int) ([]world.Zone, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cur, err := m.zones.Find(ctx, overlapFilter(rect, z))
	if err != nil {
		return nil, fmt.Errorf("find zones overlapping %s: %w", rect, err)
	}
	var out []world.Zone
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	return out, nil
}

func (m *MongoWorldStore) SaveZone(ctx context.Context, zone *world.Zone) (*world.Zone, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	saved := *zone
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if _, err := m.zones.InsertOne(ctx, saved); err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	return &saved, nil
}

func (m *MongoWorldStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var room world.Room
	filter := bson.M{"location.x": x, "location.y": y, "location.z": z}
	err := m.rooms.FindOne(ctx, filter).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find room at (%d, %d, %d): %w", x, y, z, err)
	}
	return &room, nil
}

func (m *MongoWorldStore) FindRoomsInRect(ctx context.Context, rect world.Rect, z int) ([]world.Room, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"location.z": z,
		"location.x": bson.M{"$gte": rect.MinX, "$lte": rect.MaxX},
		"location.y": bson.M{"$gte": rect.MinY, "$lte": rect.MaxY},
	}
	cur, err := m.rooms.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find rooms in %s: %w", rect, err)
	}
	var out []world.Room
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return out, nil
}

func (m *MongoWorldStore) SaveRooms(ctx context.Context, rooms []world.Room) ([]world.Room, error) {
	if len(rooms) == 0 {
		return nil, nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	out := make([]world.Room, len(rooms))
	docs := make([]interface{}, len(rooms))
	for i, r := range rooms {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		out[i] = r
		docs[i] = r
	}
	if _, err := m.rooms.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert %d rooms: %w", len(rooms), err)
	}
	return out, nil
}

func (m *MongoWorldStore) FindBiomeByName(ctx context.Context, name string) (*biome.Biome, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var b biome.Biome
	err := m.biomes.FindOne(ctx, bson.M{"name": name}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find biome %s: %w", name, err)
	}
	return &b, nil
}

func (m *MongoWorldStore) FindAllBiomes(ctx context.Context) ([]biome.Biome, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cur, err := m.biomes.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list biomes: %w", err)
	}
	var out []biome.Biome
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode biomes: %w", err)
	}
	return out, nil
}

func (m *MongoWorldStore) FindGridEntries(ctx context.Context) ([]biome.GridEntry, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "elevation", Value: 1}, {Key: "moisture", Value: 1}})
	cur, err := m.grid.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list grid entries: %w", err)
	}
	var out []biome.GridEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode grid entries: %w", err)
	}
	return out, nil
}

func (m *MongoWorldStore) SaveBiomes(ctx context.Context, biomes []biome.Biome) ([]biome.Biome, error) {
	if len(biomes) == 0 {
		return nil, nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	out := make([]biome.Biome, len(biomes))
	docs := make([]interface{}, len(biomes))
	for i, b := range biomes {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		out[i] = b
		docs[i] = b
	}
	if _, err := m.biomes.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert biomes: %w", err)
	}
	return out, nil
}

func (m *MongoWorldStore) SaveGridEntries(ctx context.Context, entries []biome.GridEntry) ([]biome.GridEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	out := make([]biome.GridEntry, len(entries))
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		out[i] = e
		docs[i] = e
	}
	if _, err := m.grid.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert grid entries: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (m *MongoWorldStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
