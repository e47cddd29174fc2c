package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// Key layout:
//
//	zone/<z>/<id>      -> world.Zone
//	room/<z>/<x>/<y>   -> world.Room
//	biome/<name>       -> biome.Biome
//	grid/<e>/<m>       -> biome.GridEntry
const (
	zonePrefix  = "zone/"
	roomPrefix  = "room/"
	biomePrefix = "biome/"
	gridPrefix  = "grid/"
)

var errStoreClosed = errors.New("store is closed")

// BadgerWorldStore persists the world in an embedded BadgerDB.
type BadgerWorldStore struct {
	db      *badger.DB
	dbPath  string
	codec   *valueCodec
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerWorldStore opens (or creates) the database under dataPath/world.
func NewBadgerWorldStore(dataPath string) (*BadgerWorldStore, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dbPath, err)
	}

	codec, err := newValueCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BadgerWorldStore{
		db:      db,
		dbPath:  dbPath,
		codec:   codec,
		isReady: true,
	}, nil
}

// Close flushes and closes the database.
func (s *BadgerWorldStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.codec.close()
	return s.db.Close()
}

func zoneKey(z int, id string) []byte {
	return []byte(fmt.Sprintf("%s%d/%s", zonePrefix, z, id))
}

func zonePlanePrefix(z int) []byte {
	return []byte(fmt.Sprintf("%s%d/", zonePrefix, z))
}

func roomKey(x, y, z int) []byte {
	return []byte(fmt.Sprintf("%s%d/%d/%d", roomPrefix, z, x, y))
}

func roomColumnPrefix(x, z int) []byte {
	return []byte(fmt.Sprintf("%s%d/%d/", roomPrefix, z, x))
}

func biomeKey(name string) []byte {
	return []byte(biomePrefix + name)
}

func gridKey(e, m int) []byte {
	return []byte(fmt.Sprintf("%s%d/%d", gridPrefix, e, m))
}

// view runs fn in a read transaction if the store is open.
func (s *BadgerWorldStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return errStoreClosed
	}
	return s.db.View(fn)
}

func (s *BadgerWorldStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return errStoreClosed
	}
	return s.db.Update(fn)
}

// get decodes the value at key into v. found is false for a missing key.
func (s *BadgerWorldStore) get(txn *badger.Txn, key []byte, v interface{}) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = item.Value(func(val []byte) error {
		return s.codec.unmarshal(val, v)
	})
	return err == nil, err
}

// scan hands every raw value under prefix to decode.
func (s *BadgerWorldStore) scan(txn *badger.Txn, prefix []byte, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(decode); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerWorldStore) set(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := s.codec.marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func (s *BadgerWorldStore) zonesOnPlane(ctx context.Context, z int, keep func(world.Zone) bool) ([]world.Zone, error) {
	var out []world.Zone
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.scan(txn, zonePlanePrefix(z), func(val []byte) error {
			var zone world.Zone
			if err := s.codec.unmarshal(val, &zone); err != nil {
				return err
			}
			if keep(zone) {
				out = append(out, zone)
			}
			return nil
		})
	})
	return out, err
}

func (s *BadgerWorldStore) FindZoneContaining(ctx context.Context, x, y, z int) (*world.Zone, error) {
	zones, err := s.zonesOnPlane(ctx, z, func(zone world.Zone) bool {
		return zone.Rect.Contains(x, y)
	})
	if err != nil {
		return nil, fmt.Errorf("scan zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, nil
	}
	return &zones[0], nil
}

func (s *BadgerWorldStore) FindZonesOverlapping(ctx context.Context, rect world.Rect, z int) ([]world.Zone, error) {
	zones, err := s.zonesOnPlane(ctx, z, func(zone world.Zone) bool {
		return zone.Rect.Overlaps(rect)
	})
	if err != nil {
		return nil, fmt.Errorf("scan zones: %w", err)
	}
	return zones, nil
}

func (s *BadgerWorldStore) SaveZone(ctx context.Context, zone *world.Zone) (*world.Zone, error) {
	saved := *zone
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	err := s.update(ctx, func(txn *badger.Txn) error {
		return s.set(txn, zoneKey(saved.Z, saved.ID), saved)
	})
	if err != nil {
		return nil, fmt.Errorf("save zone: %w", err)
	}
	return &saved, nil
}

func (s *BadgerWorldStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	var room world.Room
	var found bool
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		found, err = s.get(txn, roomKey(x, y, z), &room)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &room, nil
}

func (s *BadgerWorldStore) FindRoomsInRect(ctx context.Context, rect world.Rect, z int) ([]world.Room, error) {
	var out []world.Room
	err := s.view(ctx, func(txn *badger.Txn) error {
		for x := rect.MinX; x <= rect.MaxX; x++ {
			err := s.scan(txn, roomColumnPrefix(x, z), func(val []byte) error {
				var room world.Room
				if err := s.codec.unmarshal(val, &room); err != nil {
					return err
				}
				if y := room.Location.Y; y >= rect.MinY && y <= rect.MaxY {
					out = append(out, room)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	return out, nil
}

// SaveRooms writes all rooms in one transaction.
func (s *BadgerWorldStore) SaveRooms(ctx context.Context, rooms []world.Room) ([]world.Room, error) {
	out := make([]world.Room, len(rooms))
	err := s.update(ctx, func(txn *badger.Txn) error {
		for i, r := range rooms {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			l := r.Location
			if err := s.set(txn, roomKey(l.X, l.Y, l.Z), r); err != nil {
				return err
			}
			out[i] = r
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save %d rooms: %w", len(rooms), err)
	}
	return out, nil
}

func (s *BadgerWorldStore) FindBiomeByName(ctx context.Context, name string) (*biome.Biome, error) {
	var b biome.Biome
	var found bool
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		found, err = s.get(txn, biomeKey(name), &b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get biome %s: %w", name, err)
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}

func (s *BadgerWorldStore) FindAllBiomes(ctx context.Context) ([]biome.Biome, error) {
	var out []biome.Biome
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.scan(txn, []byte(biomePrefix), func(val []byte) error {
			var b biome.Biome
			if err := s.codec.unmarshal(val, &b); err != nil {
				return err
			}
			out = append(out, b)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan biomes: %w", err)
	}
	return out, nil
}

func (s *BadgerWorldStore) FindGridEntries(ctx context.Context) ([]biome.GridEntry, error) {
	var out []biome.GridEntry
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.scan(txn, []byte(gridPrefix), func(val []byte) error {
			var e biome.GridEntry
			if err := s.codec.unmarshal(val, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan grid: %w", err)
	}
	return out, nil
}

func (s *BadgerWorldStore) SaveBiomes(ctx context.Context, biomes []biome.Biome) ([]biome.Biome, error) {
	out := make([]biome.Biome, len(biomes))
	err := s.update(ctx, func(txn *badger.Txn) error {
		for i, b := range biomes {
			if b.ID == "" {
				b.ID = uuid.NewString()
			}
			if err := s.set(txn, biomeKey(b.Name), b); err != nil {
				return err
			}
			out[i] = b
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save biomes: %w", err)
	}
	return out, nil
}

func (s *BadgerWorldStore) SaveGridEntries(ctx context.Context, entries []biome.GridEntry) ([]biome.GridEntry, error) {
	out := make([]biome.GridEntry, len(entries))
	err := s.update(ctx, func(txn *badger.Txn) error {
		for i, e := range entries {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			if err := s.set(txn, gridKey(e.Elevation, e.Moisture), e); err != nil {
				return err
			}
			out[i] = e
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save grid entries: %w", err)
	}
	return out, nil
}
