package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

// BadgerPositionRepo stores entity positions in their own BadgerDB under dataPath/entities.
//
//	pos/<id>              -> EntityPosition
//	at/<z>/<x>/<y>/<id>   -> empty, room index
type BadgerPositionRepo struct {
	db     *badger.DB
	dbPath string
	mutex  sync.RWMutex
	ready  bool
}

func NewBadgerPositionRepo(dataPath string) (*BadgerPositionRepo, error) {
	repo := &BadgerPositionRepo{
		dbPath: filepath.Join(dataPath, "entities"),
	}

	opts := badger.DefaultOptions(repo.dbPath)
	opts.Logger = nil

	var err error
	repo.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", repo.dbPath, err)
	}

	repo.ready = true
	return repo, nil
}

func positionKey(id string) []byte {
	return []byte("pos/" + id)
}

func occupantPrefix(loc vec.Vec3) []byte {
	return []byte(fmt.Sprintf("at/%d/%d/%d/", loc.Z, loc.X, loc.Y))
}

func (r *BadgerPositionRepo) guard(ctx context.Context) error {
	if !r.ready {
		return errStoreClosed
	}
	return checkCtx(ctx)
}

func loadPosition(txn *badger.Txn, id string) (EntityPosition, bool, error) {
	item, err := txn.Get(positionKey(id))
	if err == badger.ErrKeyNotFound {
		return EntityPosition{}, false, nil
	}
	if err != nil {
		return EntityPosition{}, false, err
	}
	var p EntityPosition
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err == nil, err
}

func (r *BadgerPositionRepo) Save(ctx context.Context, p EntityPosition) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.guard(ctx); err != nil {
		return err
	}
	if p.EntityID == "" {
		return fmt.Errorf("invalid entity id %q", p.EntityID)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode position of %s: %w", p.EntityID, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		old, found, err := loadPosition(txn, p.EntityID)
		if err != nil {
			return err
		}
		if found {
			if err := txn.Delete(append(occupantPrefix(old.Location), p.EntityID...)); err != nil {
				return err
			}
		}
		if err := txn.Set(positionKey(p.EntityID), data); err != nil {
			return err
		}
		return txn.Set(append(occupantPrefix(p.Location), p.EntityID...), nil)
	})
	if err != nil {
		return fmt.Errorf("save position of %s: %w", p.EntityID, err)
	}
	return nil
}

func (r *BadgerPositionRepo) Load(ctx context.Context, entityID string) (EntityPosition, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.guard(ctx); err != nil {
		return EntityPosition{}, false, err
	}

	var (
		p     EntityPosition
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		p, found, err = loadPosition(txn, entityID)
		return err
	})
	if err != nil {
		return EntityPosition{}, false, fmt.Errorf("load position of %s: %w", entityID, err)
	}
	return p, found, nil
}

func (r *BadgerPositionRepo) Delete(ctx context.Context, entityID string) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.guard(ctx); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		p, found, err := loadPosition(txn, entityID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("entity %s: %w", entityID, ErrPositionNotFound)
		}
		if err := txn.Delete(append(occupantPrefix(p.Location), entityID...)); err != nil {
			return err
		}
		return txn.Delete(positionKey(entityID))
	})
}

func (r *BadgerPositionRepo) FindAt(ctx context.Context, loc vec.Vec3) ([]EntityPosition, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.guard(ctx); err != nil {
		return nil, err
	}

	var out []EntityPosition
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := occupantPrefix(loc)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		for _, id := range ids {
			p, found, err := loadPosition(txn, id)
			if err != nil {
				return err
			}
			if found {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find entities at %s: %w", loc, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func (r *BadgerPositionRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.ready {
		return nil
	}
	r.ready = false
	return r.db.Close()
}
