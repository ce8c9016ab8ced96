package files

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server/models"
)

// Key layout. Metadata and content live under separate keys so Stat and
// List never read content; Put and Delete touch both in one transaction.
const (
	badgerMetaPrefix = "meta:"
	badgerDataPrefix = "data:"
)

type badgerMeta struct {
	Size        int64     `msgpack:"size"`
	ContentHash string    `msgpack:"content_hash"`
	CreatedAt   time.Time `msgpack:"created_at"`
	UpdatedAt   time.Time `msgpack:"updated_at"`
}

// BadgerOptions configures the embedded record store.
type BadgerOptions struct {
	// Dir holds the BadgerDB data files. Required unless InMemory is set.
	Dir string
	// InMemory runs without disk persistence; meant for tests.
	InMemory bool
	// Logger receives badger's warnings and errors. Nil discards them.
	Logger logging.Logger
}

// BadgerRepository implements Repository on an embedded BadgerDB, for
// deployments without a SQL server.
type BadgerRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerRepository opens (or creates) the database described by opts.
func NewBadgerRepository(opts BadgerOptions) (*BadgerRepository, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: data directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{l: opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerRepository{db: db, now: time.Now}, nil
}

func (r *BadgerRepository) Get(_ context.Context, name string) (*models.File, error) {
	f := &models.File{Name: name}
	err := r.db.View(func(txn *badger.Txn) error {
		meta, err := readMeta(txn, name)
		if err != nil {
			return err
		}
		item, err := txn.Get([]byte(badgerDataPrefix + name))
		if err != nil {
			return err
		}
		content, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if content == nil {
			content = []byte{}
		}
		f.Content = content
		f.Size = meta.Size
		f.ContentHash = meta.ContentHash
		f.CreatedAt = meta.CreatedAt
		f.UpdatedAt = meta.UpdatedAt
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return f, nil
}

func (r *BadgerRepository) Stat(_ context.Context, name string) (*models.FileInfo, error) {
	var meta *badgerMeta
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		meta, err = readMeta(txn, name)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger stat: %w", err)
	}
	return meta.info(name), nil
}

func (r *BadgerRepository) Put(_ context.Context, name string, content []byte, size int64) (*models.File, error) {
	f, err := models.NewFile(name, content, size)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	err = r.db.Update(func(txn *badger.Txn) error {
		meta := &badgerMeta{Size: f.Size, ContentHash: f.ContentHash, CreatedAt: now, UpdatedAt: now}
		prev, err := readMeta(txn, name)
		switch {
		case err == nil:
			meta.CreatedAt = prev.CreatedAt
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		encoded, err := msgpack.Marshal(meta)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(badgerMetaPrefix+name), encoded); err != nil {
			return err
		}
		if err := txn.Set([]byte(badgerDataPrefix+name), f.Content); err != nil {
			return err
		}
		f.CreatedAt = meta.CreatedAt
		f.UpdatedAt = meta.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger put: %w", err)
	}
	return f, nil
}

func (r *BadgerRepository) Exists(_ context.Context, name string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerMetaPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger exists: %w", err)
	}
	return true, nil
}

func (r *BadgerRepository) Delete(_ context.Context, name string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(badgerMetaPrefix + name)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerDataPrefix + name))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

func (r *BadgerRepository) List(_ context.Context, prefix string) ([]*models.FileInfo, error) {
	var result []*models.FileInfo
	p := []byte(badgerMetaPrefix + prefix)

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: p, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(badgerMetaPrefix):])
			var meta badgerMeta
			if err := item.Value(func(v []byte) error {
				return msgpack.Unmarshal(v, &meta)
			}); err != nil {
				return err
			}
			result = append(result, meta.info(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	return result, nil
}

// Close releases the database.
func (r *BadgerRepository) Close() error {
	return r.db.Close()
}

func readMeta(txn *badger.Txn, name string) (*badgerMeta, error) {
	item, err := txn.Get([]byte(badgerMetaPrefix + name))
	if err != nil {
		return nil, err
	}
	var meta badgerMeta
	if err := item.Value(func(v []byte) error {
		return msgpack.Unmarshal(v, &meta)
	}); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *badgerMeta) info(name string) *models.FileInfo {
	return &models.FileInfo{
		Name:        name,
		Size:        m.Size,
		ContentHash: m.ContentHash,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// badgerLogger forwards badger's warnings and errors; info and debug chatter
// is dropped.
type badgerLogger struct {
	l logging.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Error(context.Background(), fmt.Sprintf("badger: "+f, v...))
	}
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Warn(context.Background(), fmt.Sprintf("badger: "+f, v...))
	}
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

var _ Repository = (*BadgerRepository)(nil)
