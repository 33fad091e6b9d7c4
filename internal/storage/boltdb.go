package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/sevco"
)

var (
	settingsBucket = []byte("Settings")
	lookupBucket   = []byte("Lookup")

	credentialsKey = []byte("credentials")
	lastLookupKey  = []byte("last")
)

// BoltStore implements the Store interface using bbolt.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens (or creates) the database file and sets up buckets.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	store := &BoltStore{
		db:   db,
		path: path,
	}

	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// Initialize sets up the necessary buckets.
func (b *BoltStore) Initialize(ctx context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(settingsBucket); err != nil {
			return fmt.Errorf("create Settings bucket: %v", err)
		}
		if _, err := tx.CreateBucketIfNotExists(lookupBucket); err != nil {
			return fmt.Errorf("create Lookup bucket: %v", err)
		}
		return nil
	})
}

func (b *BoltStore) Close(ctx context.Context) error {
	return b.db.Close()
}

// SaveCredentials overwrites the credential record.
func (b *BoltStore) SaveCredentials(ctx context.Context, creds sevco.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(credentialsKey, data)
	})
}

// GetCredentials retrieves the credential record, zero-valued when the
// store has never been configured.
func (b *BoltStore) GetCredentials(ctx context.Context) (sevco.Credentials, error) {
	var creds sevco.Credentials
	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(settingsBucket).Get(credentialsKey)
		if val == nil {
			return nil
		}
		return json.Unmarshal(val, &creds)
	})
	if err != nil {
		return sevco.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return creds, nil
}

// NextLookupID reserves a monotonic lookup id via the bucket sequence.
func (b *BoltStore) NextLookupID(ctx context.Context) (uint64, error) {
	var id uint64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		seq, err := tx.Bucket(lookupBucket).NextSequence()
		if err != nil {
			return err
		}
		id = seq
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reserve lookup id: %w", err)
	}
	return id, nil
}

// PublishLookup writes the single lookup slot, last write wins. Writes
// carrying an id below the slot's current id are discarded so a slow
// lookup cannot clobber a newer one.
func (b *BoltStore) PublishLookup(ctx context.Context, result models.LookupResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup result: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(lookupBucket)
		if val := bucket.Get(lastLookupKey); val != nil {
			var current models.LookupResult
			if err := json.Unmarshal(val, &current); err == nil && current.LookupID > result.LookupID {
				return ErrStaleWrite
			}
		}
		return bucket.Put(lastLookupKey, data)
	})
}

// LastLookup reads the slot.
func (b *BoltStore) LastLookup(ctx context.Context) (models.LookupResult, error) {
	var result models.LookupResult
	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(lookupBucket).Get(lastLookupKey)
		if val == nil {
			return ErrNoLookup
		}
		if err := json.Unmarshal(val, &result); err != nil {
			return fmt.Errorf("failed to unmarshal lookup result: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.LookupResult{}, err
	}
	return result, nil
}
