package storage

import (
	"context"
	"errors"

	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/sevco"
)

// Store defines the persistence required by the lookup service: the
// synced credential record and the single-slot last-lookup handoff.
type Store interface {
	// Initialize sets up the necessary buckets or keys.
	Initialize(ctx context.Context) error

	Close(ctx context.Context) error

	// SaveCredentials overwrites the credential record.
	SaveCredentials(ctx context.Context, creds sevco.Credentials) error

	// GetCredentials retrieves the credential record. An unconfigured
	// store returns zero credentials and no error.
	GetCredentials(ctx context.Context) (sevco.Credentials, error)

	// NextLookupID reserves a monotonic id for a lookup at trigger time.
	NextLookupID(ctx context.Context) (uint64, error)

	// PublishLookup writes the single lookup slot. A write whose id is
	// below the slot's current id lost the race to a newer lookup and
	// is discarded with ErrStaleWrite.
	PublishLookup(ctx context.Context, result models.LookupResult) error

	// LastLookup reads the slot. Returns ErrNoLookup when nothing has
	// been published yet.
	LastLookup(ctx context.Context) (models.LookupResult, error)
}

var (
	ErrNoLookup   = errors.New("no lookup recorded")
	ErrStaleWrite = errors.New("stale lookup write discarded")
)
