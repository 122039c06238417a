// Package store defines the user/permission record store contract.
// Backends persist whole records: every put replaces the record as a
// unit, so readers never observe a partially updated folder set.
package store

import (
	"context"
	"errors"

	"github.com/astaXmjy/s3BucMg/internal/access"
)

// ErrNotFound reports a lookup for a username with no stored record.
var ErrNotFound = errors.New("record not found")

// Store is the persistence seam the account service and API sit on.
// Implementations must be safe for concurrent use. Last write wins;
// no backend is expected to provide optimistic concurrency.
type Store interface {
	// GetRecord returns the record for username or ErrNotFound.
	GetRecord(ctx context.Context, username string) (*access.Record, error)

	// PutRecord creates or replaces the record keyed by its Username.
	PutRecord(ctx context.Context, rec *access.Record) error

	// DeleteRecord removes the record or returns ErrNotFound.
	DeleteRecord(ctx context.Context, username string) error

	// ListRecords returns all records sorted by username.
	ListRecords(ctx context.Context) ([]*access.Record, error)

	Close() error
}
