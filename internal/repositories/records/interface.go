package records

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/daybook/internal/models"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// ErrAmbiguousID is returned when an id prefix matches more than one record.
var ErrAmbiguousID = errors.New("ambiguous record id prefix")

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Kind            models.Kind
	Tag             string
	Quadrant        models.Quadrant
	IncludeArchived bool
	IncludeDone     bool
}

// Repository is the contract for the unified record table.
type Repository interface {
	// Upsert inserts the record or overwrites an existing one by id.
	Upsert(ctx context.Context, r *models.Record) error

	// GetByID returns one record, ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*models.Record, error)

	// GetByIDPrefix resolves a shortened id, as shown in listings, to the
	// single record it identifies. ErrNotFound when nothing matches,
	// ErrAmbiguousID when the prefix matches several records.
	GetByIDPrefix(ctx context.Context, prefix string) (*models.Record, error)

	// List returns records matching the filter, newest UpdatedAt first.
	List(ctx context.Context, f Filter) ([]*models.Record, error)

	// DeleteByID removes a record. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Count returns the total number of records, archived included.
	Count(ctx context.Context) (int, error)

	// MaxUpdatedAt returns the newest UpdatedAt across all records, or nil
	// when the store is empty. This is the local data clock for sync.
	MaxUpdatedAt(ctx context.Context) (*time.Time, error)
}
