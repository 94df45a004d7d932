package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the key was already used for a different request or order.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord ties a buyer's Idempotency-Key to the order a confirmation produced.
type IdempotencyRecord struct {
	BuyerID     int64
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
}

// IdempotencyStore remembers confirmation keys so client retries replay the first result.
type IdempotencyStore interface {
	// Get returns the record for the buyer's key, or nil when unknown.
	Get(ctx context.Context, buyerID int64, key string) (*IdempotencyRecord, error)
	// Save stores the record. An existing record with the same hash and order is returned as is;
	// one that differs is returned together with ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
