package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

type idempotencyKey struct {
	buyerID int64
	key     string
}

// IdempotencyStore keeps confirmation keys in process memory.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[idempotencyKey]ports.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[idempotencyKey]ports.IdempotencyRecord{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdempotencyStore) Get(_ context.Context, buyerID int64, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[idempotencyKey{buyerID, key}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idempotencyKey{record.BuyerID, record.Key}
	if existing, ok := s.records[k]; ok {
		if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
			return &existing, ports.ErrIdempotencyConflict
		}
		return &existing, nil
	}
	record.CreatedAt = s.now()
	s.records[k] = record
	return &record, nil
}
