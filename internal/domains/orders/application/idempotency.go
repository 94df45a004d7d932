package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

type confirmFingerprint struct {
	ContactID *int64                `json:"contactId,omitempty"`
	Contact   *domain.ContactFields `json:"contact,omitempty"`
}

// FingerprintConfirm hashes the contact selector of a confirmation, excluding the key itself.
func FingerprintConfirm(input ordertypes.ConfirmOrderInput) (string, error) {
	normalized := confirmFingerprint{ContactID: input.ContactID}
	if input.Contact != nil {
		fields := input.Contact.Normalize()
		normalized.Contact = &fields
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// replayConfirmation returns the order a previous confirmation with the same key produced.
// A nil order and nil error mean the confirmation must run.
func (s *Service) replayConfirmation(ctx context.Context, input ordertypes.ConfirmOrderInput) (*domain.Order, string, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotent == nil {
		return nil, "", nil
	}
	fingerprint, err := FingerprintConfirm(input)
	if err != nil {
		return nil, "", err
	}
	record, err := s.idempotent.Get(ctx, input.BuyerID, key)
	if err != nil || record == nil {
		return nil, fingerprint, err
	}
	if record.RequestHash != fingerprint {
		return nil, fingerprint, ErrIdempotencyConflict
	}
	order, err := s.repo.GetForBuyer(ctx, input.BuyerID, record.OrderID)
	if err != nil {
		return nil, fingerprint, notFound("order", record.OrderID, err)
	}
	return order, fingerprint, nil
}

// rememberConfirmation runs after commit; a failure only costs the replay, never the confirmation.
func (s *Service) rememberConfirmation(ctx context.Context, input ordertypes.ConfirmOrderInput, fingerprint string, orderID int64) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotent == nil {
		return
	}
	_, err := s.idempotent.Save(ctx, ports.IdempotencyRecord{
		BuyerID:     input.BuyerID,
		Key:         key,
		RequestHash: fingerprint,
		OrderID:     orderID,
	})
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ports.ErrIdempotencyConflict) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "failed to record confirmation idempotency key",
			slog.Int64("order.id", orderID), slog.String("error", err.Error()))
	}
}
