package application

import (
	"context"
	"errors"

	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

// ListContacts returns the owner's delivery contacts.
func (s *Service) ListContacts(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	contacts, err := s.contacts.List(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	return contacts, nil
}

// CreateContact validates and stores a new delivery contact.
func (s *Service) CreateContact(ctx context.Context, input ordertypes.CreateContactInput) (*domain.Contact, error) {
	fields := input.Fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, mapError(err)
	}
	contact, err := s.contacts.Create(ctx, input.OwnerID, fields)
	if err != nil {
		return nil, mapError(err)
	}
	return contact, nil
}

// UpdateContact replaces the fields of an owned contact.
func (s *Service) UpdateContact(ctx context.Context, input ordertypes.UpdateContactInput) (*domain.Contact, error) {
	fields := input.Fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, mapError(err)
	}
	existing, err := s.contacts.Get(ctx, input.ContactID, input.OwnerID)
	if err != nil {
		return nil, notFound("contact", input.ContactID, err)
	}
	existing.ContactFields = fields
	updated, err := s.contacts.Update(ctx, existing)
	if err != nil {
		return nil, notFound("contact", input.ContactID, err)
	}
	return updated, nil
}

// DeleteContact removes an owned contact no order references.
func (s *Service) DeleteContact(ctx context.Context, input ordertypes.ContactIdentifier) error {
	err := s.contacts.Delete(ctx, input.ContactID, input.OwnerID)
	if errors.Is(err, ports.ErrConflict) {
		return ErrContactInUse
	}
	if err != nil {
		return notFound("contact", input.ContactID, err)
	}
	return nil
}
