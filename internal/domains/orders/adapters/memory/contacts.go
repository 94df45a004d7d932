package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

func (t *tx) contact(id int64) (*domain.Contact, bool) {
	if _, gone := t.deletedContacts[id]; gone {
		return nil, false
	}
	if staged, ok := t.contacts[id]; ok {
		return staged, true
	}
	contact, ok := t.s.contacts[id]
	return contact, ok
}

// txContacts is the contact store bound to one unit of work.
type txContacts struct {
	t *tx
}

func (c txContacts) Get(_ context.Context, contactID, ownerID int64) (*domain.Contact, error) {
	contact, ok := c.t.contact(contactID)
	if !ok || contact.OwnerID != ownerID {
		return nil, ports.ErrNotFound
	}
	clone := *contact
	return &clone, nil
}

func (c txContacts) Create(_ context.Context, ownerID int64, fields domain.ContactFields) (*domain.Contact, error) {
	c.t.s.seq.contact++
	contact := &domain.Contact{ID: c.t.s.seq.contact, OwnerID: ownerID, ContactFields: fields}
	c.t.contacts[contact.ID] = contact
	clone := *contact
	return &clone, nil
}

func (c txContacts) List(_ context.Context, ownerID int64) ([]*domain.Contact, error) {
	seen := map[int64]struct{}{}
	var list []*domain.Contact
	collect := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		if contact, ok := c.t.contact(id); ok && contact.OwnerID == ownerID {
			clone := *contact
			list = append(list, &clone)
		}
	}
	for id := range c.t.s.contacts {
		collect(id)
	}
	for id := range c.t.contacts {
		collect(id)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (c txContacts) Update(_ context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil {
		return nil, errors.New("contact is nil")
	}
	existing, ok := c.t.contact(contact.ID)
	if !ok || existing.OwnerID != contact.OwnerID {
		return nil, ports.ErrNotFound
	}
	clone := *contact
	c.t.contacts[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (c txContacts) Delete(_ context.Context, contactID, ownerID int64) error {
	existing, ok := c.t.contact(contactID)
	if !ok || existing.OwnerID != ownerID {
		return ports.ErrNotFound
	}
	for _, order := range c.t.current() {
		if order.ContactID != nil && *order.ContactID == contactID {
			return ports.ErrConflict
		}
	}
	delete(c.t.contacts, contactID)
	c.t.deletedContacts[contactID] = struct{}{}
	return nil
}

// Contacts returns the store's contact store. Each call runs as its own unit of work.
func (s *Store) Contacts() ports.ContactStore {
	return storeContacts{s: s}
}

type storeContacts struct {
	s *Store
}

var _ ports.ContactStore = storeContacts{}

func (c storeContacts) Get(ctx context.Context, contactID, ownerID int64) (*domain.Contact, error) {
	var out *domain.Contact
	err := c.s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		out, err = tx.Contacts().Get(ctx, contactID, ownerID)
		return err
	})
	return out, err
}

func (c storeContacts) Create(ctx context.Context, ownerID int64, fields domain.ContactFields) (*domain.Contact, error) {
	var out *domain.Contact
	err := c.s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		out, err = tx.Contacts().Create(ctx, ownerID, fields)
		return err
	})
	return out, err
}

func (c storeContacts) List(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := c.s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		out, err = tx.Contacts().List(ctx, ownerID)
		return err
	})
	return out, err
}

func (c storeContacts) Update(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	var out *domain.Contact
	err := c.s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		out, err = tx.Contacts().Update(ctx, contact)
		return err
	})
	return out, err
}

func (c storeContacts) Delete(ctx context.Context, contactID, ownerID int64) error {
	return c.s.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.Contacts().Delete(ctx, contactID, ownerID)
	})
}
