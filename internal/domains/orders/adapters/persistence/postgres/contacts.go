package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var _ ports.ContactStore = (*Contacts)(nil)

// Contacts persists buyer delivery contacts. Inside a unit of work it takes row locks so
// a contact attached by a confirmation cannot be deleted concurrently.
type Contacts struct {
	db      *gorm.DB
	locking bool
}

func NewContacts(db *gorm.DB) *Contacts {
	return &Contacts{db: db}
}

func (c *Contacts) Get(ctx context.Context, contactID, ownerID int64) (*domain.Contact, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	query := c.db.WithContext(ctx)
	if c.locking {
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var record contactRecord
	if err := query.Where("id = ? AND owner_id = ?", contactID, ownerID).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	return record.toDomain(), nil
}

func (c *Contacts) Create(ctx context.Context, ownerID int64, fields domain.ContactFields) (*domain.Contact, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	record := toContactRecord(&domain.Contact{OwnerID: ownerID, ContactFields: fields})
	if err := c.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, translate(err)
	}
	return record.toDomain(), nil
}

func (c *Contacts) List(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var records []contactRecord
	if err := c.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	contacts := make([]*domain.Contact, 0, len(records))
	for _, rec := range records {
		contacts = append(contacts, rec.toDomain())
	}
	return contacts, nil
}

func (c *Contacts) Update(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errors.New("contact is nil")
	}
	record := toContactRecord(contact)
	result := c.db.WithContext(ctx).Model(&contactRecord{}).
		Where("id = ? AND owner_id = ?", contact.ID, contact.OwnerID).
		Updates(map[string]any{
			"phone":      record.Phone,
			"city":       record.City,
			"street":     record.Street,
			"house":      record.House,
			"apartment":  record.Apartment,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return c.Get(ctx, contact.ID, contact.OwnerID)
}

// Delete locks the contact row before checking order references.
func (c *Contacts) Delete(ctx context.Context, contactID, ownerID int64) error {
	if err := c.ensureDB(); err != nil {
		return err
	}
	err := c.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var record contactRecord
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", contactID, ownerID).
			First(&record).Error; err != nil {
			return err
		}
		var refs int64
		if err := db.Model(&orderRecord{}).Where("contact_id = ?", contactID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ports.ErrConflict
		}
		return db.Delete(&contactRecord{}, contactID).Error
	})
	return translate(err)
}

func (c *Contacts) ensureDB() error {
	if c == nil || c.db == nil {
		return errors.New("postgres contact store not configured")
	}
	return nil
}
