package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrInvalidContact is wrapped by every contact validation failure.
var ErrInvalidContact = errors.New("contact is invalid")

// ContactFields is the buyer-supplied delivery address payload.
type ContactFields struct {
	Phone     string
	City      string
	Street    string
	House     string
	Apartment string
}

// Contact is a buyer-owned delivery address referenced by confirmed orders.
type Contact struct {
	ID      int64
	OwnerID int64
	ContactFields
}

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return strings.Join(parts, "; ")
}

var contactLimits = []struct {
	field    string
	max      int
	optional bool
	value    func(ContactFields) string
}{
	{"phone", 20, false, func(c ContactFields) string { return c.Phone }},
	{"city", 100, false, func(c ContactFields) string { return c.City }},
	{"street", 255, false, func(c ContactFields) string { return c.Street }},
	{"house", 10, false, func(c ContactFields) string { return c.House }},
	{"apartment", 10, true, func(c ContactFields) string { return c.Apartment }},
}

// Normalize trims surrounding whitespace from every field.
func (c ContactFields) Normalize() ContactFields {
	return ContactFields{
		Phone:     strings.TrimSpace(c.Phone),
		City:      strings.TrimSpace(c.City),
		Street:    strings.TrimSpace(c.Street),
		House:     strings.TrimSpace(c.House),
		Apartment: strings.TrimSpace(c.Apartment),
	}
}

// Validate checks required fields and length limits.
func (c ContactFields) Validate() error {
	problems := FieldErrors{}
	for _, limit := range contactLimits {
		value := limit.value(c)
		switch {
		case value == "" && !limit.optional:
			problems[limit.field] = "is required"
		case utf8.RuneCountInString(value) > limit.max:
			problems[limit.field] = fmt.Sprintf("must be at most %d characters", limit.max)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContact, problems)
	}
	return nil
}

// ApartmentOrDefault renders the apartment for invoices.
func (c ContactFields) ApartmentOrDefault() string {
	if c.Apartment == "" {
		return "not specified"
	}
	return c.Apartment
}
