package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactFields_Validate(t *testing.T) {
	valid := ContactFields{Phone: "+100", City: "Berlin", Street: "Main", House: "1"}
	require.NoError(t, valid.Validate())

	err := ContactFields{Phone: strings.Repeat("9", 21), City: "Berlin", Street: "Main"}.Validate()
	require.ErrorIs(t, err, ErrInvalidContact)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "house")
	assert.NotContains(t, fields, "apartment")
}

func TestContactFields_NormalizeAndApartment(t *testing.T) {
	fields := ContactFields{Phone: " 1 ", City: " c ", Street: "s", House: "2"}.Normalize()
	assert.Equal(t, "1", fields.Phone)
	assert.Equal(t, "not specified", fields.ApartmentOrDefault())

	fields.Apartment = "12"
	assert.Equal(t, "12", fields.ApartmentOrDefault())
}
