package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, 10.13, Round2(10.125))
	assert.Equal(t, int64(1999), Cents(19.99))
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 330.0, Sum(300, 50, -20))
	assert.False(t, Exceeds(0.1+0.2, 0.3))
	assert.True(t, Exceeds(100.01, 100))
}

func TestNormalize(t *testing.T) {
	type create struct {
		Email    string  `normalize:"lower"`
		Password string  `normalize:"-"`
		Notes    string
		Tax      float64
	}
	in := create{Email: "  Ana@Mail.TEST ", Password: " pass word ", Notes: " late arrival ", Tax: 12.346}
	NormalizeDTO(&in)
	assert.Equal(t, create{Email: "ana@mail.test", Password: " pass word ", Notes: "late arrival", Tax: 12.35}, in)

	type patch struct {
		Name  *string
		Price *float64
		Code  *string
	}
	name, price := "  Deluxe ", 75.556
	p := patch{Name: &name, Price: &price}
	NormalizePtrDTO(&p)
	assert.Equal(t, "Deluxe", *p.Name)
	assert.Equal(t, 75.56, *p.Price)
	assert.Nil(t, p.Code)

	NormalizeDTO(in) // non-pointer is ignored
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	type patch struct {
		Name   *string  `json:"name"`
		Price  *float64 `json:"price,omitempty"`
		Secret *string  `json:"-"`
		Status *string
	}
	name, secret, status := "Villa", "x", "inactive"
	got := UpdatesFromPtrDTO(&patch{Name: &name, Secret: &secret, Status: &status})
	assert.Equal(t, map[string]any{"name": "Villa", "Status": "inactive"}, got)
	assert.Empty(t, UpdatesFromPtrDTO(42))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 3, ParseIntDefault(" 3 ", 1))
	assert.Equal(t, 1, ParseIntDefault("0", 1))
	assert.Equal(t, 20, ParseIntDefault("-5", 20))
	assert.Equal(t, 20, ParseIntDefault("ten", 20))
}

func TestParseTimestamp(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	got, err := ParseTimestamp("2025-07-01 14:00:00", jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC), got.UTC())

	got, err = ParseTimestamp("2025-07-01T14:00:00Z", jakarta)
	require.NoError(t, err)
	assert.Equal(t, 21, got.Hour())

	got, err = ParseTimestamp("2025-07-01", jakarta)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	_, err = ParseTimestamp("", jakarta)
	assert.Error(t, err)
	_, err = ParseTimestamp("01/07/2025", jakarta)
	assert.Error(t, err)
}
