package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 {
	return &v
}

func validProfile() *Profile {
	return &Profile{
		Username: "nailsbyana",
		Role:     Provider,
		Location: "Belgrade",
	}
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, validProfile().Validate())

	short := validProfile()
	short.Username = "ab"
	assert.Error(t, short.Validate())

	spaced := validProfile()
	spaced.Username = "nails by ana"
	assert.Error(t, spaced.Validate())

	badRole := validProfile()
	badRole.Role = "superuser"
	assert.Error(t, badRole.Validate())

	badMail := validProfile()
	badMail.Email = "not-an-address"
	assert.Error(t, badMail.Validate())
}

func TestProfileValidateCoordinates(t *testing.T) {
	p := validProfile()
	p.Latitude = f64(44.8)
	p.Longitude = f64(20.45)
	assert.NoError(t, p.Validate())

	p.Latitude = f64(91)
	assert.Error(t, p.Validate())

	p.Latitude = f64(44.8)
	p.Longitude = f64(181)
	assert.Error(t, p.Validate())

	// One coordinate without the other is rejected.
	p.Longitude = nil
	assert.Error(t, p.Validate())
}

func TestServiceValidate(t *testing.T) {
	assert.NoError(t, (&Service{Name: "Gel nails", Price: f64(30)}).Validate())
	assert.Error(t, (&Service{Name: "G"}).Validate())
	assert.Error(t, (&Service{Name: "Gel nails", Price: f64(-1)}).Validate())
}

func TestReviewValidate(t *testing.T) {
	assert.NoError(t, (&Review{Rating: 5}).Validate())
	assert.Error(t, (&Review{Rating: 0}).Validate())
	assert.Error(t, (&Review{Rating: 6}).Validate())
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("nails_by-Ana1"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("abc"))
	assert.Error(t, ValidateUsername("nails by ana"))
	assert.Error(t, ValidateUsername("ana@nails"))
}

func TestSearchFilterIsEmpty(t *testing.T) {
	assert.True(t, (&SearchFilter{}).IsEmpty())
	assert.True(t, (&SearchFilter{Sort: SortDefault}).IsEmpty())
	// Radius without a center does not make the filter non-empty.
	assert.True(t, (&SearchFilter{Radius: f64(10)}).IsEmpty())

	assert.False(t, (&SearchFilter{Search: "nails"}).IsEmpty())
	assert.False(t, (&SearchFilter{Services: []string{"Gel nails"}}).IsEmpty())
	assert.False(t, (&SearchFilter{Lat: f64(44.8), Lng: f64(20.45), Radius: f64(10)}).IsEmpty())
	assert.False(t, (&SearchFilter{Sort: SortRatingHigh}).IsEmpty())
}
