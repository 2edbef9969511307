package inquiry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "09171112222", NormalizePhone("0917-111-2222"))
	assert.Equal(t, "09171112222", NormalizePhone("+63 917 111 2222"))
	assert.Equal(t, "09171112222", NormalizePhone("63(917)1112222"))
	assert.Equal(t, "09171112222", NormalizePhone("09171112222"))
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("no digits here"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "0917-111-2222", FormatPhone("+639171112222"))
	assert.Equal(t, "0917-111-2222", FormatPhone("09171112222"))
	// Anything that isn't an 11-digit local number passes through.
	assert.Equal(t, "12345", FormatPhone("12345"))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("09171112222"))
	assert.True(t, ValidPhone("+63 917 111 2222"))
	assert.False(t, ValidPhone("0917111222"))   // too short
	assert.False(t, ValidPhone("19171112222"))  // wrong local prefix
	assert.False(t, ValidPhone("649171112222")) // wrong country code
	assert.False(t, ValidPhone(""))
}

func TestDetectDuplicate_PhoneMatchAcrossFormats(t *testing.T) {
	propertyID := primitive.NewObjectID()
	existing := []models.Inquiry{{
		ID:            primitive.NewObjectID(),
		PropertyID:    propertyID,
		CustomerEmail: "ana@example.com",
		CustomerPhone: "0917-111-2222",
		Status:        models.StatusAssigned,
	}}

	res := DetectDuplicate("other@example.com", "+639171112222", propertyID, existing)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, existing[0].ID, res.Existing.ID)
}

func TestDetectDuplicate_EmailMatchIsCaseInsensitive(t *testing.T) {
	propertyID := primitive.NewObjectID()
	existing := []models.Inquiry{{
		ID:            primitive.NewObjectID(),
		PropertyID:    propertyID,
		CustomerEmail: "Ana@Example.com",
		CustomerPhone: "09170000000",
		Status:        models.StatusNew,
	}}

	res := DetectDuplicate("  ana@example.com ", "09999999999", propertyID, existing)
	assert.True(t, res.IsDuplicate)
}

func TestDetectDuplicate_DifferentPropertyIsNotADuplicate(t *testing.T) {
	existing := []models.Inquiry{{
		PropertyID:    primitive.NewObjectID(),
		CustomerEmail: "ana@example.com",
		CustomerPhone: "09171112222",
		Status:        models.StatusNew,
	}}

	res := DetectDuplicate("ana@example.com", "09171112222", primitive.NewObjectID(), existing)
	assert.False(t, res.IsDuplicate)
	assert.Nil(t, res.Existing)
}

func TestDetectDuplicate_TerminalInquiriesDoNotBlock(t *testing.T) {
	propertyID := primitive.NewObjectID()
	existing := []models.Inquiry{
		{
			PropertyID:    propertyID,
			CustomerEmail: "ana@example.com",
			CustomerPhone: "09171112222",
			Status:        models.StatusCancelled,
		},
		{
			PropertyID:    propertyID,
			CustomerEmail: "ana@example.com",
			CustomerPhone: "09171112222",
			Status:        models.StatusSuccessful,
		},
	}

	res := DetectDuplicate("ana@example.com", "09171112222", propertyID, existing)
	assert.False(t, res.IsDuplicate)
}

func TestDetectDuplicate_EmptyContactNeverMatchesEmpty(t *testing.T) {
	propertyID := primitive.NewObjectID()
	existing := []models.Inquiry{{
		PropertyID:    propertyID,
		CustomerEmail: "",
		CustomerPhone: "",
		Status:        models.StatusNew,
	}}

	res := DetectDuplicate("", "", propertyID, existing)
	assert.False(t, res.IsDuplicate)
}

func TestDetectDuplicate_ReturnsFirstMatch(t *testing.T) {
	propertyID := primitive.NewObjectID()
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	existing := []models.Inquiry{
		{ID: first, PropertyID: propertyID, CustomerEmail: "ana@example.com", Status: models.StatusNew},
		{ID: second, PropertyID: propertyID, CustomerEmail: "ana@example.com", Status: models.StatusAssigned},
	}

	res := DetectDuplicate("ana@example.com", "", propertyID, existing)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, first, res.Existing.ID)
}
