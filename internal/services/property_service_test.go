package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"tes/crm/internal/config"
	"tes/crm/internal/models"
	"tes/crm/internal/utils"
)

const propertyCSVHeader = "name,street,barangay,city,province,zip,price,status,type,description,reservation_fee,commission\n"

func TestCreateProperty_DefaultsAndValidation(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	created, err := svc.CreateProperty(context.Background(), &models.Property{
		Name:  "Casa Verde",
		Type:  models.PropertyHouse,
		Price: 4500000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyAvailable, created.Status)
	assert.False(t, created.ID.IsZero())
	assert.NotNil(t, created.Photos)

	_, err = svc.CreateProperty(context.Background(), &models.Property{Type: models.PropertyHouse, Price: 100})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = svc.CreateProperty(context.Background(), &models.Property{Name: "Free Lot", Type: models.PropertyLot})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "price", vErr.Field)
}

func TestSearchProperties_Filters(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	seed := []*models.Property{
		{Name: "QC Condo", Address: models.Address{City: "Quezon City", Province: "Metro Manila"}, Price: 3000000, Type: models.PropertyCondo},
		{Name: "Cebu House", Address: models.Address{City: "Cebu City", Province: "Cebu"}, Price: 7000000, Type: models.PropertyHouse},
		{Name: "QC Lot", Address: models.Address{City: "Quezon City", Province: "Metro Manila"}, Price: 1200000, Type: models.PropertyLot},
	}
	for _, p := range seed {
		_, err := svc.CreateProperty(context.Background(), p)
		require.NoError(t, err)
	}

	city := "Quezon City"
	results, err := svc.SearchProperties(context.Background(), PropertyFilter{City: &city})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	minPrice := 2000000.0
	results, err = svc.SearchProperties(context.Background(), PropertyFilter{City: &city, MinPrice: &minPrice})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "QC Condo", results[0].Name)
}

func TestUpdateProperty_AllowedFieldsOnly(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	created, err := svc.CreateProperty(context.Background(), &models.Property{
		Name: "Casa Verde", Type: models.PropertyHouse, Price: 4500000,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProperty(context.Background(), created.ID, map[string]interface{}{
		"status": models.PropertyReserved,
		"price":  4300000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyReserved, updated.Status)
	assert.Equal(t, 4300000.0, updated.Price)

	_, err = svc.UpdateProperty(context.Background(), created.ID, map[string]interface{}{"deleted": true})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deleted", vErr.Field)
}

func TestDeleteProperty_SoftDelete(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	created, err := svc.CreateProperty(context.Background(), &models.Property{
		Name: "Casa Verde", Type: models.PropertyHouse, Price: 4500000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProperty(context.Background(), created.ID))

	_, err = svc.FindPropertyByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	// Second delete finds nothing to match.
	assert.ErrorIs(t, svc.DeleteProperty(context.Background(), created.ID), mongo.ErrNoDocuments)
}

func TestImportCSV_MixedRows(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	csvData := propertyCSVHeader +
		`Casa Verde,12 Sampaguita St,San Isidro,Quezon City,Metro Manila,1100,4500000,Available,House,Garden corner lot,50000,135000
Vista Tower 8F,88 Ayala Ave,Bel-Air,Makati,Metro Manila,1209,6200000,,Condo,City view,80000,186000
Bad Row,,,,,,not-a-price,Available,House,,0,0
Lunch Spot,1 Main St,Poblacion,Davao,Davao del Sur,8000,900000,Available,Restaurant,,0,0
`

	report, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, 4, report.Failed[0].Row)
	assert.Contains(t, report.Failed[0].Reason, "invalid price")
	assert.Equal(t, 5, report.Failed[1].Row)
	assert.Contains(t, report.Failed[1].Reason, "unknown type")

	// Empty status falls back to Available.
	results, err := svc.SearchProperties(context.Background(), PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, p := range results {
		assert.Equal(t, models.PropertyAvailable, p.Status)
	}
}

func TestImportCSV_RejectsBadHeader(t *testing.T) {
	db := utils.SetupTestDB(t, "crm_test_property", "properties")
	svc := NewPropertyService(db, &config.Config{})

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("name,price\nCasa,100\n"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "csv", vErr.Field)
}
