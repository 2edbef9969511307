package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tes/crm/internal/config"
	"tes/crm/internal/db"
	"tes/crm/internal/models"
)

// PropertyFilter narrows SearchProperties.
type PropertyFilter struct {
	City     *string
	Province *string
	Status   *models.PropertyStatus
	Type     *models.PropertyType
	MinPrice *float64
	MaxPrice *float64
	Limit    int
}

// ImportReport summarizes a CSV import: one row can fail without
// aborting the batch.
type ImportReport struct {
	BatchID  string           `json:"batch_id"`
	Imported int              `json:"imported"`
	Failed   []ImportRowError `json:"failed,omitempty"`
}

type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// IPropertyService defines the interface for property listing operations.
type IPropertyService interface {
	CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error)
	FindPropertyByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	UpdateProperty(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Property, error)
	DeleteProperty(ctx context.Context, id primitive.ObjectID) error
	SearchProperties(ctx context.Context, filter PropertyFilter) ([]models.Property, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error)
}

// propertyService implements IPropertyService.
type propertyService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database, cfg *config.Config) IPropertyService {
	return &propertyService{db: db, cfg: cfg}
}

// CreateProperty validates and inserts a new listing.
func (s *propertyService) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	if strings.TrimSpace(property.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if property.Price <= 0 {
		return nil, &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if property.Status == "" {
		property.Status = models.PropertyAvailable
	}

	now := time.Now().UTC()
	property.ID = primitive.NewObjectID()
	property.CreatedAt = now
	property.UpdatedAt = now
	property.Deleted = false
	if property.Photos == nil {
		property.Photos = []string{}
	}
	if property.Features == nil {
		property.Features = []string{}
	}

	insert := func() error {
		_, insertErr := s.db.Collection(propertiesCollection).InsertOne(ctx, property)
		return insertErr
	}
	if err := db.Try(insert); err != nil {
		return nil, fmt.Errorf("failed to insert property %q: %w", property.Name, err)
	}
	return property, nil
}

// FindPropertyByID finds a non-deleted property by its ID.
func (s *propertyService) FindPropertyByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var property models.Property
	err := s.db.Collection(propertiesCollection).
		FindOne(ctx, bson.M{"_id": id, "deleted": false}).
		Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property %s: %w", id.Hex(), err)
	}
	return &property, nil
}

// UpdateProperty updates mutable fields of a listing. `updates` contains
// BSON field names; fields outside the allowed set are rejected.
func (s *propertyService) UpdateProperty(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Property, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "address", "price", "status", "type", "description",
			"features", "reservation_fee", "commission", "final_commission":
			allowed[key] = value
		default:
			return nil, &ValidationError{Field: key, Reason: "cannot be updated via UpdateProperty"}
		}
	}
	if len(allowed) == 0 {
		return nil, &ValidationError{Field: "updates", Reason: "no valid fields provided"}
	}
	allowed["updated_at"] = time.Now().UTC()

	res, err := s.db.Collection(propertiesCollection).UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": allowed})
	if err != nil {
		return nil, fmt.Errorf("error updating property %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return s.FindPropertyByID(ctx, id)
}

// DeleteProperty soft-deletes a listing. Inquiries referencing it keep
// their denormalized property name.
func (s *propertyService) DeleteProperty(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(propertiesCollection).UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error deleting property %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SearchProperties returns non-deleted listings matching the filter,
// newest first.
func (s *propertyService) SearchProperties(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	query := bson.M{"deleted": false}
	if filter.City != nil {
		query["address.city"] = *filter.City
	}
	if filter.Province != nil {
		query["address.province"] = *filter.Province
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Type != nil {
		query["type"] = *filter.Type
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(propertiesCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error searching properties: %w", err)
	}
	defer cursor.Close(ctx)

	var properties []models.Property
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("error decoding properties: %w", err)
	}
	return properties, nil
}

// CountCreatedSince counts listings created after the given time.
func (s *propertyService) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := s.db.Collection(propertiesCollection).CountDocuments(ctx,
		bson.M{"deleted": false, "created_at": bson.M{"$gt": since}})
	if err != nil {
		return 0, fmt.Errorf("error counting new properties: %w", err)
	}
	return count, nil
}

// csvHeader is the required column order for property imports.
var csvHeader = []string{
	"name", "street", "barangay", "city", "province", "zip",
	"price", "status", "type", "description", "reservation_fee", "commission",
}

// ImportCSV reads properties from CSV and inserts the valid rows. Each
// row is validated independently; failures are reported per row with the
// 1-based row number.
func (s *propertyService) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Field: "csv", Reason: "missing header row"}
	}
	if len(header) < len(csvHeader) {
		return nil, &ValidationError{Field: "csv", Reason: fmt.Sprintf("expected %d columns, got %d", len(csvHeader), len(header))}
	}
	for i, name := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, &ValidationError{Field: "csv", Reason: fmt.Sprintf("column %d must be %q", i+1, name)}
		}
	}

	report := &ImportReport{BatchID: uuid.NewString()}
	rowNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			report.Failed = append(report.Failed, ImportRowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		property, err := parsePropertyRow(record)
		if err != nil {
			report.Failed = append(report.Failed, ImportRowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		if _, err := s.CreateProperty(ctx, property); err != nil {
			report.Failed = append(report.Failed, ImportRowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		report.Imported++
	}

	return report, nil
}

func parsePropertyRow(record []string) (*models.Property, error) {
	if len(record) < len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[6]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", record[6])
	}
	reservationFee, err := strconv.ParseFloat(strings.TrimSpace(record[10]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation_fee %q", record[10])
	}
	commission, err := strconv.ParseFloat(strings.TrimSpace(record[11]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid commission %q", record[11])
	}

	status := models.PropertyStatus(strings.TrimSpace(record[7]))
	if status == "" {
		status = models.PropertyAvailable
	}
	switch status {
	case models.PropertyAvailable, models.PropertyReserved, models.PropertyPending,
		models.PropertySold, models.PropertyWithdrawn:
	default:
		return nil, fmt.Errorf("unknown status %q", status)
	}

	ptype := models.PropertyType(strings.TrimSpace(record[8]))
	switch ptype {
	case models.PropertyHouse, models.PropertyCondo, models.PropertyTownhouse,
		models.PropertyLot, models.PropertyCommercial:
	default:
		return nil, fmt.Errorf("unknown type %q", ptype)
	}

	return &models.Property{
		Name: strings.TrimSpace(record[0]),
		Address: models.Address{
			Street:   strings.TrimSpace(record[1]),
			Barangay: strings.TrimSpace(record[2]),
			City:     strings.TrimSpace(record[3]),
			Province: strings.TrimSpace(record[4]),
			Zip:      strings.TrimSpace(record[5]),
		},
		Price:          price,
		Status:         status,
		Type:           ptype,
		Description:    strings.TrimSpace(record[9]),
		ReservationFee: reservationFee,
		Commission:     commission,
	}, nil
}
