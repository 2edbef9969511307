package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tes/crm/internal/models"
)

// IActivityService records and lists the audit trail shown on the admin
// dashboard.
type IActivityService interface {
	Record(ctx context.Context, entry models.ActivityEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

const activityCollection = "activity_log"

// activityService implements IActivityService.
type activityService struct {
	db *mongo.Database
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *mongo.Database) IActivityService {
	return &activityService{db: db}
}

// Record appends an entry to the activity log. Failures are returned but
// callers typically just log them; the audit trail is best-effort and
// must never block the underlying operation.
func (s *activityService) Record(ctx context.Context, entry models.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(activityCollection).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("error recording activity: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (s *activityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(activityCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing activity: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.ActivityEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding activity entries: %w", err)
	}
	return entries, nil
}
