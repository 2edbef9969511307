package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityEntry records an admin/agent action for the audit trail shown
// on the dashboard.
type ActivityEntry struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	ActorID    *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // Nil for anonymous customer actions
	ActorName  string              `bson:"actor_name" json:"actor_name"`
	Action     string              `bson:"action" json:"action"` // e.g. "inquiry.status_update"
	EntityType string              `bson:"entity_type" json:"entity_type"`
	EntityID   primitive.ObjectID  `bson:"entity_id" json:"entity_id"`
	Detail     string              `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
