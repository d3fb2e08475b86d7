package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry is an immutable record of one mutation. OwnerID is always the
// owner of the touched resource, even when ActorID is a collaborator acting
// under a share grant, so an owner's activity feed shows everything that
// happened to their resources.
type AuditEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID      primitive.ObjectID `bson:"actor_id" json:"actor_id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Action       string             `bson:"action" json:"action"`
	ResourceType ResourceType       `bson:"resource_type" json:"resource_type"`
	ResourceID   primitive.ObjectID `bson:"resource_id" json:"resource_id"`
	Details      string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
