package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileStatus string

const (
	FileActive  FileStatus = "active"
	FileDeleted FileStatus = "deleted"
)

// File is a leaf node. A nil ParentID on an active file means it lives at
// the root; on a deleted file it means the file has been detached from its
// (possibly already removed) folder and sits in the recycle bin.
type File struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	OwnerID   primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	Size      int64               `bson:"size" json:"size"`
	Status    FileStatus          `bson:"status" json:"status"`
	Locator   string              `bson:"locator" json:"-"` // opaque content-store key
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
