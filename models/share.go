package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SharePermission string

const (
	ShareView SharePermission = "view"
	ShareEdit SharePermission = "edit"
)

// Share grants access to exactly one node. Public shares are redeemed by
// token alone and never grant more than view; private shares carry an
// explicit grantee list in share_access.
type Share struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Target     Target             `bson:"target" json:"target"`
	Token      string             `bson:"token" json:"token"`
	Permission SharePermission    `bson:"permission" json:"permission"`
	IsPublic   bool               `bson:"is_public" json:"is_public"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// ShareAccess joins a private share to one grantee. The (share, user) pair
// is unique.
type ShareAccess struct {
	ShareID primitive.ObjectID `bson:"share_id" json:"share_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
}
