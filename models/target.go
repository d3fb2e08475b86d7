package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type ResourceType string

const (
	ResourceFile   ResourceType = "file"
	ResourceFolder ResourceType = "folder"
)

// Operation is what an actor wants to do with a node.
type Operation string

const (
	OperationView Operation = "view"
	OperationEdit Operation = "edit"
)

// Target identifies exactly one file or one folder. It replaces the
// "file_id or folder_id, at most one set" parameter pair everywhere a
// node is addressed.
type Target struct {
	Type ResourceType       `bson:"resource_type" json:"resource_type"`
	ID   primitive.ObjectID `bson:"resource_id" json:"resource_id"`
}

func FileTarget(id primitive.ObjectID) Target {
	return Target{Type: ResourceFile, ID: id}
}

func FolderTarget(id primitive.ObjectID) Target {
	return Target{Type: ResourceFolder, ID: id}
}
