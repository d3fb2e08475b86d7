package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/utils"
)

// actorID pulls the authenticated user out of the request context, writing
// the 401 itself when the middleware did not run.
func actorID(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.ActorID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
	}
	return id, ok
}

// pathID parses an ObjectID path parameter, writing the 400 on failure.
func pathID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param+" format", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID converts a request-body id string to a pointer; empty or
// missing means nil (the root).
func optionalID(raw *string) (*primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
