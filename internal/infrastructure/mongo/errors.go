package mongo

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
)

// translate maps driver errors onto application error kinds.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.NotFound("%s not found", what)
	case mongo.IsDuplicateKeyError(err):
		return apperror.Conflict("%s already exists", what)
	default:
		return apperror.Infrastructure(err, "%s store", what)
	}
}

// parseObjectID treats a malformed identifier as a client error.
func parseObjectID(id, field string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("invalid %s", field)
	}
	return objectID, nil
}

func parseObjectIDs(ids []string, field string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := parseObjectID(id, field)
		if err != nil {
			return nil, err
		}
		out = append(out, objectID)
	}
	return out, nil
}
