package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
)

// UserRepository implements the account UserRepository port using MongoDB.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collectionName string) *UserRepository {
	return &UserRepository{collection: db.Collection(collectionName)}
}

// Create inserts user and assigns its ID. The unique email index turns a
// taken address into a conflict.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return apperror.Validation("user payload is nil")
	}
	doc := UserDocument{
		ID:        primitive.NewObjectID(),
		Email:     strings.ToLower(strings.TrimSpace(user.Email)),
		Password:  user.PasswordHash,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user already exists with this email")
		}
		return translate(err, "user")
	}
	user.ID = doc.ID.Hex()
	user.Email = doc.Email
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		// 不正な ID のトークンは存在しないユーザーとして扱う。
		return nil, apperror.NotFound("user not found")
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc UserDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "user")
	}
	return &domain.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
