// Package authsvc reads platform users for the notification engine and issues dev tokens
package authsvc

import (
	"context"
	"errors"
	"fmt"

	models "tamil_society/internal/api/auth/models"
	basesvc "tamil_society/internal/api/base/service"
	"tamil_society/internal/common"
	"tamil_society/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notBlocked excludes blocked accounts from every directory listing
var notBlocked = bson.M{"isBlock": bson.M{"$ne": true}}

// UserService is the Mongo-backed user directory
type UserService struct {
	*basesvc.BaseServiceMongoImpl[models.User]
}

// NewUserService uses the registered users collection
func NewUserService() (*UserService, error) {
	userCollection, err := global.RegistryCollections.MustGet(global.MongoDB_ColNames.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to get users collection: %w", err)
	}
	return NewUserServiceWithCollection(userCollection), nil
}

// NewUserServiceWithCollection wraps an explicit collection
func NewUserServiceWithCollection(collection *mongo.Collection) *UserService {
	return &UserService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.User](collection),
	}
}

func byCreation() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

// ListAll returns every active user
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.Find(ctx, notBlocked, byCreation())
}

// ListByRole returns the active users holding role
func (s *UserService) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return s.Find(ctx, bson.M{"role": role, "isBlock": bson.M{"$ne": true}}, byCreation())
}

// membersFilter matches active users without the admin role. $ne also matches a missing role.
func membersFilter() bson.M {
	return bson.M{"role": bson.M{"$ne": models.RoleAdmin}, "isBlock": bson.M{"$ne": true}}
}

// ListMembers returns the active users without the admin role, including users whose role is unset
func (s *UserService) ListMembers(ctx context.Context) ([]models.User, error) {
	return s.Find(ctx, membersFilter(), byCreation())
}

// ListByIds returns the active users among ids. Unknown ids are ignored.
func (s *UserService) ListByIds(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "isBlock": bson.M{"$ne": true}}, nil)
}

// FindById returns one user, blocked or not; common.ErrUserNotFound when missing
func (s *UserService) FindById(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.FindOneById(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
