package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainuser "tradehub/internal/domain/user"
)

// UserDirectory reads accounts from the "users" collection.
type UserDirectory struct {
	users *mongo.Collection
}

func NewUserDirectory(db *mongo.Database) *UserDirectory {
	return &UserDirectory{users: db.Collection("users")}
}

func (d *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return d.findOne(ctx, bson.M{"_id": string(id)})
}

func (d *UserDirectory) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return d.findOne(ctx, bson.M{"email": domainuser.NormalizeEmail(email)})
}

func (d *UserDirectory) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := d.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return doc.toUser(), nil
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d userDocument) toUser() *domainuser.User {
	return &domainuser.User{
		ID:        domainuser.ID(d.ID),
		Email:     d.Email,
		Name:      d.Name,
		Role:      domainuser.Role(d.Role),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

var _ domainuser.Directory = (*UserDirectory)(nil)
