package accounts

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("account not found")

// Account is the identity-level user document. It is owned by account
// management; this service reads it and subscribes to changes, but only
// clinical workflows write to the patient record derived from it.
type Account struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty"`
	UserId    *string             `bson:"userId,omitempty"`
	FullName  *string             `bson:"fullName,omitempty"`
	Email     *string             `bson:"email,omitempty"`
	BirthDate *string             `bson:"birthDate,omitempty"`
	Phone     *string             `bson:"phone,omitempty"`
	Role      *string             `bson:"role,omitempty"`
}

type Repository interface {
	Get(ctx context.Context, userId string) (*Account, error)
	Update(ctx context.Context, userId string, account Account) (*Account, error)
	Watch(ctx context.Context, userId string) (<-chan bson.M, func(), error)
}
