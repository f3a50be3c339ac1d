// Package mongo provides the durable document user store. A unique index on
// the email field makes Insert atomic with respect to email uniqueness.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secureapp/internal/domain"
	"secureapp/internal/repository"
)

// DefaultCollectionName is the collection users are stored in.
const DefaultCollectionName = "users"

// userDoc is the persisted shape of a User. Emails are stored lowercased;
// reset fields are present only while a reset is pending.
type userDoc struct {
	ID                  string     `bson:"_id"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"password_hash"`
	FirstName           string     `bson:"first_name,omitempty"`
	LastName            string     `bson:"last_name,omitempty"`
	EmailVerified       bool       `bson:"email_verified"`
	ResetToken          string     `bson:"reset_token,omitempty"`
	ResetTokenExpiresAt *time.Time `bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(DefaultCollectionName)}
}

// Init creates the unique email index. Idempotent.
func (r *UserRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	doc := toDoc(user)
	doc.Email = normalize(doc.Email)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": normalize(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(&doc), nil
}

// UpdateFields issues a single $set with the non-nil fields plus updated_at
// and returns the post-update document.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.FirstName != nil {
		set["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		set["last_name"] = *update.LastName
	}
	if update.EmailVerified != nil {
		set["email_verified"] = *update.EmailVerified
	}
	if update.ResetToken != nil {
		set["reset_token"] = *update.ResetToken
	}
	if update.ResetTokenExpiresAt != nil {
		set["reset_token_expires_at"] = *update.ResetTokenExpiresAt
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return fromDoc(&doc), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toDoc(user *domain.User) *userDoc {
	return &userDoc{
		ID:                  user.ID,
		Email:               user.Email,
		PasswordHash:        user.PasswordHash,
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		EmailVerified:       user.EmailVerified,
		ResetToken:          user.ResetToken,
		ResetTokenExpiresAt: user.ResetTokenExpiresAt,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func fromDoc(doc *userDoc) *domain.User {
	return &domain.User{
		ID:                  doc.ID,
		Email:               doc.Email,
		PasswordHash:        doc.PasswordHash,
		FirstName:           doc.FirstName,
		LastName:            doc.LastName,
		EmailVerified:       doc.EmailVerified,
		ResetToken:          doc.ResetToken,
		ResetTokenExpiresAt: doc.ResetTokenExpiresAt,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
}
