package database

import (
	"context"
	"errors"
	"time"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quill/models"
)

type UserStore struct {
	coll lungo.ICollection
}

func NewUserStore(db lungo.IDatabase) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Insert writes a new user. A taken email yields ErrDuplicate.
func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	_, err := s.FindByEmail(ctx, user.Email)
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()

	_, err = s.coll.InsertOne(ctx, user)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
