package database

import (
	"context"
	"errors"
	"time"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quill/models"
)

type CategoryStore struct {
	coll lungo.ICollection
}

func NewCategoryStore(db lungo.IDatabase) *CategoryStore {
	return &CategoryStore{coll: db.Collection(CategoriesCollection)}
}

func (s *CategoryStore) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByName returns ErrNotFound when no category carries name.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	categories := []models.Category{}
	if len(ids) == 0 {
		return categories, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a category. A taken name yields ErrDuplicate; the unique
// index catches races the lookup misses.
func (s *CategoryStore) Create(ctx context.Context, name string) (*models.Category, error) {
	_, err := s.FindByName(ctx, name)
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	category := &models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	_, err = s.coll.InsertOne(ctx, category)
	if isDuplicate(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}
