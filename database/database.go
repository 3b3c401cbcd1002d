package database

import (
	"context"
	"errors"
	"time"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PostsCollection      = "posts"
	CategoriesCollection = "categories"
	UsersCollection      = "users"
)

var (
	// ErrNotFound is returned when a lookup by id matches no document.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned when an insert violates a unique field.
	ErrDuplicate = errors.New("duplicate document")
)

// Connect opens a MongoDB client for uri and pings it. The client is
// returned through the lungo interfaces so stores run unchanged against
// the in-memory engine in tests.
func Connect(ctx context.Context, uri string) (lungo.IClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := lungo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// Disconnect closes the client, giving in-flight operations ten seconds.
func Disconnect(client lungo.IClient) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db lungo.IDatabase) error {
	_, err := db.Collection(CategoriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(PostsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

func isDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
