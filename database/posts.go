package database

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quill/models"
)

// PostFilter narrows list and count queries.
type PostFilter struct {
	// Category restricts results to one category when set.
	Category *primitive.ObjectID

	// PublishedOnly hides posts whose isPublished flag is false. Legacy
	// documents without the flag still match.
	PublishedOnly bool
}

func (f PostFilter) query() bson.M {
	q := bson.M{}
	if f.Category != nil {
		q["category"] = *f.Category
	}
	if f.PublishedOnly {
		q["isPublished"] = bson.M{"$ne": false}
	}
	return q
}

// PostFields is the set of fields an update writes. Nil pointers and a nil
// Tags slice are left untouched.
type PostFields struct {
	Title         *string
	Content       *string
	Excerpt       *string
	Category      *primitive.ObjectID
	Tags          []string
	FeaturedImage *string
	IsPublished   *bool
}

func (f PostFields) set(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if f.Title != nil {
		set["title"] = *f.Title
	}
	if f.Content != nil {
		set["content"] = *f.Content
	}
	if f.Excerpt != nil {
		set["excerpt"] = *f.Excerpt
	}
	if f.Category != nil {
		set["category"] = *f.Category
	}
	if f.Tags != nil {
		set["tags"] = f.Tags
	}
	if f.FeaturedImage != nil {
		set["featuredImage"] = *f.FeaturedImage
	}
	if f.IsPublished != nil {
		set["isPublished"] = *f.IsPublished
	}
	return set
}

// newestFirst orders by creation time with the id as a tiebreak, so pages
// stay stable when several posts share a timestamp.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type PostStore struct {
	coll lungo.ICollection
	now  func() time.Time
}

func NewPostStore(db lungo.IDatabase) *PostStore {
	return &PostStore{
		coll: db.Collection(PostsCollection),
		now:  time.Now,
	}
}

// Insert assigns id and timestamps and writes the post.
func (s *PostStore) Insert(ctx context.Context, post *models.Post) error {
	now := s.now()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	_, err := s.coll.InsertOne(ctx, post)
	return err
}

func (s *PostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns one page of posts, newest first.
func (s *PostStore) List(ctx context.Context, filter PostFilter, skip, limit int64) ([]models.Post, error) {
	opts := options.Find().SetSort(newestFirst).SetSkip(skip).SetLimit(limit)
	return s.find(ctx, filter.query(), opts)
}

func (s *PostStore) Count(ctx context.Context, filter PostFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, filter.query())
}

// Search matches term as a case-insensitive literal substring of the
// title, content, excerpt or any tag.
func (s *PostStore) Search(ctx context.Context, term string, publishedOnly bool) ([]models.Post, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}

	query := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"content": pattern},
		bson.M{"excerpt": pattern},
		bson.M{"tags": pattern},
	}}
	if publishedOnly {
		query["isPublished"] = bson.M{"$ne": false}
	}

	return s.find(ctx, query, options.Find().SetSort(newestFirst))
}

// Update applies fields and returns the post as stored afterwards.
func (s *PostStore) Update(ctx context.Context, id primitive.ObjectID, fields PostFields) (*models.Post, error) {
	update := bson.M{"$set": fields.set(s.now())}
	return s.findAndUpdate(ctx, id, update)
}

// IncrementViews bumps viewCount by one and returns the updated post.
func (s *PostStore) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.findAndUpdate(ctx, id, bson.M{"$inc": bson.M{"viewCount": 1}})
}

// AppendComment pushes comment onto the post's comment list. The comment
// gets an id and creation time if it has none.
func (s *PostStore) AppendComment(ctx context.Context, postID primitive.ObjectID, comment *models.Comment) error {
	now := s.now()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the post together with its embedded comments.
func (s *PostStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostStore) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}
