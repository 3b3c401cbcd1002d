package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/models"
)

func newPost(title string, category, author primitive.ObjectID) *models.Post {
	published := true
	return &models.Post{
		Title:       title,
		Content:     "content of " + title,
		Category:    category,
		Author:      author,
		IsPublished: &published,
	}
}

func TestPostStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	post := newPost("first", primitive.NewObjectID(), primitive.NewObjectID())
	require.NoError(t, store.Insert(ctx, post))
	assert.False(t, post.ID.IsZero())
	assert.False(t, post.CreatedAt.IsZero())

	found, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Title)
	assert.Equal(t, post.Author, found.Author)
	assert.Empty(t, found.Tags)
	assert.Empty(t, found.Comments)

	_, err = store.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostStoreListAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	news, other := primitive.NewObjectID(), primitive.NewObjectID()
	author := primitive.NewObjectID()
	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, newPost(title, news, author)))
	}
	require.NoError(t, store.Insert(ctx, newPost("d", other, author)))

	draft := newPost("draft", news, author)
	*draft.IsPublished = false
	require.NoError(t, store.Insert(ctx, draft))

	posts, err := store.List(ctx, PostFilter{PublishedOnly: true}, 0, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "d", posts[0].Title)
	assert.Equal(t, "c", posts[1].Title)

	posts, err = store.List(ctx, PostFilter{PublishedOnly: true}, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Title)
	assert.Equal(t, "a", posts[1].Title)

	count, err := store.Count(ctx, PostFilter{Category: &news, PublishedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	count, err = store.Count(ctx, PostFilter{Category: &news})
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestPostStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))
	category, author := primitive.NewObjectID(), primitive.NewObjectID()

	hello := newPost("Greetings", category, author)
	hello.Content = "Hello World"
	require.NoError(t, store.Insert(ctx, hello))

	unrelated := newPost("Weather", category, author)
	unrelated.Content = "It rains."
	require.NoError(t, store.Insert(ctx, unrelated))

	posts, err := store.Search(ctx, "hello", true)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, hello.ID, posts[0].ID)

	posts, err = store.Search(ctx, "w.r", true)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	post := newPost("before", primitive.NewObjectID(), primitive.NewObjectID())
	post.Tags = []string{"go"}
	require.NoError(t, store.Insert(ctx, post))

	title := "after"
	updated, err := store.Update(ctx, post.ID, PostFields{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, []string{"go"}, updated.Tags)

	_, err = store.Update(ctx, primitive.NewObjectID(), PostFields{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostStoreIncrementViews(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	post := newPost("viewed", primitive.NewObjectID(), primitive.NewObjectID())
	require.NoError(t, store.Insert(ctx, post))

	for i := 1; i <= 3; i++ {
		updated, err := store.IncrementViews(ctx, post.ID)
		require.NoError(t, err)
		assert.EqualValues(t, i, updated.ViewCount)
	}

	_, err := store.IncrementViews(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostStoreAppendComment(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	post := newPost("discussed", primitive.NewObjectID(), primitive.NewObjectID())
	require.NoError(t, store.Insert(ctx, post))

	user := primitive.NewObjectID()
	comment := &models.Comment{User: user, Content: "nice"}
	require.NoError(t, store.AppendComment(ctx, post.ID, comment))
	assert.False(t, comment.ID.IsZero())

	found, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, found.Comments, 1)
	assert.Equal(t, user, found.Comments[0].User)
	assert.Equal(t, "nice", found.Comments[0].Content)

	err = store.AppendComment(ctx, primitive.NewObjectID(), &models.Comment{User: user})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(openTestDB(t))

	post := newPost("doomed", primitive.NewObjectID(), primitive.NewObjectID())
	require.NoError(t, store.Insert(ctx, post))

	require.NoError(t, store.Delete(ctx, post.ID))
	_, err := store.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, post.ID), ErrNotFound)
}
