package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExcerptLength is the number of content characters shown when a post has
// no excerpt of its own.
const ExcerptLength = 150

type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content" json:"content"`
	Excerpt       string             `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Category      primitive.ObjectID `bson:"category" json:"category"`
	Author        primitive.ObjectID `bson:"author" json:"author"`
	Tags          []string           `bson:"tags" json:"tags"`
	FeaturedImage string             `bson:"featuredImage,omitempty" json:"featuredImage,omitempty"`
	ViewCount     int64              `bson:"viewCount" json:"viewCount"`
	Comments      []Comment          `bson:"comments" json:"comments"`
	IsPublished   *bool              `bson:"isPublished,omitempty" json:"isPublished,omitempty"` // nil on legacy documents
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Published reports whether the post is visible to everyone. Documents
// written before the flag existed count as published.
func (p *Post) Published() bool {
	return p.IsPublished == nil || *p.IsPublished
}

// Summary returns the excerpt, or the leading ExcerptLength characters of
// the content when no excerpt was given.
func (p *Post) Summary() string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	runes := []rune(p.Content)
	if len(runes) <= ExcerptLength {
		return p.Content
	}
	return string(runes[:ExcerptLength])
}
