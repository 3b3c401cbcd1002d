package client

import (
	"strings"

	"quill/posts"
)

const dateLayout = "January 2, 2006"

// Card is a post as a list or detail page shows it.
type Card struct {
	ID       string
	Title    string
	Summary  string
	Author   string
	Category string
	Date     string
	ImageURL string
	Tags     []string
	Views    int64
	Comments int
}

// NewCard formats post for display. Posts without an excerpt show the
// start of their content. Image names are resolved against imageBase
// unless they are already absolute URLs.
func NewCard(post posts.PostView, imageBase string) Card {
	card := Card{
		ID:       post.ID.Hex(),
		Title:    post.Title,
		Summary:  post.Model().Summary() + "...",
		Date:     post.CreatedAt.Format(dateLayout),
		ImageURL: ImageURL(imageBase, post.FeaturedImage),
		Tags:     post.Tags,
		Views:    post.ViewCount,
		Comments: len(post.Comments),
	}
	if post.Author != nil {
		card.Author = post.Author.Name
	}
	if post.Category != nil {
		card.Category = post.Category.Name
	}
	return card
}

func ImageURL(base, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return strings.TrimRight(base, "/") + "/uploads/" + name
}

// Pager tracks the position within a paginated listing.
type Pager struct {
	Current int64
	Total   int64
}

func NewPager(page *posts.Page) Pager {
	return Pager{Current: page.CurrentPage, Total: page.TotalPages}
}

func (p Pager) HasPrev() bool { return p.Current > 1 }

func (p Pager) HasNext() bool { return p.Current < p.Total }

func (p Pager) Prev() int64 {
	if !p.HasPrev() {
		return p.Current
	}
	return p.Current - 1
}

func (p Pager) Next() int64 {
	if !p.HasNext() {
		return p.Current
	}
	return p.Current + 1
}

// Pages lists every page number, for numbered pagination links.
func (p Pager) Pages() []int64 {
	if p.Total < 1 {
		return nil
	}
	pages := make([]int64, 0, p.Total)
	for i := int64(1); i <= p.Total; i++ {
		pages = append(pages, i)
	}
	return pages
}
