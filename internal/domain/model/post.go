package model

import "unicode/utf8"

// PostType selects the editorial category of a post.
type PostType int

const (
	PostTypeEntertainment PostType = 1
	PostTypePolitics      PostType = 2
	PostTypeFootball      PostType = 3
)

// PostBodyMaxLen is the number of runes kept before a body is truncated.
const PostBodyMaxLen = 97

// postEllipsis is appended to truncated bodies.
const postEllipsis = "..."

var postCategories = map[PostType]string{
	PostTypeEntertainment: "Farándula",
	PostTypePolitics:      "Política",
	PostTypeFootball:      "Futbol",
}

// Post is a piece of content owned by a customer.
type Post struct {
	ID         int64
	Title      string
	Body       string
	Type       PostType
	Category   string
	CustomerID int64
}

// Normalize applies the publishing rules: long bodies are cut to
// PostBodyMaxLen runes followed by "...", and known types force their
// category. Unknown types keep the caller-supplied category.
func (p Post) Normalize() Post {
	if utf8.RuneCountInString(p.Body) > PostBodyMaxLen {
		runes := []rune(p.Body)
		p.Body = string(runes[:PostBodyMaxLen]) + postEllipsis
	}
	if category, ok := postCategories[p.Type]; ok {
		p.Category = category
	}
	return p
}

// DiffFields implements Diffable.
func (p Post) DiffFields(incoming Post) []string {
	var fields []string
	if p.ID != incoming.ID {
		fields = append(fields, "id")
	}
	if p.Title != incoming.Title {
		fields = append(fields, "title")
	}
	if p.Body != incoming.Body {
		fields = append(fields, "body")
	}
	if p.Type != incoming.Type {
		fields = append(fields, "type")
	}
	if p.Category != incoming.Category {
		fields = append(fields, "category")
	}
	if p.CustomerID != incoming.CustomerID {
		fields = append(fields, "customer_id")
	}
	return fields
}

// BatchResult reports the outcome of one item in a bulk create.
type BatchResult struct {
	Index int
	Post  *Post
	Err   error
}
