// Package dto holds request and response shapes of the blog API.
package dto

import "github.com/Laisky/envo-blog/internal/web/blog/model"

// HomeView is the landing page: every post plus the latest sidebar.
type HomeView struct {
	Posts  []*model.Post `json:"posts"`
	Latest []*model.Post `json:"latest"`
}

// Heading is one h2/h3 title of a rendered post, used as a table of contents.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// PostView is a single post page.
type PostView struct {
	Post *model.Post `json:"post"`
	// HTML is Content rendered as markdown.
	HTML string `json:"html"`
	// Paragraphs is Content split on line breaks, blank lines dropped.
	Paragraphs []string      `json:"paragraphs"`
	Headings   []Heading     `json:"headings"`
	Latest     []*model.Post `json:"latest"`
}

// CategoryView is the post list of one category.
type CategoryView struct {
	Category string        `json:"category"`
	Posts    []*model.Post `json:"posts"`
	Latest   []*model.Post `json:"latest"`
}

// SubscribeRequest is the body of a newsletter signup.
type SubscribeRequest struct {
	Email string `json:"email" form:"email"`
}

// SubscribeResponse is the message shown after a signup.
type SubscribeResponse struct {
	Message string `json:"message"`
}
