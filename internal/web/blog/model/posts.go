// Package model contains all the models used in the application.
package model

import (
	"time"

	"github.com/Laisky/errors/v2"
)

const (
	// PostsCollection is the collection holding Post documents.
	PostsCollection = "blog_posts"
	// SubscribersCollection is the collection holding Subscriber documents.
	SubscribersCollection = "subscriptions"

	// TimeLayout is the stored timestamp format, ISO-8601 UTC with milliseconds.
	// Its fixed width makes lexical order match chronological order.
	TimeLayout = "2006-01-02T15:04:05.000Z"
	// DateLayout formats the day part of a timestamp.
	DateLayout = "2006-01-02"

	// DefaultReadTime is the read time of a new draft, in minutes.
	DefaultReadTime = 5
)

// Author is embedded in every post.
type Author struct {
	// Name display name of the author
	Name string `json:"name" bson:"name" firestore:"name"`
	// Avatar URI of the author's picture
	Avatar string `json:"avatar" bson:"avatar" firestore:"avatar"`
}

// Draft is a post without its id. It is also the stored document body.
type Draft struct {
	// Title title of the post, never empty once validated
	Title string `json:"title" bson:"title" firestore:"title"`
	// Excerpt short summary shown in lists
	Excerpt string `json:"excerpt" bson:"excerpt" firestore:"excerpt"`
	// Content long text, paragraphs separated by line breaks
	Content string `json:"content" bson:"content" firestore:"content"`
	// Category one of Categories
	Category string `json:"category" bson:"category" firestore:"category"`
	// CoverImage URI of the cover picture
	CoverImage string `json:"coverImage" bson:"coverImage" firestore:"coverImage"`
	// ReadTime estimated reading minutes
	ReadTime int `json:"readTime" bson:"readTime" firestore:"readTime"`
	Author   Author `json:"author" bson:"author" firestore:"author"`
	// CreatedAt creation time in TimeLayout, preserved across edits
	CreatedAt string `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

// NewDraft returns the empty draft a new post starts from.
func NewDraft() Draft {
	return Draft{ReadTime: DefaultReadTime}
}

// Post blog post
type Post struct {
	// ID store-assigned identifier, immutable
	ID string `json:"id"`
	Draft
}

// Subscription is the stored body of a subscriber.
type Subscription struct {
	Email string `json:"email" bson:"email" firestore:"email"`
	// SubscribedAt signup time in TimeLayout
	SubscribedAt string `json:"subscribedAt" bson:"subscribedAt" firestore:"subscribedAt"`
}

// Subscriber newsletter signup
type Subscriber struct {
	ID string `json:"id"`
	Subscription
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp.
// It also accepts RFC3339 text written by other clients.
func ParseTime(v string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, v)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", v)
	}

	return t.UTC(), nil
}
