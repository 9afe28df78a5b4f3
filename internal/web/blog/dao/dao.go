// Package dao contains all the data access object used in the application.
package dao

import (
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/log"
)

// Blog dao type
type Blog struct {
	logger logSDK.Logger
	store  docstore.Store
}

// New create new dao
func New(logger logSDK.Logger, store docstore.Store) *Blog {
	if logger == nil {
		logger = log.Logger.Named("blog_dao")
	}

	return &Blog{
		logger: logger,
		store:  store,
	}
}

// PostsCol get posts collection
func (d *Blog) PostsCol() docstore.Collection {
	return d.store.Collection(model.PostsCollection)
}

// SubscribersCol get subscribers collection
func (d *Blog) SubscribersCol() docstore.Collection {
	return d.store.Collection(model.SubscribersCollection)
}
