// Package service is the blog's business layer: post and subscriber
// repositories and the public page views built on them.
package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/log"
)

// PostService is the typed post repository.
type PostService struct {
	dao    *dao.Blog
	logger logSDK.Logger
}

// NewPostService creates a post repository over d.
func NewPostService(logger logSDK.Logger, d *dao.Blog) *PostService {
	if logger == nil {
		logger = log.Logger.Named("post_service")
	}

	return &PostService{dao: d, logger: logger}
}

// ListAll returns every post in the store's default order.
func (s *PostService) ListAll(ctx context.Context) ([]*model.Post, error) {
	return s.dao.ListPosts(ctx, docstore.Query{})
}

// ListByCategory returns the posts whose category equals category byte for byte.
// No match yields an empty slice.
func (s *PostService) ListByCategory(ctx context.Context, category string) ([]*model.Post, error) {
	return s.dao.ListPosts(ctx, docstore.Query{}.Where("category", category))
}

// ListLatest returns at most count posts, newest createdAt first.
func (s *PostService) ListLatest(ctx context.Context, count int) ([]*model.Post, error) {
	count, err := sanitizeCount(count)
	if err != nil {
		return nil, err
	}

	return s.dao.ListPosts(ctx, docstore.Query{}.OrderByDesc("createdAt").WithLimit(count))
}

// ListPopular returns the popular posts.
// There is no ranking signal, so it is the latest list.
func (s *PostService) ListPopular(ctx context.Context, count int) ([]*model.Post, error) {
	return s.ListLatest(ctx, count)
}

// GetByID returns one post or model.ErrPostNotFound.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if id == "" {
		return nil, errors.WithStack(model.ErrPostNotFound)
	}

	return s.dao.GetPost(ctx, id)
}

// Create stores draft and returns the assigned id.
// The caller sets draft.CreatedAt beforehand.
func (s *PostService) Create(ctx context.Context, draft model.Draft) (string, error) {
	if draft.CreatedAt == "" {
		return "", model.NewValidationError("createdAt", "createdAt is required")
	}

	id, err := s.dao.InsertPost(ctx, &draft)
	if err != nil {
		return "", err
	}

	s.logger.Info("create post", zap.String("id", id), zap.String("title", draft.Title))
	return id, nil
}

// Update replaces the whole post. Omitted fields, createdAt included, are not carried over.
func (s *PostService) Update(ctx context.Context, id string, draft model.Draft) error {
	if id == "" {
		return errors.WithStack(model.ErrPostNotFound)
	}
	if err := s.dao.ReplacePost(ctx, id, &draft); err != nil {
		return err
	}

	s.logger.Info("update post", zap.String("id", id))
	return nil
}

// DeleteByID removes the post. Deleting a missing id succeeds.
func (s *PostService) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return errors.WithStack(model.ErrPostNotFound)
	}
	if err := s.dao.RemovePost(ctx, id); err != nil {
		return err
	}

	s.logger.Info("delete post", zap.String("id", id))
	return nil
}
