package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
)

// ListPosts loads the posts matching q.
// A document that cannot be decoded is skipped and logged rather than failing the whole list.
func (d *Blog) ListPosts(ctx context.Context, q docstore.Query) ([]*model.Post, error) {
	docs, err := d.PostsCol().List(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}

	posts := make([]*model.Post, 0, len(docs))
	for _, doc := range docs {
		post := &model.Post{ID: doc.ID()}
		if err = doc.DataTo(&post.Draft); err != nil {
			d.logger.Warn("skip malformed post", zap.String("id", doc.ID()), zap.Error(err))
			continue
		}

		posts = append(posts, post)
	}

	return posts, nil
}

// GetPost loads one post, returning model.ErrPostNotFound for an unknown id.
func (d *Blog) GetPost(ctx context.Context, id string) (*model.Post, error) {
	doc, err := d.PostsCol().Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, errors.WithStack(model.ErrPostNotFound)
		}
		return nil, errors.Wrapf(err, "get post %q", id)
	}

	post := &model.Post{ID: doc.ID()}
	if err = doc.DataTo(&post.Draft); err != nil {
		return nil, errors.Wrapf(err, "decode post %q", id)
	}

	return post, nil
}

// InsertPost stores draft as a new post and returns its id.
func (d *Blog) InsertPost(ctx context.Context, draft *model.Draft) (string, error) {
	id, err := d.PostsCol().Insert(ctx, draft)
	if err != nil {
		return "", errors.Wrap(err, "insert post")
	}

	return id, nil
}

// ReplacePost overwrites the whole post body.
func (d *Blog) ReplacePost(ctx context.Context, id string, draft *model.Draft) error {
	if err := d.PostsCol().Replace(ctx, id, draft); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return errors.WithStack(model.ErrPostNotFound)
		}
		return errors.Wrapf(err, "replace post %q", id)
	}

	return nil
}

// RemovePost deletes the post. Missing ids are ignored by the store.
func (d *Blog) RemovePost(ctx context.Context, id string) error {
	return errors.Wrapf(d.PostsCol().Remove(ctx, id), "remove post %q", id)
}
