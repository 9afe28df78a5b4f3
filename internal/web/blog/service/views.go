package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/envo-blog/internal/web/blog/dto"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
)

const (
	// HomeLatestCount is the size of the latest sidebar on the home page.
	HomeLatestCount = 5
	// PostLatestCount is the size of the latest sidebar on a post page.
	PostLatestCount = 3
	// CategoryLatestCount is the size of the latest sidebar on a category page.
	CategoryLatestCount = 5
)

// ViewService composes the public pages from the post repository.
type ViewService struct {
	posts *PostService
}

// NewViewService creates the public page views.
func NewViewService(posts *PostService) *ViewService {
	return &ViewService{posts: posts}
}

// Home loads every post and the latest sidebar concurrently.
func (s *ViewService) Home(ctx context.Context) (*dto.HomeView, error) {
	view := new(dto.HomeView)
	var pool errgroup.Group
	pool.Go(func() (err error) {
		view.Posts, err = s.posts.ListAll(ctx)
		return errors.Wrap(err, "load posts")
	})
	pool.Go(func() (err error) {
		view.Latest, err = s.posts.ListLatest(ctx, HomeLatestCount)
		return errors.Wrap(err, "load latest posts")
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return view, nil
}

// Post loads one post and the latest sidebar concurrently,
// and renders the post content.
func (s *ViewService) Post(ctx context.Context, id string) (*dto.PostView, error) {
	view := new(dto.PostView)
	var pool errgroup.Group
	pool.Go(func() (err error) {
		view.Post, err = s.posts.GetByID(ctx, id)
		return err
	})
	pool.Go(func() (err error) {
		view.Latest, err = s.posts.ListLatest(ctx, PostLatestCount)
		return errors.Wrap(err, "load latest posts")
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	view.HTML, view.Headings = ParseMarkdown2HTML(view.Post.Content)
	view.Paragraphs = SplitParagraphs(view.Post.Content)
	return view, nil
}

// Category loads the posts of category and the latest sidebar concurrently.
// An unknown category is not an error, it simply has no posts.
func (s *ViewService) Category(ctx context.Context, category string) (*dto.CategoryView, error) {
	view := &dto.CategoryView{Category: category}
	var pool errgroup.Group
	pool.Go(func() (err error) {
		view.Posts, err = s.posts.ListByCategory(ctx, category)
		return errors.Wrapf(err, "load category %q", category)
	})
	pool.Go(func() (err error) {
		view.Latest, err = s.posts.ListLatest(ctx, CategoryLatestCount)
		return errors.Wrap(err, "load latest posts")
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return view, nil
}

// Categories lists the category labels.
func (s *ViewService) Categories() []string {
	return append([]string(nil), model.Categories...)
}
