package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Laisky/errors/v2"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/Laisky/envo-blog/internal/web/blog/dto"
	"github.com/Laisky/envo-blog/internal/web/graph"
	"github.com/Laisky/envo-blog/internal/web/respond"
)

// Schema is the public blog GraphQL schema, mirroring the JSON routes.
const Schema = `
type Author {
  name: String!
  avatar: String!
}

type Post {
  id: ID!
  title: String!
  excerpt: String!
  content: String!
  category: String!
  coverImage: String!
  readTime: Int!
  author: Author!
  createdAt: String!
}

type Heading {
  level: Int!
  id: String!
  text: String!
}

type HomeView {
  posts: [Post!]!
  latest: [Post!]!
}

type PostView {
  post: Post!
  html: String!
  paragraphs: [String!]!
  headings: [Heading!]!
  latest: [Post!]!
}

type CategoryView {
  category: String!
  posts: [Post!]!
  latest: [Post!]!
}

type SubscribeResult {
  message: String!
}

type Query {
  home: HomeView!
  post(id: ID!): PostView!
  category(name: String!): CategoryView!
  latestPosts(count: Int = 5): [Post!]!
  popularPosts(count: Int = 5): [Post!]!
  categories: [String!]!
}

type Mutation {
  subscribe(email: String!): SubscribeResult!
}
`

// NewGraphQL binds the blog schema to ctl.
func (ctl *Blog) NewGraphQL() (*graph.Schema, error) {
	return graph.NewSchema(Schema, graph.Resolvers{
		Query: map[string]graph.FieldResolver{
			"home":         ctl.resolveHome,
			"post":         ctl.resolvePost,
			"category":     ctl.resolveCategory,
			"latestPosts":  ctl.resolveLatest,
			"popularPosts": ctl.resolvePopular,
			"categories":   ctl.resolveCategories,
		},
		Mutation: map[string]graph.FieldResolver{
			"subscribe": ctl.resolveSubscribe,
		},
	})
}

// fieldError turns err into the message the JSON API would answer with.
func fieldError(err error, verb respond.Verb, what string) error {
	p := respond.Classify(err, verb, what)
	return &gqlerror.Error{
		Err:        err,
		Message:    p.Message,
		Extensions: map[string]any{"status": p.Status},
	}
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return defaultListCount, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, errors.Wrapf(err, "%s must be an integer", name)
	default:
		return 0, errors.Errorf("%s must be an integer", name)
	}
}

func (ctl *Blog) resolveHome(ctx context.Context, _ map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	view, err := ctl.views.Home(ctx)
	if err != nil {
		return nil, fieldError(err, respond.Load, "posts")
	}
	return view, nil
}

func (ctl *Blog) resolvePost(ctx context.Context, args map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	view, err := ctl.views.Post(ctx, stringArg(args, "id"))
	if err != nil {
		return nil, fieldError(err, respond.Load, "post")
	}
	return view, nil
}

func (ctl *Blog) resolveCategory(ctx context.Context, args map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	view, err := ctl.views.Category(ctx, stringArg(args, "name"))
	if err != nil {
		return nil, fieldError(err, respond.Load, "posts")
	}
	return view, nil
}

func (ctl *Blog) resolveLatest(ctx context.Context, args map[string]any) (any, error) {
	count, err := intArg(args, "count")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	posts, err := ctl.posts.ListLatest(ctx, count)
	if err != nil {
		return nil, fieldError(err, respond.Load, "latest posts")
	}
	return posts, nil
}

func (ctl *Blog) resolvePopular(ctx context.Context, args map[string]any) (any, error) {
	count, err := intArg(args, "count")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	posts, err := ctl.posts.ListPopular(ctx, count)
	if err != nil {
		return nil, fieldError(err, respond.Load, "popular posts")
	}
	return posts, nil
}

func (ctl *Blog) resolveCategories(context.Context, map[string]any) (any, error) {
	return ctl.views.Categories(), nil
}

func (ctl *Blog) resolveSubscribe(ctx context.Context, args map[string]any) (any, error) {
	if ctl.subscribe != nil && !ctl.subscribe.Allow(graph.ClientIP(ctx)) {
		return nil, &gqlerror.Error{
			Message:    "too many requests, please try again later",
			Extensions: map[string]any{"status": http.StatusTooManyRequests},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if _, err := ctl.subs.Add(ctx, stringArg(args, "email")); err != nil {
		return nil, fieldError(err, respond.Save, "subscription")
	}
	return dto.SubscribeResponse{Message: subscribedMessage}, nil
}
