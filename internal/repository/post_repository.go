package repository

import (
	"context"
	"net/http"

	"cyberguard/internal/model"
)

const postsRoot = "/posts"

// PostRepository wraps the forum endpoints.
type PostRepository interface {
	List(ctx context.Context) ([]model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error)
	ToggleLike(ctx context.Context, id string) (*model.LikeResult, error)
	AddComment(ctx context.Context, id string, in model.CommentInput) (*model.Comment, error)
	AddReply(ctx context.Context, id, commentID string, in model.CommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, id, commentID string) error
	React(ctx context.Context, id string, in model.ReactInput) error
	Flag(ctx context.Context, id string, in model.FlagInput) error
	Delete(ctx context.Context, id string) error
	Flagged(ctx context.Context) ([]model.Post, error)
}

type postRepository struct {
	api API
}

// NewPostRepository builds an HTTP-backed PostRepository.
func NewPostRepository(api API) PostRepository {
	return &postRepository{api: api}
}

// List is public; the forum is readable without a session.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := r.api.PublicJSON(ctx, http.MethodGet, postsRoot, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.api.PublicJSON(ctx, http.MethodGet, path(postsRoot, id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	var post model.Post
	if err := r.api.JSON(ctx, http.MethodPost, postsRoot, in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ToggleLike(ctx context.Context, id string) (*model.LikeResult, error) {
	var res model.LikeResult
	if err := r.api.JSON(ctx, http.MethodPost, path(postsRoot, id, "like"), struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postRepository) AddComment(ctx context.Context, id string, in model.CommentInput) (*model.Comment, error) {
	var c model.Comment
	if err := r.api.JSON(ctx, http.MethodPost, path(postsRoot, id, "comments"), in, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postRepository) AddReply(ctx context.Context, id, commentID string, in model.CommentInput) (*model.Comment, error) {
	var c model.Comment
	if err := r.api.JSON(ctx, http.MethodPost, path(postsRoot, id, "comments", commentID, "replies"), in, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postRepository) DeleteComment(ctx context.Context, id, commentID string) error {
	return r.api.JSON(ctx, http.MethodDelete, path(postsRoot, id, "comments", commentID), nil, nil)
}

func (r *postRepository) React(ctx context.Context, id string, in model.ReactInput) error {
	return r.api.JSON(ctx, http.MethodPost, path(postsRoot, id, "react"), in, nil)
}

func (r *postRepository) Flag(ctx context.Context, id string, in model.FlagInput) error {
	return r.api.JSON(ctx, http.MethodPost, path(postsRoot, id, "flag"), in, nil)
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	return r.api.JSON(ctx, http.MethodDelete, path(postsRoot, id), nil, nil)
}

func (r *postRepository) Flagged(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := r.api.JSON(ctx, http.MethodGet, path(postsRoot, "flagged"), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
