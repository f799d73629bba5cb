package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/notify"
	"cyberguard/internal/repository"
	"cyberguard/internal/validation"
)

// PostService keeps a local copy of the forum and reconciles it with every
// confirmed mutation.
type PostService interface {
	Load(ctx context.Context) ([]model.Post, error)
	Posts() []model.Post
	Post(id string) (*model.Post, bool)
	Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error)
	ToggleLike(ctx context.Context, postID string) (*model.LikeResult, error)
	AddComment(ctx context.Context, postID, text string) (*model.Comment, error)
	AddReply(ctx context.Context, postID, commentID, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	React(ctx context.Context, postID, emoji string) error
	Flag(ctx context.Context, postID, reason string) error
	Delete(ctx context.Context, postID string) error
	Sync(ctx context.Context, interval time.Duration) error
}

type postService struct {
	repo     repository.PostRepository
	identity Identity
	notifier notify.Notifier
	logger   *zap.Logger

	mu    sync.RWMutex
	posts []model.Post
}

// NewPostService creates a PostService with an empty local list.
func NewPostService(repo repository.PostRepository, identity Identity, notifier notify.Notifier, logger *zap.Logger) PostService {
	notifier, logger = orDefaults(notifier, logger)
	return &postService{
		repo:     repo,
		identity: identity,
		notifier: notifier,
		logger:   logger.Named("posts"),
	}
}

func (s *postService) fail(message string, err error) error {
	s.notifier.Notify(notify.Failure(message, err))
	return err
}

// Load replaces the local list with the server's.
func (s *postService) Load(ctx context.Context) ([]model.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("Failed to load posts", err)
	}
	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return clonePosts(posts), nil
}

func (s *postService) Posts() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.posts)
}

func (s *postService) Post(id string) (*model.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	p := clonePost(s.posts[i])
	return &p, true
}

// index must be called with mu held.
func (s *postService) index(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// update applies fn to the cached post; it reports false when the post is not cached.
func (s *postService) update(id string, fn func(p *model.Post)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	fn(&s.posts[i])
	return true
}

func (s *postService) upsert(p model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(p.ID); i >= 0 {
		s.posts[i] = p
		return
	}
	s.posts = append([]model.Post{p}, s.posts...)
}

// refetch replaces the cached post with the server's copy. The mutation that
// triggered it already succeeded, so a failure here is only logged.
func (s *postService) refetch(ctx context.Context, id string) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.mu.Lock()
			if i := s.index(id); i >= 0 {
				s.posts = append(s.posts[:i], s.posts[i+1:]...)
			}
			s.mu.Unlock()
			return
		}
		s.logger.Warn("refetch post", zap.String("post", id), zap.Error(err))
		return
	}
	s.upsert(*p)
}

func (s *postService) Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Title = strings.TrimSpace(in.Title)
	if in.Type == "" {
		in.Type = model.PostGeneral
	}
	if err := validation.Struct(in); err != nil {
		return nil, s.fail("Failed to create post", err)
	}
	post, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, s.fail("Failed to create post", err)
	}
	if post.ID == "" {
		if _, err := s.Load(ctx); err != nil {
			s.logger.Warn("reload after create", zap.Error(err))
		}
	} else {
		s.upsert(*post)
	}
	s.notifier.Notify(notify.Success("Post created", "Your post has been shared with the community."))
	return post, nil
}

// ToggleLike flips the current user's like. The cached like list follows the
// server's answer; when its length disagrees with the confirmed count the post
// is refetched.
func (s *postService) ToggleLike(ctx context.Context, postID string) (*model.LikeResult, error) {
	res, err := s.repo.ToggleLike(ctx, postID)
	if err != nil {
		return nil, s.fail("Failed to update like", err)
	}

	consistent := false
	if u := s.identity.User(); u != nil {
		s.update(postID, func(p *model.Post) {
			p.Likes = withoutID(p.Likes, u.ID)
			if res.Liked {
				p.Likes = append(p.Likes, u.ID)
			}
			consistent = len(p.Likes) == res.LikesCount
		})
	}
	if !consistent {
		s.refetch(ctx, postID)
	}

	if res.Liked {
		s.notifier.Notify(notify.Success("Post liked!", "You liked this post."))
	} else {
		s.notifier.Notify(notify.Success("Like removed", "You unliked this post."))
	}
	return res, nil
}

func (s *postService) AddComment(ctx context.Context, postID, text string) (*model.Comment, error) {
	in := model.CommentInput{Text: strings.TrimSpace(text)}
	if err := validation.Struct(in); err != nil {
		return nil, s.fail("Failed to add comment", err)
	}
	c, err := s.repo.AddComment(ctx, postID, in)
	if err != nil {
		return nil, s.fail("Failed to add comment", err)
	}
	if c.ID == "" || !s.update(postID, func(p *model.Post) { p.Comments = append(p.Comments, *c) }) {
		s.refetch(ctx, postID)
	}
	s.notifier.Notify(notify.Success("Comment added!", "Your comment has been posted."))
	return c, nil
}

func (s *postService) AddReply(ctx context.Context, postID, commentID, text string) (*model.Comment, error) {
	in := model.CommentInput{Text: strings.TrimSpace(text)}
	if err := validation.Struct(in); err != nil {
		return nil, s.fail("Failed to add reply", err)
	}
	reply, err := s.repo.AddReply(ctx, postID, commentID, in)
	if err != nil {
		return nil, s.fail("Failed to add reply", err)
	}
	applied := false
	if reply.ID != "" {
		s.update(postID, func(p *model.Post) {
			for i := range p.Comments {
				if p.Comments[i].ID == commentID {
					p.Comments[i].Replies = append(p.Comments[i].Replies, *reply)
					applied = true
					return
				}
			}
		})
	}
	if !applied {
		s.refetch(ctx, postID)
	}
	s.notifier.Notify(notify.Success("Reply added!", "Your reply has been posted."))
	return reply, nil
}

func (s *postService) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := s.repo.DeleteComment(ctx, postID, commentID); err != nil {
		return s.fail("Failed to delete comment", err)
	}
	s.update(postID, func(p *model.Post) { p.Comments = withoutComment(p.Comments, commentID) })
	s.notifier.Notify(notify.Success("Comment deleted", "The comment has been removed."))
	return nil
}

// React adds an emoji reaction. The server's reaction list is authoritative
// so the post is refetched.
func (s *postService) React(ctx context.Context, postID, emoji string) error {
	in := model.ReactInput{Emoji: strings.TrimSpace(emoji)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to add reaction", err)
	}
	if err := s.repo.React(ctx, postID, in); err != nil {
		return s.fail("Failed to add reaction", err)
	}
	s.refetch(ctx, postID)
	s.notifier.Notify(notify.Success("Reaction added", fmt.Sprintf("Reacted with %s", in.Emoji)))
	return nil
}

func (s *postService) Flag(ctx context.Context, postID, reason string) error {
	in := model.FlagInput{Reason: strings.TrimSpace(reason)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to flag post", err)
	}
	if err := s.repo.Flag(ctx, postID, in); err != nil {
		return s.fail("Failed to flag post", err)
	}
	s.refetch(ctx, postID)
	s.notifier.Notify(notify.Success("Post flagged",
		"Thank you for reporting. This post will be reviewed by our moderation team."))
	return nil
}

// Delete removes the post once the server confirms. Deleting a post that no
// longer exists fails and leaves the cache untouched.
func (s *postService) Delete(ctx context.Context, postID string) error {
	if err := s.repo.Delete(ctx, postID); err != nil {
		return s.fail("Failed to delete post", err)
	}
	s.mu.Lock()
	if i := s.index(postID); i >= 0 {
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
	}
	s.mu.Unlock()
	s.notifier.Notify(notify.Success("Post deleted", "The post has been permanently removed."))
	return nil
}

// Sync reloads the list every interval until ctx is cancelled.
func (s *postService) Sync(ctx context.Context, interval time.Duration) error {
	return poll(ctx, interval, func(ctx context.Context) {
		posts, err := s.repo.List(ctx)
		if err != nil {
			s.logger.Debug("sync posts", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.posts = posts
		s.mu.Unlock()
	})
}

func withoutID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// withoutComment drops the comment or reply with id at any depth.
func withoutComment(comments []model.Comment, id string) []model.Comment {
	out := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ID == id {
			continue
		}
		c.Replies = withoutComment(c.Replies, id)
		out = append(out, c)
	}
	return out
}

func clonePosts(in []model.Post) []model.Post {
	if in == nil {
		return nil
	}
	out := make([]model.Post, len(in))
	for i := range in {
		out[i] = clonePost(in[i])
	}
	return out
}

func clonePost(p model.Post) model.Post {
	p.Tags = append([]string(nil), p.Tags...)
	p.Likes = append([]string(nil), p.Likes...)
	p.Reactions = append([]model.Reaction(nil), p.Reactions...)
	p.Comments = cloneComments(p.Comments)
	return p
}

func cloneComments(in []model.Comment) []model.Comment {
	if in == nil {
		return nil
	}
	out := make([]model.Comment, len(in))
	for i, c := range in {
		c.Likes = append([]string(nil), c.Likes...)
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}
