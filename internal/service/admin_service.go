package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/notify"
	"cyberguard/internal/repository"
	"cyberguard/internal/validation"
)

var errSelfDelete = fmt.Errorf("%w: admins cannot delete their own account", apperrors.ErrInvalidInput)

// DashboardService aggregates moderation statistics for admins.
type DashboardService interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type dashboardService struct {
	reports  repository.ReportRepository
	posts    repository.PostRepository
	identity Identity
	notifier notify.Notifier
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(
	reports repository.ReportRepository,
	posts repository.PostRepository,
	identity Identity,
	notifier notify.Notifier,
) DashboardService {
	notifier, _ = orDefaults(notifier, nil)
	return &dashboardService{reports: reports, posts: posts, identity: identity, notifier: notifier}
}

func (s *dashboardService) fail(err error) error {
	s.notifier.Notify(notify.Failure("Failed to load dashboard", err))
	return err
}

// Stats fetches reports and posts in parallel and counts them.
func (s *dashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	if err := s.identity.RequireRole(model.RoleAdmin); err != nil {
		return nil, s.fail(err)
	}

	var (
		reports []model.Report
		posts   []model.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reports, err = s.reports.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = s.posts.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(err)
	}
	return Summarize(reports, posts), nil
}

// Summarize counts totals, flags, statuses and severities.
func Summarize(reports []model.Report, posts []model.Post) *model.DashboardStats {
	stats := &model.DashboardStats{
		TotalReports:      len(reports),
		TotalPosts:        len(posts),
		ReportsByStatus:   make(map[model.ReportStatus]int),
		ReportsBySeverity: make(map[string]int),
	}
	for _, r := range reports {
		if r.Flagged {
			stats.FlaggedReports++
		}
		status := r.Status
		if status == "" {
			status = model.StatusPending
		}
		stats.ReportsByStatus[status]++
		if r.Severity != "" {
			stats.ReportsBySeverity[r.Severity]++
		}
	}
	for _, p := range posts {
		if p.Flagged {
			stats.FlaggedPosts++
		}
	}
	return stats
}

// ModerationService drives the flagged-post review queue and user administration.
type ModerationService interface {
	LoadFlagged(ctx context.Context) ([]model.Post, error)
	Flagged() []model.Post
	DeletePost(ctx context.Context, id string) error
	Dismiss(id string) bool
	FlagForReview(ctx context.Context, postID, reason string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	PromoteUser(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
	CreateAdmin(ctx context.Context, in model.CreateAdminInput) (*model.User, error)
}

type moderationService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	moderation repository.ModerationRepository
	identity   Identity
	notifier   notify.Notifier
	logger     *zap.Logger

	mu    sync.RWMutex
	queue []model.Post
}

// NewModerationService creates a ModerationService with an empty queue.
func NewModerationService(
	posts repository.PostRepository,
	users repository.UserRepository,
	moderation repository.ModerationRepository,
	identity Identity,
	notifier notify.Notifier,
	logger *zap.Logger,
) ModerationService {
	notifier, logger = orDefaults(notifier, logger)
	return &moderationService{
		posts:      posts,
		users:      users,
		moderation: moderation,
		identity:   identity,
		notifier:   notifier,
		logger:     logger.Named("moderation"),
	}
}

func (s *moderationService) fail(message string, err error) error {
	s.notifier.Notify(notify.Failure(message, err))
	return err
}

func (s *moderationService) LoadFlagged(ctx context.Context) ([]model.Post, error) {
	if err := s.identity.RequireRole(model.RoleModerator); err != nil {
		return nil, s.fail("Failed to load flagged posts", err)
	}
	posts, err := s.posts.Flagged(ctx)
	if err != nil {
		return nil, s.fail("Failed to load flagged posts", err)
	}
	s.mu.Lock()
	s.queue = posts
	s.mu.Unlock()
	return clonePosts(posts), nil
}

func (s *moderationService) Flagged() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.queue)
}

func (s *moderationService) DeletePost(ctx context.Context, id string) error {
	if err := s.identity.RequireRole(model.RoleModerator); err != nil {
		return s.fail("Failed to delete post", err)
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return s.fail("Failed to delete post", err)
	}
	s.Dismiss(id)
	s.notifier.Notify(notify.Success("Post deleted", "The flagged post has been removed."))
	return nil
}

// Dismiss drops a post from the local review queue. The backend keeps its flag.
func (s *moderationService) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.logger.Debug("dismissed from review queue", zap.String("post", id))
			return true
		}
	}
	return false
}

func (s *moderationService) FlagForReview(ctx context.Context, postID, reason string) error {
	if err := s.identity.RequireRole(model.RoleUser); err != nil {
		return s.fail("Failed to flag post for moderation", err)
	}
	in := model.FlagInput{Reason: strings.TrimSpace(reason)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to flag post for moderation", err)
	}
	if err := s.moderation.Flag(ctx, postID, in); err != nil {
		return s.fail("Failed to flag post for moderation", err)
	}
	s.notifier.Notify(notify.Success("Sent for review", "A moderator will look at this post."))
	return nil
}

func (s *moderationService) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := s.identity.RequireRole(model.RoleAdmin); err != nil {
		return nil, s.fail("Failed to fetch users", err)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.fail("Failed to fetch users", err)
	}
	return users, nil
}

func (s *moderationService) PromoteUser(ctx context.Context, id string) error {
	if err := s.identity.RequireRole(model.RoleAdmin); err != nil {
		return s.fail("Failed to promote user", err)
	}
	msg, err := s.users.Promote(ctx, id)
	if err != nil {
		return s.fail("Failed to promote user", err)
	}
	s.notifier.Notify(notify.Success("User promoted", orText(msg.Message, "The user is now an admin.")))
	return nil
}

func (s *moderationService) DeleteUser(ctx context.Context, id string) error {
	if err := s.identity.RequireRole(model.RoleAdmin); err != nil {
		return s.fail("Failed to delete user", err)
	}
	if u := s.identity.User(); u != nil && u.ID == id {
		return s.fail("Failed to delete user", errSelfDelete)
	}
	msg, err := s.users.Delete(ctx, id)
	if err != nil {
		return s.fail("Failed to delete user", err)
	}
	s.notifier.Notify(notify.Success("User deleted", orText(msg.Message, "The account has been removed.")))
	return nil
}

func (s *moderationService) CreateAdmin(ctx context.Context, in model.CreateAdminInput) (*model.User, error) {
	if err := s.identity.RequireRole(model.RoleAdmin); err != nil {
		return nil, s.fail("Failed to create admin", err)
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, s.fail("Failed to create admin", err)
	}
	user, err := s.users.CreateAdmin(ctx, in)
	if err != nil {
		return nil, s.fail("Failed to create admin", err)
	}
	s.notifier.Notify(notify.Success("Admin created", user.Username))
	return user, nil
}

// ChatService talks to the support chatbot.
type ChatService interface {
	Send(ctx context.Context, message string) (*model.ChatResponse, error)
}

type chatService struct {
	repo     repository.ChatRepository
	notifier notify.Notifier
}

// NewChatService creates a ChatService.
func NewChatService(repo repository.ChatRepository, notifier notify.Notifier) ChatService {
	notifier, _ = orDefaults(notifier, nil)
	return &chatService{repo: repo, notifier: notifier}
}

func (s *chatService) Send(ctx context.Context, message string) (*model.ChatResponse, error) {
	in := model.ChatRequest{Message: strings.TrimSpace(message)}
	if err := validation.Struct(in); err != nil {
		return nil, s.fail(err)
	}
	res, err := s.repo.Send(ctx, in)
	if err != nil {
		return nil, s.fail(err)
	}
	return res, nil
}

func (s *chatService) fail(err error) error {
	s.notifier.Notify(notify.Failure("Failed to send message to chatbot", err))
	return err
}

func orText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
