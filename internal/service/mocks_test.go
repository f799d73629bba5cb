package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// MockAuthRepository is a mock implementation of AuthRepository.
type MockAuthRepository struct {
	mock.Mock
}

func (m *MockAuthRepository) Login(ctx context.Context, in model.LoginInput) (*model.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthRepository) Register(ctx context.Context, in model.RegisterInput) (*model.AuthResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthRepository) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuthRepository) CurrentUser(ctx context.Context) (*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthRepository) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockPostRepository is a mock implementation of PostRepository.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) List(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) ToggleLike(ctx context.Context, id string) (*model.LikeResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LikeResult), args.Error(1)
}

func (m *MockPostRepository) AddComment(ctx context.Context, id string, in model.CommentInput) (*model.Comment, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockPostRepository) AddReply(ctx context.Context, id, commentID string, in model.CommentInput) (*model.Comment, error) {
	args := m.Called(ctx, id, commentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockPostRepository) DeleteComment(ctx context.Context, id, commentID string) error {
	return m.Called(ctx, id, commentID).Error(0)
}

func (m *MockPostRepository) React(ctx context.Context, id string, in model.ReactInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockPostRepository) Flag(ctx context.Context, id string, in model.FlagInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) Flagged(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository.
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) List(ctx context.Context) ([]model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func (m *MockReportRepository) Flagged(ctx context.Context) ([]model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func (m *MockReportRepository) Get(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) Create(ctx context.Context, in model.ReportInput) (*model.Report, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) Flag(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReportRepository) React(ctx context.Context, id string, in model.ReactInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockReportRepository) UpdateProgress(ctx context.Context, id string, in model.ProgressInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockReportRepository) AddUpdate(ctx context.Context, id string, in model.ProgressInput) error {
	return m.Called(ctx, id, in).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) CreateAdmin(ctx context.Context, in model.CreateAdminInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Promote(ctx context.Context, id string) (*model.MessageResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResponse), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) (*model.MessageResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResponse), args.Error(1)
}

// MockModerationRepository is a mock implementation of ModerationRepository.
type MockModerationRepository struct {
	mock.Mock
}

func (m *MockModerationRepository) Flag(ctx context.Context, postID string, in model.FlagInput) error {
	return m.Called(ctx, postID, in).Error(0)
}

// MockChatRepository is a mock implementation of ChatRepository.
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Send(ctx context.Context, in model.ChatRequest) (*model.ChatResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatResponse), args.Error(1)
}

// staticIdentity is a fixed Identity for service tests.
type staticIdentity struct {
	mu   sync.Mutex
	user *model.User
}

func as(u *model.User) *staticIdentity { return &staticIdentity{user: u} }

func (s *staticIdentity) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *staticIdentity) RequireRole(role string) error {
	u := s.User()
	if u == nil {
		return apperrors.ErrUnauthenticated
	}
	if !u.HasRole(role) {
		return apperrors.ErrForbidden
	}
	return nil
}

var (
	alice = &model.User{ID: "u-alice", Username: "alice", Role: model.RoleUser}
	admin = &model.User{ID: "u-admin", Username: "root", Role: model.RoleAdmin, IsAdmin: true}
)
