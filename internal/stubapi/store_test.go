package stubapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

func newTestStore(t *testing.T) (*Store, model.User, model.User) {
	t.Helper()
	s := NewStore(WithBcryptCost(bcrypt.MinCost))
	alice, err := s.CreateUser("alice", "alice@example.com", "secret1", "")
	require.NoError(t, err)
	root, err := s.CreateUser("root", "root@example.com", "rootpass", model.RoleAdmin)
	require.NoError(t, err)
	return s, alice, root
}

func TestStore_Users(t *testing.T) {
	s, alice, root := newTestStore(t)

	assert.Equal(t, model.RoleUser, alice.Role)
	assert.True(t, root.IsAdmin)

	_, err := s.CreateUser("ALICE", "x@example.com", "secret1", "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	u, err := s.Authenticate("Alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = s.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	name := "alicia"
	updated, err := s.UpdateProfile(alice.ID, model.ProfileUpdate{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	_, err = s.Authenticate("alicia", "secret1")
	assert.NoError(t, err)

	taken := "root"
	_, err = s.UpdateProfile(alice.ID, model.ProfileUpdate{Username: &taken})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	promoted, err := s.Promote(alice.ID)
	require.NoError(t, err)
	assert.True(t, promoted.HasRole(model.RoleAdmin))

	require.NoError(t, s.DeleteUser(alice.ID))
	assert.ErrorIs(t, s.DeleteUser(alice.ID), apperrors.ErrNotFound)
	assert.Len(t, s.Users(), 1)
}

func TestStore_PostLifecycle(t *testing.T) {
	s, alice, root := newTestStore(t)

	p := s.CreatePost(alice, model.CreatePostInput{Content: "hello"})
	assert.Equal(t, model.PostGeneral, p.Type)

	res, err := s.ToggleLike(p.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: true, LikesCount: 1}, res)
	res, err = s.ToggleLike(p.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: false, LikesCount: 0}, res)

	c, err := s.AddComment(p.ID, alice, "first")
	require.NoError(t, err)
	r, err := s.AddReply(p.ID, c.ID, root, "reply")
	require.NoError(t, err)
	_, err = s.AddReply(p.ID, "missing", root, "reply")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, s.DeleteComment(p.ID, r.ID, alice), apperrors.ErrForbidden)
	require.NoError(t, s.DeleteComment(p.ID, r.ID, root))
	got, err := s.Post(p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Empty(t, got.Comments[0].Replies)

	require.NoError(t, s.ReactPost(p.ID, model.Reaction{Emoji: "❤️", UserID: alice.ID}))
	require.NoError(t, s.ReactPost(p.ID, model.Reaction{Emoji: "👍", UserID: alice.ID}))
	got, _ = s.Post(p.ID)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, "👍", got.Reactions[0].Emoji)
	require.NoError(t, s.ReactPost(p.ID, model.Reaction{Emoji: "👍", UserID: alice.ID}))
	got, _ = s.Post(p.ID)
	assert.Empty(t, got.Reactions)

	require.NoError(t, s.FlagPost(p.ID))
	assert.Len(t, s.FlaggedPosts(), 1)

	other, err := s.CreateUser("bob", "bob@example.com", "secret1", "")
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeletePost(p.ID, other), apperrors.ErrForbidden)
	require.NoError(t, s.DeletePost(p.ID, alice))
	assert.ErrorIs(t, s.DeletePost(p.ID, alice), apperrors.ErrNotFound)
}

func TestStore_CopiesAreIsolated(t *testing.T) {
	s, alice, _ := newTestStore(t)
	p := s.CreatePost(alice, model.CreatePostInput{Content: "hello", Tags: []string{"a"}})
	_, err := s.AddComment(p.ID, alice, "first")
	require.NoError(t, err)

	got, _ := s.Post(p.ID)
	got.Tags[0] = "tampered"
	got.Comments[0].Text = "tampered"

	again, _ := s.Post(p.ID)
	assert.Equal(t, "a", again.Tags[0])
	assert.Equal(t, "first", again.Comments[0].Text)
}

func TestStore_Reports(t *testing.T) {
	s, alice, _ := newTestStore(t)

	anon := s.CreateReport(model.ReportInput{Description: "anonymous incident", Severity: "low"}, "")
	assert.True(t, anon.IsAnonymous)
	assert.Equal(t, model.StatusPending, anon.Status)

	named := s.CreateReport(model.ReportInput{Description: "named incident", Severity: "high"}, alice.ID)
	assert.False(t, named.IsAnonymous)
	assert.Equal(t, named.ID, s.Reports()[0].ID, "newest first")

	require.NoError(t, s.FlagReport(anon.ID))
	assert.Len(t, s.FlaggedReports(), 1)

	require.NoError(t, s.AddReportUpdate(anon.ID, "looking into it", "root", model.StatusReviewed))
	require.NoError(t, s.AddReportUpdate(anon.ID, "still on it", "root", ""))
	got, err := s.Report(anon.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewed, got.Status)
	assert.Len(t, got.Updates, 2)

	require.NoError(t, s.DeleteReport(anon.ID))
	assert.Empty(t, s.FlaggedReports())
	assert.ErrorIs(t, s.DeleteReport(anon.ID), apperrors.ErrNotFound)
}
