// Package stubapi is an in-memory stand-in for the CyberGuard REST API. It
// serves the endpoints the client consumes so the client can be exercised
// end to end without the hosted backend.
package stubapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type account struct {
	user model.User
	hash []byte
}

// Store keeps users, posts and reports in memory. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	names    map[string]string
	posts    []*model.Post
	reports  []*model.Report
	now      func() time.Time
	cost     int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock replaces the time source used for timestamps.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) StoreOption {
	return func(s *Store) { s.cost = cost }
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		accounts: make(map[string]*account),
		names:    make(map[string]string),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
}

// CreateUser registers an account. Usernames are unique case-insensitively.
func (s *Store) CreateUser(username, email, password, role string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, exists := s.names[key]; exists {
		return model.User{}, fmt.Errorf("%w: username %s is taken", apperrors.ErrConflict, username)
	}
	if role == "" {
		role = model.RoleUser
	}
	u := model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Role:      role,
		IsAdmin:   role == model.RoleAdmin,
		CreatedAt: s.now().UTC(),
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.names[key] = u.ID
	return u, nil
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (model.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[s.names[strings.ToLower(username)]]
	s.mu.RUnlock()
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// User returns the account with id.
func (s *Store) User(id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return model.User{}, notFound("user", id)
	}
	return acc.user, nil
}

// Users lists accounts, oldest first.
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.user)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// UpdateProfile applies the non-nil fields of in.
func (s *Store) UpdateProfile(id string, in model.ProfileUpdate) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return model.User{}, notFound("user", id)
	}
	if in.Username != nil && !strings.EqualFold(*in.Username, acc.user.Username) {
		key := strings.ToLower(*in.Username)
		if _, taken := s.names[key]; taken {
			return model.User{}, fmt.Errorf("%w: username %s is taken", apperrors.ErrConflict, *in.Username)
		}
		delete(s.names, strings.ToLower(acc.user.Username))
		s.names[key] = id
	}
	if in.Username != nil {
		acc.user.Username = *in.Username
	}
	if in.Email != nil {
		acc.user.Email = *in.Email
	}
	return acc.user, nil
}

// Promote makes the account an admin.
func (s *Store) Promote(id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return model.User{}, notFound("user", id)
	}
	acc.user.Role = model.RoleAdmin
	acc.user.IsAdmin = true
	return acc.user, nil
}

// DeleteUser removes the account. Its posts and reports stay.
func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return notFound("user", id)
	}
	delete(s.names, strings.ToLower(acc.user.Username))
	delete(s.accounts, id)
	return nil
}

// Posts returns all posts, newest first.
func (s *Store) Posts() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postsWhere(func(*model.Post) bool { return true })
}

// FlaggedPosts returns posts waiting for moderation.
func (s *Store) FlaggedPosts() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postsWhere(func(p *model.Post) bool { return p.Flagged })
}

func (s *Store) postsWhere(keep func(*model.Post) bool) []model.Post {
	out := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, copyPost(p))
		}
	}
	return out
}

func (s *Store) post(id string) (*model.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, notFound("post", id)
}

// Post returns one post.
func (s *Store) Post(id string) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.post(id)
	if err != nil {
		return model.Post{}, err
	}
	return copyPost(p), nil
}

// CreatePost stores a post written by author.
func (s *Store) CreatePost(author model.User, in model.CreatePostInput) model.Post {
	if in.Type == "" {
		in.Type = model.PostGeneral
	}
	p := &model.Post{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Title:           in.Title,
		Content:         in.Content,
		Tags:            append([]string{}, in.Tags...),
		AdviceRequested: in.AdviceRequested,
		IsAnonymous:     in.IsAnonymous,
		CreatedBy:       author.ID,
		CreatedAt:       s.now().UTC(),
		Likes:           []string{},
		Comments:        []model.Comment{},
	}
	s.mu.Lock()
	s.posts = append([]*model.Post{p}, s.posts...)
	s.mu.Unlock()
	return copyPost(p)
}

// ToggleLike adds or removes userID from the post's likes.
func (s *Store) ToggleLike(postID, userID string) (model.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return model.LikeResult{}, err
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return model.LikeResult{Liked: false, LikesCount: len(p.Likes)}, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return model.LikeResult{Liked: true, LikesCount: len(p.Likes)}, nil
}

func (s *Store) newComment(author model.User, text string) model.Comment {
	return model.Comment{
		ID:        uuid.NewString(),
		User:      model.Author{ID: author.ID, Username: author.Username},
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
}

// AddComment appends a top-level comment.
func (s *Store) AddComment(postID string, author model.User, text string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return model.Comment{}, err
	}
	c := s.newComment(author, text)
	p.Comments = append(p.Comments, c)
	return c, nil
}

// AddReply appends a reply to a top-level comment.
func (s *Store) AddReply(postID, commentID string, author model.User, text string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return model.Comment{}, err
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			c := s.newComment(author, text)
			p.Comments[i].Replies = append(p.Comments[i].Replies, c)
			return c, nil
		}
	}
	return model.Comment{}, notFound("comment", commentID)
}

// DeleteComment removes a comment or reply. Only its author or a moderator may.
func (s *Store) DeleteComment(postID, commentID string, actor model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return err
	}
	c := findComment(p.Comments, commentID)
	if c == nil {
		return notFound("comment", commentID)
	}
	if c.User.ID != actor.ID && !actor.HasRole(model.RoleModerator) {
		return fmt.Errorf("%w: not the author of this comment", apperrors.ErrForbidden)
	}
	p.Comments = dropComment(p.Comments, commentID)
	return nil
}

// ReactPost sets the user's reaction. Repeating the same emoji removes it.
func (s *Store) ReactPost(postID string, r model.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return err
	}
	p.Reactions = react(p.Reactions, r)
	return nil
}

// FlagPost marks a post for moderation.
func (s *Store) FlagPost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.post(postID)
	if err != nil {
		return err
	}
	p.Flagged = true
	return nil
}

// DeletePost removes a post. Only its author or a moderator may.
func (s *Store) DeletePost(postID string, actor model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != postID {
			continue
		}
		if p.CreatedBy != actor.ID && !actor.HasRole(model.RoleModerator) {
			return fmt.Errorf("%w: not the author of this post", apperrors.ErrForbidden)
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		return nil
	}
	return notFound("post", postID)
}

// Reports returns all reports, newest first.
func (s *Store) Reports() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reportsWhere(func(*model.Report) bool { return true })
}

// FlaggedReports returns reports flagged for attention.
func (s *Store) FlaggedReports() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reportsWhere(func(r *model.Report) bool { return r.Flagged })
}

func (s *Store) reportsWhere(keep func(*model.Report) bool) []model.Report {
	out := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if keep(r) {
			out = append(out, copyReport(r))
		}
	}
	return out
}

func (s *Store) report(id string) (*model.Report, error) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, notFound("report", id)
}

// Report returns one report.
func (s *Store) Report(id string) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.report(id)
	if err != nil {
		return model.Report{}, err
	}
	return copyReport(r), nil
}

// CreateReport files an incident. createdBy is empty for anonymous reports.
func (s *Store) CreateReport(in model.ReportInput, createdBy string) model.Report {
	r := &model.Report{
		ID:           uuid.NewString(),
		Title:        in.Title,
		IncidentType: in.IncidentType,
		Severity:     in.Severity,
		Description:  in.Description,
		Location:     in.Location,
		Platform:     in.Platform,
		Evidence:     in.Evidence,
		YourRole:     in.YourRole,
		Date:         in.Date,
		IsAnonymous:  in.Anonymous || createdBy == "",
		Flagged:      in.Flagged,
		Status:       model.StatusPending,
		CreatedBy:    createdBy,
		CreatedAt:    s.now().UTC(),
		Reactions:    []model.Reaction{},
		Updates:      []model.ReportUpdate{},
	}
	s.mu.Lock()
	s.reports = append([]*model.Report{r}, s.reports...)
	s.mu.Unlock()
	return copyReport(r)
}

// FlagReport marks a report for attention.
func (s *Store) FlagReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.report(id)
	if err != nil {
		return err
	}
	r.Flagged = true
	return nil
}

// DeleteReport removes a report.
func (s *Store) DeleteReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return nil
		}
	}
	return notFound("report", id)
}

// ReactReport sets the user's reaction on a report.
func (s *Store) ReactReport(id string, reaction model.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.report(id)
	if err != nil {
		return err
	}
	r.Reactions = react(r.Reactions, reaction)
	return nil
}

// AddReportUpdate appends a progress entry. A non-empty status replaces the
// report's status.
func (s *Store) AddReportUpdate(id, message, by string, status model.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.report(id)
	if err != nil {
		return err
	}
	r.Updates = append(r.Updates, model.ReportUpdate{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: s.now().UTC(),
		CreatedBy: by,
	})
	if status != "" {
		r.Status = status
	}
	return nil
}

func react(list []model.Reaction, r model.Reaction) []model.Reaction {
	for i := range list {
		if list[i].UserID != r.UserID {
			continue
		}
		if list[i].Emoji == r.Emoji {
			return append(list[:i], list[i+1:]...)
		}
		list[i] = r
		return list
	}
	return append(list, r)
}

func findComment(list []model.Comment, id string) *model.Comment {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
		if c := findComment(list[i].Replies, id); c != nil {
			return c
		}
	}
	return nil
}

func dropComment(list []model.Comment, id string) []model.Comment {
	out := list[:0]
	for _, c := range list {
		if c.ID == id {
			continue
		}
		c.Replies = dropComment(c.Replies, id)
		out = append(out, c)
	}
	return out
}

func copyComments(in []model.Comment) []model.Comment {
	if in == nil {
		return nil
	}
	out := make([]model.Comment, len(in))
	for i, c := range in {
		c.Likes = append([]string(nil), c.Likes...)
		c.Replies = copyComments(c.Replies)
		out[i] = c
	}
	return out
}

func copyPost(p *model.Post) model.Post {
	out := *p
	out.Tags = append([]string{}, p.Tags...)
	out.Likes = append([]string{}, p.Likes...)
	out.Reactions = append([]model.Reaction(nil), p.Reactions...)
	out.Comments = copyComments(p.Comments)
	if out.Comments == nil {
		out.Comments = []model.Comment{}
	}
	return out
}

func copyReport(r *model.Report) model.Report {
	out := *r
	out.Reactions = append([]model.Reaction{}, r.Reactions...)
	out.Updates = append([]model.ReportUpdate{}, r.Updates...)
	return out
}
