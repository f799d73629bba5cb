package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"cyberguard/internal/app"
	"cyberguard/internal/auth"
	"cyberguard/internal/config"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// SeedData is the demo dataset replayed against the API.
type SeedData struct {
	Users   []SeedUser   `json:"users"`
	Posts   []SeedPost   `json:"posts"`
	Reports []SeedReport `json:"reports"`
}

// SeedUser is an account to register, or to sign in to when it exists.
type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SeedPost is a forum post with comments from other seeded users.
type SeedPost struct {
	Author string `json:"author"`
	model.CreatePostInput
	Comments []SeedComment `json:"comments"`
}

// SeedComment is a comment by a seeded user.
type SeedComment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// SeedReport is an incident report. An empty author submits it signed out.
type SeedReport struct {
	Author string `json:"author"`
	model.ReportInput
}

// Summary counts what a run did.
type Summary struct {
	UsersCreated  int
	UsersExisting int
	Posts         int
	Comments      int
	Reports       int
}

// loadSeed reads seed data from an http(s) URL or a file path.
func loadSeed(ctx context.Context, source string) (*SeedData, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		var err error
		if body, err = fetchSeed(ctx, source); err != nil {
			return nil, err
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	return parseSeed(body)
}

func parseSeed(body []byte) (*SeedData, error) {
	var data SeedData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &data, nil
}

func fetchSeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// seeder replays seed data through one client per user so every post and
// comment is attributed to its author.
type seeder struct {
	cfg    *config.Config
	logger *zap.Logger
	opts   []app.Option
	apps   map[string]*app.App
}

func newSeeder(cfg *config.Config, logger *zap.Logger, opts ...app.Option) *seeder {
	return &seeder{cfg: cfg, logger: logger, opts: opts, apps: map[string]*app.App{}}
}

// client returns a signed-out app with its own in-memory token store.
func (s *seeder) client() (*app.App, error) {
	opts := append([]app.Option{app.WithTokenStore(auth.NewMemoryTokenStore())}, s.opts...)
	return app.New(s.cfg, s.logger, nil, opts...)
}

func (s *seeder) Close() {
	for _, a := range s.apps {
		_ = a.Close()
	}
}

func (s *seeder) Run(ctx context.Context, data *SeedData) (Summary, error) {
	var sum Summary

	for _, u := range data.Users {
		created, err := s.signIn(ctx, u)
		if err != nil {
			return sum, fmt.Errorf("user %s: %w", u.Username, err)
		}
		if created {
			sum.UsersCreated++
		} else {
			sum.UsersExisting++
		}
	}

	for i, p := range data.Posts {
		author, err := s.as(p.Author)
		if err != nil {
			return sum, fmt.Errorf("post %d: %w", i, err)
		}
		post, err := author.Posts.Create(ctx, p.CreatePostInput)
		if err != nil {
			return sum, fmt.Errorf("post %d: %w", i, err)
		}
		sum.Posts++
		for _, c := range p.Comments {
			commenter, err := s.as(c.Author)
			if err != nil {
				return sum, fmt.Errorf("comment on post %d: %w", i, err)
			}
			if _, err := commenter.Posts.AddComment(ctx, post.ID, c.Text); err != nil {
				return sum, fmt.Errorf("comment on post %d: %w", i, err)
			}
			sum.Comments++
		}
	}

	for i, r := range data.Reports {
		reporter, err := s.reporter(r.Author)
		if err != nil {
			return sum, fmt.Errorf("report %d: %w", i, err)
		}
		if _, err := reporter.Reports.Submit(ctx, r.ReportInput); err != nil {
			return sum, fmt.Errorf("report %d: %w", i, err)
		}
		sum.Reports++
	}
	return sum, nil
}

// signIn registers u, falling back to a login when the username is taken.
func (s *seeder) signIn(ctx context.Context, u SeedUser) (created bool, err error) {
	a, err := s.client()
	if err != nil {
		return false, err
	}
	s.apps[u.Username] = a

	_, err = a.Session.Register(ctx, model.RegisterInput{Username: u.Username, Email: u.Email, Password: u.Password})
	switch {
	case err == nil && a.Session.User() != nil:
		return true, nil
	case err == nil:
		created = true
	case errors.Is(err, apperrors.ErrConflict):
		s.logger.Info("user exists, signing in", zap.String("username", u.Username))
	default:
		return false, err
	}
	if _, err := a.Session.Login(ctx, u.Username, u.Password); err != nil {
		return created, err
	}
	return created, nil
}

func (s *seeder) as(username string) (*app.App, error) {
	a, ok := s.apps[username]
	if !ok {
		return nil, fmt.Errorf("unknown author %q", username)
	}
	return a, nil
}

// reporter returns the author's app, or a signed-out one for anonymous reports.
func (s *seeder) reporter(username string) (*app.App, error) {
	if username != "" {
		return s.as(username)
	}
	if a, ok := s.apps[""]; ok {
		return a, nil
	}
	a, err := s.client()
	if err != nil {
		return nil, err
	}
	s.apps[""] = a
	return a, nil
}
