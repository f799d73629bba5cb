package model

import "time"

// PostType is the incident category a forum post is filed under.
type PostType string

const (
	PostPhysical PostType = "physical"
	PostVerbal   PostType = "verbal"
	PostCyber    PostType = "cyber"
	PostGeneral  PostType = "general"
)

// Reaction is an emoji left on a post or report.
type Reaction struct {
	Emoji    string `json:"emoji"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Author is the embedded user reference on comments.
type Author struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Comment is a comment on a post. Replies reuse the same shape.
type Comment struct {
	ID        string    `json:"_id"`
	User      Author    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     []string  `json:"likes,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
}

// Post is a community forum post.
type Post struct {
	ID              string     `json:"_id"`
	Type            PostType   `json:"type"`
	Title           string     `json:"title,omitempty"`
	Content         string     `json:"content"`
	Tags            []string   `json:"tags"`
	AdviceRequested bool       `json:"adviceRequested"`
	Escalated       bool       `json:"escalated"`
	IsAnonymous     bool       `json:"isAnonymous"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	Likes           []string   `json:"likes"`
	Reactions       []Reaction `json:"reactions,omitempty"`
	Comments        []Comment  `json:"comments"`
	Flagged         bool       `json:"flagged"`
}

// LikedBy reports whether userID is in the like list.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeResult is the server's answer to a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// CreatePostInput is the body of POST /posts.
type CreatePostInput struct {
	Title           string   `json:"title,omitempty" validate:"max=200"`
	Content         string   `json:"content" validate:"required,min=1,max=5000"`
	Type            PostType `json:"type,omitempty" validate:"omitempty,oneof=physical verbal cyber general"`
	Tags            []string `json:"tags,omitempty" validate:"max=10,dive,required,max=30"`
	AdviceRequested bool     `json:"adviceRequested"`
	IsAnonymous     bool     `json:"isAnonymous"`
}

// CommentInput is the body of comment and reply creation.
type CommentInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// FlagInput carries the reason a post is flagged.
type FlagInput struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// ReactInput carries an emoji reaction.
type ReactInput struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}
