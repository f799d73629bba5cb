package stubapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cyberguard/internal/model"
)

// PostHandler serves the community forum.
type PostHandler struct {
	store *Store
}

// NewPostHandler creates a post handler.
func NewPostHandler(store *Store) *PostHandler {
	return &PostHandler{store: store}
}

// ListPosts handles GET /posts.
func (h *PostHandler) ListPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Posts())
}

// FlaggedPosts handles GET /posts/flagged.
func (h *PostHandler) FlaggedPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.FlaggedPosts())
}

// GetPost handles GET /posts/:id.
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.store.Post(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.CreatePostInput
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	return c.JSON(http.StatusCreated, h.store.CreatePost(user, req))
}

// ToggleLike handles POST /posts/:id/like.
func (h *PostHandler) ToggleLike(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	res, err := h.store.ToggleLike(c.Param("id"), user.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// AddComment handles POST /posts/:id/comments.
func (h *PostHandler) AddComment(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.CommentInput
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.store.AddComment(c.Param("id"), user, req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// AddReply handles POST /posts/:id/comments/:cid/replies.
func (h *PostHandler) AddReply(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.CommentInput
	if err := bind(c, &req); err != nil {
		return err
	}
	reply, err := h.store.AddReply(c.Param("id"), c.Param("cid"), user, req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, reply)
}

// DeleteComment handles DELETE /posts/:id/comments/:cid.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	if err := h.store.DeleteComment(c.Param("id"), c.Param("cid"), user); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Comment deleted")
}

// React handles POST /posts/:id/react.
func (h *PostHandler) React(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.ReactInput
	if err := bind(c, &req); err != nil {
		return err
	}
	reaction := model.Reaction{Emoji: req.Emoji, UserID: user.ID, Username: user.Username}
	if err := h.store.ReactPost(c.Param("id"), reaction); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Reaction saved")
}

// FlagPost handles POST /posts/:id/flag and POST /moderation/:id.
func (h *PostHandler) FlagPost(c echo.Context) error {
	var req model.FlagInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.store.FlagPost(c.Param("id")); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Post flagged for review")
}

// DeletePost handles DELETE /posts/:id.
func (h *PostHandler) DeletePost(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	if err := h.store.DeletePost(c.Param("id"), user); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Post deleted")
}
