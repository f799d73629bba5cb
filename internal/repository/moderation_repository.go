package repository

import (
	"context"
	"net/http"

	"cyberguard/internal/model"
)

// ModerationRepository wraps POST /moderation/:id.
type ModerationRepository interface {
	Flag(ctx context.Context, postID string, in model.FlagInput) error
}

type moderationRepository struct {
	api API
}

// NewModerationRepository builds an HTTP-backed ModerationRepository.
func NewModerationRepository(api API) ModerationRepository {
	return &moderationRepository{api: api}
}

func (r *moderationRepository) Flag(ctx context.Context, postID string, in model.FlagInput) error {
	return r.api.JSON(ctx, http.MethodPost, path("/moderation", postID), in, nil)
}

// ChatRepository wraps the support chatbot.
type ChatRepository interface {
	Send(ctx context.Context, in model.ChatRequest) (*model.ChatResponse, error)
}

type chatRepository struct {
	api API
}

// NewChatRepository builds an HTTP-backed ChatRepository.
func NewChatRepository(api API) ChatRepository {
	return &chatRepository{api: api}
}

func (r *chatRepository) Send(ctx context.Context, in model.ChatRequest) (*model.ChatResponse, error) {
	var out model.ChatResponse
	if err := r.api.JSON(ctx, http.MethodPost, "/chatbot/chat", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
