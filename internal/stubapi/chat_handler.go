package stubapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"cyberguard/internal/model"
)

// ChatHandler answers the support chatbot with canned replies.
type ChatHandler struct {
	now func() time.Time
}

// NewChatHandler creates a chat handler.
func NewChatHandler(now func() time.Time) *ChatHandler {
	if now == nil {
		now = time.Now
	}
	return &ChatHandler{now: now}
}

var chatReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"unsafe", "danger", "hurt", "threat"}, "If you are in immediate danger, contact local emergency services. You can also file a report and a moderator will follow up."},
	{[]string{"report"}, "You can report an incident anonymously from the Report Incident form. Only the details you choose to share are stored."},
	{[]string{"cyber", "online", "message", "post"}, "Save screenshots of what happened, block the account and use the platform's own reporting tools as well."},
}

const defaultChatReply = "You are not alone. Tell me more about what happened, or ask how to file a report."

// Chat handles POST /chatbot/chat.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req model.ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.ChatResponse{
		Response:  replyTo(req.Message),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func replyTo(msg string) string {
	lower := strings.ToLower(msg)
	for _, r := range chatReplies {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.reply
			}
		}
	}
	return defaultChatReply
}
