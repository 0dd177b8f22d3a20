package delivery

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"tg-link-service/internal/domain"
	"tg-link-service/internal/service"
)

const startCommand = "/start"

// Replier отвечает в чат, откуда пришла команда
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// StartHandler обрабатывает команду /start из Telegram
type StartHandler struct {
	links   *service.LinkService
	replier Replier
	logger  *slog.Logger
}

func NewStartHandler(links *service.LinkService, replier Replier, logger *slog.Logger) *StartHandler {
	return &StartHandler{
		links:   links,
		replier: replier,
		logger:  logger,
	}
}

// ParseCommand выделяет аргументы команды /start (в том числе /start@bot).
// ok=false - это не /start.
func ParseCommand(text string) (args string, ok bool) {
	text = strings.TrimSpace(text)
	cmd, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		cmd, rest = text[:i], strings.TrimSpace(text[i:])
	}
	if cmd != startCommand && !strings.HasPrefix(cmd, startCommand+"@") {
		return "", false
	}
	return rest, true
}

// Handle проводит привязку и всегда отвечает пользователю
func (h *StartHandler) Handle(ctx context.Context, msg domain.IncomingMessage) {
	args, ok := ParseCommand(msg.Text)
	if !ok {
		return
	}

	res := h.links.HandleStart(ctx, args, strconv.FormatInt(msg.UserID, 10))
	if err := h.replier.Reply(ctx, msg.ChatID, res.Message); err != nil {
		h.logger.Error("failed to reply to start command",
			"chat_id", msg.ChatID, "outcome", res.Outcome, "error", err)
	}
}
