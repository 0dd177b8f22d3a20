package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"tg-link-service/internal/domain"
)

// Notifier доставляет текст пользователю мессенджера
type Notifier interface {
	SendText(ctx context.Context, userID string, text string) (*domain.SentMessage, error)
}

// CodeDeliveryService пересылает коды от партнерской системы в Telegram
type CodeDeliveryService struct {
	notifier Notifier
	secret   string
	logger   *slog.Logger
}

// NewCodeDeliveryService создает сервис; secret сверяется с x-api-key
func NewCodeDeliveryService(notifier Notifier, secret string, logger *slog.Logger) *CodeDeliveryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeDeliveryService{
		notifier: notifier,
		secret:   secret,
		logger:   logger,
	}
}

// Authorized проверяет общий секрет за постоянное время
func (s *CodeDeliveryService) Authorized(secret string) bool {
	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) == 1
}

// FormatCodeMessage - HTML текст с кодом
func FormatCodeMessage(code string) string {
	return fmt.Sprintf("Your authentication code: <b>%s</b>", html.EscapeString(code))
}

// Deliver проверяет запрос и отправляет код. Любой путь возвращает конверт.
func (s *CodeDeliveryService) Deliver(ctx context.Context, secret string, req domain.CodeDeliveryRequest) domain.Envelope {
	if !s.Authorized(secret) {
		s.logger.Warn("invalid API secret provided")
		return ErrorEnvelope(http.StatusUnauthorized, "Invalid API secret.")
	}

	userID := string(req.UserID)
	if err := req.Validate(); err != nil {
		s.logger.Warn("invalid send-message request", "user_id", userID, "error", err)
		if errors.Is(err, domain.ErrInvalidUserID) {
			return ErrorEnvelope(http.StatusBadRequest, "Invalid user_id.")
		}
		return ErrorEnvelope(http.StatusBadRequest, "Code and user_id required.")
	}

	sent, err := s.notifier.SendText(ctx, userID, FormatCodeMessage(req.Code))
	if err != nil {
		s.logger.Error("failed to send message", "user_id", userID, "error", err)
		return ErrorEnvelope(http.StatusInternalServerError, fmt.Sprintf("Failed to send message: %v", err))
	}

	s.logger.Info("message sent", "user_id", userID, "message_id", sent.MessageID)

	data := domain.DeliveryData{
		UserID:    userID,
		MessageID: sent.MessageID,
	}
	if sent.ChatID != 0 {
		chatID := sent.ChatID
		data.ChatID = &chatID
	}
	if !sent.Date.IsZero() {
		date := sent.Date.UTC().Format(time.RFC3339)
		data.Date = &date
	}
	return domain.Envelope{
		Code:    http.StatusOK,
		Status:  domain.StatusSuccess,
		Message: "Message sent successfully",
		Data:    data,
	}
}

// ErrorEnvelope - конверт ошибки без данных
func ErrorEnvelope(code int, message string) domain.Envelope {
	return domain.Envelope{
		Code:    code,
		Status:  domain.StatusError,
		Message: message,
		Data:    nil,
	}
}
