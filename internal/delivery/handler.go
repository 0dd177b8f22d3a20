package delivery

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tg-link-service/internal/domain"
	"tg-link-service/internal/service"
)

// APIKeyHeader - заголовок с общим секретом
const APIKeyHeader = "x-api-key"

// PartnerAuthenticator - повторная авторизация тенантов и их состояние
type PartnerAuthenticator interface {
	AuthenticateAll(ctx context.Context) []domain.TenantAuthResult
	Status() (tenants, authenticated int)
}

// Handler обрабатывает входящие HTTP запросы партнерской системы
type Handler struct {
	delivery *service.CodeDeliveryService
	partner  PartnerAuthenticator
	logger   *slog.Logger
}

func NewHandler(delivery *service.CodeDeliveryService, partner PartnerAuthenticator, logger *slog.Logger) *Handler {
	return &Handler{
		delivery: delivery,
		partner:  partner,
		logger:   logger,
	}
}

// SendMessage - доставка кода пользователю Telegram
// POST /send-message
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	secret := c.Get(APIKeyHeader)
	if !h.delivery.Authorized(secret) {
		h.logger.Warn("invalid API secret provided", "request_id", requestID(c))
		return respondUnauthorized(c, "Invalid API secret.")
	}

	var req domain.CodeDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("failed to parse send-message request", "request_id", requestID(c), "error", err)
		return respondBadRequest(c, "Invalid request body")
	}

	return respond(c, h.delivery.Deliver(c.UserContext(), secret, req))
}

// Reauth - повторная авторизация всех тенантов оператором
// POST /admin/reauth
func (h *Handler) Reauth(c *fiber.Ctx) error {
	if !h.delivery.Authorized(c.Get(APIKeyHeader)) {
		h.logger.Warn("invalid API secret provided for reauth", "request_id", requestID(c))
		return respondUnauthorized(c, "Invalid API secret.")
	}

	results := h.partner.AuthenticateAll(c.UserContext())
	failed := 0
	for _, r := range results {
		if !r.Authenticated {
			failed++
		}
	}
	h.logger.Info("reauth finished", "tenants", len(results), "failed", failed)

	return respondOK(c, "Authentication finished", results)
}

// Health - число тенантов и активных сессий
// GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	tenants, authenticated := h.partner.Status()
	return respondOK(c, "OK", fiber.Map{
		"tenants":       tenants,
		"authenticated": authenticated,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
